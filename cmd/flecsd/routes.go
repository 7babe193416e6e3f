package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"flecsd/internal/contextutil"
	"flecsd/internal/jobs"
	"flecsd/internal/pubsub"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

func newRouter(s *server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(loggingMiddleware(s.log))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(withDeployment(s))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/v2/jobs/{job_id}", func(r chi.Router) {
		r.Get("/", s.handleGetJob)
		r.Delete("/", s.handleDeleteJob)
		r.Get("/watch", s.handleWatchJob)
	})

	r.Get("/v2/instances/{instance_id}", s.handleGetInstance)

	return r
}

func withDeployment(s *server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := contextutil.WithDeployment(r.Context(), s.deploy)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

func parseJobID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "job_id"))
}

// handleGetJob implements GET /v2/jobs/{job_id}: 200 with the job's
// current view, 404 if the id is unknown.
func (s *server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidJobId")
		return
	}

	view, err := s.jobs.GetJob(id)
	if errors.Is(err, jobs.ErrUnknownJob) {
		writeError(w, http.StatusNotFound, "NotFound")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "InternalError")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleDeleteJob implements DELETE /v2/jobs/{job_id}: 200 on success, 400
// JobNotFinished while the job is still running, 404 if unknown.
func (s *server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidJobId")
		return
	}

	err = s.jobs.DeleteJob(id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, jobs.ErrUnknownJob):
		writeError(w, http.StatusNotFound, "NotFound")
	case errors.Is(err, jobs.ErrJobStillRunning):
		writeError(w, http.StatusBadRequest, "JobNotFinished")
	default:
		writeError(w, http.StatusInternalServerError, "InternalError")
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWatchJob implements GET /v2/jobs/{job_id}/watch: upgrades to a
// websocket and relays every pubsub.QuestEvent/JobTerminalEvent published
// on the job's topic until the connection closes or the job terminates.
func (s *server) handleWatchJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidJobId")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch, unsubscribe := s.pub.Subscribe(ctx, pubsub.JobTopic(id))
	defer unsubscribe()

	// A reader goroutine drains client messages (pings, close frames) so
	// the connection's read deadline logic keeps working; flecsd doesn't
	// expect the client to send anything meaningful back.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			var evt struct {
				Type pubsub.EventType `json:"type"`
			}
			if json.Unmarshal(payload, &evt) == nil && evt.Type == pubsub.EventTypeJobTerminal {
				return
			}
		}
	}
}

// instanceDetail is the detailed instance view GET /v2/instances/{id}
// returns: the persisted record plus the deployment's live observed
// status, which the pouch record itself never carries.
type instanceDetail struct {
	*pouch.Instance
	Status string `json:"status"`
}

// handleGetInstance implements GET /v2/instances/{instance_id}: 200 with
// the instance's detailed view, 404 if unknown.
func (s *server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	var id pouch.InstanceId
	if err := id.UnmarshalText([]byte(chi.URLParam(r, "instance_id"))); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInstanceId")
		return
	}

	res := s.vault.Reserve(vault.Request{Instances: vault.Shared})
	defer func() {
		if err := res.Release(); err != nil {
			s.log.Warn("reservation release failed", zap.Error(err))
		}
	}()

	inst := res.Instances().Get(id)
	if inst == nil {
		writeError(w, http.StatusNotFound, "NotFound")
		return
	}

	status, err := s.deploy.InstanceStatus(r.Context(), id.Hex())
	if err != nil {
		s.log.Warn("instance status lookup failed", zap.String("instance_id", id.Hex()), zap.Error(err))
		status = "unknown"
	}

	writeJSON(w, http.StatusOK, instanceDetail{Instance: inst, Status: string(status)})
}
