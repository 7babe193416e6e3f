package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"flecsd/internal/deployment"
	"flecsd/internal/instance"
	"flecsd/internal/jobs"
	"flecsd/internal/logger"
	"flecsd/internal/pubsub"
	"flecsd/internal/quest"
	"flecsd/internal/reverseproxy"
	"flecsd/internal/usbdevice"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

func newTestServer(t *testing.T, dep deployment.Deployment) (*server, *vault.Vault) {
	t.Helper()
	v, err := vault.Open(t.TempDir())
	if err != nil {
		t.Fatalf("vault.Open: %v", err)
	}

	eng := &instance.Engine{
		Deployment: dep,
		Proxy:      &reverseproxy.Mock{},
		USB:        &usbdevice.Mock{},
		BaseDir:    t.TempDir(),
	}

	pub := pubsub.NewMemoryPubSub()
	t.Cleanup(func() { pub.Close() })

	return &server{
		vault:  v,
		deploy: dep,
		engine: eng,
		jobs:   jobs.NewRegistry(quest.NewEngine(), pub),
		pub:    pub,
		log:    logger.NewDevelopmentLogger(),
	}, v
}

func TestHandleGetJobUnknown(t *testing.T) {
	s, _ := newTestServer(t, &deployment.Mock{})
	router := newRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/v2/jobs/999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGetJobReturnsView(t *testing.T) {
	s, _ := newTestServer(t, &deployment.Mock{})
	id, root := s.jobs.CreateJob("install app")
	quest.Start(root)
	quest.FailWithError(root, errors.New("boom"))

	router := newRouter(s)
	req := httptest.NewRequest(http.MethodGet, "/v2/jobs/"+strconv.Itoa(id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view jobs.JobView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if view.JobID != id {
		t.Fatalf("expected job id %d, got %d", id, view.JobID)
	}
}

func TestHandleDeleteJobRefusesWhileRunning(t *testing.T) {
	s, _ := newTestServer(t, &deployment.Mock{})
	id, root := s.jobs.CreateJob("install app")
	quest.Start(root)

	router := newRouter(s)
	req := httptest.NewRequest(http.MethodDelete, "/v2/jobs/"+strconv.Itoa(id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleDeleteJobSucceedsWhenTerminal(t *testing.T) {
	s, _ := newTestServer(t, &deployment.Mock{})
	id, root := s.jobs.CreateJob("install app")
	quest.FailWithError(root, errors.New("boom"))

	router := newRouter(s)
	req := httptest.NewRequest(http.MethodDelete, "/v2/jobs/"+strconv.Itoa(id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/v2/jobs/"+strconv.Itoa(id), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected job gone after delete, got %d", rec.Code)
	}
}

func TestHandleGetInstanceUnknown(t *testing.T) {
	s, _ := newTestServer(t, &deployment.Mock{})
	router := newRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/v2/instances/deadbeef", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGetInstanceReturnsStatus(t *testing.T) {
	dep := &deployment.Mock{
		InstanceStatusFunc: func(ctx context.Context, id string) (deployment.Status, error) {
			return deployment.StatusRunning, nil
		},
	}
	s, v := newTestServer(t, dep)

	res := v.Reserve(vault.Request{Instances: vault.Exclusive})
	inst := &pouch.Instance{ID: 1, Name: "app", Desired: pouch.DesiredRunning}
	res.Instances().Put(inst)
	res.MarkInstancesDirty()
	if err := res.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	router := newRouter(s)
	req := httptest.NewRequest(http.MethodGet, "/v2/instances/"+inst.ID.Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var detail instanceDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if detail.Status != string(deployment.StatusRunning) {
		t.Fatalf("expected status running, got %s", detail.Status)
	}
}
