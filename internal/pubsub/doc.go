// Package pubsub provides a publish-subscribe interface for job and
// instance event streaming.
//
// # Overview
//
// The job registry (internal/jobs) polls each job's Quest tree and
// publishes its state transitions here; the job-watch websocket subscribes
// to them. InstanceTopic and InstanceEvent are defined, but no package
// publishes instance events. The default transport is an
// in-memory implementation, good for a single daemon process; a Redis-backed
// transport can be swapped in when a log/metrics sidecar needs to observe
// job progress from outside the daemon's process boundary. Neither the
// Vault nor the Quest tree depend on pub/sub for correctness — it is an
// observability fan-out, never the source of truth.
//
// # Usage
//
// Initialize the pub/sub client:
//
//	ps := pubsub.NewMemoryPubSub()
//
// Publish an event:
//
//	err := ps.Publish(ctx, pubsub.JobTopic(jobID), &pubsub.QuestEvent{
//		JobID: jobID,
//		State: "Ongoing",
//	})
//
// Subscribe to events:
//
//	ch, unsub := ps.Subscribe(ctx, pubsub.JobTopic(jobID))
//	defer unsub()
//	for msg := range ch {
//		var event pubsub.QuestEvent
//		json.Unmarshal(msg, &event)
//		// Handle event
//	}
//
// # Topics
//
//   - job:{id} - Quest state transitions and the job-terminal notice
//   - instance:{id} - instance status changes
package pubsub
