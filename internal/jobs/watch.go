package jobs

import (
	"context"
	"time"

	"flecsd/internal/pubsub"
	"flecsd/internal/quest"
)

// pollInterval governs how often the watcher diffs the quest tree for state
// transitions to publish. Quests don't currently expose a transition hook,
// so this polls instead of subscribing to one.
const pollInterval = 100 * time.Millisecond

// watch publishes a pubsub.QuestEvent on JobTopic(jobID) for every quest in
// root's tree whose own State() changes, then a single JobTerminalEvent once
// root.ObservedState() becomes terminal. It returns when the job is
// deleted (ctx cancelled) or the root reaches a terminal state.
func watch(ctx context.Context, pub pubsub.PubSub, jobID int, root *quest.Quest) {
	topic := pubsub.JobTopic(jobID)
	seen := make(map[int64]quest.State)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		diffOnce(ctx, pub, topic, jobID, root, seen)
		if root.ObservedState().Terminal() {
			_ = pub.Publish(ctx, topic, pubsub.JobTerminalEvent{
				Type:      pubsub.EventTypeJobTerminal,
				JobID:     jobID,
				State:     string(root.ObservedState()),
				Timestamp: time.Now(),
			})
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func diffOnce(ctx context.Context, pub pubsub.PubSub, topic string, jobID int, q *quest.Quest, seen map[int64]quest.State) {
	state := q.State()
	if prev, ok := seen[q.ID()]; !ok || prev != state {
		seen[q.ID()] = state
		evt := pubsub.QuestEvent{
			Type:      pubsub.EventTypeQuestState,
			JobID:     jobID,
			QuestID:   int(q.ID()),
			State:     string(state),
			Detail:    q.Detail(),
			Timestamp: time.Now(),
		}
		if state == quest.StateFailed {
			evt.Error = q.Detail()
		}
		_ = pub.Publish(ctx, topic, evt)
	}
	for _, c := range q.Children() {
		diffOnce(ctx, pub, topic, jobID, c, seen)
	}
}
