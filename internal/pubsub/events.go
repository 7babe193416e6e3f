package pubsub

import "time"

// EventType identifies the type of event for type switches.
type EventType string

const (
	EventTypeQuestState  EventType = "quest_state"
	EventTypeJobTerminal EventType = "job_terminal"
	EventTypeInstance    EventType = "instance_state"
)

// QuestEvent reports a state transition of a Quest node (or one of its
// children) within a job's tree. Published on JobTopic(job_id).
type QuestEvent struct {
	Type      EventType `json:"type"`
	JobID     int       `json:"job_id"`
	QuestID   int       `json:"quest_id"`
	State     string    `json:"state"` // quest.State value
	Detail    string    `json:"detail,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JobTerminalEvent is published once when a root Quest's job reaches a
// terminal state (Finished, Failed or Skipped), letting a watcher stop
// polling without racing a final QuestEvent.
type JobTerminalEvent struct {
	Type      EventType `json:"type"`
	JobID     int       `json:"job_id"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// InstanceEvent reports an instance desired/current status change.
type InstanceEvent struct {
	Type       EventType `json:"type"`
	InstanceID string    `json:"instance_id"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}
