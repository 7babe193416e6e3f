package pubsub

import "fmt"

// Topic constants and helper functions for subscription topics.
// Topics follow a hierarchical naming convention: {resource}:{id}

const (
	prefixJob      = "job"
	prefixInstance = "instance"
)

// JobTopic returns the topic a job's Quest tree publishes state transitions
// on. Subscribers receive QuestEvent and, on completion, a JobTerminalEvent.
func JobTopic(jobID int) string {
	return fmt.Sprintf("%s:%d", prefixJob, jobID)
}

// InstanceTopic returns the topic for status changes of a single instance.
// Subscribers receive InstanceEvent messages.
func InstanceTopic(instanceID string) string {
	return fmt.Sprintf("%s:%s", prefixInstance, instanceID)
}
