package jobs

import "flecsd/internal/quest"

// StepView is a minimal projection of one child quest, enough for a caller
// to show a "current step" label without walking the full tree.
type StepView struct {
	QuestID     int64  `json:"questId"`
	Description string `json:"description"`
	State       string `json:"state"`
}

// JobResult is populated on JobView once the job's root has reached a
// terminal state.
type JobResult struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JobView projects a root quest's state for the job's polled status
// endpoint: overall status, step count, the current (first non-terminal)
// step, and a result once terminal.
type JobView struct {
	JobID       int       `json:"jobId"`
	Status      string    `json:"status"`
	NumSteps    int       `json:"numSteps"`
	CurrentStep *StepView `json:"currentStep,omitempty"`
	Result      *JobResult `json:"result,omitempty"`
}

func buildView(id int, root *quest.Quest) JobView {
	children := root.Children()
	status := root.ObservedState()

	view := JobView{
		JobID:    id,
		Status:   string(status),
		NumSteps: len(children),
	}

	for _, c := range children {
		if !c.ObservedState().Terminal() {
			view.CurrentStep = &StepView{
				QuestID:     c.ID(),
				Description: c.Description(),
				State:       string(c.ObservedState()),
			}
			break
		}
	}

	if status.Terminal() {
		view.Result = &JobResult{Code: string(status), Message: root.Detail()}
	}
	return view
}
