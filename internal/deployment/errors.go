package deployment

import "fmt"

// Sentinel errors a Deployment implementation returns for the
// NotFound/PreconditionUnmet taxonomy of spec §7. Callers compare with
// errors.Is; implementations wrap these with additional context instead
// of defining parallel error values.
var (
	ErrInstanceNotFound = fmt.Errorf("deployment: instance not found")
	ErrNetworkNotFound  = fmt.Errorf("deployment: network not found")
	ErrVolumeNotFound   = fmt.Errorf("deployment: volume not found")
	ErrAppNotFound      = fmt.Errorf("deployment: app not found")
	ErrNoFittingNetwork = fmt.Errorf("deployment: no fitting network")
)

// OperationError wraps a failed deployment operation with enough context
// to decide retryability (spec §7's RuntimeTransient vs RuntimePermanent
// split) without callers needing to inspect the underlying runtime error.
type OperationError struct {
	Operation string
	Target    string
	Err       error
	Retryable bool
}

func (e *OperationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("deployment %s failed for %s: %v", e.Operation, e.Target, e.Err)
	}
	return fmt.Sprintf("deployment %s failed: %v", e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// NewOperationError builds an OperationError, the go-to wrapper for
// errors surfaced by the docker variant's client calls.
func NewOperationError(operation, target string, err error, retryable bool) *OperationError {
	return &OperationError{Operation: operation, Target: target, Err: err, Retryable: retryable}
}
