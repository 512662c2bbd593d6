package album

import "context"

// Handle observes and controls a running reconciliation
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// Cancel stops the reconciliation. A store write already in progress still completes.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed once the reconciliation has finished
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the reconciliation finishes and returns its result
func (h *Handle) Wait() Result {
	<-h.done
	return h.result
}
