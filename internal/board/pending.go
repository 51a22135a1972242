package board

import "context"

// PendingMove resolves once the server has accepted or rejected a move.
type PendingMove struct {
	done chan struct{}
	err  error
}

func resolved(err error) *PendingMove {
	pm := &PendingMove{done: make(chan struct{}), err: err}
	close(pm.done)
	return pm
}

func (p *PendingMove) Done() <-chan struct{} { return p.done }

// Wait blocks until the move settles and returns the persistence error, if
// any. A cancelled ctx stops the wait, not the move.
func (p *PendingMove) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
