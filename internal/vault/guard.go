// internal/vault/guard.go
package vault

import "sync/atomic"

// CallGuard is a single active-call flag. Operations that move custody take
// the guard for their whole duration; any nested re-entry (for example a
// token callback calling back into the vault) is rejected instead of
// observing the ledger mid-update.
type CallGuard struct {
	busy atomic.Bool
}

// Enter takes the guard. It returns ErrReentrantCall if a call is already in flight.
func (g *CallGuard) Enter() error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

// Exit releases the guard.
func (g *CallGuard) Exit() {
	g.busy.Store(false)
}
