// Package screen holds the per-screen wallet state: the fetched transactions
// and the buckets computed from them.
package screen

import "sync/atomic"

// Guard orders concurrent loads of the same screen. Only the most recently
// started load may commit its result.
type Guard struct {
	gen atomic.Uint64
}

// Ticket identifies one load.
type Ticket uint64

// Begin starts a load and invalidates every earlier ticket.
func (g *Guard) Begin() Ticket {
	return Ticket(g.gen.Add(1))
}

// Current reports whether t is still the latest ticket.
func (g *Guard) Current(t Ticket) bool {
	return Ticket(g.gen.Load()) == t
}
