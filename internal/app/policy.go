package app

import (
	"sync"

	"github.com/dkeye/HelpWave/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(room core.RoomService, sid core.SessionID) BackpressureAction
}

// SimplePolicy kicks on the first dropped frame.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.RoomService, core.SessionID) BackpressureAction {
	return KickMember
}

// StrikePolicy tolerates Limit dropped frames per connection and kicks on
// the next one. A kicked member resyncs from the snapshot when its client
// reconnects.
type StrikePolicy struct {
	Limit int

	mu      sync.Mutex
	strikes map[core.SessionID]int
}

func NewStrikePolicy(limit int) *StrikePolicy {
	return &StrikePolicy{Limit: limit, strikes: make(map[core.SessionID]int)}
}

func (p *StrikePolicy) OnBackPressure(_ core.RoomService, sid core.SessionID) BackpressureAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strikes[sid]++
	if p.strikes[sid] > p.Limit {
		delete(p.strikes, sid)
		return KickMember
	}
	return DropFrame
}

// Forget drops the strike count of a closed connection.
func (p *StrikePolicy) Forget(sid core.SessionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.strikes, sid)
}
