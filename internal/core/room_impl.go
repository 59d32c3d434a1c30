package core

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	code  domain.RoomCode
	mu    sync.RWMutex
	order []SessionID
	bySID map[SessionID]MemberSession
	host  SessionID
}

func NewRoomService(code domain.RoomCode) RoomService {
	return &roomImpl{
		code:  code,
		bySID: make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) Code() domain.RoomCode { return r.code }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *roomImpl) Members() []domain.GuestName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.GuestName, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, r.bySID[sid].Meta().Name)
	}
	return out
}

func (r *roomImpl) Host() domain.GuestName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ms, ok := r.bySID[r.host]; ok {
		return ms.Meta().Name
	}
	return ""
}

func (r *roomImpl) IsHost(sid SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.host != "" && r.host == sid
}

func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; ok {
		return false, false
	}
	r.bySID[sid] = ms
	r.order = append(r.order, sid)
	host := false
	if r.host == "" {
		r.host = sid
		host = true
	}
	log.Info().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(sid)).Str("guest", string(ms.Meta().Name)).Bool("host", host).Msg("member added")
	return true, host
}

// RemoveMember hands the host role to the most recent remaining member
// when the host leaves.
func (r *roomImpl) RemoveMember(sid SessionID) Departure {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		return Departure{}
	}
	delete(r.bySID, sid)
	r.order = slices.DeleteFunc(r.order, func(s SessionID) bool { return s == sid })

	d := Departure{Removed: true, WasHost: r.host == sid}
	if d.WasHost {
		r.host = ""
		if n := len(r.order); n > 0 {
			r.host = r.order[n-1]
			d.NewHost = r.bySID[r.host].Meta().Name
			d.Promoted = true
		}
	}
	log.Info().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(sid)).Bool("was_host", d.WasHost).Str("new_host", string(d.NewHost)).Msg("member removed")
	return d
}

func (r *roomImpl) Clear() []SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.order
	r.order = nil
	r.bySID = make(map[SessionID]MemberSession)
	r.host = ""
	return out
}

func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, sid := range r.order {
		if sid == from {
			continue
		}
		if err := r.bySID[sid].Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.code)).Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
