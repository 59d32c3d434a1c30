package app

import (
	"testing"

	"github.com/dkeye/HelpWave/internal/core"
	"github.com/dkeye/HelpWave/internal/domain"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close() {}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	canceled := false
	r.BindSignal("s1", "tok", nopConn{}, func() { canceled = true })

	if r.Count() != 1 || r.ClientToken("s1") != "tok" {
		t.Fatalf("unexpected registry state: count=%d token=%q", r.Count(), r.ClientToken("s1"))
	}
	if _, _, ok := r.RoomOf("s1"); ok {
		t.Error("a fresh connection is in no room")
	}

	sess := core.NewMemberSession(domain.NewMember("Ann"), nopConn{})
	if !r.UpdateRoom("s1", "XY9Z", sess) {
		t.Fatal("UpdateRoom failed")
	}
	if code, got, ok := r.RoomOf("s1"); !ok || code != "XY9Z" || got != sess {
		t.Errorf("RoomOf = %s, %v, %v", code, got, ok)
	}
	if r.UpdateRoom("ghost", "XY9Z", sess) {
		t.Error("UpdateRoom must fail for an unbound sid")
	}

	r.RemoveRoom("s1")
	if _, _, ok := r.RoomOf("s1"); ok {
		t.Error("room association must be removed")
	}

	if !r.Cancel("s1") || !canceled {
		t.Error("Cancel must call the connection's cancel func")
	}
	r.Unbind("s1")
	if r.Cancel("s1") || r.Count() != 0 {
		t.Error("unbound sid must be gone")
	}
}

func TestRoomManager(t *testing.T) {
	m := NewRoomManager()
	a := m.GetOrCreate("XY9Z")
	if b := m.GetOrCreate("XY9Z"); a != b {
		t.Error("GetOrCreate must return the same roster")
	}
	a.AddMember("s1", core.NewMemberSession(domain.NewMember("Ann"), nopConn{}))

	infos := m.List()
	if len(infos) != 1 || infos[0].MemberCount != 1 || infos[0].Host != "Ann" {
		t.Errorf("unexpected list %+v", infos)
	}
	m.StopRoom("XY9Z")
	if _, ok := m.Get("XY9Z"); ok {
		t.Error("stopped room must be gone")
	}
}
