package client

import (
	"testing"

	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/protocol"
)

func newState(items ...domain.Item) *RoomState {
	st := &RoomState{Items: NewRepository()}
	st.Items.Replace(items)
	return st
}

func TestApplyResolveIsIdempotent(t *testing.T) {
	st := newState(doubt(1, "Q1"))

	for i := 0; i < 3; i++ {
		Apply(st, "A", protocol.ItemResolved{ItemID: 1})
	}

	it, _ := st.Items.Get(1)
	if it.Status != domain.StatusResolved {
		t.Errorf("expected resolved, got %s", it.Status)
	}
	if st.Items.Len() != 1 {
		t.Errorf("expected a single item, got %d", st.Items.Len())
	}
	if n := len(st.Items.Resolved()); n != 1 {
		t.Errorf("expected one resolved entry, got %d", n)
	}
}

func TestApplyFlagIsIdempotent(t *testing.T) {
	st := newState(doubt(1, "Q1"))
	Apply(st, "A", protocol.ItemFlagged{ItemID: 1})
	Apply(st, "A", protocol.ItemFlagged{ItemID: 1})

	it, _ := st.Items.Get(1)
	if !it.Flagged {
		t.Error("expected item to be flagged")
	}
}

func TestApplyUnknownItemIsNoop(t *testing.T) {
	events := []protocol.Event{
		protocol.ItemReplied{ItemID: 42, Reply: domain.Reply{GuestName: "B", Message: "R"}},
		protocol.ItemResolved{ItemID: 42},
		protocol.ItemFlagged{ItemID: 42},
	}
	for _, ev := range events {
		t.Run(ev.EventType(), func(t *testing.T) {
			st := newState(doubt(1, "Q1"))
			if eff := Apply(st, "A", ev); eff != EffectNone {
				t.Errorf("expected EffectNone, got %v", eff)
			}
			if _, ok := st.Items.Get(42); ok {
				t.Error("unknown id must not create a placeholder item")
			}
			if st.Items.Len() != 1 {
				t.Errorf("expected 1 item, got %d", st.Items.Len())
			}
			it, _ := st.Items.Get(1)
			if it.Status != domain.StatusOpen || it.Flagged || len(it.Replies) != 0 {
				t.Errorf("unrelated item changed: %+v", it)
			}
		})
	}
}

func TestApplyRepliesAreAppendOnly(t *testing.T) {
	st := newState(doubt(1, "Q1"))
	msgs := []string{"R1", "R2", "R3"}

	prev := 0
	for _, m := range msgs {
		Apply(st, "A", protocol.ItemReplied{ItemID: 1, Reply: domain.Reply{GuestName: "B", Message: m}})
		Apply(st, "A", protocol.ItemResolved{ItemID: 1})
		Apply(st, "A", protocol.ItemReplied{ItemID: 7, Reply: domain.Reply{Message: "elsewhere"}})

		it, _ := st.Items.Get(1)
		if len(it.Replies) < prev {
			t.Fatalf("reply count shrank from %d to %d", prev, len(it.Replies))
		}
		prev = len(it.Replies)
	}

	it, _ := st.Items.Get(1)
	for i, m := range msgs {
		if it.Replies[i].Message != m {
			t.Errorf("reply[%d]: expected %s, got %s", i, m, it.Replies[i].Message)
		}
	}
}

func TestApplyItemCreatedPrepends(t *testing.T) {
	st := newState(doubt(1, "Q1"))
	Apply(st, "A", protocol.ItemCreated{Item: doubt(2, "Q2")})
	Apply(st, "A", protocol.ItemCreated{Item: doubt(2, "Q2")})

	got := titles(st.Items.Open())
	if len(got) != 2 || got[0] != "Q2" {
		t.Errorf("expected [Q2 Q1], got %v", got)
	}
}

func TestApplyMemberUpdate(t *testing.T) {
	st := newState()
	Apply(st, "A", protocol.MemberUpdate{Count: 3})
	if st.MemberCount != 3 {
		t.Errorf("expected 3 members, got %d", st.MemberCount)
	}
}

func TestApplyHostChanged(t *testing.T) {
	st := newState()
	if eff := Apply(st, "B", protocol.HostChanged{NewHost: "C"}); eff != EffectNone {
		t.Errorf("someone else promoted: expected EffectNone, got %v", eff)
	}
	if st.Host != "C" {
		t.Errorf("host indicator: expected C, got %s", st.Host)
	}
	if eff := Apply(st, "B", protocol.HostChanged{NewHost: "B"}); eff != EffectPromoted {
		t.Errorf("self promoted: expected EffectPromoted, got %v", eff)
	}
}

func TestApplyForceLeaveAll(t *testing.T) {
	st := newState(doubt(1, "Q1"))
	if eff := Apply(st, "B", protocol.ForceLeaveAll{}); eff != EffectTerminated {
		t.Errorf("expected EffectTerminated, got %v", eff)
	}
}
