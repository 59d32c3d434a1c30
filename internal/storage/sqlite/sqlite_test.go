package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/storage"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(t *testing.T) (*SQLiteStore, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	store, err := New(filepath.Join(t.TempDir(), "helpwave.db"), WithClock(clk.Now))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, clk
}

func TestRooms(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	room, err := store.CreateRoom(ctx, "XY9Z")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.ID == 0 || room.CreatedAt == 0 {
		t.Errorf("expected id and created_at to be set, got %+v", room)
	}

	if _, err := store.CreateRoom(ctx, "XY9Z"); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("expected ErrConflict for a duplicate code, got %v", err)
	}

	got, err := store.GetRoom(ctx, "XY9Z")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if got.ID != room.ID {
		t.Errorf("expected room %d, got %d", room.ID, got.ID)
	}

	if _, err := store.GetRoom(ctx, "NOPE"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestItemsAndReplies(t *testing.T) {
	store, clk := newStore(t)
	ctx := context.Background()
	room, _ := store.CreateRoom(ctx, "AB12")

	post := func(title string, typ domain.ItemType) *domain.Item {
		t.Helper()
		it := &domain.Item{RoomID: room.ID, GuestName: "Ann", Type: typ, Title: title}
		if err := store.CreateItem(ctx, it); err != nil {
			t.Fatalf("CreateItem failed: %v", err)
		}
		clk.Advance(time.Second)
		return it
	}

	q1 := post("Q1", domain.ItemDoubt)
	post("hidden", domain.ItemBlocker)
	q2 := post("Q2", domain.ItemDoubt)

	if q1.ID == 0 || q1.Status != domain.StatusOpen || q1.CreatedAt != "2025-03-01T09:00:00.000Z" {
		t.Errorf("unexpected created item: %+v", q1)
	}

	reply := &domain.Reply{ItemID: q1.ID, GuestName: "Bob", Message: "R1"}
	code, err := store.CreateReply(ctx, reply)
	if err != nil {
		t.Fatalf("CreateReply failed: %v", err)
	}
	if code != "AB12" || reply.ID == 0 {
		t.Errorf("unexpected reply result: code=%s reply=%+v", code, reply)
	}

	if _, err := store.CreateReply(ctx, &domain.Reply{ItemID: 999, GuestName: "Bob", Message: "x"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for an unknown item, got %v", err)
	}

	if code, err := store.ResolveItem(ctx, q2.ID); err != nil || code != "AB12" {
		t.Fatalf("ResolveItem: code=%s err=%v", code, err)
	}
	if _, err := store.ResolveItem(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	items, err := store.ListItems(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 doubts (blocker hidden), got %d", len(items))
	}
	if items[0].Title != "Q2" || items[1].Title != "Q1" {
		t.Errorf("expected newest first, got %s, %s", items[0].Title, items[1].Title)
	}
	if items[0].Status != domain.StatusResolved {
		t.Errorf("expected Q2 resolved, got %s", items[0].Status)
	}
	if len(items[1].Replies) != 1 || items[1].Replies[0].Message != "R1" {
		t.Errorf("expected Q1 to carry its reply, got %+v", items[1].Replies)
	}
	if items[0].Replies == nil {
		t.Error("replies must encode as an empty list, not null")
	}
}

func TestFlagStale(t *testing.T) {
	store, clk := newStore(t)
	ctx := context.Background()
	room, _ := store.CreateRoom(ctx, "AB12")

	old := &domain.Item{RoomID: room.ID, GuestName: "Ann", Type: domain.ItemDoubt, Title: "old"}
	_ = store.CreateItem(ctx, old)
	oldResolved := &domain.Item{RoomID: room.ID, GuestName: "Ann", Type: domain.ItemDoubt, Title: "done"}
	_ = store.CreateItem(ctx, oldResolved)
	_, _ = store.ResolveItem(ctx, oldResolved.ID)

	clk.Advance(40 * time.Minute)
	fresh := &domain.Item{RoomID: room.ID, GuestName: "Ann", Type: domain.ItemDoubt, Title: "fresh"}
	_ = store.CreateItem(ctx, fresh)

	cutoff := clk.Now().Add(-30 * time.Minute)
	flagged, err := store.FlagStale(ctx, cutoff)
	if err != nil {
		t.Fatalf("FlagStale failed: %v", err)
	}
	if len(flagged) != 1 || flagged[0].ItemID != old.ID || flagged[0].RoomCode != "AB12" {
		t.Fatalf("expected only the old open item, got %+v", flagged)
	}

	again, err := store.FlagStale(ctx, cutoff)
	if err != nil {
		t.Fatalf("FlagStale failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("already flagged items must not be flagged twice, got %+v", again)
	}

	items, _ := store.ListItems(ctx, room.ID)
	for _, it := range items {
		if it.Flagged != (it.ID == old.ID) {
			t.Errorf("item %s: flagged=%v", it.Title, it.Flagged)
		}
	}
}
