package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/HelpWave/internal/adapters/sessionstore"
	"github.com/dkeye/HelpWave/internal/client"
	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/protocol"
)

type fakeDirectory struct {
	mu sync.Mutex

	createCode domain.RoomCode
	createErr  error
	rooms      map[domain.RoomCode][]domain.Item
	itemsErr   error
	postErr    error
	// itemsGate, when set, holds RoomItems until it is closed.
	itemsGate chan struct{}
	// postGate, when set, holds PostItem until it is closed.
	postGate chan struct{}

	calls      []string
	itemCalls  []domain.RoomCode
	posted     []client.NewItem
	replies    []string
	resolved   []domain.ItemID
	itemsEnter chan struct{}
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		rooms:      make(map[domain.RoomCode][]domain.Item),
		itemsEnter: make(chan struct{}, 8),
	}
}

func (f *fakeDirectory) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeDirectory) CreateRoom(_ context.Context, guest string) (domain.RoomCode, error) {
	f.record("create:" + guest)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.createCode, nil
}

func (f *fakeDirectory) JoinRoom(_ context.Context, guest, code string) (domain.RoomCode, error) {
	f.record("join:" + guest + ":" + code)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[domain.RoomCode(code)]; !ok {
		return "", &client.RejectedError{Op: "join room", Reason: "invalid room code"}
	}
	return domain.RoomCode(code), nil
}

func (f *fakeDirectory) RoomItems(_ context.Context, code domain.RoomCode) ([]domain.Item, error) {
	f.mu.Lock()
	f.itemCalls = append(f.itemCalls, code)
	gate := f.itemsGate
	f.mu.Unlock()
	select {
	case f.itemsEnter <- struct{}{}:
	default:
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	items, ok := f.rooms[code]
	if !ok {
		return nil, &client.RejectedError{Op: "room items", Reason: "room not found"}
	}
	return items, nil
}

func (f *fakeDirectory) PostItem(_ context.Context, p client.NewItem) error {
	f.mu.Lock()
	f.posted = append(f.posted, p)
	gate := f.postGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.postErr
}

func (f *fakeDirectory) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posted)
}

func (f *fakeDirectory) PostReply(_ context.Context, id domain.ItemID, guest domain.GuestName, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, message)
	return f.postErr
}

func (f *fakeDirectory) ResolveItem(_ context.Context, id domain.ItemID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, id)
	return f.postErr
}

func (f *fakeDirectory) snapshotCalls() []domain.RoomCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RoomCode(nil), f.itemCalls...)
}

func (f *fakeDirectory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePush struct {
	mu       sync.Mutex
	emitted  []protocol.Message
	handlers map[int]func(protocol.Event)
	next     int
}

func newFakePush() *fakePush {
	return &fakePush{handlers: make(map[int]func(protocol.Event))}
}

func (p *fakePush) Emit(m protocol.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emitted = append(p.emitted, m)
	return nil
}

func (p *fakePush) Subscribe(fn func(protocol.Event)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.handlers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
	}
}

// deliver fans ev out to the current subscribers, like the backend would.
func (p *fakePush) deliver(ev protocol.Event) {
	p.mu.Lock()
	hs := make([]func(protocol.Event), 0, len(p.handlers))
	for _, h := range p.handlers {
		hs = append(hs, h)
	}
	p.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

func (p *fakePush) subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

func (p *fakePush) messages() []protocol.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]protocol.Message(nil), p.emitted...)
}

type harness struct {
	ctl   *Controller
	dir   *fakeDirectory
	push  *fakePush
	store *sessionstore.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		dir:   newFakeDirectory(),
		push:  newFakePush(),
		store: sessionstore.NewMemory(),
	}
	h.ctl = New(h.dir, h.push, h.store)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		<-h.ctl.Done()
	})
	if err := h.ctl.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
}

func doubt(id domain.ItemID, title string) domain.Item {
	return domain.Item{ID: id, Type: domain.ItemDoubt, Title: title, GuestName: "A", Status: domain.StatusOpen}
}

func waitNotice(t *testing.T, c *Controller) Notice {
	t.Helper()
	select {
	case n := <-c.Notices():
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a notice")
	}
	return Notice{}
}

func hasMessage[T protocol.Message](msgs []protocol.Message) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

var errOffline = errors.New("connection refused")
