package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/HelpWave/internal/client"
	"github.com/dkeye/HelpWave/internal/domain"
)

type recorded struct {
	path string
	body map[string]any
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *atomic.Int32, chan recorded) {
	t.Helper()
	var hits atomic.Int32
	seen := make(chan recorded, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		rec := recorded{path: r.URL.Path}
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		seen <- rec
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c, &hits, seen
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreateRoom(t *testing.T) {
	c, _, seen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"code": "XY9Z"})
	})

	code, err := c.CreateRoom(context.Background(), "  Ann ")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if code != "XY9Z" {
		t.Errorf("expected XY9Z, got %s", code)
	}
	rec := <-seen
	if rec.path != "/create-room" || rec.body["guest_name"] != "Ann" {
		t.Errorf("unexpected request: %+v", rec)
	}
}

func TestValidationBeforeNetwork(t *testing.T) {
	c, hits, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"create blank name", func() error { _, err := c.CreateRoom(ctx, "   "); return err }},
		{"join blank name", func() error { _, err := c.JoinRoom(ctx, "", "AB12"); return err }},
		{"join blank code", func() error { _, err := c.JoinRoom(ctx, "Bob", "  "); return err }},
		{"post blank title", func() error {
			return c.PostItem(ctx, client.NewItem{RoomCode: "AB12", GuestName: "Bob", Title: " "})
		}},
		{"reply blank message", func() error { return c.PostReply(ctx, 1, "Bob", "\t") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !client.IsValidation(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestJoinRoomUppercasesCode(t *testing.T) {
	c, _, seen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "code": "XY9Z"})
	})

	code, err := c.JoinRoom(context.Background(), "Bob", " xy9z ")
	if err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	if code != "XY9Z" {
		t.Errorf("expected XY9Z, got %s", code)
	}
	if rec := <-seen; rec.body["code"] != "XY9Z" || rec.body["guest_name"] != "Bob" {
		t.Errorf("unexpected body: %v", rec.body)
	}
}

func TestJoinRoomRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
	}{
		{"not found", http.StatusNotFound, map[string]any{"success": false, "message": "Room not found"}},
		{"success false", http.StatusOK, map[string]any{"success": false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.JoinRoom(context.Background(), "Bob", "NOPE")
			var rejected *client.RejectedError
			if !errors.As(err, &rejected) {
				t.Fatalf("expected a rejected error, got %v", err)
			}
			if rejected.Reason != "invalid room code" {
				t.Errorf("unexpected reason %q", rejected.Reason)
			}
		})
	}
}

func TestJoinRoomOtherRejectionsKeepReason(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		reason string
	}{
		{"bad request", http.StatusBadRequest, map[string]any{"success": false, "message": "guest name too long"}, "guest name too long"},
		{"rate limited", http.StatusTooManyRequests, map[string]any{"error": "too many requests"}, "too many requests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.JoinRoom(context.Background(), "Bob", "XY9Z")
			var rejected *client.RejectedError
			if !errors.As(err, &rejected) {
				t.Fatalf("expected a rejected error, got %v", err)
			}
			if rejected.Reason != tt.reason || rejected.Status != tt.status {
				t.Errorf("expected %d %q, got %d %q", tt.status, tt.reason, rejected.Status, rejected.Reason)
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		rejected bool
		network  bool
	}{
		{"bad request", http.StatusBadRequest, `{"error":"title required"}`, true, false},
		{"server error", http.StatusInternalServerError, `{"error":"db down"}`, false, true},
		{"garbage body", http.StatusOK, `not json`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.RoomItems(context.Background(), "AB12")
			if client.IsRejected(err) != tt.rejected || client.IsNetwork(err) != tt.network {
				t.Errorf("unexpected classification for %v", err)
			}
		})
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := c.ResolveItem(context.Background(), 3); !client.IsNetwork(err) {
		t.Errorf("expected a network error, got %v", err)
	}
}

func TestRoomItemsAndActions(t *testing.T) {
	items := []domain.Item{
		{ID: 2, Title: "Q2", Type: domain.ItemDoubt, Status: domain.StatusOpen},
		{ID: 1, Title: "Q1", Type: domain.ItemDoubt, Status: domain.StatusResolved},
	}
	c, _, seen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/room-items/AB12":
			writeJSON(w, http.StatusOK, items)
		default:
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		}
	})
	ctx := context.Background()

	got, err := c.RoomItems(ctx, "AB12")
	if err != nil {
		t.Fatalf("RoomItems failed: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Q2" || got[1].Status != domain.StatusResolved {
		t.Errorf("unexpected items: %+v", got)
	}
	<-seen

	if err := c.PostItem(ctx, client.NewItem{RoomCode: "AB12", GuestName: "Bob", Title: "Q3"}); err != nil {
		t.Fatalf("PostItem failed: %v", err)
	}
	rec := <-seen
	if rec.path != "/items" || rec.body["type"] != "doubt" || rec.body["room_code"] != "AB12" {
		t.Errorf("unexpected post: %+v", rec)
	}
	if _, ok := rec.body["description"]; ok {
		t.Error("empty description must be omitted")
	}

	if err := c.PostReply(ctx, 2, "Bob", "R1"); err != nil {
		t.Fatalf("PostReply failed: %v", err)
	}
	if rec := <-seen; rec.path != "/reply" || rec.body["item_id"] != float64(2) || rec.body["message"] != "R1" {
		t.Errorf("unexpected reply: %+v", rec)
	}

	if err := c.ResolveItem(ctx, 2); err != nil {
		t.Fatalf("ResolveItem failed: %v", err)
	}
	if rec := <-seen; rec.path != "/resolve" || rec.body["item_id"] != float64(2) {
		t.Errorf("unexpected resolve: %+v", rec)
	}
}
