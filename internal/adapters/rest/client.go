// Package rest talks to the backend's request/response endpoints.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/client"
	"github.com/dkeye/HelpWave/internal/domain"
)

var _ client.Directory = (*Client)(nil)

type Client struct {
	base *url.URL
	http *http.Client
}

// New builds a client for the backend at baseURL. The cookie jar keeps the
// backend's client-token cookie so REST calls and the websocket share one
// identity.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

// Jar exposes the cookie jar so the push channel can dial with the same
// client token.
func (c *Client) Jar() http.CookieJar { return c.http.Jar }

type createRoomRequest struct {
	GuestName string `json:"guest_name"`
}

type createRoomResponse struct {
	Code domain.RoomCode `json:"code"`
}

func (c *Client) CreateRoom(ctx context.Context, guest string) (domain.RoomCode, error) {
	name, err := domain.NewGuestName(guest)
	if err != nil {
		return "", &client.ValidationError{Field: "guest_name", Err: err}
	}
	var resp createRoomResponse
	if err := c.call(ctx, "create room", http.MethodPost, "/create-room", createRoomRequest{GuestName: string(name)}, &resp); err != nil {
		return "", err
	}
	if resp.Code == "" {
		return "", &client.NetworkError{Op: "create room", Err: errors.New("empty room code in response")}
	}
	return resp.Code, nil
}

type joinRoomRequest struct {
	Code      string `json:"code"`
	GuestName string `json:"guest_name"`
}

type joinRoomResponse struct {
	Success bool            `json:"success"`
	Code    domain.RoomCode `json:"code"`
	Message string          `json:"message"`
}

func (c *Client) JoinRoom(ctx context.Context, guest, code string) (domain.RoomCode, error) {
	name, err := domain.NewGuestName(guest)
	if err != nil {
		return "", &client.ValidationError{Field: "guest_name", Err: err}
	}
	normalized, err := domain.NormalizeRoomCode(code)
	if err != nil {
		return "", &client.ValidationError{Field: "code", Err: err}
	}

	var resp joinRoomResponse
	err = c.call(ctx, "join room", http.MethodPost, "/join-room", joinRoomRequest{Code: string(normalized), GuestName: string(name)}, &resp)
	var rejected *client.RejectedError
	if errors.As(err, &rejected) && rejected.Status == http.StatusNotFound {
		return "", &client.RejectedError{Op: "join room", Reason: "invalid room code", Status: rejected.Status}
	}
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", &client.RejectedError{Op: "join room", Reason: "invalid room code"}
	}
	if resp.Code == "" {
		return normalized, nil
	}
	return resp.Code, nil
}

func (c *Client) RoomItems(ctx context.Context, code domain.RoomCode) ([]domain.Item, error) {
	if strings.TrimSpace(string(code)) == "" {
		return nil, &client.ValidationError{Field: "code"}
	}
	var items []domain.Item
	if err := c.call(ctx, "room items", http.MethodGet, "/room-items/"+url.PathEscape(string(code)), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

type postItemRequest struct {
	RoomCode    domain.RoomCode  `json:"room_code"`
	GuestName   domain.GuestName `json:"guest_name"`
	Type        domain.ItemType  `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
}

func (c *Client) PostItem(ctx context.Context, p client.NewItem) error {
	if strings.TrimSpace(p.Title) == "" {
		return &client.ValidationError{Field: "title"}
	}
	req := postItemRequest{
		RoomCode:    p.RoomCode,
		GuestName:   p.GuestName,
		Type:        domain.ItemDoubt,
		Title:       strings.TrimSpace(p.Title),
		Description: strings.TrimSpace(p.Description),
	}
	return c.call(ctx, "post item", http.MethodPost, "/items", req, nil)
}

type replyRequest struct {
	ItemID    domain.ItemID    `json:"item_id"`
	GuestName domain.GuestName `json:"guest_name"`
	Message   string           `json:"message"`
}

func (c *Client) PostReply(ctx context.Context, id domain.ItemID, guest domain.GuestName, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return &client.ValidationError{Field: "message"}
	}
	return c.call(ctx, "reply", http.MethodPost, "/reply", replyRequest{ItemID: id, GuestName: guest, Message: message}, nil)
}

type resolveRequest struct {
	ItemID domain.ItemID `json:"item_id"`
}

func (c *Client) ResolveItem(ctx context.Context, id domain.ItemID) error {
	return c.call(ctx, "resolve", http.MethodPost, "/resolve", resolveRequest{ItemID: id}, nil)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// call sends body as JSON and decodes the response into out, if non-nil.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &client.NetworkError{Op: op, Err: err}
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return &client.NetworkError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("module", "rest").Str("op", op).Msg("request failed")
		return &client.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &client.NetworkError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode >= 500:
		return &client.NetworkError{Op: op, Err: fmt.Errorf("server error %d: %s", resp.StatusCode, reason(raw, resp.StatusCode))}
	case resp.StatusCode >= 400:
		return &client.RejectedError{Op: op, Reason: reason(raw, resp.StatusCode), Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &client.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func reason(raw []byte, status int) string {
	var e errorBody
	if json.Unmarshal(raw, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return "status " + strconv.Itoa(status)
}
