package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/service"
)

type handlers struct {
	rooms   *service.RoomService
	limiter *RateLimiter
}

type CreateRoomRequest struct {
	GuestName string `json:"guest_name" binding:"required"`
}

type JoinRoomRequest struct {
	Code      string `json:"code" binding:"required"`
	GuestName string `json:"guest_name" binding:"required"`
}

type PostItemRequest struct {
	RoomCode    string          `json:"room_code" binding:"required"`
	GuestName   string          `json:"guest_name" binding:"required"`
	Type        domain.ItemType `json:"type"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
}

type ReplyRequest struct {
	ItemID    domain.ItemID `json:"item_id" binding:"required"`
	GuestName string        `json:"guest_name" binding:"required"`
	Message   string        `json:"message" binding:"required"`
}

type ResolveRequest struct {
	ItemID domain.ItemID `json:"item_id" binding:"required"`
}

func (h *handlers) createRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest_name is required"})
		return
	}
	code, err := h.rooms.CreateRoom(c.Request.Context(), req.GuestName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}

func (h *handlers) joinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "code and guest_name are required"})
		return
	}
	if _, err := domain.NewGuestName(req.GuestName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	code, err := h.rooms.JoinRoom(c.Request.Context(), req.Code)
	if errors.Is(err, service.ErrRoomNotFound) || errors.Is(err, service.ErrInvalidInput) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Room not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "code": code})
}

func (h *handlers) roomItems(c *gin.Context) {
	items, err := h.rooms.RoomItems(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *handlers) postItem(c *gin.Context) {
	if !h.limiter.Allow(c.GetString(clientTokenKey)) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many posts, slow down"})
		return
	}
	var req PostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_code, guest_name and title are required"})
		return
	}
	item, err := h.rooms.PostItem(c.Request.Context(), service.NewItem{
		RoomCode:    req.RoomCode,
		GuestName:   req.GuestName,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *handlers) reply(c *gin.Context) {
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id, guest_name and message are required"})
		return
	}
	reply, err := h.rooms.Reply(c.Request.Context(), req.ItemID, req.GuestName, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

func (h *handlers) resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
		return
	}
	if err := h.rooms.Resolve(c.Request.Context(), req.ItemID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRoomNotFound), errors.Is(err, service.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
