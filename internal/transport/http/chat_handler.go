package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"veritas/internal/chatstore"
)

func sessionID(c *fiber.Ctx) string {
	if sid := c.Get("X-Session-ID"); sid != "" {
		return sid
	}
	return c.Query("session_id")
}

type createChatRequest struct {
	Title string `json:"title"`
}

// CreateChat handles POST /api/chats.
func (h *Handlers) CreateChat(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	var req createChatRequest
	_ = c.BodyParser(&req)

	chat, err := h.deps.Chats.CreateChat(c.Context(), sid, req.Title)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "create chat: "+err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "chat": chat})
}

// ListChats handles GET /api/chats.
func (h *Handlers) ListChats(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	chats, err := h.deps.Chats.ListChats(c.Context(), sid)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "list chats: "+err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "chats": chats})
}

// DeleteChat handles DELETE /api/chats/:id.
func (h *Handlers) DeleteChat(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	if err := h.deps.Chats.DeleteChat(c.Context(), sid, c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "delete chat: "+err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}

// ListMessages handles GET /api/chats/:id/messages.
func (h *Handlers) ListMessages(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	messages, err := h.deps.Chats.ListMessages(c.Context(), sid, c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "list messages: "+err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "messages": messages})
}

type appendMessageRequest struct {
	Role     string              `json:"role"`
	Text     string              `json:"text"`
	Metadata chatstore.Metadata `json:"metadata"`
}

// AppendMessage handles POST /api/chats/:id/messages, preserving
// metadata.is_html/is_v2_dashboard round-trip (spec §6).
func (h *Handlers) AppendMessage(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	var req appendMessageRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}

	msg := chatstore.Message{
		ChatID:   c.Params("id"),
		Role:     req.Role,
		Text:     req.Text,
		Metadata: req.Metadata,
		Ts:       time.Now(),
	}
	if err := h.deps.Chats.AppendMessage(c.Context(), sid, msg); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "append message: "+err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}

// ClearChats handles POST /api/chats/clear: deletes every chat for the
// caller's session (spec §6).
func (h *Handlers) ClearChats(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	if err := h.deps.Chats.ClearChats(c.Context(), sid); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "clear chats: "+err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}
