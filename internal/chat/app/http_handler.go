package app

import (
	"errors"
	"strconv"

	"owner_chat_service/internal/chat/domain"
	"owner_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ChatHTTPHandler 處理聊天紀錄相關的 HTTP 請求
type ChatHTTPHandler struct {
	history  *HistoryUseCase
	presence *PresenceRegistry
}

// NewChatHTTPHandler create ChatHTTPHandler
func NewChatHTTPHandler(history *HistoryUseCase, presence *PresenceRegistry) *ChatHTTPHandler {
	return &ChatHTTPHandler{
		history:  history,
		presence: presence,
	}
}

// MarkReadRequest body of POST /api/chat/mark-read
type MarkReadRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// CorrespondentsResponse body of GET /api/chat/correspondents
type CorrespondentsResponse struct {
	Users []domain.ChatUserSummary `json:"users"`
}

// OnlineResponse body of GET /api/chat/online
type OnlineResponse struct {
	Users []string `json:"users"`
}

// UserOnlineResponse body of GET /api/chat/online/:userId
type UserOnlineResponse struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

// GetHistory conversation history between a user and an owner
// @Summary Chat history
// @Description Messages between userId and ownerId in both directions, oldest first
// @Tags Chat
// @Produce json
// @Param userId query string true "User id"
// @Param ownerId query string true "Owner id"
// @Param page query int false "Page, default 1"
// @Param limit query int false "Page size, default 20"
// @Success 200 {object} domain.HistoryPage
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/chat/history [get]
func (h *ChatHTTPHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Query("userId")
	ownerID := c.Query("ownerId")
	page := c.QueryInt("page", 0)
	limit := c.QueryInt("limit", 0)

	result, err := h.history.GetHistory(c.UserContext(), userID, ownerID, page, limit)
	if err != nil {
		return writeError(c, "history", err)
	}
	return c.JSON(result)
}

// MarkRead mark every message from senderId to receiverId as read
// @Summary Mark messages read
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body MarkReadRequest true "sender and receiver"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/chat/mark-read [post]
func (h *ChatHTTPHandler) MarkRead(c *fiber.Ctx) error {
	var req MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	if _, err := h.history.MarkRead(c.UserContext(), req.SenderID, req.ReceiverID); err != nil {
		return writeError(c, "mark-read", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetCorrespondents users who have written to an owner
// @Summary Owner inbox
// @Description Distinct senders to ownerId with their latest message, newest first
// @Tags Chat
// @Produce json
// @Param ownerId query string true "Owner id"
// @Success 200 {object} CorrespondentsResponse
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/chat/correspondents [get]
func (h *ChatHTTPHandler) GetCorrespondents(c *fiber.Ctx) error {
	users, err := h.history.ListCorrespondents(c.UserContext(), c.Query("ownerId"))
	if err != nil {
		return writeError(c, "correspondents", err)
	}
	return c.JSON(CorrespondentsResponse{Users: users})
}

// GetOnline current presence snapshot
// @Summary Online users
// @Tags Chat
// @Produce json
// @Success 200 {object} OnlineResponse
// @Router /api/chat/online [get]
func (h *ChatHTTPHandler) GetOnline(c *fiber.Ctx) error {
	return c.JSON(OnlineResponse{Users: h.presence.Snapshot()})
}

// GetUserOnline whether one user holds a session on this instance
// @Summary User online
// @Tags Chat
// @Produce json
// @Param userId path string true "User id"
// @Success 200 {object} UserOnlineResponse
// @Router /api/chat/online/{userId} [get]
func (h *ChatHTTPHandler) GetUserOnline(c *fiber.Ctx) error {
	userID := c.Params("userId")
	return c.JSON(UserOnlineResponse{UserID: userID, Online: h.presence.IsOnline(userID)})
}

// Healthz liveness
// @Summary Health check
// @Tags Shared
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Description Enable or disable debug logging
// @Tags Shared
// @Param status query bool true "Debug status"
// @Success 200 {string} string "debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func DebugLogFlag(c *fiber.Ctx) error {
	statusStr := c.Query("status")
	status, err := strconv.ParseBool(statusStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid status value")
	}

	logger.Log.Info("debug", zap.Bool("status", status))
	logger.Log.SetDebugMode(status)
	return c.SendString("debug mode updated: " + strconv.FormatBool(status))
}

func writeError(c *fiber.Ctx, op string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = fiber.StatusServiceUnavailable
	}

	if status >= fiber.StatusInternalServerError {
		logger.Log.Error(op, zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
