package app

import (
	"support_chat_service/internal/chat/domain"
	"support_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ChatHTTPHandler chat REST API handlers
type ChatHTTPHandler struct {
	convUC    *ConversationUseCase
	messageUC *SendMessageUseCase
}

// NewChatHTTPHandler create ChatHTTPHandler
func NewChatHTTPHandler(convUC *ConversationUseCase, messageUC *SendMessageUseCase) *ChatHTTPHandler {
	return &ChatHTTPHandler{
		convUC:    convUC,
		messageUC: messageUC,
	}
}

// sendMessageRequest POST /api/messages body
// REST body 沿用前端欄位命名 (camelCase)，websocket 事件為 snake_case
type sendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	SenderID       string `json:"senderId"`
	SenderType     string `json:"senderType"`
	MessageType    string `json:"messageType"`
	TempID         string `json:"tempId"`
	FileURL        string `json:"fileUrl"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// ListConversations GET /api/conversations?limit=N
func (h *ChatHTTPHandler) ListConversations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultListLimit)

	views, err := h.convUC.List(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"conversations": views})
}

// GetMessages GET /api/messages/:conversationID/messages
func (h *ChatHTTPHandler) GetMessages(c *fiber.Ctx) error {
	convID := c.Params("conversationID")

	messages, err := h.convUC.GetThread(c.Context(), convID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// SendMessage POST /api/messages
func (h *ChatHTTPHandler) SendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.ConversationID == "" || (req.Text == "" && req.FileURL == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing conversationId or text"})
	}

	senderType := domain.SenderType(req.SenderType)
	if senderType == "" {
		senderType = domain.SenderAdmin
	}

	msg, err := h.messageUC.Execute(c.Context(), SendCommand{
		ConversationID: req.ConversationID,
		SenderType:     senderType,
		Text:           req.Text,
		MessageType:    req.MessageType,
		FileURL:        req.FileURL,
		TempID:         req.TempID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"id":         msg.ID,
		"tempId":     req.TempID,
		"status":     msg.Status,
		"created_at": msg.CreatedAt,
	})
}

// MarkRead POST /api/messages/:conversationID/read
func (h *ChatHTTPHandler) MarkRead(c *fiber.Ctx) error {
	convID := c.Params("conversationID")

	if err := h.messageUC.MarkRead(c.Context(), convID); err != nil {
		// 前端 fire-and-forget，server 端也只記 log
		logger.Log.Errorf("mark read err:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true})
}

// UpdateStatus PATCH /api/conversations/:conversationID/status
func (h *ChatHTTPHandler) UpdateStatus(c *fiber.Ctx) error {
	convID := c.Params("conversationID")

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	if err := h.convUC.UpdateStatus(c.Context(), convID, domain.ConversationStatus(req.Status)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}
