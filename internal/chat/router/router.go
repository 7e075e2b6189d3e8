package router

import (
	"context"

	"support_chat_service/internal/chat/app"
	"support_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册聊天相关的路由
func RegisterRoutes(r *fiber.App, httpHandler *app.ChatHTTPHandler, wsHandler *app.ChatWebsocketHandler) {
	// admin REST API，需要 JWT
	api := r.Group("/api", middlewares.JWTMiddleware())
	api.Get("/conversations", httpHandler.ListConversations)
	api.Patch("/conversations/:conversationID/status", httpHandler.UpdateStatus)
	api.Get("/messages/:conversationID/messages", httpHandler.GetMessages)
	api.Post("/messages", httpHandler.SendMessage)
	api.Post("/messages/:conversationID/read", httpHandler.MarkRead)

	// admin event feed，JWT 由 query token 帶入
	r.Get("/ws/chat/admin", middlewares.JWTMiddleware(), websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleAdminConnection(context.Background(), c)
	}))

	// 使用者端 chat widget，匿名可連
	r.Get("/ws/chat/user/:conversationID?", websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleUserConnection(context.Background(), c)
	}))
}
