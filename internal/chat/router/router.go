package router

import (
	"context"

	"owner_chat_service/internal/chat/app"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes 註冊聊天服務的路由
// @title Owner Chat Service API
// @version 1.0
// @description Chat history and presence between customers and vehicle owners
// @host localhost:8083
// @BasePath /
func RegisterRoutes(ctx context.Context, r *fiber.App, chatHTTP *app.ChatHTTPHandler, chatWebsocket *app.ChatWebsocketHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/healthz", app.Healthz)
	r.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	r.Post("/debug", app.DebugLogFlag)

	chat := r.Group("/api/chat")
	chat.Get("/history", chatHTTP.GetHistory)
	chat.Post("/mark-read", chatHTTP.MarkRead)
	chat.Get("/correspondents", chatHTTP.GetCorrespondents)
	chat.Get("/online", chatHTTP.GetOnline)
	chat.Get("/online/:userId", chatHTTP.GetUserOnline)

	r.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(ctx, c)
	}))
}
