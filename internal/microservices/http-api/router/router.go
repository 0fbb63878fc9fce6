package router

import (
	"lendinghub/internal/microservices/http-api/handler"
	"lendinghub/internal/microservices/http-api/middleware"
	"lendinghub/internal/microservices/http-api/service"
	"lendinghub/internal/microservices/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Dependencies struct {
	Tokens        service.TokenService
	Notifications *handler.NotificationHandler
	Registry      *websocket.Registry
	Logger        *zap.Logger
}

func New(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(deps.Logger))

	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.AuthMiddleware(deps.Tokens)

	r.GET("/ws/notifications", auth, websocket.WSHandler(deps.Registry, deps.Logger))

	api := r.Group("/api/v1", auth)
	{
		deps.Notifications.RegisterRoutes(api.Group("/notifications"), middleware.RequireLibrarian())
	}

	return r
}
