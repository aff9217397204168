// Package router 设置 HTTP 路由
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/akproject/ak-chat/internal/handler"
	"github.com/akproject/ak-chat/internal/middleware"
	"github.com/akproject/ak-chat/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(svc))
	{
		// Auth 认证
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/code", h.Auth.RequestCode)
			authGroup.POST("/verify", h.Auth.VerifyCode)
			authGroup.POST("/refresh", h.Auth.Refresh)
		}

		// Chat 聊天
		chats := v1.Group("/chats")
		{
			chats.POST("", h.Chat.CreateSession)
			chats.GET("", h.Chat.ListSessions)
			chats.GET("/:id", h.Chat.GetSession)
			chats.PUT("/:id", h.Chat.RenameSession)
			chats.DELETE("/:id", h.Chat.DeleteSession)
			chats.POST("/:id/messages", h.Chat.SendMessage)
			chats.GET("/:id/messages", h.Chat.GetMessages)
		}

		// Plan 计划执行
		plans := v1.Group("/plans")
		{
			plans.POST("", h.Plan.GeneratePlan)
			plans.GET("/:id", h.Plan.GetPlan)
			plans.POST("/:id/run", h.Plan.RunPlan)
			plans.POST("/:id/input", h.Plan.SupplyInput)
			plans.POST("/:id/steps/:index/skip", h.Plan.SkipStep)
			plans.PUT("/:id/steps/:index", h.Plan.EditStep)
		}

		// Model 模型目录
		v1.GET("/models", h.System.ListModels)

		// Storage 存储管理
		v1.GET("/storage", h.System.StorageSize)
		v1.DELETE("/storage", h.System.ClearStorage)
	}

	return r
}
