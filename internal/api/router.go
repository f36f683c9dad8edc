// Package api serves the dashboard's HTTP API.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"resale-console/internal/config"
	"resale-console/internal/storage"
	"resale-console/internal/store"
	"resale-console/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the services the handlers share.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Hub       *ws.Hub
	Storage   storage.Driver
	Workflows *store.Workflows
	LogLevel  *slog.LevelVar
}

// NewRouter builds the gin engine with every dashboard route under /api.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors(d.Config.CORS))

	workflowHandler := NewWorkflowHandler(d.Workflows, d.Hub)
	accountHandler := NewAccountHandler(d.DB)
	autoReplyHandler := NewAutoReplyHandler(d.DB)
	autoSellHandler := NewAutoSellHandler(d.DB)
	orderHandler := NewOrderHandler(d.DB)
	goodsHandler := NewGoodsHandler(d.DB)
	conversationHandler := NewConversationHandler(d.DB)
	notificationHandler := NewNotificationHandler(d.DB)
	taskHandler := NewScheduledTaskHandler(d.DB)
	userHandler := NewUserHandler(d.DB)
	statusHandler := NewStatusHandler(d.DB, d.Config.Cache.StatusTTL)
	settingsHandler := NewSettingsHandler(d.DB, d.LogLevel, statusHandler)
	logHandler := NewLogHandler(d.Config.Log.Dir, d.Hub, d.Storage)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", statusHandler.GetStatus)

		// Workflow Routes
		apiGroup.GET("/workflows", workflowHandler.GetWorkflows)
		apiGroup.POST("/workflows", workflowHandler.CreateWorkflow)
		apiGroup.GET("/workflows/default", workflowHandler.GetDefaultWorkflow)
		apiGroup.GET("/workflows/templates", workflowHandler.GetTemplates)
		apiGroup.POST("/workflows/validate", workflowHandler.ValidateDefinition)
		apiGroup.GET("/workflows/:id", workflowHandler.GetWorkflow)
		apiGroup.PUT("/workflows/:id", workflowHandler.UpdateWorkflow)
		apiGroup.DELETE("/workflows/:id", workflowHandler.DeleteWorkflow)
		apiGroup.POST("/workflows/:id/default", workflowHandler.SetDefault)
		apiGroup.GET("/workflows/:id/nodes", workflowHandler.GetNodes)
		apiGroup.POST("/workflows/:id/nodes", workflowHandler.AddNode)
		apiGroup.PUT("/workflows/:id/nodes/:nodeId", workflowHandler.UpdateNode)
		apiGroup.DELETE("/workflows/:id/nodes/:nodeId", workflowHandler.DeleteNode)

		// Account Routes
		apiGroup.GET("/accounts", accountHandler.GetAccounts)
		apiGroup.POST("/accounts", accountHandler.CreateAccount)
		apiGroup.GET("/accounts/:id", accountHandler.GetAccount)
		apiGroup.PUT("/accounts/:id", accountHandler.UpdateAccount)
		apiGroup.DELETE("/accounts/:id", accountHandler.DeleteAccount)
		apiGroup.POST("/accounts/:id/toggle", accountHandler.ToggleAccount)

		// Automation Routes
		apiGroup.GET("/autoreply/rules", autoReplyHandler.GetRules)
		apiGroup.POST("/autoreply/rules", autoReplyHandler.CreateRule)
		apiGroup.GET("/autoreply/rules/:id", autoReplyHandler.GetRule)
		apiGroup.PUT("/autoreply/rules/:id", autoReplyHandler.UpdateRule)
		apiGroup.DELETE("/autoreply/rules/:id", autoReplyHandler.DeleteRule)
		apiGroup.POST("/autoreply/rules/:id/toggle", autoReplyHandler.ToggleRule)

		apiGroup.GET("/autosell/rules", autoSellHandler.GetRules)
		apiGroup.POST("/autosell/rules", autoSellHandler.CreateRule)
		apiGroup.GET("/autosell/rules/:id", autoSellHandler.GetRule)
		apiGroup.PUT("/autosell/rules/:id", autoSellHandler.UpdateRule)
		apiGroup.DELETE("/autosell/rules/:id", autoSellHandler.DeleteRule)
		apiGroup.POST("/autosell/rules/:id/toggle", autoSellHandler.ToggleRule)
		apiGroup.GET("/autosell/rules/:id/stock", autoSellHandler.GetStock)
		apiGroup.POST("/autosell/rules/:id/stock", autoSellHandler.AddStock)
		apiGroup.DELETE("/autosell/rules/:id/stock", autoSellHandler.ClearStock)
		apiGroup.GET("/autosell/rules/:id/stock/stats", autoSellHandler.GetStockStats)
		apiGroup.GET("/autosell/logs", autoSellHandler.GetLogs)

		// Order and Goods Routes
		apiGroup.GET("/orders", orderHandler.GetOrders)
		apiGroup.GET("/orders/export", orderHandler.ExportOrders)
		apiGroup.GET("/orders/:orderId", orderHandler.GetOrder)
		apiGroup.GET("/goods", goodsHandler.GetGoods)

		// Conversation Routes
		apiGroup.GET("/conversations", conversationHandler.GetConversations)
		apiGroup.GET("/conversations/:accountId/:chatId/messages", conversationHandler.GetMessages)
		apiGroup.POST("/conversations/:accountId/:chatId/read", conversationHandler.MarkRead)

		// Notification Routes
		apiGroup.GET("/notifications/channels", notificationHandler.GetChannels)
		apiGroup.POST("/notifications/channels", notificationHandler.CreateChannel)
		apiGroup.PUT("/notifications/channels/:id", notificationHandler.UpdateChannel)
		apiGroup.DELETE("/notifications/channels/:id", notificationHandler.DeleteChannel)
		apiGroup.POST("/notifications/channels/:id/toggle", notificationHandler.ToggleChannel)
		apiGroup.GET("/notifications/messages", notificationHandler.GetMessageNotifications)
		apiGroup.POST("/notifications/messages", notificationHandler.CreateMessageNotification)
		apiGroup.PUT("/notifications/messages/:id", notificationHandler.UpdateMessageNotification)
		apiGroup.DELETE("/notifications/messages/:id", notificationHandler.DeleteMessageNotification)

		apiGroup.GET("/scheduled-tasks", taskHandler.GetTasks)
		apiGroup.POST("/scheduled-tasks", taskHandler.CreateTask)
		apiGroup.GET("/scheduled-tasks/:id", taskHandler.GetTask)
		apiGroup.PUT("/scheduled-tasks/:id", taskHandler.UpdateTask)
		apiGroup.DELETE("/scheduled-tasks/:id", taskHandler.DeleteTask)

		apiGroup.GET("/users", userHandler.GetUsers)
		apiGroup.POST("/users", userHandler.CreateUser)
		apiGroup.GET("/users/:id", userHandler.GetUser)
		apiGroup.PUT("/users/:id", userHandler.UpdateUser)
		apiGroup.DELETE("/users/:id", userHandler.DeleteUser)

		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.PUT("/settings", settingsHandler.UpdateSetting)

		// Log Routes
		logGroup := apiGroup.Group("/logs")
		{
			logGroup.GET("/files", logHandler.GetFiles)
			logGroup.GET("/content", logHandler.GetContent)
			logGroup.GET("/stream", logHandler.Stream)
			logGroup.POST("/archive", logHandler.Archive)
			logGroup.GET("/archives/:key", logHandler.Download)
		}
	}

	return r
}

func cors(cfg config.CORSConfig) gin.HandlerFunc {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	allowAll := false
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headers)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methods)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	logger := slog.With("module", "HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).Round(time.Millisecond),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", attrs...)
		case c.Request.URL.Path == "/api/logs/stream":
		default:
			logger.Debug("request", attrs...)
		}
	}
}
