package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nest/backend/config"
	"nest/backend/internal/api/handler"
	"nest/backend/internal/api/middleware"
	"nest/backend/internal/model"
	"nest/backend/internal/realtime"
	"nest/backend/pkg/jwt"
	"nest/backend/pkg/redis"
)

// Setup builds the Gin engine with all routes and middleware.
func Setup(cfg *config.Config, h *handler.Handler, hub *realtime.Hub, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(8 << 20)) // CSV imports are the largest payload

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	admin := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// auth (public, rate limited against credential stuffing)
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// authenticated routes
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/change-password", h.Auth.ChangePassword)

			// users
			users := authorized.Group("/users")
			{
				users.PUT("/me", h.User.UpdateMe)
				users.GET("", admin, h.User.List)
				users.GET("/:id", admin, h.User.Get)
				users.PUT("/:id", admin, h.User.Update)
				users.PUT("/:id/role", admin, h.User.SetRole)
				users.PUT("/:id/status", admin, h.User.SetStatus)
				users.DELETE("/:id", admin, h.User.Delete)
			}

			// gear inventory
			gears := authorized.Group("/gears")
			{
				gears.GET("", h.Gear.List)
				gears.GET("/lookup", h.Gear.Lookup)
				gears.GET("/export", admin, h.Gear.ExportCSV)
				gears.POST("/import", admin, h.Gear.ImportCSV)
				gears.GET("/:id", h.Gear.Get)
				gears.GET("/:id/qrcode", h.Gear.QRCode)
				gears.POST("", admin, h.Gear.Create)
				gears.PUT("/:id", admin, h.Gear.Update)
				gears.DELETE("/:id", admin, h.Gear.Delete)
			}

			// gear requests
			requests := authorized.Group("/requests")
			{
				requests.POST("", h.Request.Create)
				requests.GET("/mine", h.Request.ListMine)
				requests.GET("", admin, h.Request.List)
				requests.GET("/:id", h.Request.Get) // owner or admin, checked in handler
				requests.PUT("/:id/approve", admin, h.Request.Approve)
				requests.PUT("/:id/reject", admin, h.Request.Reject)
				requests.PUT("/:id/cancel", h.Request.Cancel)
			}

			// checkins
			checkins := authorized.Group("/checkins")
			{
				checkins.POST("", h.Checkin.Create)
				checkins.GET("/mine", h.Checkin.ListMine)
				checkins.GET("", admin, h.Checkin.List)
				checkins.GET("/:id", admin, h.Checkin.Get)
				checkins.PUT("/:id/approve", admin, h.Checkin.Approve)
				checkins.PUT("/:id/reject", admin, h.Checkin.Reject)
			}

			// notifications and activity log
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.DELETE("/:id", h.Notification.Delete)
			}
			authorized.GET("/activities", admin, h.Notification.ListActivities)

			// dashboard
			authorized.GET("/dashboard/stats", admin, h.Dashboard.Stats)

			// exports
			exports := authorized.Group("/exports")
			{
				exports.GET("/inventory", admin, h.Export.InventoryReport)
				exports.GET("/calendar", h.Export.Calendar)
			}

			// maintenance
			adminOps := authorized.Group("/admin", admin)
			{
				adminOps.POST("/recompute-availability", h.Admin.RecomputeAvailability)
				adminOps.POST("/overdue-sweep", h.Admin.RunOverdueSweep)
			}
		}
	}

	// ── realtime ──
	r.GET("/ws/changes", hub.ServeWS)

	return r
}
