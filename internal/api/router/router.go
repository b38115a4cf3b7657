package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dorm-repair/config"
	"dorm-repair/internal/api/handler"
	"dorm-repair/internal/api/middleware"
	"dorm-repair/pkg/response"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, resolver middleware.SessionResolver, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Warn("可信代理配置无效，忽略转发头", zap.Strings("trusted_proxies", cfg.Server.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusMethodNotAllowed, 10006, "不支持的请求方法")
	})
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, 10404, "资源不存在")
	})

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	statsCache := middleware.ResponseCache(cfg.Server.StatsCacheTTL)
	auth := middleware.SessionAuth(resolver, cfg.Auth.Cookie.Name)
	staff := middleware.RequireStaff()

	// ── 健康检查 ──
	r.GET("/health", h.System.Health)

	api := r.Group("/api")
	{
		api.GET("/health", h.System.Health)

		// 系统模块（无需认证）
		system := api.Group("/system")
		{
			system.GET("/info", statsCache, h.System.Info)
			system.GET("/choices/:type", h.System.Choices)
		}

		// 认证模块
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", middleware.RateLimit(cfg.Server.LoginRatePerSec, cfg.Server.LoginBurst), h.Auth.Login)
			authGroup.POST("/logout", h.Auth.Logout)
			authGroup.GET("/user", auth, h.Auth.GetCurrentUser)
			authGroup.POST("/change-password", auth, h.Auth.ChangePassword)
		}

		// 需要登录的路由
		authorized := api.Group("")
		authorized.Use(auth)
		{
			// 报修工单模块
			orders := authorized.Group("/repair-orders")
			{
				orders.GET("", h.RepairOrder.ListOrders)
				orders.POST("", h.RepairOrder.CreateOrder)
				orders.GET("/statistics", statsCache, h.RepairOrder.Statistics)
				orders.GET("/export", staff, h.Export.ExportRepairOrders)
				orders.POST("/batch-update", staff, h.RepairOrder.BatchUpdate)
				orders.GET("/:id", h.RepairOrder.GetOrder)
				orders.PUT("/:id", h.RepairOrder.UpdateOrder)
				orders.PATCH("/:id", h.RepairOrder.UpdateOrder)
				orders.DELETE("/:id", staff, h.RepairOrder.DeleteOrder)
				orders.POST("/:id/assign-worker", staff, h.RepairOrder.AssignWorker)
				orders.POST("/:id/add-notes", h.RepairOrder.AddNotes)
				orders.POST("/:id/rate", h.RepairOrder.Rate)
			}

			// 宿舍模块
			dorms := authorized.Group("/dormitories")
			{
				dorms.GET("", h.Dormitory.ListDormitories)
				dorms.POST("", staff, h.Dormitory.CreateDormitory)
				dorms.GET("/statistics", statsCache, h.Dormitory.Statistics)
				dorms.GET("/:id", h.Dormitory.GetDormitory)
				dorms.PUT("/:id", staff, h.Dormitory.UpdateDormitory)
				dorms.PATCH("/:id", staff, h.Dormitory.UpdateDormitory)
				dorms.DELETE("/:id", staff, h.Dormitory.DeleteDormitory)
			}

			// 学生模块
			students := authorized.Group("/students")
			{
				students.GET("", h.Student.ListStudents)
				students.POST("", staff, h.Student.CreateStudent)
				students.GET("/statistics", statsCache, h.Student.Statistics)
				students.POST("/batch-import", staff, h.Student.BatchImport)
				students.GET("/:id", h.Student.GetStudent)
				students.PUT("/:id", staff, h.Student.UpdateStudent)
				students.PATCH("/:id", staff, h.Student.UpdateStudent)
				students.DELETE("/:id", staff, h.Student.DeleteStudent)
				students.POST("/:id/assign-dormitory", staff, h.Student.AssignDormitory)
				students.POST("/:id/unassign-dormitory", staff, h.Student.UnassignDormitory)
			}

			// 用户模块（工作人员）
			users := authorized.Group("/users")
			users.Use(staff)
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.GET("/:id", h.User.GetUser)
				users.PATCH("/:id", h.User.UpdateUser)
			}
		}
	}

	return r
}
