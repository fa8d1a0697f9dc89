package router

import (
	"time"

	"fixedpay/api"
	"fixedpay/config"
	_ "fixedpay/docs"
	"fixedpay/middleware"
	"fixedpay/service"
	"fixedpay/store"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, st store.Store) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	emailService := service.NewEmailService(&cfg.Email)

	authHandler := api.NewAuthHandler(cfg, st)
	resetHandler := api.NewPasswordResetHandler(st, emailService)
	dashboardHandler := api.NewDashboardHandler(st)
	expenseHandler := api.NewExpenseHandler(st)
	categoryHandler := api.NewCategoryHandler(st)
	paymentMethodHandler := api.NewPaymentMethodHandler(st)
	exportHandler := api.NewExportHandler(st)

	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		auth := v1.Group("/auth")
		{
			loginLimit := middleware.LoginRateLimit(10, time.Minute)
			auth.POST("/register", loginLimit, authHandler.Register)
			auth.POST("/login", loginLimit, authHandler.Login)

			// 密码重置（验证码流程）
			auth.POST("/reset/request", resetHandler.RequestReset)
			auth.POST("/reset/verify", resetHandler.VerifyReset)
			auth.POST("/reset/confirm", resetHandler.ConfirmReset)
		}

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/settings", authHandler.UpdateSettings)
			authorized.PUT("/auth/password", authHandler.ChangePassword)
			authorized.DELETE("/auth/account", authHandler.DeleteAccount)

			// 仪表盘
			dashboard := authorized.Group("/dashboard")
			{
				dashboard.GET("/summary", dashboardHandler.GetSummary)
				dashboard.GET("/stats", dashboardHandler.GetPaymentStats)
				dashboard.GET("/list", dashboardHandler.GetMonthList)
				dashboard.POST("/status", dashboardHandler.ToggleStatus)
			}

			// 固定支出
			expenses := authorized.Group("/expenses")
			{
				expenses.GET("", expenseHandler.List)
				expenses.POST("", expenseHandler.Create)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
			}

			// 分类
			categories := authorized.Group("/categories")
			{
				categories.GET("", categoryHandler.List)
				categories.POST("", categoryHandler.Create)
				categories.PUT("/reorder", categoryHandler.Reorder)
				categories.PUT("/:id", categoryHandler.Update)
				categories.DELETE("/:id", categoryHandler.Delete)
			}

			// 结算方式
			methods := authorized.Group("/payment-methods")
			{
				methods.GET("", paymentMethodHandler.List)
				methods.POST("", paymentMethodHandler.Create)
				methods.DELETE("/:id", paymentMethodHandler.Delete)
			}

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/json", exportHandler.ExportJSON)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
