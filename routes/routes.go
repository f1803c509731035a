package routes

import (
	"github.com/gin-gonic/gin"

	"partner-onboarding-api/handlers"
	"partner-onboarding-api/middleware"
	"partner-onboarding-api/models"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/driver/auth/register", handlers.RegisterDriver)
		public.POST("/driver/auth/login", handlers.LoginDriver)
		public.POST("/restaurant/auth/register", handlers.RegisterRestaurant)
		public.POST("/restaurant/auth/login", handlers.LoginRestaurant)
		public.POST("/admin/auth/register", handlers.RegisterAdmin)
		public.POST("/admin/auth/login", handlers.LoginAdmin)
	}

	// ── Driver routes ──────────────────────────────────────────────
	driver := r.Group("/api/driver")
	driver.Use(middleware.AuthRequired(middleware.SubjectDriver))
	{
		driver.GET("/profile", handlers.GetProfile)
		driver.GET("/dashboard", handlers.GetDashboard)
		driver.GET("/stages/:number", handlers.GetStageFields)
		driver.PUT("/stages/:number", handlers.SubmitStage)
		driver.POST("/payment/intent", handlers.CreatePaymentIntent)
		driver.POST("/payment/confirm", handlers.ConfirmPayment)
		driver.POST("/verify-email/request", handlers.RequestEmailVerification)
		driver.POST("/verify-email", handlers.VerifyEmail)
	}

	// ── Restaurant routes ──────────────────────────────────────────
	restaurant := r.Group("/api/restaurant")
	restaurant.Use(middleware.AuthRequired(middleware.SubjectRestaurant))
	{
		restaurant.GET("/profile", handlers.GetProfile)
		restaurant.GET("/dashboard", handlers.GetDashboard)
		restaurant.GET("/stages/:number", handlers.GetStageFields)
		restaurant.PUT("/stages/:number", handlers.SubmitStage)
		restaurant.POST("/payment/intent", handlers.CreatePaymentIntent)
		restaurant.POST("/payment/confirm", handlers.ConfirmPayment)
		restaurant.POST("/verify-email/request", handlers.RequestEmailVerification)
		restaurant.POST("/verify-email", handlers.VerifyEmail)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(middleware.SubjectAdmin),
		middleware.RoleRequired(models.RoleAdmin, models.RoleSuperAdmin))
	{
		admin.GET("/drivers", handlers.AdminListDrivers)
		admin.GET("/restaurants", handlers.AdminListRestaurants)
		admin.PUT("/:type/:id/status", handlers.AdminSetStatus)
		admin.PUT("/:type/status/bulk", handlers.AdminBulkSetStatus)
		admin.DELETE("/restaurants/:id", handlers.AdminDeleteRestaurant)
		admin.GET("/export/:type", handlers.AdminExportCSV)
	}

	// super_admin only
	super := r.Group("/api/admin")
	super.Use(middleware.AuthRequired(middleware.SubjectAdmin),
		middleware.RoleRequired(models.RoleSuperAdmin))
	{
		super.PUT("/admins/:id/role", handlers.AdminSetRole)
	}
}
