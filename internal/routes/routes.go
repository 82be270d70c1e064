package routes

import (
	"github.com/gin-gonic/gin"

	"helphive/internal/authz"
	"helphive/internal/handlers"
	"helphive/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtKey []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	ngoHandler *handlers.NGOHandler,
	taskHandler *handlers.TaskHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/register", userHandler.Register)
	r.GET("/tasks", taskHandler.GetAll)
	r.GET("/tasks/:id", taskHandler.GetByID)

	// ---- protected
	r.Use(middleware.AuthMiddleware(jwtKey))

	// USERS
	users := r.Group("/users")
	{
		users.GET("/me", userHandler.Me)
	}

	// NGOS
	ngos := r.Group("/ngos")
	{
		ngos.POST("/", ngoHandler.Create)
		ngos.GET("/", ngoHandler.List)
		ngos.GET("/me", ngoHandler.Mine)
		ngos.GET("/:id", ngoHandler.GetByID)
		ngos.POST("/:id/verification",
			middleware.RequireRoles(authz.RoleAdmin),
			ngoHandler.SetVerification)
	}

	// TASKS
	tasks := r.Group("/tasks")
	{
		tasks.POST("/",
			middleware.RequireRoles(authz.RoleNGO, authz.RoleAdmin),
			taskHandler.Create)
		tasks.PUT("/:id",
			middleware.RequireRoles(authz.RoleNGO, authz.RoleAdmin),
			taskHandler.Update)
		tasks.DELETE("/:id",
			middleware.RequireRoles(authz.RoleNGO, authz.RoleAdmin),
			taskHandler.Delete)
		tasks.POST("/:id/status",
			middleware.RequireRoles(authz.RoleNGO, authz.RoleAdmin),
			taskHandler.ChangeStatus)
		tasks.POST("/:id/applications",
			middleware.RequireRoles(authz.RoleVolunteer),
			taskHandler.Apply)
		// approve/reject by the owner, withdraw by the volunteer
		tasks.POST("/:id/applications/:application_id/decision",
			middleware.RequireRoles(authz.RoleVolunteer, authz.RoleNGO, authz.RoleAdmin),
			taskHandler.Decide)
		tasks.POST("/:id/volunteers/:volunteer_id/complete",
			middleware.RequireRoles(authz.RoleNGO, authz.RoleAdmin),
			taskHandler.CompleteVolunteer)
		tasks.GET("/:id/volunteers/:volunteer_id/certificate", taskHandler.Certificate)
	}

	// REPORTS (admin)
	reports := r.Group("/reports", middleware.RequireRoles(authz.RoleAdmin))
	{
		reports.GET("/summary", reportHandler.GetSummary)
	}

	return r
}
