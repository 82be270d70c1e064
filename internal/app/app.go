package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "helphive/docs"
	"helphive/internal/config"
	"helphive/internal/handlers"
	"helphive/internal/pdf"
	"helphive/internal/repositories"
	"helphive/internal/routes"
	"helphive/internal/services"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	ngoRepo := repositories.NewNGORepository(db)
	taskRepo := repositories.NewTaskRepository(db)

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)

	userService := services.NewUserService(userRepo, emailService, authService)
	ngoService := services.NewNGOService(ngoRepo, userRepo, emailService)
	taskService := services.NewTaskService(taskRepo, ngoRepo, userRepo)
	reportService := services.NewReportService(db)

	certGen := pdf.NewCertificateGenerator(cfg.Files.RootDir)

	// === Handlers ===
	jwtKey := []byte(cfg.JWT.Secret)
	authHandler := handlers.NewAuthHandler(userService, authService, jwtKey)
	userHandler := handlers.NewUserHandler(userService)
	ngoHandler := handlers.NewNGOHandler(ngoService)
	taskHandler := handlers.NewTaskHandler(taskService, userService, ngoService, certGen)
	reportHandler := handlers.NewReportHandler(reportService)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		jwtKey,
		authHandler,
		userHandler,
		ngoHandler,
		taskHandler,
		reportHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server failed: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
