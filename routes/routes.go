package routes

import (
	"RetinaCare/cache"
	"RetinaCare/config"
	"RetinaCare/controllers"
	"RetinaCare/handlers"
	"RetinaCare/middlewares"
	"RetinaCare/repositories"
	"RetinaCare/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(cache *cache.Cache, config *config.AppConfig, db *gorm.DB) http.Handler {
	// Set Gin to release mode
	gin.SetMode(gin.ReleaseMode)

	// Create a Gin router
	router := gin.Default()

	// Apply Bearer token validation to all routes
	router.Use(middlewares.ValidateBearerToken(config.GetBearerToken()))

	// Create and apply CORS middleware configuration
	corsConfig := &middlewares.CorsConfig{
		AllowedOrigins:   []string{"http://localhost:3000", "https://www.example.com", "https://example-dev.com"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	router.Use(middlewares.CorsMiddleware(corsConfig))

	// Apply rate limiter middleware
	router.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		RequestsPerSecond: 15, // 15 requests per second
		Burst:             30, // Burst of 30
	}))

	// Apply logging middleware
	router.Use(middlewares.LoggingMiddleware())

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, cache)
	medicineRepo := repositories.NewMedicineRepository(db, cache)
	analysisRepo := repositories.NewAnalysisRecordRepository(db, cache)
	recordRepo := repositories.NewMedicalRecordRepository(db, cache)
	prescriptionRepo := repositories.NewPrescriptionRepository(db)
	invoiceRepo := repositories.NewInvoiceRepository(db)

	// Capability decisions live in the guard; services consult it before
	// touching data.
	guard := services.NewAccessGuard()

	userService := services.NewUserService(userRepo)
	analysisService := services.NewAnalysisService(guard, analysisRepo)
	examService := services.NewExamService(guard, recordRepo, userRepo)
	pharmacyService := services.NewPharmacyService(guard, medicineRepo)
	prescriptionService := services.NewPrescriptionService(guard, recordRepo, prescriptionRepo, pharmacyService)
	billingService := services.NewBillingService(guard, recordRepo, prescriptionRepo, invoiceRepo)

	authHandler := handlers.NewAuthHandler(userService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	examHandler := handlers.NewExamHandler(examService)
	prescriptionHandler := handlers.NewPrescriptionHandler(prescriptionService)
	pharmacyHandler := handlers.NewPharmacyHandler(pharmacyService)
	billingHandler := handlers.NewBillingHandler(billingService)

	// Register routes
	apiGroup := router.Group("/api").Use(middlewares.TokenAuthMiddleware())
	controllers.SetupClinicRoutes(
		apiGroup,
		analysisHandler,
		examHandler,
		prescriptionHandler,
		pharmacyHandler,
		billingHandler,
	)

	authController := controllers.NewAuthController(authHandler)
	authController.RegisterRoutes(router)

	controllers.SetupRootRoute(router)

	return router
}
