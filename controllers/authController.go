package controllers

import (
	"RetinaCare/handlers"
	"RetinaCare/middlewares"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Handler *handlers.AuthHandler
}

// NewAuthController creates a new AuthController with the given AuthHandler
func NewAuthController(authHandler *handlers.AuthHandler) *AuthController {
	return &AuthController{
		Handler: authHandler,
	}
}

// RegisterRoutes initializes all authentication routes directly on the router
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	// Public routes: No authentication required
	router.POST("/auth/register", ac.Handler.Register)
	router.POST("/auth/login", ac.Handler.Login)
	router.POST("/auth/refresh-token", ac.Handler.RefreshToken)
	router.POST("/send-reset-code", ac.Handler.SendResetCode)
	router.POST("/change-password", ac.Handler.ChangePassword)

	// Protected routes: Requires a valid token
	authGroup := router.Group("/auth").Use(middlewares.TokenAuthMiddleware())
	{
		authGroup.GET("/user/profile", ac.Handler.GetUserProfile)
		authGroup.GET("/patients", ac.Handler.ListPatients)
		authGroup.POST("/staff", ac.Handler.CreateStaff)
	}
}
