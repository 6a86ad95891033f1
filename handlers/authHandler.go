package handlers

import (
	"RetinaCare/models"
	"RetinaCare/services"
	"RetinaCare/utils"
	"fmt"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	UserService services.UserService
}

func NewAuthHandler(userService services.UserService) *AuthHandler {
	return &AuthHandler{
		UserService: userService,
	}
}

// Register handles patient self-registration. The role is always patient;
// staff accounts go through the admin endpoint.
func (h *AuthHandler) Register(c *gin.Context) {
	var body struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	user := models.User{
		FullName: body.FullName,
		Email:    body.Email,
		Password: body.Password,
	}
	if err := h.UserService.RegisterPatient(c.Request.Context(), &user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(201, gin.H{"id": user.ID})
}

// CreateStaff lets an admin create staff accounts with an explicit role.
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	user := models.User{
		FullName: body.FullName,
		Email:    body.Email,
		Password: body.Password,
		Role:     models.Role(body.Role),
	}
	if err := h.UserService.CreateStaff(c.Request.Context(), actor, &user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(201, gin.H{"id": user.ID})
}

// Login authenticates the user and returns tokens along with user info
func (h *AuthHandler) Login(c *gin.Context) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&credentials); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.UserService.AuthenticateUser(ctx, credentials.Email, credentials.Password)
	if err != nil {
		c.JSON(401, gin.H{"error": "Invalid email or password"})
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(user.ID, string(user.Role))
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("Failed to generate tokens: %v", err)})
		return
	}

	c.JSON(200, gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"role":         user.Role,
		"fullName":     user.FullName,
	})
}

// RefreshToken issues a new access token from a valid refresh token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token := c.DefaultQuery("refreshToken", "")
	if token == "" {
		c.JSON(400, gin.H{"error": "refresh token is required"})
		return
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		c.JSON(401, gin.H{"error": "Invalid refresh token"})
		return
	}

	accessToken, err := utils.GenerateAccessToken(claims.UserID, claims.Role)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to generate access token"})
		return
	}

	c.JSON(200, gin.H{"accessToken": accessToken})
}

// GetUserProfile returns the authenticated user's account.
func (h *AuthHandler) GetUserProfile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	user, err := h.UserService.GetUserByID(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, user)
}

// ListPatients returns patient accounts for the exam flow.
func (h *AuthHandler) ListPatients(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	patients, err := h.UserService.ListPatients(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, patients)
}

// SendResetCode emails a password reset code.
func (h *AuthHandler) SendResetCode(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.UserService.SendResetCode(c.Request.Context(), body.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "If the email is registered, a reset code has been sent"})
}

// ChangePassword resets a password with an emailed code.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var body struct {
		Email       string `json:"email"`
		ResetCode   string `json:"resetCode"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.UserService.ResetPassword(c.Request.Context(), body.Email, body.ResetCode, body.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "Password updated"})
}
