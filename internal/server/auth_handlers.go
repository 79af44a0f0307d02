package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/carepoint-health/carepoint/internal/auth"
	"github.com/carepoint-health/carepoint/internal/models"
	"github.com/carepoint-health/carepoint/internal/roles"
	"github.com/carepoint-health/carepoint/internal/tasks"
)

// RegisterRequest represents a self-registration request
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
	Phone     string `json:"phone" binding:"max=32"`
	Role      string `json:"role" binding:"omitempty,selfrole"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is a partial profile update; nil fields are left alone
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=32"`
}

// AuthResponse is the data of a successful login or registration
type AuthResponse struct {
	User  *UserDetail `json:"user"`
	Token string      `json:"token"`
}

// UserResponse wraps a single user
type UserResponse struct {
	User *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone"`
	Role      roles.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func newUserDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// @Summary Register
// @Description Create a patient or doctor account and sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	role := roles.Patient
	if req.Role != "" {
		role = roles.Role(req.Role)
	}

	db := s.db.WithContext(c.Request.Context())
	email := models.NormalizeEmail(req.Email)

	exists, err := s.emailTaken(db, email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check email")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if exists {
		respondError(c, http.StatusConflict, "An account with this email already exists")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
	}

	if err := db.Create(user).Error; err != nil {
		// Lost a race against a concurrent registration for the same email
		if taken, _ := s.emailTaken(db, email); taken {
			respondError(c, http.StatusConflict, "An account with this email already exists")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to create user")
		respondError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	issued, err := s.issuer.GenerateToken(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		respondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	s.enqueueWelcome(user)

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")

	respondData(c, http.StatusCreated, AuthResponse{
		User:  newUserDetail(user),
		Token: issued.Token,
	})
}

func (s *Server) emailTaken(db *gorm.DB, email string) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// enqueueWelcome schedules the welcome notification. Failure never fails the registration.
func (s *Server) enqueueWelcome(user *models.User) {
	if s.enqueuer == nil {
		return
	}

	task, err := tasks.NewAccountRegisteredTask(user.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to build welcome task")
		return
	}
	if _, err := s.enqueuer.Enqueue(task); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to enqueue welcome task")
	}
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	var user models.User
	err := s.db.WithContext(c.Request.Context()).
		Where("email = ?", models.NormalizeEmail(req.Email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	issued, err := s.issuer.GenerateToken(&user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		respondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("User logged in")

	respondData(c, http.StatusOK, AuthResponse{
		User:  newUserDetail(&user),
		Token: issued.Token,
	})
}

// @Summary Logout
// @Description Revoke the bearer token used for this request
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	err := s.revocations.Revoke(c.Request.Context(), sessionData.TokenID, sessionData.UserID, sessionData.ExpiresAt)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to revoke token")
		respondError(c, http.StatusInternalServerError, "Failed to log out")
		return
	}

	s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")

	respondData(c, http.StatusOK, gin.H{})
}

// @Summary Get current user
// @Description Get the profile of the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	user, ok := s.sessionUser(c)
	if !ok {
		return
	}

	respondData(c, http.StatusOK, UserResponse{User: newUserDetail(user)})
}

// @Summary Update profile
// @Description Partially update the authenticated user's profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} UserResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/profile [patch]
func (s *Server) updateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if len(updates) == 0 {
		respondError(c, http.StatusBadRequest, "No profile fields to update")
		return
	}

	user, ok := s.sessionUser(c)
	if !ok {
		return
	}

	db := s.db.WithContext(c.Request.Context())
	if err := db.Model(user).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update profile")
		respondError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	if err := db.Where("id = ?", user.ID).First(user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to reload profile")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Int("fields", len(updates)).Msg("Profile updated")

	respondData(c, http.StatusOK, UserResponse{User: newUserDetail(user)})
}

// sessionUser loads the user behind the request's session, answering the request on failure
func (s *Server) sessionUser(c *gin.Context) (*models.User, bool) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	var user models.User
	if err := s.db.WithContext(c.Request.Context()).Where("id = ?", sessionData.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusUnauthorized, "User not found")
			return nil, false
		}
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return &user, true
}
