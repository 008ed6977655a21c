package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/studentbridge-api/middleware"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/repository"
	"github.com/kendall-kelly/studentbridge-api/services"
)

// UserInfoProvider fetches the identity behind an access token
type UserInfoProvider interface {
	GetUserInfo(ctx context.Context, accessToken string) (*services.Auth0UserInfo, error)
}

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name  string `json:"name" binding:"omitempty"`
	Email string `json:"email" binding:"omitempty,email"`
}

// UserController manages marketplace profiles
type UserController struct {
	users    *repository.UserRepository
	userInfo UserInfoProvider
}

// NewUserController creates a UserController
func NewUserController(users *repository.UserRepository, userInfo UserInfoProvider) *UserController {
	return &UserController{users: users, userInfo: userInfo}
}

// CreateUser handles POST /api/v1/users - creates a profile from Auth0 userinfo.
// The role comes from the token's role claim and defaults to student.
func (uc *UserController) CreateUser(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	userInfo, err := uc.userInfo.GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		respondErrorCode(c, http.StatusInternalServerError, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	if userInfo.Email == "" {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}
	if userInfo.Name == "" {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by Auth0")
		return
	}

	role := middleware.GetRole(c)
	switch role {
	case "":
		role = models.RoleStudent
	case models.RoleStudent, models.RoleBusiness:
	default:
		respondErrorCode(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be student or business")
		return
	}

	user := models.User{
		Auth0ID: auth0ID,
		Name:    userInfo.Name,
		Email:   userInfo.Email,
		Role:    role,
	}
	if err := uc.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondErrorCode(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID or email already exists")
			return
		}
		respondErrorCode(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user")
		return
	}

	respondData(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/users/me
func (uc *UserController) GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me
func (uc *UserController) UpdateMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	updated, err := uc.users.UpdateProfile(c.Request.Context(), user.ID, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondErrorCode(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
			return
		}
		respondErrorCode(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user profile")
		return
	}

	respondData(c, http.StatusOK, updated)
}
