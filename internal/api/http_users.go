package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"eshop/internal/entity"
	"eshop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Me returns the caller's own account.
func (h *HTTPHandler) Me(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbUser, err := h.users.GetUser(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to load profile")
		InternalError(c, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(dbUser))
}

// UpdateProfile changes the caller's email and/or password. An email change
// triggers re-activation for the new address.
func (h *HTTPHandler) UpdateProfile(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.users.UpdateProfile(ctx, user.ID, req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailConflict):
			BadRequest(c, ErrCodeEmailExists, "Email is already used")
		case errors.Is(err, service.ErrEmailInvalid):
			BadRequest(c, ErrCodeInvalidRequest, "Email is invalid")
		case errors.Is(err, service.ErrAccountNotFound):
			NotFound(c, ErrCodeUserNotFound, "user not found")
		default:
			logrus.WithError(err).WithField("user_id", user.ID).Error("profile update failed")
			InternalError(c, "failed to update profile")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// ListUsers returns paginated accounts for the admin surface.
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var query entity.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, meta, err := h.repo.ListUsers(ctx, &query)
	if err != nil {
		logrus.WithError(err).Error("failed to list users")
		InternalError(c, "failed to load users")
		return
	}

	response := entity.UserListResponse{
		Users: make([]entity.UserSummary, 0, len(users)),
		Meta:  meta,
	}
	for idx := range users {
		response.Users = append(response.Users, makeUserSummary(&users[idx]))
	}

	c.JSON(http.StatusOK, response)
}

// SetUserRoles replaces a user's role set wholesale.
func (h *HTTPHandler) SetUserRoles(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	var req entity.RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.users.SetRoles(ctx, uint(id), req.Roles); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		logrus.WithError(err).WithField("user_id", id).Error("role update failed")
		InternalError(c, "failed to update roles")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Roles updated"})
}

func makeUserSummary(user *entity.DbUser) entity.UserSummary {
	if user == nil {
		return entity.UserSummary{}
	}
	return entity.UserSummary{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       user.Roles.ToSlice(),
		Active:      user.Active,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
