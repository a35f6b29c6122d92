package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"eshop/internal/entity"
	"eshop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Login authenticates the caller and hands back a bearer token. Bad
// credentials and a not-yet-activated account produce the same 403 body so
// the response never reveals which check failed or whether the email exists.
func (h *HTTPHandler) Login(c *gin.Context) {
	var req entity.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountNotActivated):
			logrus.WithError(err).WithField("email", req.Email).Warn("login denied")
			ErrorResponse(c, http.StatusForbidden, ErrCodeInvalidCredentials, "Incorrect password or email")
		default:
			logrus.WithError(err).WithField("email", req.Email).Error("login failed")
			InternalError(c, "failed to process login")
		}
		return
	}

	c.JSON(http.StatusOK, entity.AuthLoginResponse{
		Email: result.Email,
		Token: result.Token,
		Role:  result.Role,
	})
}

// Register creates a pending-activation account and mails its activation
// code. A taken email is reported without further detail.
func (h *HTTPHandler) Register(c *gin.Context) {
	var req entity.AuthRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	created, err := h.users.Register(ctx, req.Email, req.DisplayName, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailInvalid) {
			BadRequest(c, ErrCodeInvalidRequest, "Email is invalid")
			return
		}
		logrus.WithError(err).WithField("email", req.Email).Error("registration failed")
		InternalError(c, "failed to register user")
		return
	}
	if !created {
		BadRequest(c, ErrCodeEmailExists, "Email is already used")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Activation code is send to your E-mail"})
}

// Activate consumes an activation code from the emailed link.
func (h *HTTPHandler) Activate(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	activated, err := h.users.Activate(ctx, c.Param("code"))
	if err != nil {
		logrus.WithError(err).Error("activation failed")
		InternalError(c, "failed to activate account")
		return
	}
	if !activated {
		BadRequest(c, ErrCodeActivationInvalid, "Activation code is not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account successfully activated"})
}

// ForgotPassword starts the reset flow by mailing a reset code.
func (h *HTTPHandler) ForgotPassword(c *gin.Context) {
	var req entity.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	sent, err := h.users.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		logrus.WithError(err).WithField("email", req.Email).Error("password reset request failed")
		InternalError(c, "failed to process request")
		return
	}
	if !sent {
		BadRequest(c, ErrCodeEmailNotFound, "Email not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reset password code is send to your E-mail"})
}

// GetPasswordResetCode validates an emailed reset code and returns the
// account it belongs to, so the reset form can be prefilled.
func (h *HTTPHandler) GetPasswordResetCode(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.FindByResetCode(ctx, c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrResetCodeInvalid) {
			BadRequest(c, ErrCodeResetCodeInvalid, "Password reset code is invalid!")
			return
		}
		logrus.WithError(err).Error("reset code lookup failed")
		InternalError(c, "failed to check reset code")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(user))
}

// PasswordReset completes the reset flow. Confirmation failures come back as
// a field-level error map.
func (h *HTTPHandler) PasswordReset(c *gin.Context) {
	var req entity.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.users.ResetPassword(ctx, req.Email, req.Password, req.Password2)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConfirmationEmpty):
			c.JSON(http.StatusBadRequest, gin.H{"password2Error": "Password confirmation cannot be empty"})
		case errors.Is(err, service.ErrConfirmationMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"passwordError": "Passwords do not match"})
		case errors.Is(err, service.ErrAccountNotFound):
			BadRequest(c, ErrCodeEmailNotFound, "Email not found")
		default:
			logrus.WithError(err).WithField("email", req.Email).Error("password reset failed")
			InternalError(c, "failed to reset password")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password successfully changed!"})
}
