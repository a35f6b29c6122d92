package entity

import "time"

// DbUser represents a persisted user account.
//
// ActivationCode and PasswordResetCode use the empty string for "absent".
// An account with a non-empty activation code has not yet proven control of
// its email address and cannot log in.
type DbUser struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Email             string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	DisplayName       string    `gorm:"column:display_name;type:varchar(255);not null" json:"display_name"`
	PasswordHash      string    `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Active            bool      `gorm:"column:active;not null;default:false" json:"active"`
	ActivationCode    string    `gorm:"column:activation_code;type:varchar(64);index" json:"-"`
	PasswordResetCode string    `gorm:"column:password_reset_code;type:varchar(64);index" json:"-"`
	Roles             RoleList  `gorm:"column:roles;type:text;not null" json:"roles"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "users"
}

// IsAdmin reports whether the account carries the ADMIN role.
func (u *DbUser) IsAdmin() bool {
	if u == nil {
		return false
	}
	return u.Roles.Contains(RoleAdmin)
}

// Activated reports whether the account may authenticate. The activation code
// is the gate: it is assigned at registration and whenever the email changes,
// and cleared only by the activation flow.
func (u *DbUser) Activated() bool {
	return u != nil && u.ActivationCode == ""
}

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Roles       []string  `json:"roles"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserQuery supports listing users with pagination.
type UserQuery struct {
	BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthLoginResponse mirrors the historical wire shape: email, token and the
// single role claim carried by the token.
type AuthLoginResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
	Role  string `json:"role"`
}

type AuthRegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetRequest carries the reset form. Password2 is the confirmation
// field; its checks happen in the lifecycle service, not in binding, so the
// caller gets field-level errors instead of a generic 400.
type PasswordResetRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type ProfileUpdateRequest struct {
	Email    string `json:"email,omitempty" binding:"omitempty,email"`
	Password string `json:"password,omitempty"`
}

type RoleUpdateRequest struct {
	Roles []string `json:"roles" binding:"required"`
}

type UserListResponse struct {
	Users []UserSummary `json:"users"`
	Meta  *Meta         `json:"meta"`
}
