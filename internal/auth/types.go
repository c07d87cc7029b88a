package auth

import (
	"net/mail"
	"strings"

	"github.com/gokatarajesh/classquiz/internal/domain"
)

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterRequest for email/password registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// Validate normalises and checks the registration payload.
func (r *RegisterRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))

	if _, err := mail.ParseAddress(r.Email); err != nil || r.Email == "" {
		return domain.Validation("email", "a valid email is required")
	}
	if r.FullName == "" {
		return domain.Validation("fullName", "full name is required")
	}
	if strings.IndexByte(r.FullName, 0) >= 0 {
		return domain.Validation("fullName", "full name must not contain NUL characters")
	}
	if len(r.Password) < minPasswordLength {
		return domain.Validation("password", ErrPasswordTooShort.Error())
	}
	if r.Role != domain.RoleTeacher && r.Role != domain.RoleStudent {
		return domain.Validation("role", "role must be teacher or student")
	}
	return nil
}

// LoginRequest for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
