package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/equipx/internal/shared"
)

// MinPasswordLength is enforced before a registration or reset leaves the client.
const MinPasswordLength = 8

// Credentials is the login body. TOTPCode and RecoveryCode are only sent when 2FA is on.
type Credentials struct {
	Username     string `json:"benutzername"`
	Password     string `json:"password"`
	TOTPCode     int    `json:"totpCode,omitempty"`
	RecoveryCode string `json:"recoveryCode,omitempty"`
}

// Validate requires a username and password.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password is required", shared.ErrInvalidInput)
	}
	return nil
}

// LoginResponse carries the issued JWT.
type LoginResponse struct {
	Token string `json:"token"`
}

// Registration is the sign-up body.
type Registration struct {
	Username  string `json:"benutzername"`
	Password  string `json:"password"`
	FirstName string `json:"vorname"`
	LastName  string `json:"nachname"`
}

// Validate checks required fields and password length.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Username) == "":
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	case strings.TrimSpace(r.FirstName) == "":
		return fmt.Errorf("%w: first name is required", shared.ErrInvalidInput)
	case strings.TrimSpace(r.LastName) == "":
		return fmt.Errorf("%w: last name is required", shared.ErrInvalidInput)
	case len(r.Password) < MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", shared.ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// PasswordReset is the body of the reset-password call.
type PasswordReset struct {
	Username    string `json:"benutzername"`
	NewPassword string `json:"newPassword"`
}

// Validate checks the username and the new password length.
func (p PasswordReset) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}
	if len(p.NewPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", shared.ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// TwoFactorSetup is returned when 2FA is enabled.
type TwoFactorSetup struct {
	QRCode        string   `json:"qrCode"`
	Secret        string   `json:"secret"`
	RecoveryCodes []string `json:"recoveryCodes"`
}

// TwoFactorVerification is the body used to confirm a TOTP code.
type TwoFactorVerification struct {
	Code int `json:"code"`
}

// RecoveryCodes is returned after a successful 2FA verification.
type RecoveryCodes struct {
	RecoveryCodes []string `json:"recoveryCodes"`
}
