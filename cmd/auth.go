package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges the credentials for a token and stores it for the profile.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := models.Credentials{
		Username:     cmd.String("username"),
		Password:     cmd.String("password"),
		RecoveryCode: strings.TrimSpace(cmd.String("recovery-code")),
	}

	var err error
	if creds.Username == "" {
		if creds.Username, err = r.prompt("Username"); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = r.prompt("Password"); err != nil {
			return err
		}
	}
	if code := strings.TrimSpace(cmd.String("totp")); code != "" {
		if creds.TOTPCode, err = parseTOTP(code); err != nil {
			return err
		}
	}

	r.logger.Info("logging in", "user", creds.Username, "profile", r.profile)

	sess, err := r.client.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	return r.notify(notify.Success, "Welcome back, %s! Logged in as %s until %s",
		sess.Username(), sess.Role(), sess.ExpiresAt().Local().Format(time.DateTime))
}

// AuthLogout forgets the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.client.Logout(ctx); err != nil {
		return err
	}
	return r.notify(notify.Success, "Logged out")
}

type authStatus struct {
	Profile       string     `json:"profile"`
	BaseURL       string     `json:"baseUrl"`
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	Role          string     `json:"role,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// AuthStatus reports the session stored for the current profile.
//
// A missing or expired token is reported, not returned as an error.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("all") {
		return r.authSessions(ctx, cmd)
	}

	status := authStatus{Profile: r.profile, BaseURL: r.client.BaseURL()}
	sess, err := r.sessions.Current(ctx)
	switch {
	case err == nil:
		exp := sess.ExpiresAt()
		status.Authenticated = true
		status.Username = sess.Username()
		status.Role = sess.Role()
		status.ExpiresAt = &exp
	case shared.IsUnauthenticated(err):
		r.logger.Debug("no session", "reason", err)
	default:
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlain("API:     %s\n", status.BaseURL)
	r.writePlain("Profile: %s\n", status.Profile)
	if !status.Authenticated {
		if errors.Is(err, shared.ErrSessionExpired) {
			return r.writePlain("%s\n", shared.SessionExpiredMessage)
		}
		return r.writePlain("Not logged in\n")
	}
	r.writePlain("User:    %s (%s)\n", status.Username, status.Role)
	return r.writePlain("Expires: %s\n", status.ExpiresAt.Local().Format(time.DateTime))
}

func (r *Runner) authSessions(ctx context.Context, cmd *cli.Command) error {
	if r.stored == nil {
		return fmt.Errorf("%w: no local database", shared.ErrServiceUnavailable)
	}
	stored, err := r.stored.List(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(stored, cmd.Bool("pretty"))
	}
	if len(stored) == 0 {
		return r.writePlain("No stored sessions\n")
	}
	for _, s := range stored {
		expires := "never"
		if s.ExpiresAt != nil {
			expires = s.ExpiresAt.Local().Format(time.DateTime)
		}
		marker := " "
		if s.Profile == r.profile {
			marker = "*"
		}
		r.writePlain("%s %s  %s  expires %s\n", marker, s.Profile, shared.OrNA(s.Subject), expires)
	}
	return nil
}

// AuthRegister creates an account. The password is prompted for when not given.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	reg := models.Registration{
		Username:  cmd.String("username"),
		Password:  cmd.String("password"),
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
	}
	if reg.Password == "" {
		var err error
		if reg.Password, err = r.prompt("Password"); err != nil {
			return err
		}
	}

	if err := r.client.Register(ctx, reg); err != nil {
		return err
	}
	return r.notify(notify.Success, "Registration successful! Log in with 'equipx auth login -u %s'", reg.Username)
}

// AuthResetPassword sets a new password for the account.
func (r *Runner) AuthResetPassword(ctx context.Context, cmd *cli.Command) error {
	reset := models.PasswordReset{
		Username:    cmd.String("username"),
		NewPassword: cmd.String("password"),
	}
	if reset.NewPassword == "" {
		var err error
		if reset.NewPassword, err = r.prompt("New password"); err != nil {
			return err
		}
	}

	if err := r.client.ResetPassword(ctx, reset); err != nil {
		return err
	}
	return r.notify(notify.Success, "Password reset for %s", reset.Username)
}

// TwoFactorEnable starts 2FA setup and prints the secret and recovery codes.
func (r *Runner) TwoFactorEnable(ctx context.Context, cmd *cli.Command) error {
	setup, err := r.client.Enable2FA(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(setup, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Two-factor authentication")
	r.writePlain("Secret: %s\n", setup.Secret)
	if setup.QRCode != "" && !strings.HasPrefix(setup.QRCode, "data:") {
		r.writePlain("QR:     %s\n", setup.QRCode)
	}
	writeCodes(r, setup.RecoveryCodes)
	r.writePlainln("Add the secret to your authenticator app, then run 'equipx auth 2fa verify <code>'")
	return nil
}

// TwoFactorVerify confirms 2FA setup with a TOTP code.
func (r *Runner) TwoFactorVerify(ctx context.Context, cmd *cli.Command) error {
	code, err := parseTOTP(cmd.StringArg("code"))
	if err != nil {
		return err
	}

	codes, err := r.client.Verify2FA(ctx, code)
	if err != nil {
		return err
	}
	r.notify(notify.Success, "Two-factor authentication enabled")
	writeCodes(r, codes.RecoveryCodes)
	return nil
}

// TwoFactorDisable turns 2FA off.
func (r *Runner) TwoFactorDisable(ctx context.Context, cmd *cli.Command) error {
	if err := r.client.Disable2FA(ctx); err != nil {
		return err
	}
	return r.notify(notify.Success, "Two-factor authentication disabled")
}

func writeCodes(r *Runner, codes []string) {
	if len(codes) == 0 {
		return
	}
	r.writePlainln("Recovery codes (store them somewhere safe):")
	for _, c := range codes {
		r.writePlain("  %s\n", c)
	}
}

// parseTOTP accepts a six digit code.
func parseTOTP(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 6 {
		return 0, fmt.Errorf("%w: the code must have 6 digits", shared.ErrInvalidArgument)
	}
	code, err := strconv.Atoi(s)
	if err != nil || code < 0 {
		return 0, fmt.Errorf("%w: the code must have 6 digits", shared.ErrInvalidArgument)
	}
	return code, nil
}
