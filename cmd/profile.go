package main

import (
	"context"

	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ProfileShow prints the logged-in user's profile.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	user, err := r.client.Profile(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}
	r.writeUser(user)
	return nil
}

// ProfileUpdate changes the fields given on the command line.
func (r *Runner) ProfileUpdate(ctx context.Context, cmd *cli.Command) error {
	update := models.ProfileUpdate{
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
		Email:     cmd.String("email"),
	}
	if err := update.Validate(); err != nil {
		return err
	}

	user, err := r.client.UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	r.notify(notify.Success, "Profile updated")
	r.writeUser(user)
	return nil
}

func (r *Runner) writeUser(u *models.User) {
	twoFA := "disabled"
	if u.TwoFactorEnabled {
		twoFA = "enabled"
	}

	r.writePlainHeader(u.FullName())
	r.writePlain("Username:     %s\n", u.Username)
	r.writePlain("Email:        %s\n", shared.OrNA(u.Email))
	r.writePlain("Role:         %s\n", u.Role)
	r.writePlain("Status:       %s\n", shared.OrNA(string(u.AccountStatus)))
	r.writePlain("2FA:          %s\n", twoFA)
	r.writePlain("Member since: %s\n", models.FormatDate(u.CreatedAt, "N/A"))
}
