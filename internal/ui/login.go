package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/shared"
)

const (
	fieldUsername = iota
	fieldPassword
	fieldTOTP
)

// loginForm is the username/password/2FA form shown on the login page.
type loginForm struct {
	inputs     []textinput.Model
	focus      int
	submitting bool
}

func newLoginForm() loginForm {
	username := textinput.New()
	username.Prompt = "Username: "
	username.CharLimit = 64

	password := textinput.New()
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	totp := textinput.New()
	totp.Prompt = "2FA code: "
	totp.Placeholder = "optional"
	totp.CharLimit = 6

	f := loginForm{inputs: []textinput.Model{username, password, totp}}
	f.inputs[fieldUsername].Focus()
	return f
}

// move shifts focus by delta, wrapping around.
func (f *loginForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

// update forwards a key to the focused input.
func (f *loginForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// credentials validates the form the same way the login call would.
func (f loginForm) credentials() (models.Credentials, error) {
	creds := models.Credentials{
		Username: strings.TrimSpace(f.inputs[fieldUsername].Value()),
		Password: f.inputs[fieldPassword].Value(),
	}
	if err := creds.Validate(); err != nil {
		return creds, err
	}
	if code := strings.TrimSpace(f.inputs[fieldTOTP].Value()); code != "" {
		n, err := strconv.Atoi(code)
		if err != nil {
			return creds, fmt.Errorf("%w: 2FA code must be numeric", shared.ErrInvalidInput)
		}
		creds.TOTPCode = n
	}
	return creds, nil
}

func (f loginForm) view() string {
	var b strings.Builder
	for _, in := range f.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if f.submitting {
		b.WriteString(styles.muted.Render("\nSigning in..."))
	}
	return b.String()
}
