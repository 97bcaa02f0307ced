package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/services"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/desertthunder/equipx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.client == nil || r.engine == nil {
		return fmt.Errorf("%w: client not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	path := r.config.Log.File
	if path == "" {
		path = "./tmp/equipx-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)
	r.setClient(services.NewClient(services.ClientOpts{
		BaseURL:   r.client.BaseURL(),
		Sessions:  r.sessions,
		Timeout:   r.config.Timeout(),
		RateLimit: r.config.API.RateLimit,
		Logger:    fileLogger,
	}))

	model := ui.NewModel(ctx, ui.Opts{
		Sessions: r.sessions,
		Member:   r.client,
		Admin:    r.client,
		Engine:   r.engine,
		Toasts:   notify.NewQueue(notify.QueueOpts{TTL: r.config.ToastTTL(), Max: r.config.Notifications.Max}),
		Logger:   fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
