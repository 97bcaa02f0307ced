package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/equipx/internal/server"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the local web front until interrupted.
//
// Browser sessions live in cookies, independent of the token stored for the CLI.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	logger := r.logger
	if r.config.Log.File != "" {
		fileLogger, err := shared.NewFileLogger(r.config.Log.File)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
		logger = fileLogger
	}

	var key []byte
	if cfg.CSRFKey != "" {
		key = []byte(cfg.CSRFKey)
	}

	srv, err := server.New(server.Opts{
		BaseURL:       r.client.BaseURL(),
		Timeout:       r.config.Timeout(),
		CSRFKey:       key,
		SecureCookies: cfg.SecureCookies,
		ToastTTL:      r.config.ToastTTL(),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	addr := cfg.Addr()
	url := fmt.Sprintf("http://%s", addr)
	r.writePlain("Serving %s on %s (Ctrl+C to stop)\n", r.client.BaseURL(), url)

	if cmd.Bool("open") {
		go func() {
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}()
	}

	return srv.ListenAndServe(ctx, addr)
}
