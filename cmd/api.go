package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/equipx/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIRequest sends the subcommand's method to a path under the API root with
// the stored token and prints the response.
func (r *Runner) APIRequest(ctx context.Context, cmd *cli.Command) error {
	method := strings.ToUpper(cmd.Name)
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	var body []byte
	if data := cmd.String("data"); data != "" {
		if err := shared.ValidateJSON([]byte(data)); err != nil {
			return err
		}
		body = []byte(data)
	}

	r.logger.Info("raw request", "method", method, "path", path)

	resp, err := r.client.Raw().Do(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err := r.sessions.Invalidate(ctx); err != nil {
			r.logger.Warn("failed to clear session", "error", err)
		}
		return shared.ErrSessionExpired
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, cmd.Bool("pretty"))
	}

	if len(resp.Body) == 0 {
		return r.writePlain("%d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
