package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/equipx/internal/services"
	"github.com/desertthunder/equipx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.app().Run(ctx, os.Args); err != nil {
		stop()
		if shared.IsUnauthenticated(err) {
			fmt.Fprintln(os.Stderr, shared.SessionExpiredMessage)
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", services.Message(err))
	}
}
