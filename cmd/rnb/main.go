package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mrbonezy/rnb/internal/logging"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args)
	stop()
	if err != nil {
		kind := errorKind(err)
		logging.CaptureError(err, "kind", kind)
		logging.Flush(sentryFlushTimeout)
		fmt.Fprintf(os.Stderr, "rnb error: %s: %v\n", kind, err)
		os.Exit(1)
	}
	logging.Flush(sentryFlushTimeout)
}

func run(ctx context.Context, args []string) error {
	return newRootCommand(args).ExecuteContext(ctx)
}
