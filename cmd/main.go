package main

import (
	"context"
	"os"

	"github.com/desertthunder/recipebox/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		if shared.IsRetryable(err) {
			logger.Warn("the server could not complete the request; running the same command again may succeed")
		}
		logger.Fatalf("application error: %v", shared.Reason(err))
	}
}
