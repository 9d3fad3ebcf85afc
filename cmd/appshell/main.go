// Command appshell drives the sandboxed filesystem bridge from the terminal.
//
// Usage:
//
//	appshell init                      # write the default config file
//	appshell seed                      # open the sandbox and report seeding
//	appshell write /notes.txt "hello"  # write a file
//	appshell cat /notes.txt            # read it back
//	appshell serve                     # keep the sandbox open, expose metrics
//
// Filesystem commands exit with the numeric result code of the operation.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/appshell/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	logger.Sync()

	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var ce *codeError
	if errors.As(err, &ce) {
		return int(ce.code)
	}
	return 1
}
