// Command authsession signs a user in and out of a goAuthClient-compatible
// auth service from the terminal, persisting the session between runs.
//
//	authsession serve --seed "Ann:ann@example.com:correct-horse" &
//	authsession --api-url http://localhost:5000 login --email ann@example.com --password correct-horse
//	authsession whoami
//	authsession status --metrics
//	authsession logout
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
