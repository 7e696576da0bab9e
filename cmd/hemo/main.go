// cmd/hemo/main.go
//
// hemo – operator CLI.
//
// Each invocation is one page load on the origin named by --host (or
// tenant.host in config): the host is resolved, the origin's session is
// opened from the configured backend, the last location is restored, and
// the command runs.  Locations a command navigates to are saved, so a
// later `hemo status` shows where a 401 or a logout sent the user.
//
// Output is indented JSON on stdout.  Logs go to the rotating file only,
// or to stderr as well with --verbose.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errFailed):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "hemo:", err)
		os.Exit(2)
	}
}
