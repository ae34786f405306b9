package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oralvis/oralvis-api/cmd/oralvisctl/cmds"
	"github.com/oralvis/oralvis-api/internal/exitcode"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := cmds.Execute(ctx)
	stop()

	if msg := exitcode.Reportable(err); msg != nil {
		fmt.Fprintln(os.Stderr, "Error:", msg)
	}
	os.Exit(exitcode.Of(err))
}
