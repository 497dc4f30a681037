package main

import (
	"context"
	"fmt"
	"os"

	mylog "github.com/goliatone/go-response-cache/internal/log"
	"github.com/goliatone/go-response-cache/internal/telemetry"
)

// Version is set at build time.
var Version = "dev"

func main() {
	os.Exit(realMain(context.Background(), os.Args))
}

func realMain(ctx context.Context, args []string) int {
	mylog.Init()

	shutdown, err := telemetry.Setup(ctx, "respcache")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	if err := newApp().Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
