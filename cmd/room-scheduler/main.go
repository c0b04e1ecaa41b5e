package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/noah-isme/sma-room-scheduler/api/swagger"
)

// @title Room Scheduler API
// @version 1.0.0
// @description Room booking conflict detection, availability analysis and reallocation.
// @BasePath /api/v1
// @schemes http

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
