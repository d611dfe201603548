package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/kairos-io/go-cuckoo/cmd"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Allow catching SIGINT to stop running tools
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, os.Interrupt)
		<-sigchan
		slog.Warn("Interrupted, stopping")
		cancel()
	}()

	cmd.Execute(ctx)
}
