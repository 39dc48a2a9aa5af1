// Command catalogctl is the operator CLI of the catalog search service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AyushDoCode/WhatsappChatbot/internal/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, app.Build).ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
