package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leadcatalyst/leadchat/pkg/channels"
	"github.com/leadcatalyst/leadchat/pkg/controller"
	"github.com/leadcatalyst/leadchat/pkg/logger"
	"github.com/leadcatalyst/leadchat/pkg/webhook"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat page",
	Long: `Starts the web chat: a single page with the chat log, the results table
and the CSV export button. Each browser tab keeps its own in-memory chat.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	webCfg := cfg.WebChat
	if serveHost != "" {
		webCfg.Host = serveHost
	}
	if servePort != 0 {
		webCfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := webhook.NewSenderFromConfig(cfg.Webhook)
	chats := controller.NewManager(sender, cfg.Webhook.Timeout.Duration, webCfg.SessionTTL.Duration)
	channel := channels.NewWebChatChannel(webCfg, chats, cfg.ExportFilename())

	logger.InfoCF("serve", "Starting leadchat", map[string]interface{}{
		"webhook":   cfg.Webhook.URL,
		"fallbacks": len(cfg.Webhook.FallbackURLs),
		"timeout":   cfg.Webhook.Timeout.Duration.String(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		chats.Run(gctx, sweepInterval)
		return nil
	})
	g.Go(func() error {
		if err := channel.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.InfoCF("serve", "Shutting down", nil)
		return channel.Stop(shutdownCtx)
	})
	return g.Wait()
}
