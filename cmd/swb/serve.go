package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/influenta/switchboard/internal/alert"
	"github.com/influenta/switchboard/internal/bot"
	"github.com/influenta/switchboard/internal/config"
	"github.com/influenta/switchboard/internal/dashboard"
	"github.com/influenta/switchboard/internal/db"
	"github.com/influenta/switchboard/internal/dialog"
	"github.com/influenta/switchboard/internal/escalation"
	"github.com/influenta/switchboard/internal/gateway"
	"github.com/influenta/switchboard/internal/store"
	"github.com/influenta/switchboard/internal/transport/discord"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the support bot daemon",
		Long:  "Connects to the chat platform, answers users with the AI assistant, and routes escalations to operators.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to Switchboard config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	st, err := store.New(gormDB)
	if err != nil {
		return err
	}

	gw, err := gateway.NewOpenRouter(gateway.OpenRouterOpts{
		APIKey:  cfg.Gateway.APIKey,
		BaseURL: cfg.Gateway.BaseURL,
		Referer: cfg.Gateway.Referer,
		Title:   cfg.Gateway.Title,
	})
	if err != nil {
		return err
	}
	engine, err := dialog.New(dialog.Opts{
		Store:        st,
		Gateway:      gw,
		Models:       cfg.Gateway.Models,
		RetryBackoff: time.Duration(cfg.Gateway.RetryBackoffSec) * time.Second,
	})
	if err != nil {
		return err
	}

	adapter, err := discord.New(discord.AdapterOpts{BotToken: cfg.Discord.BotToken})
	if err != nil {
		return err
	}

	var alerter escalation.Alerter
	if cfg.Alerts.SlackWebhookURL != "" {
		alerter, err = alert.NewSlackNotifier(cfg.Alerts.SlackWebhookURL)
		if err != nil {
			return err
		}
	}

	machine, err := escalation.New(escalation.Opts{
		Store:     st,
		Transport: adapter,
		Admins:    cfg.Admins,
		Alerter:   alerter,
		UserMenu:  bot.MainMenu(),
	})
	if err != nil {
		return err
	}

	commands, err := bot.NewCommandHandler(st)
	if err != nil {
		return err
	}
	router, err := bot.NewRouter(bot.RouterOpts{
		Responder:  engine,
		Escalation: machine,
		Adapter:    adapter,
		FAQ:        st,
		Commands:   commands,
		Admins:     cfg.Admins,
		PhotoURL:   cfg.PhotoURL,
		Out:        out,
	})
	if err != nil {
		return err
	}

	var digest *bot.Digest
	if cfg.Digest.Enabled {
		digest, err = bot.NewDigest(bot.DigestOpts{
			Store:  st,
			Sender: adapter,
			Admins: cfg.Admins,
			Cron:   cfg.Digest.Cron,
		})
		if err != nil {
			return err
		}
	}

	daemon, err := bot.NewDaemon(bot.DaemonOpts{
		Adapter: adapter,
		Router:  router,
		Digest:  digest,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(out, "shutting down...")
		cancel()
	}()

	if cfg.Dashboard.Enabled {
		go func() {
			if err := dashboard.Start(ctx, dashboard.StartOpts{
				DB:   gormDB,
				Port: cfg.Dashboard.Port,
				Out:  out,
			}); err != nil {
				log.Printf("swb: dashboard: %v", err)
			}
		}()
	}

	fmt.Fprintf(out, "Switchboard serving on %s with %d operator(s)\n", cfg.Platform, len(cfg.Admins))
	defer adapter.Close()
	return daemon.Run(ctx)
}
