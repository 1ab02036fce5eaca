package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/centlink/centlink/internal/authsite"
	"github.com/centlink/centlink/internal/config"
	"github.com/centlink/centlink/internal/gateway"
	"github.com/centlink/centlink/internal/lang"
	"github.com/centlink/centlink/internal/linkcmd"
	"github.com/centlink/centlink/internal/reconcile"
	"github.com/centlink/centlink/internal/store"
)

var runDebug bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot: Discord gateway plus role reconciliation",
	RunE:  runBot,
}

func init() {
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Enable debug logging")
}

func runBot(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if runDebug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord token is not configured (set discord.token or CENTLINK_DISCORD_TOKEN)")
	}

	locale, err := lang.Load(cfg.Lang)
	if err != nil {
		return fmt.Errorf("load locale: %w", err)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	discord := gateway.NewDiscord(cfg.Discord, locale)
	handler := linkcmd.New(db, func() (linkcmd.Verifier, error) {
		return authsite.New(cfg.AuthSite)
	}, locale)
	discord.RegisterLogin(handler.Handle)

	if err := discord.Open(ctx); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	defer discord.Close()

	loop := reconcile.New(db, discord, cfg.Roles, cfg.Reconcile.Interval)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()

	slog.Info("centlink running", "version", version, "lang", locale.Code(), "db", cfg.Database.Path)
	<-ctx.Done()

	slog.Info("Shutdown signal received")
	wg.Wait()
	return nil
}
