package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"
	configloader "github.com/utyara3/TimeTracker/external/config"
	"github.com/utyara3/TimeTracker/external/discord"
	repositoryimpl "github.com/utyara3/TimeTracker/external/repository"
	webhookimpl "github.com/utyara3/TimeTracker/external/webhook"
	"github.com/utyara3/TimeTracker/internal/bot"
	"github.com/utyara3/TimeTracker/internal/config"
	discordpkg "github.com/utyara3/TimeTracker/internal/discord"
	"github.com/utyara3/TimeTracker/internal/repository"
	"github.com/utyara3/TimeTracker/internal/tracker"
)

const discordConnectTimeout = 20 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "timezone", cfg.Timezone, "states", len(cfg.Vocabulary.States))

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching discord bot")
	runBot(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err == nil {
		err = cfg.ValidateBot()
	}
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	tracker.RegisterDI(injector)
	bot.RegisterDI(injector)

	return injector
}

func runBot(cfg *config.Config, injector do.Injector) {
	repo, err := do.Invoke[repository.Repository](injector)
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Error("session store close failed", "error", err)
		}
	}()
	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		slog.Error("failed to resolve discord client", "error", err)
		return
	}
	manager, err := do.Invoke[*bot.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve bot manager", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), discordConnectTimeout)
	defer cancel()

	slog.Info("startup: connecting to discord gateway")
	if err := dc.Connect(ctx); err != nil {
		slog.Error("discord connect failed", "error", err)
		return
	}
	slog.Info("startup: discord connected")
	defer func() {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
	}()

	botUserID, err := dc.GetBotUserID()
	if err != nil {
		slog.Error("failed to resolve bot user id", "error", err)
		return
	}

	commands := bot.SlashCommandDefinitions(cfg.Vocabulary)
	if err := dc.UpsertGuildSlashCommands(cfg.DiscordGuildID, commands); err != nil {
		slog.Error("failed to upsert slash commands", "error", err, "guild_id", cfg.DiscordGuildID)
		return
	}

	dc.RegisterSlashCommandHandler(manager.HandleSlashCommand)
	dc.RegisterComponentHandler(manager.HandleComponent)
	slog.Info("discord handlers registered", "guild_id", cfg.DiscordGuildID, "bot_user_id", botUserID, "commands", len(commands))

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering discord run loop")
		if err := dc.Run(); err != nil {
			slog.Error("discord run failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}
	manager.Wait()
}
