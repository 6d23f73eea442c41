package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Haleralex/gincore/internal/config"
	"github.com/Haleralex/gincore/internal/container"
)

// Заполняются через -ldflags при сборке.
var (
	version   = ""
	buildTime = ""
)

func main() {
	configPath := flag.String("config-path", "configs", "Directory with config file")
	configName := flag.String("config-name", "config", "Config file name without extension")
	flag.Parse()

	if err := run(*configPath, *configName); err != nil {
		slog.Error("Server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configPath, configName string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(configPath, configName)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if version != "" {
		cfg.App.Version = version
	}
	if buildTime != "" {
		cfg.App.BuildTime = buildTime
	}

	c := container.New(cfg)
	if err := c.Initialize(context.Background()); err != nil {
		return err
	}

	runErr := c.Run()

	// Run уже остановил HTTP сервер, закрываем остальное
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := c.Shutdown(ctx); err != nil {
		c.Logger().Warn("Shutdown finished with errors", slog.String("error", err.Error()))
	}

	if runErr != nil {
		return runErr
	}
	c.Logger().Info("Server stopped gracefully")
	return nil
}
