package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/Haleralex/gincore/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultMigrationsPath = "./internal/infrastructure/persistence/migrations"

func main() {
	var (
		migrationsPath string
		databaseURL    string
		command        string
		steps          int
	)

	flag.StringVar(&migrationsPath, "path", defaultMigrationsPath, "Path to migrations directory")
	flag.StringVar(&databaseURL, "database-url", "", "Database connection URL")
	flag.StringVar(&command, "command", "up", "Migration command: up, down, force, version, drop")
	flag.IntVar(&steps, "steps", 0, "Number of steps for up/down (0 = all)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		// GINCORE_DATABASE_* / DB_* через общий загрузчик конфигурации
		if err := config.LoadDotEnv(); err != nil {
			fatal(logger, "load .env", err)
		}
		cfg, err := config.LoadFromEnv()
		if err != nil {
			fatal(logger, "load config", err)
		}
		databaseURL = cfg.Database.DSN()
	}

	args := flag.Args()
	if len(args) > 0 {
		command = args[0]
	}
	if len(args) > 1 && command != "force" {
		var err error
		steps, err = strconv.Atoi(args[1])
		if err != nil {
			fatal(logger, "invalid steps argument", err)
		}
	}

	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		fatal(logger, "failed to create migrate instance", err)
	}
	defer m.Close()

	m.Log = &migrationLogger{logger: logger}

	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatal(logger, "migration up failed", err)
		}
		logger.Info("Migrations applied")

	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatal(logger, "migration down failed", err)
		}
		logger.Info("Migrations rolled back")

	case "force":
		if len(args) < 2 {
			fatal(logger, "force requires a version argument", nil)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			fatal(logger, "invalid version", err)
		}
		if err := m.Force(version); err != nil {
			fatal(logger, "force failed", err)
		}
		logger.Info("Forced version", slog.Int("version", version))

	case "version":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			logger.Info("No migrations applied yet")
		case err != nil:
			fatal(logger, "failed to get version", err)
		default:
			logger.Info("Current version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		}

	case "drop":
		if err := m.Drop(); err != nil {
			fatal(logger, "drop failed", err)
		}
		logger.Info("All tables dropped")

	default:
		fatal(logger, fmt.Sprintf("unknown command %q, available: up, down, force, version, drop", command), nil)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, slog.String("error", err.Error()))
	} else {
		logger.Error(msg)
	}
	os.Exit(1)
}

// migrationLogger пишет лог migrate в slog.
type migrationLogger struct {
	logger *slog.Logger
}

func (l *migrationLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *migrationLogger) Verbose() bool {
	return true
}
