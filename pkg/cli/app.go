package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/oralsmart/riskctl/pkg/config"
	"github.com/oralsmart/riskctl/pkg/data"
	"github.com/oralsmart/riskctl/pkg/logging"
	"github.com/oralsmart/riskctl/pkg/metrics"
)

const (
	appName      = "riskctl"
	appConfigKey = "app-config"
	dirMode      = 0700

	formatJSON = "json"
	formatYAML = "yaml"

	debugFlagName       = "debug"
	logLevelFlagName    = "log-level"
	configFlagName      = "config"
	dbFlagName          = "db"
	formatFlagName      = "format"
	metricsFileFlagName = "metrics-file"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	ctx, stop := signalContext()
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Dir    string
	Config *config.Config
	Store  *data.Store
	Format string
	Debug  bool
}

func getConfig(cmd *cli.Command) *appConfig {
	cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig)
	if !ok {
		return &appConfig{Format: formatJSON}
	}
	return cfg
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:                 "Pediatric caries risk scoring, model training and prediction",
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Metadata:              map[string]any{},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  debugFlagName,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&cli.StringFlag{
				Name:  logLevelFlagName,
				Usage: "Log level [debug, info, warn, error] (defaults to config)",
			},
			&cli.StringFlag{
				Name:  configFlagName,
				Usage: "Config directory (optional, defaults to $HOME/.riskctl)",
			},
			&cli.StringFlag{
				Name:  dbFlagName,
				Usage: "Ledger location: sqlite file path or postgres:// URL (defaults to config)",
			},
			&cli.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
			&cli.StringFlag{
				Name:  metricsFileFlagName,
				Usage: "Write Prometheus metrics to this textfile after the command",
			},
		},
		Commands: []*cli.Command{
			scoreCmd(),
			exportCmd(),
			generateCmd(),
			trainCmd(),
			predictCmd(),
			infoCmd(),
			runsCmd(),
			predictionsCmd(),
			retrainCmd(),
			resetCmd(),
		},
		Before: before,
		After:  after,
	}
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	metrics.Init()

	dir := cmd.String(configFlagName)
	if dir == "" {
		home, _, err := config.GetOrCreateHomeDir(appName)
		if err != nil {
			return ctx, fmt.Errorf("resolving config directory: %w", err)
		}
		dir = home
	}

	cfg, err := config.ReadOrCreate(dir)
	if err != nil {
		return ctx, fmt.Errorf("reading config: %w", err)
	}

	level := cfg.LogLevel
	if cmd.IsSet(logLevelFlagName) {
		level = cmd.String(logLevelFlagName)
	}
	if cmd.Bool(debugFlagName) {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
	slog.Debug("config loaded", "dir", dir)

	dsn := resolvePath(dir, cfg.Ledger)
	if v := cmd.String(dbFlagName); v != "" {
		dsn = v
	}
	store, err := data.Open(ctx, dsn)
	if err != nil {
		return ctx, fmt.Errorf("opening ledger: %w", err)
	}

	format := formatJSON
	if f := cmd.String(formatFlagName); f == formatYAML || f == "yml" {
		format = formatYAML
	}

	cmd.Metadata[appConfigKey] = &appConfig{
		Dir:    dir,
		Config: cfg,
		Store:  store,
		Format: format,
		Debug:  cmd.Bool(debugFlagName),
	}
	return ctx, nil
}

func after(_ context.Context, cmd *cli.Command) error {
	var errs []error
	if cfg, ok := cmd.Metadata[appConfigKey].(*appConfig); ok && cfg.Store != nil {
		errs = append(errs, cfg.Store.Close())
	}
	if path := cmd.String(metricsFileFlagName); path != "" {
		errs = append(errs, metrics.WriteTextfile(path))
	}
	return errors.Join(errs...)
}

func encode(cmd *cli.Command, v any) error {
	return encodeTo(cmd.Root().Writer, getConfig(cmd).Format, v)
}

func encodeTo(w io.Writer, format string, v any) error {
	if w == nil {
		w = os.Stdout
	}
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// resolvePath makes relative config paths relative to the config directory.
func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || data.Dialect(p) == data.DialectPostgres {
		return p
	}
	return filepath.Join(dir, p)
}
