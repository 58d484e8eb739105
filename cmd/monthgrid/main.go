package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"monthgrid/internal/config"
	"monthgrid/internal/ics"
	appLog "monthgrid/internal/log"
	"monthgrid/internal/refresh"
	"monthgrid/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	envFile    string
	listen     string
	month      string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	appLog.Init(flags.debug)
	defer appLog.Sync()

	appLog.Info("monthgrid starting", "version", version)

	if err := run(flags); err != nil {
		appLog.Error("monthgrid failed", err)
		appLog.Sync()
		os.Exit(1)
	}
	appLog.Info("monthgrid exiting")
}

func run(flags flagConfig) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", flags.configPath, err)
	}
	if err := config.ApplyEnv(conf, flags.envFile); err != nil {
		return err
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"rows", conf.Rows,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"backfill_days", conf.BackfillDays,
		"ics_count", len(conf.ICS),
		"basic_auth", conf.BasicAuth != nil,
		"once", flags.once,
	)

	cacheDir := "/var/lib/monthgrid/ics-cache"
	if flags.debug {
		cacheDir = "./cache/ics-cache"
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refresher := refresh.New(conf, ics.NewFetcher(cacheDir))

	// A partially failed refresh still leaves usable events behind.
	if err := refresher.Refresh(ctx); err != nil {
		appLog.Error("initial refresh finished with errors", err)
	}

	if flags.once {
		return dumpGrid(conf, refresher.Snapshot(), flags.month)
	}

	if err := refresher.Start(ctx); err != nil {
		return err
	}

	return web.StartServer(ctx, conf, refresher)
}

// dumpGrid prints the grid of one month as indented JSON to stdout.
func dumpGrid(conf *config.Config, snap refresh.Snapshot, monthArg string) error {
	now := time.Now().In(conf.Location())
	month, err := web.ParseMonth(monthArg, now)
	if err != nil {
		return fmt.Errorf("month %q: %w", monthArg, err)
	}

	out, err := json.MarshalIndent(web.BuildGrid(conf, month, conf.Rows, snap, now), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/monthgrid/config.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env-file", ".env", "Optional dotenv file with MONTHGRID_* overrides")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.month, "month", "", "Month to dump with -once, as YYYY-MM (default: current month)")
	flag.BoolVar(&cfg.once, "once", false, "Refresh once, print the month grid as JSON and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug logging and a local ICS cache directory")

	flag.Parse()

	return cfg
}
