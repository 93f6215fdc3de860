// keyscribed - OS-level keyboard capture daemon
//
// keyscribed attaches to a platform key source, translates raw key
// transitions into readable text and fans the transcript out to the
// configured sinks:
//
//	keyscribed run       Start the capture pipeline
//	keyscribed sources   List capture backends and their availability
//	keyscribed check     Validate configuration and layout files
//	keyscribed version   Show build information
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"keyscribe/internal/config"
	"keyscribe/internal/engine"
	"keyscribe/internal/health"
	"keyscribe/internal/logging"
	"keyscribe/internal/metrics"
	"keyscribe/internal/sink"
	"keyscribe/internal/source"
	"keyscribe/internal/translate"
)

// Set at build time via -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "run":
		cmdRun()
	case "sources":
		cmdSources()
	case "check":
		cmdCheck()
	case "version":
		cmdVersion()
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`keyscribed - OS-level keyboard capture daemon

USAGE:
    keyscribed <command> [options]

COMMANDS:
    run         Start the capture pipeline
    sources     List capture backends and their availability
    check       Validate configuration and layout files
    version     Show build information
    help        Show this help message

RUN OPTIONS:
    -config <path>      Config file (default: search ., config dir, data dir)
    -source <name>      Capture backend, overrides config (see "sources")
    -sinks <set>        Comma-separated sinks: console,file,sqlite
    -layout <path>      Layout overlay JSON, overrides config
    -log-level <level>  debug, info, warn or error
    -observe <addr>     Loopback address for /healthz, /readyz, /metrics

EXAMPLES:
    keyscribed sources                  # What can this machine capture?
    keyscribed run                      # Capture with config defaults
    keyscribed run -source terminal     # Capture the current terminal only
    keyscribed run -sinks console       # Echo fragments, store nothing
    keyscribed check -config ks.toml    # Validate before deploying

Captured transcripts stay on this machine. The observe endpoint binds
loopback only and serves counts, never text.`)
}

func cmdRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	sourceName := fs.String("source", "", "capture backend (overrides config)")
	sinkSet := fs.String("sinks", "", "comma-separated sinks (overrides config)")
	layoutPath := fs.String("layout", "", "layout overlay JSON (overrides config)")
	logLevel := fs.String("log-level", "", "log level (overrides config)")
	observeAddr := fs.String("observe", "", "observe endpoint address (overrides config)")
	fs.Parse(os.Args[2:])

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.FindConfigFile()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := applyFlagOverrides(cfg, *sourceName, *sinkSet, *layoutPath, *logLevel, *observeAddr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		verrs, ok := err.(config.ValidationErrors)
		if !ok || verrs.HasErrors() {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
		for _, w := range verrs.Warnings() {
			fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", w.Field, w.Message)
		}
	}

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(loggerConfig(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	defer logger.Close()

	crash := logging.DefaultCrashHandler()
	crash.SetVersion(version)
	defer logging.RecoverPanic()

	log := logger.WithComponent("daemon")
	log.Info("keyscribed starting", "version", version, "pid", os.Getpid())

	var audit *logging.AuditLogger
	if cfg.Audit.Enabled {
		ac := logging.DefaultAuditConfig()
		if cfg.Audit.FilePath != "" {
			ac.FilePath = cfg.Audit.FilePath
		}
		audit, err = logging.NewAuditLogger(ac)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening audit log: %v\n", err)
			os.Exit(1)
		}
		defer audit.Close()
		audit.LogStartup(version, map[string]interface{}{
			"backend": cfg.Source.Backend,
			"config":  cfgPath,
		})
	}

	keymap := translate.DefaultKeymap()
	if cfg.Translate.LayoutPath != "" {
		layout, err := translate.LoadLayout(cfg.Translate.LayoutPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading layout: %v\n", err)
			os.Exit(1)
		}
		if err := keymap.ApplyLayout(layout); err != nil {
			fmt.Fprintf(os.Stderr, "Error applying layout: %v\n", err)
			os.Exit(1)
		}
		log.Info("layout overlay applied", "name", layout.Name, "keys", len(layout.Keys))
		if audit != nil {
			audit.LogLayoutApplied(layout.Name, len(layout.Keys))
		}
	}

	src, err := source.Open(cfg.Source.Backend, source.Options{
		Devices:      cfg.Source.Devices,
		Hotplug:      cfg.Source.Hotplug,
		PollInterval: cfg.PollInterval(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening source %q: %v\n", cfg.Source.Backend, err)
		os.Exit(1)
	}
	if ok, detail := src.Available(); !ok {
		fmt.Fprintf(os.Stderr, "Source %q not available: %s\n", cfg.Source.Backend, detail)
		fmt.Fprintln(os.Stderr, "Run \"keyscribed sources\" to see what this machine supports.")
		os.Exit(1)
	}

	var (
		sinks     []sink.Sink
		sinkNames []string
		db        *sink.SQLiteSink
	)
	if cfg.Sinks.Console.Enabled {
		sinks = append(sinks, sink.NewConsole())
		sinkNames = append(sinkNames, "console")
	}
	if cfg.Sinks.File.Enabled {
		f, err := sink.NewFile(sink.FileConfig{
			Path:       cfg.Sinks.File.Path,
			MaxSizeMB:  cfg.Sinks.File.MaxSizeMB,
			MaxBackups: cfg.Sinks.File.MaxBackups,
			MaxAgeDays: cfg.Sinks.File.MaxAgeDays,
			Compress:   cfg.Sinks.File.Compress,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening transcript file: %v\n", err)
			os.Exit(1)
		}
		sinks = append(sinks, f)
		sinkNames = append(sinkNames, "file")
	}
	if cfg.Sinks.SQLite.Enabled {
		db, err = sink.OpenSQLite(cfg.Sinks.SQLite.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening transcript database: %v\n", err)
			os.Exit(1)
		}
		sinks = append(sinks, db)
		sinkNames = append(sinkNames, "sqlite")
	}

	eng := engine.New(src, sinks, engine.Config{
		Backend: cfg.Source.Backend,
		Keymap:  keymap,
		Logger:  logger,
		Audit:   audit,
		Metrics: metrics.GetMetrics(),
	})
	crash.SetSessionID(eng.ID)
	if audit != nil {
		audit.SetSessionID(eng.ID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var observe *http.Server
	if cfg.Observe.Enabled {
		observe = startObserve(ctx, cfg.Observe.Addr, eng, db, logger)
	}

	if cfgPath != "" {
		if loader := watchConfig(ctx, cfgPath, cfg, log, audit); loader != nil {
			defer loader.Close()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	log.Info("capture starting",
		"session_id", eng.ID,
		"backend", cfg.Source.Backend,
		"sinks", strings.Join(sinkNames, ","),
	)

	runErr := eng.Run(ctx)

	if observe != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
		observe.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Warn("closing sink", "error", err)
		}
	}

	if audit != nil {
		audit.LogShutdown("signal")
		audit.Sync()
	}

	if runErr != nil {
		log.Error("capture failed", "error", runErr)
		logger.Close()
		os.Exit(1)
	}
	log.Info("keyscribed stopped")
}

// applyFlagOverrides folds run flags over the loaded config. Flags win
// because they are the most deliberate of the three layers (file, env,
// flag).
func applyFlagOverrides(cfg *config.Config, sourceName, sinkSet, layoutPath, logLevel, observeAddr string) error {
	if sourceName != "" {
		cfg.Source.Backend = sourceName
	}
	if sinkSet != "" {
		cfg.Sinks.Console.Enabled = false
		cfg.Sinks.File.Enabled = false
		cfg.Sinks.SQLite.Enabled = false
		for _, name := range strings.Split(sinkSet, ",") {
			switch strings.TrimSpace(name) {
			case "console":
				cfg.Sinks.Console.Enabled = true
			case "file":
				cfg.Sinks.File.Enabled = true
			case "sqlite":
				cfg.Sinks.SQLite.Enabled = true
			case "":
			default:
				return fmt.Errorf("unknown sink %q (valid: console, file, sqlite)", name)
			}
		}
	}
	if layoutPath != "" {
		cfg.Translate.LayoutPath = layoutPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if observeAddr != "" {
		cfg.Observe.Enabled = true
		cfg.Observe.Addr = observeAddr
	}
	return nil
}

// loggerConfig maps the daemon config onto the logging package. Level
// and format strings were validated already, so parse errors fall back
// to the package defaults.
func loggerConfig(cfg *config.Config) *logging.Config {
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	format, _ := logging.ParseFormat(cfg.Logging.Format)
	return &logging.Config{
		Level:      level,
		Format:     format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSizeMB,
		MaxAge:     cfg.Logging.MaxAgeDays,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
		Component:  "keyscribed",
	}
}

// startObserve serves the loopback health and metrics endpoint and
// keeps the component checks fresh on a ticker.
func startObserve(ctx context.Context, addr string, eng *engine.Engine, db *sink.SQLiteSink, logger *logging.Logger) *http.Server {
	checker := health.NewChecker()
	checker.RegisterFunc("capture", true, health.CaptureCheck(eng.Running))
	if db != nil {
		checker.RegisterFunc("transcript_db", true, health.DatabaseCheck(db.Ping))
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", checker.LivenessHandler())
	mux.Handle("/readyz", checker.ReadinessHandler())
	mux.Handle("/health", checker.HealthHandler())
	mux.Handle("/metrics", metrics.Default().HTTPHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log := logger.WithComponent("observe")
	go func() {
		log.Info("observe endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("observe endpoint failed", "error", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checker.Check(ctx)
				metrics.GetMetrics().UpdateUptime()
			}
		}
	}()

	// Ready once the engine reports its source running.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
				if eng.Running() {
					checker.SetReady(true)
					return
				}
			}
		}
	}()

	return srv
}

// watchConfig reloads the config file on change. The capture pipeline
// is wired at startup, so changed settings are reported and take
// effect on the next run; only the audit trail records them live.
func watchConfig(ctx context.Context, path string, active *config.Config, log *logging.Logger, audit *logging.AuditLogger) *config.Loader {
	loader := config.NewLoader(path)
	if _, err := loader.Load(); err != nil {
		log.Warn("config watch disabled", "error", err)
		return nil
	}

	prev := active.Clone()
	loader.OnChange(func(next *config.Config) {
		log.Info("configuration file changed", "path", path)
		reportChange := func(setting, oldVal, newVal string) {
			if oldVal == newVal {
				return
			}
			log.Warn("setting changed, restart to apply", "setting", setting, "old", oldVal, "new", newVal)
			if audit != nil {
				audit.LogConfigChange(setting, oldVal, newVal)
			}
		}
		reportChange("source.backend", prev.Source.Backend, next.Source.Backend)
		reportChange("translate.layout_path", prev.Translate.LayoutPath, next.Translate.LayoutPath)
		reportChange("logging.level", prev.Logging.Level, next.Logging.Level)
		reportChange("sinks", enabledSinks(prev), enabledSinks(next))
		prev = next.Clone()
	})

	if err := loader.Watch(); err != nil {
		log.Warn("config watch disabled", "error", err)
		loader.Close()
		return nil
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-loader.Errors():
				log.Warn("config reload rejected", "error", err)
			}
		}
	}()

	return loader
}

func enabledSinks(cfg *config.Config) string {
	var names []string
	if cfg.Sinks.Console.Enabled {
		names = append(names, "console")
	}
	if cfg.Sinks.File.Enabled {
		names = append(names, "file")
	}
	if cfg.Sinks.SQLite.Enabled {
		names = append(names, "sqlite")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func cmdSources() {
	fmt.Println("Capture backends:")
	fmt.Println()
	fmt.Printf("    %-10s %-12s %s\n", "NAME", "STATUS", "DETAIL")
	for _, name := range source.Names() {
		if name == "auto" {
			continue
		}
		src, err := source.Open(name, source.Options{})
		if err != nil {
			fmt.Printf("    %-10s %-12s %v\n", name, "error", err)
			continue
		}
		status := "available"
		ok, detail := src.Available()
		if !ok {
			status = "unavailable"
		}
		fmt.Printf("    %-10s %-12s %s\n", name, status, detail)
	}
	fmt.Println()
	fmt.Println("\"auto\" picks the first available platform backend and falls")
	fmt.Println("back to the terminal.")
}

func cmdCheck() {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	fs.Parse(os.Args[2:])

	path := *configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		fmt.Println("No config file found, built-in defaults apply.")
	} else {
		fmt.Printf("Config file: %s\n", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	failed := false
	if err := cfg.Validate(); err != nil {
		if verrs, ok := err.(config.ValidationErrors); ok {
			for _, w := range verrs.Warnings() {
				fmt.Printf("  warning  %s: %s\n", w.Field, w.Message)
			}
			for _, e := range verrs.Errors() {
				fmt.Printf("  error    %s: %s\n", e.Field, e.Message)
				failed = true
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
		}
	}

	if cfg.Translate.LayoutPath != "" {
		layout, err := translate.LoadLayout(cfg.Translate.LayoutPath)
		if err != nil {
			fmt.Printf("  error    translate.layout_path: %v\n", err)
			failed = true
		} else {
			fmt.Printf("Layout: %s (%d keys)\n", layout.Name, len(layout.Keys))
		}
	}

	if failed {
		fmt.Println()
		fmt.Println("Configuration INVALID")
		os.Exit(1)
	}

	fmt.Printf("Backend: %s\n", cfg.Source.Backend)
	fmt.Printf("Sinks: %s\n", enabledSinks(cfg))
	fmt.Printf("Log level: %s\n", cfg.Logging.Level)
	if cfg.Observe.Enabled {
		fmt.Printf("Observe: %s\n", cfg.Observe.Addr)
	}
	fmt.Println()
	fmt.Println("Configuration OK")
}

func cmdVersion() {
	fmt.Printf("keyscribed %s\n", version)
	fmt.Printf("  commit: %s\n", commit)
	fmt.Printf("  go:     %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
