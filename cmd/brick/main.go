package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/brickapp/brick/internal/application"
	"github.com/brickapp/brick/internal/config"
	"github.com/brickapp/brick/internal/logging"
	"github.com/brickapp/brick/internal/platform"
	"github.com/brickapp/brick/internal/settings"
)

var signalNotify = signal.Notify

type cliFlags struct {
	configFile     string
	minimized      bool
	hideOnDelete   bool
	logSeverity    string
	listen         string
	allowedOrigin  string
	rateLimitRPS   float64
	rateLimitBurst int
	dump           bool
	checkConfig    string
}

func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{}

	app := kingpin.New("brick", "Brick - resolves desktop client settings and serves them over a local read-only API")
	app.Flag("config", "Path to a JSON or YAML settings file").StringVar(&f.configFile)
	app.Flag(settings.KeyStartMinimized, "Start with the main window minimized").BoolVar(&f.minimized)
	app.Flag(settings.KeyHideOnDelete, "Hide the main window instead of quitting when it is closed").BoolVar(&f.hideOnDelete)
	app.Flag("log-severity", "Log severity (default, verbose, info, warning, error, fatal, disable)").StringVar(&f.logSeverity)
	app.Flag("listen", "Address of the external API").StringVar(&f.listen)
	app.Flag("allowed-origin", "Browser origin allowed to call the external API (default: none)").StringVar(&f.allowedOrigin)
	app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64Var(&f.rateLimitRPS)
	app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").IntVar(&f.rateLimitBurst)
	app.Flag("dump", "Print the resolved settings as JSON and exit").BoolVar(&f.dump)
	app.Flag("check-config", "Validate a settings file against the settings schema and exit").StringVar(&f.checkConfig)

	if _, err := app.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// overrides converts parsed flags into config overrides. Switch flags only
// ever enable a setting, so absent flags are not forwarded.
func (f *cliFlags) overrides() *config.CLIOverrides {
	var switches []string
	if f.minimized {
		switches = append(switches, settings.KeyStartMinimized)
	}
	if f.hideOnDelete {
		switches = append(switches, settings.KeyHideOnDelete)
	}

	overrides := &config.CLIOverrides{
		ConfigFile: f.configFile,
		Switches:   settings.NewSwitchSet(switches...),
	}

	if f.logSeverity != "" {
		overrides.LogSeverity = &f.logSeverity
	}

	if f.listen != "" {
		overrides.Listen = &f.listen
	}

	if f.allowedOrigin != "" {
		overrides.AllowedOrigin = &f.allowedOrigin
	}

	if f.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = &f.rateLimitRPS
	}

	if f.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = &f.rateLimitBurst
	}

	return overrides
}

func main() {
	flags, err := parseFlags(os.Args[1:])
	kingpin.FatalIfError(err, "parse flags")

	if flags.checkConfig != "" {
		ok, err := checkConfig(flags.checkConfig, os.Stdout)
		kingpin.FatalIfError(err, "check config")
		if !ok {
			os.Exit(1)
		}
		return
	}

	// The configured logger depends on the settings, so skipped client
	// scripts are reported through a stderr logger while the file loads.
	bootLogger, err := logging.New(logging.Options{})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	cfg, err := config.Load(platform.NewOS(), flags.overrides(), settings.WithLogger(bootLogger))
	_ = bootLogger.Sync()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(logging.FromSettings(cfg.Settings))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	logDiagnostics(logger, cfg)

	if flags.dump {
		if err := writeDump(os.Stdout, cfg.Settings); err != nil {
			logger.Fatal("failed to dump settings", zap.Error(err))
		}
		return
	}

	if !application.Enabled(cfg) {
		logger.Info("external API disabled, nothing to serve")
		return
	}

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start external API", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func logDiagnostics(logger *zap.Logger, cfg config.Config) {
	if cfg.SettingsFile == "" {
		logger.Info("no settings file found, using defaults")
	} else {
		logger.Info("settings loaded", zap.String("file", cfg.SettingsFile))
	}

	for _, d := range cfg.Diagnostics {
		if isClientScriptEntry(d) {
			// already reported by the settings store while loading
			continue
		}
		logger.Warn("settings input skipped",
			zap.String("file", cfg.SettingsFile),
			zap.Stringer("diagnostic", d),
		)
	}
}

func isClientScriptEntry(d settings.Diagnostic) bool {
	return d.Key == settings.KeyClientScripts && d.Index >= 0
}

func writeDump(w io.Writer, s *settings.Settings) error {
	data, err := s.DumpJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// checkConfig lints the settings file at path and prints one line per issue.
func checkConfig(path string, w io.Writer) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read settings file: %w", err)
	}

	result, err := settings.Lint(data)
	if err != nil {
		return false, err
	}

	if result.Valid {
		fmt.Fprintf(w, "%s: ok\n", path)
		return true, nil
	}
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "%s: %s\n", path, issue)
	}
	return false, nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down external API")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
