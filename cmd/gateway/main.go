// Package main is the entry point for the gateway.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// exitFunc is replaced in tests.
var exitFunc = os.Exit

const defaultConfigPath = "configs/gateway.yaml"

// cliFlags holds command line flags. Empty log settings leave the
// configuration file's logging section in effect.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags(flag.CommandLine, os.Args[1:])

	if flags.showVersion {
		printVersion()
		return
	}

	bootstrap := initLogger(flags.logLevel, flags.logFormat)
	cfg := loadAndValidateConfig(flags, bootstrap)
	_ = bootstrap.Sync()

	logger := initLogger(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = logger.Sync() }()

	app := initApplication(cfg, logger)
	runGateway(app, logger)
}

// parseFlags parses command line flags, taking defaults from the
// environment.
func parseFlags(fs *flag.FlagSet, args []string) cliFlags {
	var flags cliFlags
	fs.StringVar(&flags.configPath, "config",
		getEnvOrDefault("GATEWAY_CONFIG_PATH", defaultConfigPath),
		"Path to configuration file (.yaml or .toml)")
	fs.StringVar(&flags.logLevel, "log-level", getEnvOrDefault("GATEWAY_LOG_LEVEL", ""),
		"Log level (trace, debug, info, warn, error); overrides the config file")
	fs.StringVar(&flags.logFormat, "log-format", getEnvOrDefault("GATEWAY_LOG_FORMAT", ""),
		"Log format (json, console, text); overrides the config file")
	fs.BoolVar(&flags.showVersion, "version", false, "Show version information")
	_ = fs.Parse(args)

	return flags
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("avaroute version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger builds a logger, falling back to info/json for empty values.
func initLogger(level, format string) observability.Logger {
	cfg := observability.DefaultLogConfig()
	if level != "" {
		cfg.Level = level
	}
	if format != "" {
		cfg.Format = format
	}

	logger, err := observability.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		exitFunc(1)
		return nil
	}

	return logger
}

// loadAndValidateConfig loads the configuration file, applies the log
// overrides and validates the result. Any error is fatal.
func loadAndValidateConfig(flags cliFlags, logger observability.Logger) *config.GatewayConfig {
	logger.Info("starting avaroute",
		observability.String("version", version),
		observability.String("config", flags.configPath),
	)

	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		fatalWithSync(logger, "failed to load configuration", observability.Error(err))
		return nil
	}

	applyLogOverrides(cfg, flags)

	if err := config.ValidateConfig(cfg); err != nil {
		fatalWithSync(logger, "invalid configuration", observability.Error(err))
		return nil
	}

	logger.Info("configuration loaded",
		observability.String("address", cfg.Server.Address()),
		observability.Int("routes", len(cfg.Routes)),
		observability.Int("workers", cfg.Server.Workers),
	)

	return cfg
}

func applyLogOverrides(cfg *config.GatewayConfig, flags cliFlags) {
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}
}

// fatalWithSync logs at error level, flushes the logger and exits.
func fatalWithSync(logger observability.Logger, msg string, fields ...observability.Field) {
	logger.Error(msg, fields...)
	_ = logger.Sync()
	exitFunc(1)
}
