// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package app

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"paywaila.org/waila/client/core"
	"paywaila.org/waila/client/metrics"
	"paywaila.org/waila/client/webserver"
	"paywaila.org/waila/wallet"
)

const (
	defaultMainnetHost = "127.0.0.1"
	defaultTestnetHost = "127.0.0.2"
	defaultSignetHost  = "127.0.0.3"
	defaultRegtestHost = "127.0.0.4"
	defaultWebPort     = "5780"
	defaultLogLevel    = "debug"
	configFilename     = "wailad.conf"
	appName            = "wailad"
)

var (
	defaultApplicationDirectory = dcrutil.AppDataDir(appName, false)
	defaultConfigPath           = filepath.Join(defaultApplicationDirectory, configFilename)
)

// CoreConfig encapsulates the settings specific to core.Core.
type CoreConfig struct {
	DBPath           string        `long:"db" description:"Directory of the wallet engine's store. The store is only read, and need not exist yet."`
	InFlightInterval time.Duration `long:"inflightinterval" description:"Time between checks for in-flight Lightning payments (e.g. 15m)."`
	// Net is a derivative field set by ResolveConfig.
	Net wallet.Network
}

// WebConfig encapsulates the configuration needed for the web server.
type WebConfig struct {
	WebAddr   string  `long:"webaddr" description:"HTTP server address"`
	RateLimit float64 `long:"ratelimit" description:"Sustained rate of API requests per second. The burst is twice the rate."`
	NoWeb     bool    `long:"noweb" description:"disable the web server."`
}

// LogConfig encapsulates the logging-related settings.
type LogConfig struct {
	LogPath    string `long:"logpath" description:"A file to save app logs"`
	DebugLevel string `long:"log" description:"Logging level {trace, debug, info, warn, error, critical}, or SUBSYS=level pairs separated by commas"`
	LocalLogs  bool   `long:"loglocal" description:"Use local time zone time stamps in log entries."`
	NoStdout   bool   `long:"nostdout" description:"Don't echo logs to stdout."`
}

// Config is the common application configuration definition. This composite
// struct captures the configuration needed for core and the web server, as
// well as some application-level directives.
type Config struct {
	CoreConfig
	WebConfig
	LogConfig
	// AppData and ConfigPath should be parsed from the command-line,
	// as it makes no sense to set these in the config file itself. If no values
	// are assigned, defaults will be used.
	AppData    string `long:"appdata" description:"Path to application directory."`
	ConfigPath string `long:"config" description:"Path to an INI configuration file."`
	// Testnet, Signet and Regtest are used to set the derivative
	// CoreConfig.Net wallet.Network field.
	Testnet bool `long:"testnet" description:"use testnet"`
	Signet  bool `long:"signet" description:"use signet"`
	Regtest bool `long:"regtest" description:"use regtest"`
	ShowVer bool `short:"V" long:"version" description:"Display version information and exit"`
}

// Core creates a core.Core configuration.
func (cfg *Config) Core(lm *wallet.LoggerMaker, rec metrics.Recorder) *core.Config {
	return &core.Config{
		DBPath:           cfg.DBPath,
		Net:              cfg.Net,
		LoggerMaker:      lm,
		InFlightInterval: cfg.InFlightInterval,
		Recorder:         rec,
	}
}

// Web creates a configuration for the webserver.
func (cfg *Config) Web(c *core.Core, log wallet.Logger, gatherer prometheus.Gatherer) *webserver.Config {
	return &webserver.Config{
		Core:      c,
		Addr:      cfg.WebAddr,
		Logger:    log,
		RateLimit: cfg.RateLimit,
		Gatherer:  gatherer,
	}
}

var DefaultConfig = Config{
	AppData:    defaultApplicationDirectory,
	ConfigPath: defaultConfigPath,
	LogConfig:  LogConfig{DebugLevel: defaultLogLevel},
}

// ParseCLIConfig parses the command-line arguments into the provided struct
// with go-flags tags. If the --help flag has been passed, the struct is
// described back to the terminal and the program exits using os.Exit.
func ParseCLIConfig(cfg any) error {
	return parseCLIConfig(cfg, os.Args[1:])
}

func parseCLIConfig(cfg any, args []string) error {
	preParser := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	_, flagerr := preParser.ParseArgs(args)

	if flagerr != nil {
		e, ok := flagerr.(*flags.Error)
		if !ok || e.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		if ok && e.Type == flags.ErrHelp {
			preParser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		return flagerr
	}
	return nil
}

// ResolveCLIConfigPaths resolves the app data directory path and the
// configuration file path from the CLI config, (presumably parsed with
// ParseCLIConfig).
func ResolveCLIConfigPaths(cfg *Config) (appData, configPath string) {
	// If the app directory has been changed, replace shortcut chars such
	// as "~" with the full path.
	if cfg.AppData != defaultApplicationDirectory {
		cfg.AppData = wallet.CleanAndExpandPath(cfg.AppData)
		// If the app directory has been changed, but the config file path hasn't,
		// reform the config file path with the new directory.
		if cfg.ConfigPath == defaultConfigPath {
			cfg.ConfigPath = filepath.Join(cfg.AppData, configFilename)
		}
	}
	cfg.ConfigPath = wallet.CleanAndExpandPath(cfg.ConfigPath)
	return cfg.AppData, cfg.ConfigPath
}

// ParseFileConfig parses the INI file into the provided struct with go-flags
// tags. The CLI args are then parsed, and take precedence over the file values.
func ParseFileConfig(path string, cfg any) error {
	return parseFileConfig(path, cfg, os.Args[1:])
}

func parseFileConfig(path string, cfg any, args []string) error {
	parser := flags.NewParser(cfg, flags.Default)
	err := flags.NewIniParser(parser).ParseFile(path)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return err
		}
		// Missing file is not an error.
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	return nil
}

// ResolveConfig sets derivative fields of the Config struct using the specified
// app data directory (presumably returned from ResolveCLIConfigPaths). Some
// unset values are given defaults.
func ResolveConfig(appData string, cfg *Config) error {
	var nets int
	for _, on := range []bool{cfg.Testnet, cfg.Signet, cfg.Regtest} {
		if on {
			nets++
		}
	}
	if nets > 1 {
		return fmt.Errorf("only one of testnet, signet and regtest may be specified")
	}
	if cfg.InFlightInterval < 0 {
		return fmt.Errorf("negative inflightinterval %s", cfg.InFlightInterval)
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("negative ratelimit %f", cfg.RateLimit)
	}

	cfg.AppData = appData

	switch {
	case cfg.Testnet:
		cfg.Net = wallet.Testnet
	case cfg.Signet:
		cfg.Net = wallet.Signet
	case cfg.Regtest:
		cfg.Net = wallet.Regtest
	default:
		cfg.Net = wallet.Mainnet
	}
	defaultDBPath, defaultLogPath, err := setNet(appData, cfg.Net.String())
	if err != nil {
		return err
	}

	// If the web server address is not set, use the network specific
	// default.
	if cfg.WebAddr == "" {
		cfg.WebAddr = net.JoinHostPort(DefaultHostByNetwork(cfg.Net), defaultWebPort)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	} else {
		cfg.DBPath = wallet.CleanAndExpandPath(cfg.DBPath)
	}

	if cfg.LogPath == "" {
		cfg.LogPath = defaultLogPath
	} else {
		cfg.LogPath = wallet.CleanAndExpandPath(cfg.LogPath)
	}
	return nil
}

// setNet creates the network directory. It returns a suggested path for the
// wallet store and a log file. If using a file rotator, the directory of the
// log filepath as parsed by filepath.Dir is suitable for use.
func setNet(applicationDirectory, net string) (dbPath, logPath string, err error) {
	netDirectory := filepath.Join(applicationDirectory, net)
	logDirectory := filepath.Join(netDirectory, "logs")
	if err = os.MkdirAll(logDirectory, 0700); err != nil {
		return "", "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return filepath.Join(netDirectory, "wallet"), filepath.Join(logDirectory, appName+".log"), nil
}

// DefaultHostByNetwork accepts configured network and returns the network
// specific default host
func DefaultHostByNetwork(network wallet.Network) string {
	switch network {
	case wallet.Testnet:
		return defaultTestnetHost
	case wallet.Signet:
		return defaultSignetHost
	case wallet.Regtest:
		return defaultRegtestHost
	default:
		return defaultMainnetHost
	}
}
