package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "use this config file")
	flagDebug   = flag.Bool("debug", false, "enable debug logging")
	flagLogFile = flag.String("log-file", "", "write logs to this file")
)

// ParseFlags parses the global flags. Parsing stops at the first
// non-flag argument, so subcommand flag sets see their own flags.
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the config file forced with -config, if any.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags lays the flag overrides over cfg. Flags always win.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
