package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"pdrelay/src/internal/config"

	"github.com/lixenwraith/log"
)

// Command-line flags
var (
	// General flags
	configFile  = flag.String("config", "", "Config file path")
	showVersion = flag.Bool("version", false, "Show version information")
	quiet       = flag.Bool("quiet", false, "Suppress all console output")

	// Relay flags
	apiKey    = flag.String("api-key", "", "PagerDuty API key (overrides config)")
	sinceFlag = flag.String("since", "", "Start of the time range, RFC 3339 (default: one hour ago)")
	untilFlag = flag.String("until", "", "End of the time range, RFC 3339 (default: now)")
	host      = flag.String("host", "", "Logstash destination host (overrides config)")
	port      = flag.Int("port", 0, "Logstash destination UDP port (overrides config)")

	// Logging flags
	logOutput = flag.String("log-output", "", "Log output: file, stdout, stderr, both, none (overrides config)")
	logLevel  = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
)

func init() {
	flag.Usage = customUsage
}

func customUsage() {
	fmt.Fprintf(os.Stderr, "pdrelay - PagerDuty Log Entry to Logstash Relay\n\n")
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")

	fmt.Fprintf(os.Stderr, "\nGeneral:\n")
	fmt.Fprintf(os.Stderr, "  -config string\n\tConfig file path\n")
	fmt.Fprintf(os.Stderr, "  -version\n\tShow version information\n")
	fmt.Fprintf(os.Stderr, "  -quiet\n\tSuppress all console output\n")

	fmt.Fprintf(os.Stderr, "\nRelay:\n")
	fmt.Fprintf(os.Stderr, "  -api-key string\n\tPagerDuty API key (overrides config)\n")
	fmt.Fprintf(os.Stderr, "  -since string\n\tStart of the time range, RFC 3339 (default: one hour ago)\n")
	fmt.Fprintf(os.Stderr, "  -until string\n\tEnd of the time range, RFC 3339 (default: now)\n")
	fmt.Fprintf(os.Stderr, "  -host string\n\tLogstash destination host (overrides config)\n")
	fmt.Fprintf(os.Stderr, "  -port int\n\tLogstash destination UDP port (overrides config)\n")

	fmt.Fprintf(os.Stderr, "\nLogging:\n")
	fmt.Fprintf(os.Stderr, "  -log-output string\n\tLog output: file, stdout, stderr, both, none (overrides config)\n")
	fmt.Fprintf(os.Stderr, "  -log-level string\n\tLog level: debug, info, warn, error (overrides config)\n")

	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  # Relay the last hour of log entries\n")
	fmt.Fprintf(os.Stderr, "  %s --api-key SECRET --host logstash.internal --port 9700\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "  # Relay an explicit window with debug logging\n")
	fmt.Fprintf(os.Stderr, "  %s --config /etc/pdrelay.toml --since 2023-06-05T00:00:00Z --until 2023-06-05T06:00:00Z --log-level debug\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "Environment Variables:\n")
	fmt.Fprintf(os.Stderr, "  PDRELAY_CONFIG_FILE          Config file path\n")
	fmt.Fprintf(os.Stderr, "  PDRELAY_CONFIG_DIR           Config directory\n")
	fmt.Fprintf(os.Stderr, "  PDRELAY_PAGERDUTY_API_KEY    PagerDuty API key\n")
	fmt.Fprintf(os.Stderr, "  PDRELAY_LOGSTASH_HOST        Logstash destination host\n")
	fmt.Fprintf(os.Stderr, "  PDRELAY_LOGSTASH_PORT        Logstash destination port\n")
}

func parseFlags() (*config.Overrides, error) {
	flag.Parse()

	// Validate log-output flag if provided
	if *logOutput != "" {
		validOutputs := map[string]bool{
			"file": true, "stdout": true, "stderr": true,
			"both": true, "none": true,
		}
		if !validOutputs[*logOutput] {
			return nil, fmt.Errorf("invalid log-output: %s (valid: file, stdout, stderr, both, none)", *logOutput)
		}
	}

	// Validate log-level flag if provided
	if *logLevel != "" {
		if _, err := parseLogLevel(*logLevel); err != nil {
			return nil, fmt.Errorf("invalid log-level: %s (valid: debug, info, warn, error)", *logLevel)
		}
	}

	return &config.Overrides{
		APIKey:    *apiKey,
		Since:     *sinceFlag,
		Until:     *untilFlag,
		Host:      *host,
		Port:      *port,
		Quiet:     *quiet,
		LogOutput: *logOutput,
		LogLevel:  *logLevel,
	}, nil
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
