package main

import (
	"fmt"
	"time"

	"pdrelay/src/internal/config"
	"pdrelay/src/internal/enrich"
	"pdrelay/src/internal/format"
	"pdrelay/src/internal/pagerduty"
	"pdrelay/src/internal/service"
	"pdrelay/src/internal/sink"

	"github.com/lixenwraith/log"
)

// bootstrapRelay wires the client, enricher, sink and relay from
// configuration. The returned sink is connected and must be closed by
// the caller.
func bootstrapRelay(cfg *config.Config) (*service.Relay, *sink.UDPClientSink, error) {
	since, until, err := cfg.Window()
	if err != nil {
		return nil, nil, err
	}

	client, err := pagerduty.NewClient(pagerduty.Config{
		APIURL:  cfg.PagerDuty.APIURL,
		APIKey:  cfg.PagerDuty.APIKey,
		Timeout: time.Duration(cfg.PagerDuty.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create PagerDuty client: %w", err)
	}

	formatter, err := format.New(cfg.Logstash.Format, nil, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create formatter: %w", err)
	}

	udpSink, err := sink.NewUDPClientSink(sink.UDPClientConfig{
		Address:      cfg.Address(),
		DialTimeout:  time.Duration(cfg.Logstash.DialTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Logstash.WriteTimeoutSeconds) * time.Second,
	}, logger, formatter, output.DiagWriter())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create UDP sink: %w", err)
	}
	if err := udpSink.Connect(); err != nil {
		return nil, nil, err
	}

	relay, err := service.NewRelay(service.RelayConfig{
		Since:     since,
		Until:     until,
		PageSize:  cfg.PagerDuty.PageSize,
		SendDelay: time.Duration(cfg.Logstash.SendDelayMs) * time.Millisecond,
	}, client, enrich.New(logger), udpSink, logger)
	if err != nil {
		udpSink.Close()
		return nil, nil, fmt.Errorf("failed to create relay: %w", err)
	}

	return relay, udpSink, nil
}

// initializeLogger sets up the logger based on configuration
func initializeLogger(cfg *config.Config) error {
	logger = log.NewLogger()

	var configArgs []string

	if cfg.Quiet {
		// In quiet mode, disable ALL logging output
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255")

		if err := logger.ApplyConfigString(configArgs...); err != nil {
			return err
		}
		return logger.Start()
	}

	// Determine log level
	levelValue, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	// Configure based on output mode
	switch cfg.Logging.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")

	case "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configureFileLogging(&configArgs, cfg)

	case "both":
		configArgs = append(configArgs, "enable_stdout=true")
		configureFileLogging(&configArgs, cfg)
		configureConsoleTarget(&configArgs, cfg)

	default:
		return fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	// Apply format if specified
	if cfg.Logging.Console != nil && cfg.Logging.Console.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Logging.Console.Format))
	}

	if err := logger.ApplyConfigString(configArgs...); err != nil {
		return err
	}
	return logger.Start()
}

// configureFileLogging sets up file-based logging parameters
func configureFileLogging(configArgs *[]string, cfg *config.Config) {
	if cfg.Logging.File != nil {
		*configArgs = append(*configArgs,
			fmt.Sprintf("directory=%s", cfg.Logging.File.Directory),
			fmt.Sprintf("name=%s", cfg.Logging.File.Name),
			fmt.Sprintf("max_size_mb=%d", cfg.Logging.File.MaxSizeMB),
			fmt.Sprintf("max_total_size_mb=%d", cfg.Logging.File.MaxTotalSizeMB))

		if cfg.Logging.File.RetentionHours > 0 {
			*configArgs = append(*configArgs,
				fmt.Sprintf("retention_period_hrs=%.1f", cfg.Logging.File.RetentionHours))
		}
	}
}

// configureConsoleTarget sets up console output parameters
func configureConsoleTarget(configArgs *[]string, cfg *config.Config) {
	target := "stderr" // default

	if cfg.Logging.Console != nil && cfg.Logging.Console.Target != "" {
		target = cfg.Logging.Console.Target
	}

	// Split mode by configuring log package with level-based routing
	if target == "split" {
		*configArgs = append(*configArgs, "stdout_split_mode=true")
		*configArgs = append(*configArgs, "stdout_target=split")
	} else {
		*configArgs = append(*configArgs, fmt.Sprintf("stdout_target=%s", target))
	}
}
