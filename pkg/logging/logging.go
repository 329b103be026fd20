package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogFile overrides the log file location. Set it to "-" to disable file logging.
const EnvLogFile = "FORMULARY_LOG_FILE"

// SetupLogger configures the global logger based on verbosity level
// It sets up dual output to both console and a log file. Every line carries
// runID when it is not empty.
func SetupLogger(verbosity int, runID string) {
	SetupLoggerTo(os.Stderr, verbosity, getLogFilePath(), runID)
}

// SetupLoggerTo is SetupLogger with explicit console writer and log file.
// An empty logFile disables file logging. The global logger is rebuilt from
// scratch on every call.
func SetupLoggerTo(console io.Writer, verbosity int, logFile, runID string) {
	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
	}

	writers := []io.Writer{consoleWriter}

	var fileErr error
	if logFile != "" {
		var logFileHandle *os.File
		logFileHandle, fileErr = setupLogFile(logFile)
		if fileErr == nil {
			writers = append(writers, logFileHandle)
		}
	}

	multi := io.MultiWriter(writers...)
	ctx := zerolog.New(multi).With().Timestamp()
	if runID != "" {
		ctx = ctx.Str("run", runID)
	}
	log.Logger = ctx.Logger()

	// If we couldn't create the log file, log the error now with the new logger
	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", logFile).Msg("Failed to create log file, logging to console only")
	}

	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Str("logFile", logFile).Msg("Logger initialized")
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// getLogFilePath returns the path to the log file
// It respects FORMULARY_LOG_FILE, then XDG_STATE_HOME via xdg
func getLogFilePath() string {
	if p, ok := os.LookupEnv(EnvLogFile); ok {
		if p == "-" {
			return ""
		}
		return p
	}
	return filepath.Join(xdg.StateHome, "formulary", "formulary.log")
}

// setupLogFile creates the log file and its parent directories
func setupLogFile(logPath string) (*os.File, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}

// LogCommand logs a command execution
func LogCommand(logger zerolog.Logger, formula, command string) {
	logger.Debug().
		Str("formula", formula).
		Str("command", command).
		Msg("Executing command")
}

// LogOperationStart logs the start of an operation and returns a function to log its completion
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().
		Str("operation", operation).
		Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
