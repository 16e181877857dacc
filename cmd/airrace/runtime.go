package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/logging"
	intOtel "github.com/airrace/racecore/internal/otel"
	"github.com/airrace/racecore/internal/snapshot"
)

// runtime holds the process-wide outputs a command sets up once.
type runtime struct {
	start      time.Time
	logManager *logging.SlogManager
	logger     *slog.Logger
	zlog       zerolog.Logger
	logFile    *os.File
	logPath    string
	graylog    *gelf.Writer
	otel       *intOtel.Provider
	board      *snapshot.Board
}

// setupRuntime opens the session log, then OTel and Graylog when enabled,
// and builds the slog and zerolog loggers on top. Failures of optional
// outputs are logged and skipped.
func setupRuntime(stderr io.Writer) (*runtime, error) {
	rt := &runtime{
		start:      time.Now(),
		logManager: logging.NewSlogManager(),
		board:      snapshot.NewBoard(),
	}
	level := config.GetString("logLevel")
	logsDir := config.GetString("logsDir")

	var file io.Writer
	f, err := logging.OpenLogFile(logsDir, appName, rt.start)
	if err != nil {
		fmt.Fprintf(stderr, "Logging to console: %v\n", err)
	} else {
		rt.logFile = f
		rt.logPath = f.Name()
		file = f
	}
	sink := file
	if sink == nil {
		sink = stderr
	}

	otelCfg, err := config.GetOTelConfig()
	if err != nil {
		return nil, err
	}
	var provider *sdklog.LoggerProvider
	if otelCfg.Enabled {
		rt.otel, err = intOtel.New(intOtel.Config{
			Enabled:      true,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    sink,
			MetricWriter: sink,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			fmt.Fprintf(stderr, "Failed to initialize OTel provider: %v\n", err)
		} else {
			provider = rt.otel.LoggerProvider()
		}
	}

	graylogCfg, err := config.GetGraylogConfig()
	if err != nil {
		return nil, err
	}
	var graylog io.Writer
	if graylogCfg.Enabled {
		rt.graylog, err = logging.NewGraylogWriter(graylogCfg.Address, appName)
		if err != nil {
			fmt.Fprintf(stderr, "Graylog disabled: %v\n", err)
		} else {
			graylog = rt.graylog
		}
	}

	rt.logManager.Setup(logging.Options{
		Level:       level,
		File:        file,
		Console:     stderr,
		Graylog:     graylog,
		Provider:    provider,
		Context:     logging.RaceContext(rt.board.Race),
		ServiceName: otelCfg.ServiceName,
	})
	rt.logger = rt.logManager.Logger()
	rt.zlog = logging.NewZerolog(sink, level, file != nil)

	if rt.logPath != "" {
		rt.logger.Info("Logging to file", "path", rt.logPath)
	}
	return rt, nil
}

// close flushes and shuts down every output.
func (rt *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rt.logManager.Flush(ctx); err != nil {
		rt.logger.Warn("Failed to flush logs", "error", err)
	}
	if rt.otel != nil {
		if err := rt.otel.Shutdown(ctx); err != nil {
			rt.logger.Warn("Failed to shut down OTel", "error", err)
		}
	}
	if rt.graylog != nil {
		_ = rt.graylog.Close()
	}
	if rt.logFile != nil {
		_ = rt.logFile.Close()
	}
}
