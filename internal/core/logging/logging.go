// internal/core/logging/logging.go

// Package logging builds the process-wide structured logger.
//
// Core packages (types, report, rules, extract) stay log-free and report
// through errors and warnings; the logger belongs to the outer layers
// (server, api, cmd).
package logging

import (
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New builds a leveled logger writing to w. format is "logfmt" or
// "json"; lvl is debug, info, warn, or error. Empty strings select
// logfmt at info.
func New(w io.Writer, format, lvl string) (log.Logger, error) {
	var logger log.Logger
	switch format {
	case "", "logfmt":
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("unsupported log format: %s (expected logfmt or json)", format)
	}

	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "", "info":
		opt = level.AllowInfo()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, fmt.Errorf("unsupported log level: %s (expected debug, info, warn, or error)", lvl)
	}

	logger = level.NewFilter(logger, opt)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return logger, nil
}
