package fieldval

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Constants for the various log levels in increasing verbosity.
const (
	logOff logLevel = iota
	logErr
	logWarn
	logInfo
	logTrace
)

// LogLevel is the type for logging thresholds.
type logLevel int

// The level names accepted by the LogLevel option and FIELDVAL_LOG_LEVEL.
var levelNames = map[string]logLevel{
	"off":   logOff,
	"error": logErr,
	"warn":  logWarn,
	"info":  logInfo,
	"trace": logTrace,
}

func parseLogLevel(s string) (logLevel, error) {
	lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return logOff, fmt.Errorf("unknown log level: %q", s)
	}
	return lvl, nil
}

func (l logLevel) zapLevel() zapcore.Level {
	switch l {
	case logErr:
		return zapcore.ErrorLevel
	case logWarn:
		return zapcore.WarnLevel
	case logInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// logger keeps the small leveled API the binder uses, with zap doing
// the actual encoding.  The level check happens before any formatting
// so a quiet logger costs next to nothing.
type logger struct {
	Level logLevel
	sugar *zap.SugaredLogger
}

// newLogger creates a logger that writes console-encoded lines to the
// specified writer at the supplied level.
func newLogger(writer io.Writer, level logLevel) *logger {
	if level == logOff {
		return &logger{level, zap.NewNop().Sugar()}
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(writer), level.zapLevel())
	return wrapZap(zap.New(core, zap.AddCaller()), level)
}

// wrapZap adapts a caller supplied zap logger.
func wrapZap(zl *zap.Logger, level logLevel) *logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &logger{level, zl.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// Trace logs messages at or above level Trace.
func (lg *logger) trace(fmtmsg string, a ...interface{}) {
	if lg.Level >= logTrace {
		lg.sugar.Debugf(fmtmsg, a...)
	}
}

// Info logs messages at or above level Info.
func (lg *logger) info(fmtmsg string, a ...interface{}) {
	if lg.Level >= logInfo {
		lg.sugar.Infof(fmtmsg, a...)
	}
}

// Warning logs messages at or above level Warning.
func (lg *logger) warn(fmtmsg string, a ...interface{}) {
	if lg.Level >= logWarn {
		lg.sugar.Warnf(fmtmsg, a...)
	}
}

// Error logs messages at or above level Error.
func (lg *logger) err(fmtmsg string, a ...interface{}) {
	if lg.Level >= logErr {
		lg.sugar.Errorf(fmtmsg, a...)
	}
}
