package logging

import (
	"context"
	"fmt"
	"io"
	"os"

	"bitbucket.org/kleinnic74/tourist/consts"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKeyType string

const (
	loggerKey = loggerKeyType("logger")

	memoryLogLines = 1000
)

// Options control the cores of the root logger
type Options struct {
	// File is the path of the JSON log file, no file is written if empty
	File string
	// LogglyToken enables forwarding of logs to loggly if not empty
	LogglyToken string
	// Console forces console output even if not in devmode
	Console bool
}

var (
	rootLogger = zap.NewNop()
	memory     *memoryLogs
)

// Init replaces the root logger with one built from the given options
func Init(o Options) error {
	devmode := consts.IsDevMode()
	debugFilter := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.DebugLevel
	})
	infoFilter := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.InfoLevel
	})

	var jsonEncoder zapcore.Encoder
	var fileFilter zap.LevelEnablerFunc
	if devmode {
		jsonEncoder = zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig())
		fileFilter = debugFilter
	} else {
		jsonEncoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		fileFilter = infoFilter
	}
	var cores []zapcore.Core
	if devmode || o.Console {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		console := zapcore.Lock(os.Stdout)
		cores = append(cores, zapcore.NewCore(consoleEncoder, console, fileFilter))
	}
	if o.File != "" {
		logfile, err := os.OpenFile(o.File, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return fmt.Errorf("Failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.Lock(logfile), fileFilter))
	}

	memory = NewMemoryLogger(memoryLogLines).(*memoryLogs)
	cores = append(cores, zapcore.NewCore(jsonEncoder, memory, fileFilter))

	if o.LogglyToken != "" {
		loggly := NewLogglySink(o.LogglyToken)
		cores = append(cores, zapcore.NewCore(NewLogglyEncoder(), loggly, infoFilter))
	}

	rootLogger = zap.New(zapcore.NewTee(cores...))
	rootLogger.With(zap.Bool("devmode", devmode)).Info("Logging initialized")
	return nil
}

// Sync flushes the root logger
func Sync() {
	rootLogger.Sync()
}

// Dump writes the most recent log lines kept in memory, newest first if
// reverse is set
func Dump(w io.Writer, reverse bool) error {
	if memory == nil {
		return nil
	}
	return memory.Export(w, reverse)
}

// From returns the logger of the current context, if no logger is available, returns the root logger
func From(ctx context.Context) *zap.Logger {
	l := ctx.Value(loggerKey)
	if l == nil {
		return rootLogger
	}
	return l.(*zap.Logger)
}

func SubFrom(ctx context.Context, name string) (*zap.Logger, context.Context) {
	logger := From(ctx).Named(name)
	return logger, Context(ctx, logger)
}

func Context(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = rootLogger
	}
	return context.WithValue(ctx, loggerKey, logger)
}

func FromWithNameAndFields(ctx context.Context, name string, fields ...zapcore.Field) (*zap.Logger, context.Context) {
	logger := From(ctx).With(fields...).Named(name)
	ctx = Context(ctx, logger)
	return logger, ctx
}

func FromWithFields(ctx context.Context, fields ...zapcore.Field) (*zap.Logger, context.Context) {
	logger := From(ctx).With(fields...)
	ctx = Context(ctx, logger)
	return logger, ctx
}
