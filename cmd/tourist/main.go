package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bitbucket.org/kleinnic74/tourist/app"
	"bitbucket.org/kleinnic74/tourist/consts"
	"bitbucket.org/kleinnic74/tourist/logging"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	o, err := loadOptions(os.Args[1:])
	if err == pflag.ErrHelp {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err)
		os.Exit(2)
	}
	if o.DevMode {
		consts.EnableDevMode()
	}
	if err := logging.Init(logging.Options{
		File:        o.Logging.File,
		LogglyToken: o.Logging.Loggly,
		Console:     o.Logging.Console,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %s\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	logger := logging.From(ctx)

	a, err := app.NewApp(ctx, o)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	if err := a.Run(ctx); err != nil {
		logger.Fatal("Failed to run", zap.Error(err))
	}
}
