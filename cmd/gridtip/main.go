package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/selfire1/gridtip-sub000/internal/app"
	"github.com/selfire1/gridtip-sub000/internal/auth"
	"github.com/selfire1/gridtip-sub000/internal/config"
	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/pkg/jolpica"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var (
	version = "dev"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("gridtip", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	noKeyboard := flags.Bool("nokeyboard", false, "disable keyboard shortcuts")
	showVersion := flags.Bool("version", false, "show version and exit")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "GridTip - Formula 1 tipping server\n\nUsage:\n  gridtip [options]\n\nOptions:\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEvery option can also be set as a GRIDTIP_ environment variable or in a .env file.\n")
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Printf("gridtip %s\n", version)
		return 0
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	var appLog *logger.ZapLogger
	if interactive {
		appLog = logger.NewConsole(logger.ParseLevel(cfg.LogLevel))
	} else {
		appLog = logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))
	}
	defer appLog.Sync()

	// Setup admin authentication
	password := cfg.AdminPassword
	if password == "" {
		password = auth.GeneratePassword()
		appLog.Info("Admin password", "password", password)
	}
	adminAuth, err := auth.New(password, []byte(cfg.JWTSecret))
	if err != nil {
		appLog.Error("Failed to initialize admin auth", "error", err)
		return 1
	}

	client := jolpica.NewHTTPClient(cfg.F1APIURL, appLog)

	a, err := app.New(appLog, cfg, client, adminAuth)
	if err != nil {
		appLog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if interactive && !*noKeyboard && term.IsTerminal(int(os.Stdin.Fd())) {
		printKeyboardHelp()
		go listenForKeyboard(ctx, stop, a, appLog)
	}

	if err := a.Run(ctx, cfg.Addr()); err != nil {
		appLog.Error("Server stopped", "error", err)
		return 1
	}
	return 0
}
