package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/selfire1/gridtip-sub000/internal/logger"
)

// syncer triggers an immediate result import
type syncer interface {
	SyncNow(ctx context.Context)
}

// levelCycle is the order the l shortcut steps through
var levelCycle = map[zapcore.Level]zapcore.Level{
	zapcore.DebugLevel: zapcore.InfoLevel,
	zapcore.InfoLevel:  zapcore.WarnLevel,
	zapcore.WarnLevel:  zapcore.ErrorLevel,
	zapcore.ErrorLevel: zapcore.DebugLevel,
}

// nextLevel returns the level after current, wrapping to debug
func nextLevel(current zapcore.Level) zapcore.Level {
	if next, ok := levelCycle[current]; ok {
		return next
	}
	return zapcore.InfoLevel
}

// printf writes a line that survives raw terminal mode
func printf(format string, args ...any) {
	fmt.Print(strings.ReplaceAll(fmt.Sprintf(format, args...), "\n", "\r\n"))
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp() {
	printf("\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	printf("    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	printf("    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	printf("    %ss%s      - Sync finished race results now\n", cyan, reset)
	printf("    %sq%s      - Quit server\n", cyan, reset)
	printf("    %s?%s      - Show this help\n\n", cyan, reset)
}

// listenForKeyboard reads single keys from stdin until ctx is done. quit stops the server.
func listenForKeyboard(ctx context.Context, quit context.CancelFunc, s syncer, appLog logger.Logger) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Can't get terminal state, silently return
		return
	}
	defer term.Restore(fd, oldState)

	keys := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			if n == 1 {
				keys <- buf[0]
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-keys:
			if !ok {
				return
			}
			switch strings.ToLower(string(key)) {
			case "h":
				if appLog.IsHTTPLoggingEnabled() {
					appLog.DisableHTTPLogging()
					printf("%sHTTP logging disabled%s\n", yellow, reset)
				} else {
					appLog.EnableHTTPLogging()
					printf("%sHTTP logging enabled%s\n", green, reset)
				}
			case "l":
				level := nextLevel(appLog.GetLevel())
				appLog.SetLevel(level)
				printf("%sLog level: %s%s%s\n", green, yellow, level, reset)
			case "s":
				printf("%sSyncing results...%s\n", cyan, reset)
				go s.SyncNow(ctx)
			case "q", "\x03": // q or Ctrl+C
				printf("%sShutting down server...%s\n", yellow, reset)
				quit()
				return
			case "?":
				printKeyboardHelp()
			}
		}
	}
}
