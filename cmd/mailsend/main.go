// Package main is the entry point for the mailsend CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/ttcmail/mailsend/internal/batch"
	"github.com/ttcmail/mailsend/internal/config"
	"github.com/ttcmail/mailsend/internal/transport"
)

func main() {
	configFile := flag.StringP("config-file", "c", "", "full or relative path to configuration file (default: mailsend.toml next to the executable)")
	recipientsFile := flag.StringP("recipients-file", "r", "", "file containing email addresses (one address on each line)")
	textFile := flag.StringP("text-file", "t", "", "file containing the mail subject and body")
	attachments := flag.StringArray("attachments", nil, "file to attach to every mail (repeatable)")
	workers := flag.Int("workers", 0, "number of concurrent sends (default: available parallelism)")
	debug := flag.Bool("debug", false, "enables debugging mode (does not send mail but just prints output)")
	flag.Parse()

	setupLogger(os.Getenv("LOG_LEVEL"))

	if *recipientsFile == "" || *textFile == "" {
		fmt.Fprintln(os.Stderr, "both --recipients-file and --text-file are required")
		flag.Usage()
		os.Exit(2)
	}

	configPath := *configFile
	if configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			slog.Error("failed to resolve default config path", "error", err)
			os.Exit(1)
		}
		configPath = path
	}

	orch := &batch.Orchestrator{
		NewTransport: func(cfg *config.Mail) transport.Transport {
			return transport.NewSMTP(cfg)
		},
		Confirm: &batch.TerminalConfirmer{In: os.Stdin, Out: os.Stdout},
		Out:     os.Stdout,
		Diag:    os.Stderr,
		Workers: *workers,
	}

	err := orch.Run(context.Background(), batch.Inputs{
		ConfigPath:      configPath,
		RecipientsPath:  *recipientsFile,
		ContentPath:     *textFile,
		AttachmentPaths: *attachments,
		Debug:           *debug,
	})
	if err != nil {
		slog.Error("mailsend failed", "error", err)
		os.Exit(1)
	}
}

// setupLogger configures the global slog logger with human-readable
// output on stderr and the specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
