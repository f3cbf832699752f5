// Package batch drives a full run: parse the inputs, build one message
// per recipient, report build errors, confirm and send concurrently.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ttcmail/mailsend/internal/config"
	"github.com/ttcmail/mailsend/internal/message"
	"github.com/ttcmail/mailsend/internal/parser"
	"github.com/ttcmail/mailsend/internal/transport"
)

// Inputs names the operator-supplied files for one run.
type Inputs struct {
	ConfigPath      string
	RecipientsPath  string
	ContentPath     string
	AttachmentPaths []string

	// Debug enables the dry-run mode: print the resolved state and
	// return without confirming or sending.
	Debug bool
}

// Orchestrator runs the partial-failure batch pipeline. Config, content
// and attachments are loaded once and shared read-only across all
// per-recipient builds.
type Orchestrator struct {
	// NewTransport builds the delivery backend once the configuration
	// is known. It is never called in debug mode.
	NewTransport func(cfg *config.Mail) transport.Transport

	// Confirm is the interactive gate consulted before sending.
	Confirm Confirmer

	// Out receives the operator-facing report, Diag the per-error
	// details and the progress indicator.
	Out  io.Writer
	Diag io.Writer

	// Workers bounds the send pool; values <= 0 mean the host's
	// available parallelism.
	Workers int
}

// Run executes the whole pipeline. Input file problems are fatal and
// returned immediately; per-recipient build failures are collected and
// reported without stopping the batch. User cancellation is not an
// error. A transport failure is returned after the partial-delivery
// warning has been printed.
func (o *Orchestrator) Run(ctx context.Context, in Inputs) error {
	content, err := parser.ParseContent(in.ContentPath)
	if err != nil {
		return err
	}
	recipients, err := parser.ParseRecipients(in.RecipientsPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(in.ConfigPath)
	if err != nil {
		return err
	}
	attachments, err := parser.LoadAttachments(in.AttachmentPaths)
	if err != nil {
		return err
	}

	slog.Debug("inputs resolved",
		"recipients", len(recipients),
		"attachments", len(attachments),
		"content_type", content.Type.String(),
	)

	msgs, buildErrs := partition(recipients, content, cfg, attachments)

	fmt.Fprintf(o.Out, "Found %d email addresses. %d parsed successfully, %d error(s) occured.\n",
		len(recipients), len(msgs), len(buildErrs))
	if len(buildErrs) > 0 {
		fmt.Fprintln(o.Out, "Errors:")
		for _, be := range buildErrs {
			fmt.Fprintf(o.Diag, "\t%v\n", be)
		}
		fmt.Fprintln(o.Out)
	}

	if in.Debug {
		o.printResolved(recipients, cfg, content, attachments)
		return nil
	}

	fmt.Fprintf(o.Out, "Will now send the following email to the successfully parsed addresses:\n\n%s\n\n", content)

	ok, err := o.Confirm.Confirm()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(o.Out, "Sending cancelled.")
		return nil
	}

	if err := o.send(ctx, cfg, msgs); err != nil {
		fmt.Fprintf(o.Out, "Failure occured during sending: %v.\nSome mails may have been sent and others not.\n", err)
		return err
	}
	fmt.Fprintln(o.Out, "Successfully sent all emails")
	return nil
}

// partition attempts a build per recipient. Each attempt is isolated:
// one recipient's failure never affects another's build. Both result
// lists keep recipient input order.
func partition(recipients []string, content *parser.Content, cfg *config.Mail, attachments []parser.Attachment) ([]*message.PreparedMessage, []message.BuildError) {
	var msgs []*message.PreparedMessage
	var errs []message.BuildError
	for _, recipient := range recipients {
		pm, err := message.Build(recipient, content, cfg, attachments)
		if err != nil {
			errs = append(errs, message.BuildError{Recipient: recipient, Err: err})
			continue
		}
		msgs = append(msgs, pm)
	}
	return msgs, errs
}

// send dispatches all prepared messages through a bounded worker pool.
// The first transport error cancels the pool context, so sends that
// have not started yet are skipped; in-flight sends run to completion.
func (o *Orchestrator) send(ctx context.Context, cfg *config.Mail, msgs []*message.PreparedMessage) error {
	workers := o.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	tp := o.NewTransport(cfg)
	slog.Debug("dispatching messages",
		"count", len(msgs),
		"workers", workers,
		"transport", tp.Name(),
	)

	bar := progressbar.NewOptions(len(msgs),
		progressbar.OptionSetWriter(o.Diag),
		progressbar.OptionSetDescription("sending"),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(o.Diag) }),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, pm := range msgs {
		pm := pm
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tp.Send(ctx, pm); err != nil {
				return err
			}
			_ = bar.Add(1)
			return nil
		})
	}
	return g.Wait()
}

// printResolved dumps the full resolved run state for the dry-run mode.
func (o *Orchestrator) printResolved(recipients []string, cfg *config.Mail, content *parser.Content, attachments []parser.Attachment) {
	fmt.Fprintf(o.Out, "Recipients: %q\n", recipients)
	fmt.Fprintf(o.Out, "Config: %+v\n", cfg.Redacted())
	fmt.Fprintf(o.Out, "Attachments: %v\n", attachments)
	fmt.Fprintf(o.Out, "Text:\n%s\n", content)
}
