package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ttcmail/mailsend/internal/config"
	"github.com/ttcmail/mailsend/internal/message"
	"github.com/ttcmail/mailsend/internal/transport"
)

// mockTransport records every Send call and can be told to fail for
// specific recipients.
type mockTransport struct {
	mu     sync.Mutex
	sent   []string
	failOn string
}

func (m *mockTransport) Send(_ context.Context, pm *message.PreparedMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, pm.Recipient)
	if m.failOn != "" && pm.Recipient == m.failOn {
		return fmt.Errorf("delivery refused for %s", pm.Recipient)
	}
	return nil
}

func (m *mockTransport) Name() string {
	return "mock"
}

func (m *mockTransport) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// staticConfirmer answers every prompt with a fixed decision and counts
// how often it was asked.
type staticConfirmer struct {
	answer bool
	calls  int
}

func (c *staticConfirmer) Confirm() (bool, error) {
	c.calls++
	return c.answer, nil
}

// testFiles writes a valid content, recipients and config fixture and
// returns Inputs pointing at them.
func testFiles(t *testing.T, recipients []string) Inputs {
	t.Helper()
	dir := t.TempDir()

	contentPath := filepath.Join(dir, "mail.txt")
	content := "Hi there\n---\nLine one\nLine two\n"
	if err := os.WriteFile(contentPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write content fixture: %v", err)
	}

	recipientsPath := filepath.Join(dir, "recipients.txt")
	if err := os.WriteFile(recipientsPath, []byte(strings.Join(recipients, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("failed to write recipients fixture: %v", err)
	}

	configPath := filepath.Join(dir, config.Filename)
	cfg := `username = "mailer"
password = "secret"
sender = "news@example.com"
reply_to = "replies@example.com"
mailserver = "smtp.example.com"
`
	if err := os.WriteFile(configPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	return Inputs{
		ConfigPath:     configPath,
		RecipientsPath: recipientsPath,
		ContentPath:    contentPath,
	}
}

// testOrchestrator wires an orchestrator around the given mocks with
// buffered output streams.
func testOrchestrator(tp transport.Transport, confirm Confirmer) (*Orchestrator, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}
	orch := &Orchestrator{
		NewTransport: func(*config.Mail) transport.Transport { return tp },
		Confirm:      confirm,
		Out:          out,
		Diag:         diag,
	}
	return orch, out, diag
}

func TestRunSendsAllMessages(t *testing.T) {
	t.Parallel()

	tp := &mockTransport{}
	confirm := &staticConfirmer{answer: true}
	orch, out, _ := testOrchestrator(tp, confirm)

	in := testFiles(t, []string{"a@example.com", "b@example.com", "c@example.com"})
	if err := orch.Run(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := tp.sentCount(); got != 3 {
		t.Errorf("sent %d messages, want 3", got)
	}
	if confirm.calls != 1 {
		t.Errorf("confirmer asked %d times, want 1", confirm.calls)
	}
	if !strings.Contains(out.String(), "Successfully sent all emails") {
		t.Errorf("output missing success line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Found 3 email addresses. 3 parsed successfully, 0 error(s) occured.") {
		t.Errorf("output missing summary line:\n%s", out.String())
	}
}

func TestRunPartitionsBuildErrors(t *testing.T) {
	t.Parallel()

	tp := &mockTransport{}
	orch, out, diag := testOrchestrator(tp, &staticConfirmer{answer: true})

	in := testFiles(t, []string{"a@example.com", "not-an-address", "b@example.com"})
	if err := orch.Run(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One bad address must not stop the other two.
	if got := tp.sentCount(); got != 2 {
		t.Errorf("sent %d messages, want 2", got)
	}
	for _, want := range []string{"a@example.com", "b@example.com"} {
		found := false
		for _, sent := range tp.sent {
			if sent == want {
				found = true
			}
		}
		if !found {
			t.Errorf("message for %s was never sent", want)
		}
	}
	if !strings.Contains(out.String(), "Found 3 email addresses. 2 parsed successfully, 1 error(s) occured.") {
		t.Errorf("output missing summary line:\n%s", out.String())
	}
	if !strings.Contains(diag.String(), "not-an-address") {
		t.Errorf("diagnostics do not name the bad recipient:\n%s", diag.String())
	}
}

func TestRunDebugMode(t *testing.T) {
	t.Parallel()

	tp := &mockTransport{}
	confirm := &staticConfirmer{answer: true}
	orch, out, _ := testOrchestrator(tp, confirm)

	in := testFiles(t, []string{"a@example.com"})
	in.Debug = true
	if err := orch.Run(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := tp.sentCount(); got != 0 {
		t.Errorf("debug mode sent %d messages, want 0", got)
	}
	if confirm.calls != 0 {
		t.Errorf("debug mode asked for confirmation %d times, want 0", confirm.calls)
	}
	if !strings.Contains(out.String(), "a@example.com") {
		t.Errorf("debug output missing recipients:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "smtp.example.com") {
		t.Errorf("debug output missing config:\n%s", out.String())
	}
	if strings.Contains(out.String(), "secret") {
		t.Errorf("debug output leaks the password:\n%s", out.String())
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	tp := &mockTransport{}
	orch, out, _ := testOrchestrator(tp, &staticConfirmer{answer: false})

	in := testFiles(t, []string{"a@example.com"})
	if err := orch.Run(context.Background(), in); err != nil {
		t.Fatalf("cancellation must not be an error, got: %v", err)
	}

	if got := tp.sentCount(); got != 0 {
		t.Errorf("cancelled run sent %d messages, want 0", got)
	}
	if !strings.Contains(out.String(), "Sending cancelled.") {
		t.Errorf("output missing cancellation line:\n%s", out.String())
	}
}

func TestRunTransportFailure(t *testing.T) {
	t.Parallel()

	tp := &mockTransport{failOn: "b@example.com"}
	orch, out, _ := testOrchestrator(tp, &staticConfirmer{answer: true})

	in := testFiles(t, []string{"a@example.com", "b@example.com", "c@example.com"})
	err := orch.Run(context.Background(), in)
	if err == nil {
		t.Fatal("expected the first transport failure to be returned")
	}
	if !strings.Contains(out.String(), "Some mails may have been sent and others not.") {
		t.Errorf("output missing partial-delivery warning:\n%s", out.String())
	}
}

func TestRunFailFastSkipsRemaining(t *testing.T) {
	t.Parallel()

	// With a single worker the send order is the message order, so a
	// failure on the first recipient must skip all later ones.
	tp := &mockTransport{failOn: "a@example.com"}
	orch, _, _ := testOrchestrator(tp, &staticConfirmer{answer: true})
	orch.Workers = 1

	in := testFiles(t, []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"})
	if err := orch.Run(context.Background(), in); err == nil {
		t.Fatal("expected error")
	}

	if got := tp.sentCount(); got != 1 {
		t.Errorf("sent %d messages after failure, want 1", got)
	}
}

func TestRunFatalInputErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(t *testing.T, in *Inputs)
	}{
		{"missing content", func(t *testing.T, in *Inputs) { in.ContentPath = filepath.Join(t.TempDir(), "nope.txt") }},
		{"missing recipients", func(t *testing.T, in *Inputs) { in.RecipientsPath = filepath.Join(t.TempDir(), "nope.txt") }},
		{"missing config", func(t *testing.T, in *Inputs) { in.ConfigPath = filepath.Join(t.TempDir(), "nope.toml") }},
		{"missing attachment", func(t *testing.T, in *Inputs) { in.AttachmentPaths = []string{filepath.Join(t.TempDir(), "nope.bin")} }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tp := &mockTransport{}
			confirm := &staticConfirmer{answer: true}
			orch, _, _ := testOrchestrator(tp, confirm)

			in := testFiles(t, []string{"a@example.com"})
			tt.mutate(t, &in)

			if err := orch.Run(context.Background(), in); err == nil {
				t.Fatal("expected fatal error")
			}
			if got := tp.sentCount(); got != 0 {
				t.Errorf("sent %d messages, want 0", got)
			}
			if confirm.calls != 0 {
				t.Errorf("confirmer asked %d times, want 0", confirm.calls)
			}
		})
	}
}

func TestRunWithAttachments(t *testing.T) {
	t.Parallel()

	tp := &mockTransport{}
	orch, _, _ := testOrchestrator(tp, &staticConfirmer{answer: true})

	in := testFiles(t, []string{"a@example.com"})
	attPath := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(attPath, []byte("pdf bytes"), 0o600); err != nil {
		t.Fatalf("failed to write attachment fixture: %v", err)
	}
	in.AttachmentPaths = []string{attPath}

	if err := orch.Run(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	if len(tp.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(tp.sent))
	}
}
