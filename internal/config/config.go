// Package config loads the TOML mail account configuration shared
// read-only by every message build of a run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Filename is the default configuration file name, looked up next to
// the running executable when no --config-file flag is given.
const Filename = "mailsend.toml"

// Mail holds the SMTP account and addressing used for a whole run.
// Immutable once loaded.
type Mail struct {
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	Sender     string `toml:"sender"`
	ReplyTo    string `toml:"reply_to"`
	Mailserver string `toml:"mailserver"`
}

// Load reads the TOML configuration at path, applies environment
// variable overrides and validates that every field is set. Parse
// errors include the file content to speed diagnosis.
func Load(path string) (*Mail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	cfg := &Mail{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s with content:\n%s\n%w", path, data, err)
	}

	// Environment variables always override file values
	cfg.applyEnvVars()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the path of Filename in the directory of the
// running executable.
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("could not locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), Filename), nil
}

// Redacted returns a copy safe for printing: the password is masked.
func (c *Mail) Redacted() Mail {
	out := *c
	if out.Password != "" {
		out.Password = "********"
	}
	return out
}

// applyEnvVars overrides configuration with environment variable
// values. Only non-empty variables override.
func (c *Mail) applyEnvVars() {
	if v := os.Getenv("MAILSEND_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("MAILSEND_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("MAILSEND_SENDER"); v != "" {
		c.Sender = v
	}
	if v := os.Getenv("MAILSEND_REPLY_TO"); v != "" {
		c.ReplyTo = v
	}
	if v := os.Getenv("MAILSEND_MAILSERVER"); v != "" {
		c.Mailserver = v
	}
}

// validate checks that every required field is present.
func (c *Mail) validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"username", c.Username},
		{"password", c.Password},
		{"sender", c.Sender},
		{"reply_to", c.ReplyTo},
		{"mailserver", c.Mailserver},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("missing required field %q", f.name)
		}
	}
	return nil
}
