// Package config handles tutorbot configuration loading, saving and live
// reloading.
package config

import (
	"strings"
	"time"

	"github.com/linanwx/tutorbot/logger"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig    `json:"server" yaml:"server"`
	LLM      LLMConfig       `json:"llm" yaml:"llm"`
	Tutor    TutorConfig     `json:"tutor" yaml:"tutor"`
	Client   ClientConfig    `json:"client,omitempty" yaml:"client,omitempty"`
	Telegram *TelegramConfig `json:"telegram,omitempty" yaml:"telegram,omitempty"`
	Logging  LoggingConfig   `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// ServerConfig controls the HTTP listener serving the widget and chat API.
type ServerConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"` // default: 0.0.0.0:8000
	CORS *bool  `json:"cors,omitempty" yaml:"cors,omitempty"` // default: true
}

// LLMConfig selects and tunes the model backend.
type LLMConfig struct {
	Provider    string  `json:"provider" yaml:"provider"`                           // openai, anthropic
	APIURL      string  `json:"apiUrl" yaml:"apiUrl"`                               // base or full /chat/completions URL
	APIKey      string  `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`           // local servers accept any key
	Model       string  `json:"model" yaml:"model"`                                 //
	Timeout     int     `json:"timeout,omitempty" yaml:"timeout,omitempty"`         // seconds, defaults to 120
	MaxTokens   int     `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`     // defaults to 200
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"` // defaults to 0.2
}

// TutorConfig holds prompts and the subject catalogue.
type TutorConfig struct {
	System           string    `json:"system,omitempty" yaml:"system,omitempty"`
	Subjects         []Subject `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	AgentModeSubject string    `json:"agentModeSubject,omitempty" yaml:"agentModeSubject,omitempty"`
	DefaultSubject   string    `json:"defaultSubject,omitempty" yaml:"defaultSubject,omitempty"`
	NotesDir         string    `json:"notesDir,omitempty" yaml:"notesDir,omitempty"`
}

// Subject is a tutoring tab and the system primer used for it.
type Subject struct {
	Name   string `json:"name" yaml:"name"`
	Primer string `json:"primer" yaml:"primer"`
}

// ClientConfig is used by the terminal client and load tester.
type ClientConfig struct {
	Server string `json:"server,omitempty" yaml:"server,omitempty"` // default: http://127.0.0.1:8000
}

// TelegramConfig contains Telegram bot configuration.
type TelegramConfig struct {
	Token      string  `json:"token" yaml:"token"`
	AllowedIDs []int64 `json:"allowedIds,omitempty" yaml:"allowedIds,omitempty"` // empty = allow all
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled    *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level      string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Stdout     bool   `json:"stdout,omitempty" yaml:"stdout,omitempty"` // log to stdout
	File       string `json:"file,omitempty" yaml:"file,omitempty"`     // log file path
	MaxSizeMB  int    `json:"maxSizeMB,omitempty" yaml:"maxSizeMB,omitempty"`
	MaxBackups int    `json:"maxBackups,omitempty" yaml:"maxBackups,omitempty"`
}

// BuildLoggerConfig converts the logging section for logger.Init.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := true
	if c.Logging.Enabled != nil {
		enabled = *c.Logging.Enabled
	}
	return logger.Config{
		Enabled:    enabled,
		Level:      c.Logging.Level,
		Stdout:     c.Logging.Stdout,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
	}
}

// CORSEnabled reports whether permissive CORS headers are sent.
func (c *Config) CORSEnabled() bool {
	return c.Server.CORS == nil || *c.Server.CORS
}

// LLMTimeout returns the per-call model timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.Timeout) * time.Second
}

// SubjectNames returns the subject tabs in order, with the agent mode tab
// last.
func (c *Config) SubjectNames() []string {
	names := make([]string, 0, len(c.Tutor.Subjects)+1)
	for _, s := range c.Tutor.Subjects {
		names = append(names, s.Name)
	}
	if c.Tutor.AgentModeSubject != "" {
		names = append(names, c.Tutor.AgentModeSubject)
	}
	return names
}

// Primer returns the system primer for subject.
func (c *Config) Primer(subject string) (string, bool) {
	for _, s := range c.Tutor.Subjects {
		if s.Name == subject {
			return s.Primer, true
		}
	}
	return "", false
}

// PrimerMap returns subject primers keyed by subject name.
func (c *Config) PrimerMap() map[string]string {
	out := make(map[string]string, len(c.Tutor.Subjects))
	for _, s := range c.Tutor.Subjects {
		out[s.Name] = s.Primer
	}
	return out
}

// IsAgentMode reports whether subject selects the tool-using agent prompt.
func (c *Config) IsAgentMode(subject string) bool {
	return c.Tutor.AgentModeSubject != "" && strings.TrimSpace(subject) == c.Tutor.AgentModeSubject
}

// TelegramToken returns the configured bot token, or "".
func (c *Config) TelegramToken() string {
	if c.Telegram == nil {
		return ""
	}
	return strings.TrimSpace(c.Telegram.Token)
}
