// Package config loads, defaults, and persists the automail configuration.
//
// The persisted document is JSON (config.json) with transfer, mail, schedule,
// and pipeline sections. Environment variables prefixed AUTOMAIL_ override
// file values (e.g. AUTOMAIL_FTP_PASSWORD).
package config

import (
	"fmt"
	"regexp"
	"time"
)

// Config is the full configuration document.
type Config struct {
	FTP      FTP      `mapstructure:"ftp" json:"ftp"`
	Mail     Mail     `mapstructure:"mail" json:"mail"`
	Schedule Schedule `mapstructure:"schedule" json:"schedule"`
	Pipeline Pipeline `mapstructure:"pipeline" json:"pipeline"`
	Server   Server   `mapstructure:"server" json:"server"`
	Logging  Logging  `mapstructure:"logging" json:"logging"`
}

// FTP is the transfer section. Backend "s3" reinterprets the credential
// fields as access key / secret and uses Bucket instead of Host.
type FTP struct {
	Backend   string `mapstructure:"backend" json:"backend"`
	Host      string `mapstructure:"host" json:"host"`
	Port      int    `mapstructure:"port" json:"port"`
	User      string `mapstructure:"user" json:"user"`
	Password  string `mapstructure:"password" json:"password"`
	TargetDir string `mapstructure:"target_dir" json:"target_dir"`
	Bucket    string `mapstructure:"bucket" json:"bucket"`

	// Convention is "dated-folder" or "timestamped-file".
	Convention string `mapstructure:"convention" json:"convention"`

	// FilePrefix applies to the timestamped-file convention.
	FilePrefix string `mapstructure:"file_prefix" json:"file_prefix"`
}

// Mail is the mail section.
type Mail struct {
	SMTPServer     string   `mapstructure:"smtp_server" json:"smtp_server"`
	SMTPPort       int      `mapstructure:"smtp_port" json:"smtp_port"`
	SenderEmail    string   `mapstructure:"sender_email" json:"sender_email"`
	SenderPassword string   `mapstructure:"sender_password" json:"sender_password"`
	Recipients     []string `mapstructure:"recipients" json:"recipients"`
	SubjectPrefix  string   `mapstructure:"subject_prefix" json:"subject_prefix"`
	Body           string   `mapstructure:"body" json:"body"`
}

// Schedule is the schedule section.
type Schedule struct {
	// RunTime is the single daily run time in HH:MM (24h).
	RunTime string `mapstructure:"run_time" json:"run_time"`
}

// Pipeline tunes one job run.
type Pipeline struct {
	ScratchDir     string        `mapstructure:"scratch_dir" json:"scratch_dir"`
	RenderDPI      float64       `mapstructure:"render_dpi" json:"render_dpi"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
	JobTimeout     time.Duration `mapstructure:"job_timeout" json:"job_timeout"`
}

// Server configures the control surface listener.
type Server struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// Logging configures the process loggers.
type Logging struct {
	Level      string `mapstructure:"level" json:"level"`
	Structured bool   `mapstructure:"structured" json:"structured"`
}

var runTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validate checks cross-field constraints that defaults cannot repair.
func (c *Config) Validate() error {
	if !runTimePattern.MatchString(c.Schedule.RunTime) {
		return fmt.Errorf("schedule.run_time must be HH:MM, got %q", c.Schedule.RunTime)
	}
	switch c.FTP.Convention {
	case "dated-folder", "timestamped-file":
	default:
		return fmt.Errorf("ftp.convention must be dated-folder or timestamped-file, got %q", c.FTP.Convention)
	}
	switch c.FTP.Backend {
	case "ftp", "s3":
	default:
		return fmt.Errorf("ftp.backend must be ftp or s3, got %q", c.FTP.Backend)
	}
	return nil
}

// Redacted returns a copy with secrets blanked for the control surface.
func (c *Config) Redacted() Config {
	out := *c
	out.FTP.Password = ""
	out.Mail.SenderPassword = ""
	return out
}
