// Package manifest loads one-shot run manifests for the automail CLI.
//
// A run manifest carries everything one pipeline invocation needs - remote
// endpoint, naming convention, mail relay, recipients - so `automail run
// --job daily.yaml` can execute without touching the persisted server
// configuration.
package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// RunManifest describes a single pipeline invocation.
type RunManifest struct {
	Remote RemoteSpec `yaml:"remote" json:"remote"`
	Mail   MailSpec   `yaml:"mail" json:"mail"`
	Render RenderSpec `yaml:"render" json:"render"`
}

// RemoteSpec selects and configures the remote backend.
type RemoteSpec struct {
	// Backend is "ftp" or "s3". Default "ftp".
	Backend string `yaml:"backend" json:"backend"`

	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	User      string `yaml:"user" json:"user"`
	Password  string `yaml:"password" json:"password"`
	TargetDir string `yaml:"target_dir" json:"target_dir"`

	// Bucket applies to the s3 backend.
	Bucket string `yaml:"bucket" json:"bucket"`

	// Convention is "dated-folder" or "timestamped-file". Default "dated-folder".
	Convention string `yaml:"convention" json:"convention"`

	// FilePrefix is the fixed filename prefix for the timestamped-file convention.
	FilePrefix string `yaml:"file_prefix" json:"file_prefix"`
}

// MailSpec configures the relay and the notification content.
type MailSpec struct {
	SMTPServer    string   `yaml:"smtp_server" json:"smtp_server"`
	SMTPPort      int      `yaml:"smtp_port" json:"smtp_port"`
	SenderEmail   string   `yaml:"sender_email" json:"sender_email"`
	SenderPass    string   `yaml:"sender_password" json:"sender_password"`
	Recipients    []string `yaml:"recipients" json:"recipients"`
	SubjectPrefix string   `yaml:"subject_prefix" json:"subject_prefix"`
	Body          string   `yaml:"body" json:"body"`
}

// RenderSpec configures self-rendered previews.
type RenderSpec struct {
	// DPI for page rasterization. Default 150.
	DPI float64 `yaml:"dpi" json:"dpi"`
}

// ApplyDefaults fills optional fields.
func (m *RunManifest) ApplyDefaults() {
	if m.Remote.Backend == "" {
		m.Remote.Backend = "ftp"
	}
	if m.Remote.Port == 0 && m.Remote.Backend == "ftp" {
		m.Remote.Port = 21
	}
	if m.Remote.Convention == "" {
		m.Remote.Convention = "dated-folder"
	}
	if m.Mail.SMTPPort == 0 {
		m.Mail.SMTPPort = 587
	}
	if m.Mail.SubjectPrefix == "" {
		m.Mail.SubjectPrefix = "[Automail] Daily report"
	}
	if m.Render.DPI <= 0 {
		m.Render.DPI = 150
	}
}

// Validate checks required fields and enum values.
func (m *RunManifest) Validate() error {
	var errs []error

	switch m.Remote.Backend {
	case "ftp":
		if m.Remote.Host == "" {
			errs = append(errs, errors.New("remote.host is required for the ftp backend"))
		}
	case "s3":
		if m.Remote.Bucket == "" {
			errs = append(errs, errors.New("remote.bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("remote.backend must be ftp or s3, got %q", m.Remote.Backend))
	}

	switch m.Remote.Convention {
	case "dated-folder", "timestamped-file":
	default:
		errs = append(errs, fmt.Errorf("remote.convention must be dated-folder or timestamped-file, got %q", m.Remote.Convention))
	}

	if m.Mail.SMTPServer == "" {
		errs = append(errs, errors.New("mail.smtp_server is required"))
	}
	if m.Mail.SenderEmail == "" {
		errs = append(errs, errors.New("mail.sender_email is required"))
	}
	if len(m.Mail.Recipients) == 0 {
		errs = append(errs, errors.New("mail.recipients must not be empty"))
	}
	for _, r := range m.Mail.Recipients {
		if !strings.Contains(r, "@") {
			errs = append(errs, fmt.Errorf("mail.recipients entry %q is not an address", r))
		}
	}

	return errors.Join(errs...)
}
