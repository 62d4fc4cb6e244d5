package cmd

import (
	"context"

	"github.com/automailhq/automail/internal/config"
	"github.com/automailhq/automail/pkg/compose"
	"github.com/automailhq/automail/pkg/manifest"
	"github.com/automailhq/automail/pkg/pipeline"
	"github.com/automailhq/automail/pkg/remote"
	remoteftp "github.com/automailhq/automail/pkg/remote/ftp"
	remotes3 "github.com/automailhq/automail/pkg/remote/s3"
)

// pipelineConfig assembles one run's bundle from the persisted configuration.
// Connect and Send are bound here so the pipeline package never sees backend
// or relay specifics.
func pipelineConfig(cfg *config.Config) pipeline.Config {
	pc := pipeline.Config{
		Convention:    pipeline.Convention(cfg.FTP.Convention),
		FilePrefix:    cfg.FTP.FilePrefix,
		ScratchDir:    cfg.Pipeline.ScratchDir,
		RenderDPI:     cfg.Pipeline.RenderDPI,
		Recipients:    cfg.Mail.Recipients,
		SubjectPrefix: cfg.Mail.SubjectPrefix,
		Body:          cfg.Mail.Body,
		JobTimeout:    cfg.Pipeline.JobTimeout,
	}

	switch cfg.FTP.Backend {
	case "s3":
		s3cfg := remotes3.Config{
			Bucket:          cfg.FTP.Bucket,
			BaseDir:         cfg.FTP.TargetDir,
			AccessKeyID:     cfg.FTP.User,
			SecretAccessKey: cfg.FTP.Password,
		}
		pc.Connect = func(ctx context.Context) (remote.Conn, error) {
			return remotes3.Dial(ctx, s3cfg)
		}
	default:
		ep := remote.Endpoint{
			Host:           cfg.FTP.Host,
			Port:           cfg.FTP.Port,
			User:           cfg.FTP.User,
			Password:       cfg.FTP.Password,
			BaseDir:        cfg.FTP.TargetDir,
			ConnectTimeout: cfg.Pipeline.ConnectTimeout,
		}
		pc.Connect = func(ctx context.Context) (remote.Conn, error) {
			return remoteftp.Dial(ctx, ep)
		}
	}

	mailer := compose.NewMailer(cfg.Mail.SMTPServer, cfg.Mail.SMTPPort, cfg.Mail.SenderEmail, cfg.Mail.SenderPassword)
	pc.Send = mailer.Send
	return pc
}

// manifestToConfig maps a one-shot run manifest onto the persisted-config
// shape so both entry points share pipelineConfig.
func manifestToConfig(m *manifest.RunManifest, base *config.Config) *config.Config {
	cfg := *base
	cfg.FTP = config.FTP{
		Backend:    m.Remote.Backend,
		Host:       m.Remote.Host,
		Port:       m.Remote.Port,
		User:       m.Remote.User,
		Password:   m.Remote.Password,
		TargetDir:  m.Remote.TargetDir,
		Bucket:     m.Remote.Bucket,
		Convention: m.Remote.Convention,
		FilePrefix: m.Remote.FilePrefix,
	}
	cfg.Mail = config.Mail{
		SMTPServer:     m.Mail.SMTPServer,
		SMTPPort:       m.Mail.SMTPPort,
		SenderEmail:    m.Mail.SenderEmail,
		SenderPassword: m.Mail.SenderPass,
		Recipients:     m.Mail.Recipients,
		SubjectPrefix:  m.Mail.SubjectPrefix,
		Body:           m.Mail.Body,
	}
	cfg.Pipeline.RenderDPI = m.Render.DPI
	return &cfg
}
