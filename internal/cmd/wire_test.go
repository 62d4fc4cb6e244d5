package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automailhq/automail/internal/config"
	"github.com/automailhq/automail/pkg/manifest"
	"github.com/automailhq/automail/pkg/pipeline"
)

func TestPipelineConfig_MapsPersistedFields(t *testing.T) {
	cfg := &config.Config{}
	cfg.FTP.Backend = "ftp"
	cfg.FTP.Convention = "timestamped-file"
	cfg.FTP.FilePrefix = "RPA-X-"
	cfg.Mail.Recipients = []string{"ops@example.com"}
	cfg.Mail.SubjectPrefix = "Daily report"
	cfg.Mail.Body = "Report attached."
	cfg.Pipeline.ScratchDir = "/tmp/scratch"
	cfg.Pipeline.RenderDPI = 200
	cfg.Pipeline.JobTimeout = 5 * time.Minute

	pc := pipelineConfig(cfg)

	assert.Equal(t, pipeline.ConventionTimestampedFile, pc.Convention)
	assert.Equal(t, "RPA-X-", pc.FilePrefix)
	assert.Equal(t, "/tmp/scratch", pc.ScratchDir)
	assert.Equal(t, float64(200), pc.RenderDPI)
	assert.Equal(t, []string{"ops@example.com"}, pc.Recipients)
	assert.Equal(t, "Daily report", pc.SubjectPrefix)
	assert.Equal(t, 5*time.Minute, pc.JobTimeout)
	assert.NotNil(t, pc.Connect)
	assert.NotNil(t, pc.Send)
}

func TestPipelineConfig_BackendSelection(t *testing.T) {
	for _, backend := range []string{"ftp", "s3"} {
		cfg := &config.Config{}
		cfg.FTP.Backend = backend

		pc := pipelineConfig(cfg)
		require.NotNil(t, pc.Connect, backend)
	}
}

func TestCommandFlags_LogFile(t *testing.T) {
	runFlag := runCmd.Flags().Lookup("log-file")
	require.NotNil(t, runFlag)

	serveFlag := serveCmd.Flags().Lookup("log-file")
	require.NotNil(t, serveFlag)

	assert.Equal(t, "execution_log.txt", runFlag.DefValue)
	assert.Equal(t, serveFlag.DefValue, runFlag.DefValue, "both entry points share the default log path")
}

func TestManifestToConfig(t *testing.T) {
	m := &manifest.RunManifest{}
	m.Remote.Backend = "s3"
	m.Remote.Bucket = "daily-reports"
	m.Remote.TargetDir = "reports/"
	m.Remote.Convention = "dated-folder"
	m.Mail.SMTPServer = "smtp.example.com"
	m.Mail.SMTPPort = 465
	m.Mail.SenderEmail = "automail@example.com"
	m.Mail.SenderPass = "secret"
	m.Mail.Recipients = []string{"ops@example.com"}
	m.Mail.SubjectPrefix = "Daily report"
	m.Render.DPI = 220

	base := &config.Config{}
	base.Pipeline.ScratchDir = "/tmp/scratch"
	base.Pipeline.JobTimeout = 10 * time.Minute

	cfg := manifestToConfig(m, base)

	assert.Equal(t, "s3", cfg.FTP.Backend)
	assert.Equal(t, "daily-reports", cfg.FTP.Bucket)
	assert.Equal(t, "reports/", cfg.FTP.TargetDir)
	assert.Equal(t, "smtp.example.com", cfg.Mail.SMTPServer)
	assert.Equal(t, 465, cfg.Mail.SMTPPort)
	assert.Equal(t, "secret", cfg.Mail.SenderPassword)
	assert.Equal(t, float64(220), cfg.Pipeline.RenderDPI)

	// Sections the manifest does not carry keep the base values.
	assert.Equal(t, "/tmp/scratch", cfg.Pipeline.ScratchDir)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.JobTimeout)
	assert.Equal(t, "/tmp/scratch", base.Pipeline.ScratchDir, "base must not be mutated")
}
