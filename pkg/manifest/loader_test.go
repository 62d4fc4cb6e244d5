package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
remote:
  host: ftp.example.com
  user: reports
  password: secret
  target_dir: /reports
mail:
  smtp_server: smtp.example.com
  sender_email: automail@example.com
  sender_password: secret
  recipients:
    - ops@example.com
`

const validJSON = `{
  "remote": {
    "backend": "s3",
    "bucket": "daily-reports",
    "convention": "timestamped-file",
    "file_prefix": "RPA-X-"
  },
  "mail": {
    "smtp_server": "smtp.example.com",
    "sender_email": "automail@example.com",
    "recipients": ["ops@example.com", "lead@example.com"]
  },
  "render": {"dpi": 200}
}`

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	m, err := Load(writeManifest(t, "daily.yaml", validYAML))
	require.NoError(t, err)

	assert.Equal(t, "ftp", m.Remote.Backend, "backend defaults to ftp")
	assert.Equal(t, 21, m.Remote.Port, "ftp port defaults to 21")
	assert.Equal(t, "dated-folder", m.Remote.Convention)
	assert.Equal(t, "ftp.example.com", m.Remote.Host)
	assert.Equal(t, 587, m.Mail.SMTPPort)
	assert.Equal(t, "[Automail] Daily report", m.Mail.SubjectPrefix)
	assert.Equal(t, float64(150), m.Render.DPI)
}

func TestLoad_JSON(t *testing.T) {
	m, err := Load(writeManifest(t, "daily.json", validJSON))
	require.NoError(t, err)

	assert.Equal(t, "s3", m.Remote.Backend)
	assert.Equal(t, "daily-reports", m.Remote.Bucket)
	assert.Equal(t, "timestamped-file", m.Remote.Convention)
	assert.Equal(t, "RPA-X-", m.Remote.FilePrefix)
	assert.Len(t, m.Mail.Recipients, 2)
	assert.Equal(t, float64(200), m.Render.DPI)
	assert.Equal(t, 0, m.Remote.Port, "s3 backend takes no port default")
}

func TestLoad_UnknownExtensionSniffs(t *testing.T) {
	t.Run("yaml content", func(t *testing.T) {
		m, err := Load(writeManifest(t, "daily.conf", validYAML))
		require.NoError(t, err)
		assert.Equal(t, "ftp.example.com", m.Remote.Host)
	})

	t.Run("json content", func(t *testing.T) {
		m, err := Load(writeManifest(t, "daily.conf", validJSON))
		require.NoError(t, err)
		assert.Equal(t, "daily-reports", m.Remote.Bucket)
	})
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadFromBytes_Empty(t *testing.T) {
	_, err := LoadFromBytes(nil, "daily.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoadFromBytes_Garbage(t *testing.T) {
	_, err := LoadFromBytes([]byte("{{{not a manifest"), "")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *RunManifest {
		m := &RunManifest{}
		m.Remote.Host = "ftp.example.com"
		m.Mail.SMTPServer = "smtp.example.com"
		m.Mail.SenderEmail = "automail@example.com"
		m.Mail.Recipients = []string{"ops@example.com"}
		m.ApplyDefaults()
		return m
	}

	tests := []struct {
		name    string
		mutate  func(*RunManifest)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(m *RunManifest) {},
		},
		{
			name:    "unknown backend",
			mutate:  func(m *RunManifest) { m.Remote.Backend = "sftp" },
			wantErr: "remote.backend",
		},
		{
			name:    "ftp without host",
			mutate:  func(m *RunManifest) { m.Remote.Host = "" },
			wantErr: "remote.host",
		},
		{
			name: "s3 without bucket",
			mutate: func(m *RunManifest) {
				m.Remote.Backend = "s3"
				m.Remote.Bucket = ""
			},
			wantErr: "remote.bucket",
		},
		{
			name:    "bad convention",
			mutate:  func(m *RunManifest) { m.Remote.Convention = "newest" },
			wantErr: "remote.convention",
		},
		{
			name:    "no recipients",
			mutate:  func(m *RunManifest) { m.Mail.Recipients = nil },
			wantErr: "mail.recipients",
		},
		{
			name:    "recipient without at sign",
			mutate:  func(m *RunManifest) { m.Mail.Recipients = []string{"not-an-address"} },
			wantErr: "not an address",
		},
		{
			name:    "missing smtp server",
			mutate:  func(m *RunManifest) { m.Mail.SMTPServer = "" },
			wantErr: "mail.smtp_server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)

			err := m.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
