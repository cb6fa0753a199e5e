package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jgivc/batchfetch/internal/common"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		noFile      bool
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:   "Missing file gives defaults",
			noFile: true,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, defaultDownloadDir, cfg.DownloadDir)
				require.Equal(t, defaultChunkSize, cfg.ChunkSize)
				require.Equal(t, MismatchDelete, cfg.MismatchPolicy)
				require.Equal(t, LogLevelInfo, cfg.LogLevel)
			},
		},
		{
			name: "Overrides",
			content: `download_dir: /data/downloads
manifest: /data/folders.json
chunk_size: 1024
mismatch_policy: overwrite
log_level: debug
http:
  timeout: 10m
  response_header_timeout: 5s
report:
  redis_url: redis://localhost:6379/0
`,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, "/data/downloads", cfg.DownloadDir)
				require.Equal(t, "/data/folders.json", cfg.ManifestFile)
				require.Equal(t, defaultEnvFile, cfg.EnvFile)
				require.Equal(t, 1024, cfg.ChunkSize)
				require.Equal(t, MismatchOverwrite, cfg.MismatchPolicy)
				require.Equal(t, 10*time.Minute, cfg.HTTP.Timeout)
				require.Equal(t, 5*time.Second, cfg.HTTP.ResponseHeaderTimeout)
				require.Equal(t, "redis://localhost:6379/0", cfg.Report.RedisURL)
				require.Equal(t, defaultReportRedisKey, cfg.Report.RedisKey)
			},
		},
		{
			name:        "Unknown log level",
			content:     "log_level: loud\n",
			expectError: true,
		},
		{
			name:        "Unknown mismatch policy",
			content:     "mismatch_policy: keep\n",
			expectError: true,
		},
		{
			name:        "Zero chunk size",
			content:     "chunk_size: 0\n",
			expectError: true,
		},
		{
			name:        "Broken yaml",
			content:     "download_dir: [\n",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			if !tc.noFile {
				require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))
			}

			cfg, err := Load(path)
			if tc.expectError {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestLoadCredentials(t *testing.T) {
	for _, key := range []string{EnvUsername, EnvPassword} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	testCases := []struct {
		name        string
		content     *string
		env         map[string]string
		expectErr   error
		expectCreds Credentials
	}{
		{
			name:      "Missing env file",
			expectErr: common.ErrCredentialsNotFound,
		},
		{
			name:        "From file",
			content:     strPtr("DL_USERNAME=alice\nDL_PASSWORD=\"s3cret\"\n"),
			expectCreds: Credentials{Username: "alice", Password: "s3cret"},
		},
		{
			name:        "Environment wins",
			content:     strPtr("DL_USERNAME=alice\nDL_PASSWORD=s3cret\n"),
			env:         map[string]string{EnvPassword: "override"},
			expectCreds: Credentials{Username: "alice", Password: "override"},
		},
		{
			name:      "Missing password",
			content:   strPtr("DL_USERNAME=alice\n"),
			expectErr: common.ErrCredentialsNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tc.content != nil {
				require.NoError(t, afero.WriteFile(fs, "local.env", []byte(*tc.content), 0o600))
			}

			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			creds, err := LoadCredentials(fs, "local.env")
			if tc.expectErr != nil {
				require.ErrorIs(t, err, tc.expectErr)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expectCreds, *creds)
		})
	}
}

func TestCredentialsMasked(t *testing.T) {
	c := Credentials{Username: "alice", Password: "s3cret"}

	require.Equal(t, "Username alice, password ******", c.String())
	require.NotContains(t, c.LogValue().String(), "s3cret")
}

func strPtr(s string) *string {
	return &s
}
