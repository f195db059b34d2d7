package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_SolumMode(t *testing.T) {
	path := writeConfig(t, `
sync:
  mode: solum
  mapping_file: /etc/solum-sync/mapping.yaml
solum:
  base_url: https://aims.example.com
  store_id: "1001"
  username: user
  password: pass
  token_refresh_window: 10m
scheduler:
  enabled: true
  interval: "@every 5m"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "solum", cfg.Sync.Mode)
	assert.Equal(t, "/etc/solum-sync/mapping.yaml", cfg.Sync.MappingFile)
	assert.Equal(t, "https://aims.example.com", cfg.Solum.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Solum.GetTokenRefreshWindow())
	assert.Equal(t, 100, cfg.Solum.PageSize) // default
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestLoadMappingConfig_PreservesFieldKeyCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
unique_id_field: id
fields:
  roomName: { visible: true, friendly_name: "Room name" }
  floor: { visible: false }
conference:
  meeting_name: meetingName
mapping_info:
  article_id: id
global_field_assignments:
  storeName: HQ
`), 0o644))

	cfg, err := LoadMappingConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.UniqueIDField)
	require.Contains(t, cfg.Fields, "roomName")
	assert.True(t, cfg.Fields["roomName"].Visible)
	assert.Equal(t, "Room name", cfg.Fields["roomName"].FriendlyName)
	assert.Equal(t, "meetingName", cfg.Conference.MeetingName)
	assert.Equal(t, "id", cfg.MappingInfo.ArticleID)
	assert.Equal(t, "HQ", cfg.GlobalFieldAssignments["storeName"])
}

func TestLoadConfig_CSVMode(t *testing.T) {
	path := writeConfig(t, `
sync:
  mode: csv
csv:
  host: sftp.example.com
  remote_path: /exchange/spaces.csv
  delimiter: ";"
  columns: [id, roomName]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ';', cfg.CSV.GetDelimiter())
	assert.Equal(t, []string{"id", "roomName"}, cfg.CSV.Columns)
	assert.Equal(t, 5, cfg.CSV.MaxRetries) // default
	assert.Equal(t, time.Second, cfg.CSV.GetRetryBase())
}

func TestLoadConfig_Validation(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "sync:\n  mode: solum\n"))
	assert.Error(t, err) // missing base_url

	_, err = LoadConfig(writeConfig(t, "sync:\n  mode: bogus\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "sync:\n  mode: csv\n"))
	assert.Error(t, err) // missing sftp host
}

func TestServerConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
sync:
  mode: solum
solum:
  base_url: https://aims.example.com
  store_id: "1001"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5*time.Minute, cfg.Solum.GetTokenRefreshWindow())
}
