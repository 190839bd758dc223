package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
first_name = "Test"
last_name = "Avatar"
password = "hunter2"
login_uri = "https://login.example/cgi-bin/login.cgi"
start = "last"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Test", cfg.FirstName)
	require.Equal(t, "https://login.example/cgi-bin/login.cgi", cfg.LoginURI)
}

func TestLoadMissingLoginURI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
first_name = "Test"
last_name = "Avatar"
password = "hunter2"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
