package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7777", cfg.ServerAddr)
	assert.Equal(t, "tcp", cfg.Proto)
	assert.Equal(t, "meadow.log", cfg.LogFile)
	assert.Equal(t, "wanderer", cfg.PlayerName)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meadow.yaml")
	content := []byte("server:\n  addr: 10.0.0.1:9999\n  proto: kcp\nplayer:\n  name: runner\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:9999", cfg.ServerAddr)
	assert.Equal(t, "kcp", cfg.Proto)
	assert.Equal(t, "runner", cfg.PlayerName)
	// 文件未覆盖的键保持默认值
	assert.Equal(t, "meadow.log", cfg.LogFile)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
