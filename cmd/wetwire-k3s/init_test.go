package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-k3s-go/internal/config"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, runInit(&out, dir, false))
	assert.Contains(t, out.String(), "Next steps:")

	cfg, err := config.LoadFile(filepath.Join(dir, config.DefaultFile))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultCIDR, cfg.Network.CIDR)
	assert.Equal(t, filepath.Join(dir, config.DefaultMasterUserData), cfg.UserData.Master)

	master, err := os.ReadFile(cfg.UserData.Master)
	require.NoError(t, err)
	assert.Contains(t, string(master), "put-parameter")
	assert.Contains(t, string(master), "/k3s/master/token")

	agent, err := os.ReadFile(cfg.UserData.Agent)
	require.NoError(t, err)
	assert.Contains(t, string(agent), "get-parameter")
	assert.NotContains(t, string(agent), "put-parameter")

	info, err := os.Stat(cfg.UserData.Agent)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "script should be executable")
}

func TestRunInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(&bytes.Buffer{}, dir, false))

	err := runInit(&bytes.Buffer{}, dir, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.NoError(t, runInit(&bytes.Buffer{}, dir, true))
}

func TestRunInit_Synthesizes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(&bytes.Buffer{}, dir, false))

	cfg, err := config.LoadFile(filepath.Join(dir, config.DefaultFile))
	require.NoError(t, err)

	s, err := synthesizeConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.cluster.Pool)
	assert.Contains(t, s.template.Resources, "MasterLaunchTemplate")
}
