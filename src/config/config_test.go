package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSession(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadFullTarget(t *testing.T) {
	path := writeSession(t, `
nas:
  destination: backup-disk
  rel_path: machines
  source:
    - /home/alice
    - /etc
  hostname: workstation
  check_hostname: true
  restic:
    enable: true
    password: hunter2
    args: ["--exclude", ".cache"]
    forget:
      keep-last: 3
      keep-daily: 7
      prune: true
  rsync:
    enable: true
    folder: mirror
`)

	session, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, session, "nas")

	target := session["nas"]
	assert.Equal(t, "backup-disk", target.Destination)
	assert.Equal(t, "machines", target.RelPath)
	assert.Equal(t, []string{"/home/alice", "/etc"}, target.Sources)
	assert.Equal(t, "workstation", target.Hostname)
	assert.True(t, target.CheckHostname)
	assert.True(t, target.Restic.Enable)
	assert.Equal(t, "hunter2", target.Restic.Password)
	assert.Equal(t, "restic", target.Restic.Folder)
	require.NotNil(t, target.Restic.Forget)
	assert.Equal(t, 3, target.Restic.Forget.KeepLast)
	assert.Equal(t, 7, target.Restic.Forget.KeepDaily)
	assert.True(t, target.Restic.Forget.Prune)
	assert.Equal(t, "mirror", target.Rsync.Folder)
}

func TestLoadDefaults(t *testing.T) {
	path := writeSession(t, `
minimal:
  destination: /srv/backups
  source: [/data]
`)

	session, err := Load(path)
	require.NoError(t, err)

	target := session["minimal"]
	assert.Equal(t, Hostname(), target.Hostname)
	assert.Equal(t, "restic", target.Restic.Folder)
	assert.Equal(t, "rsync", target.Rsync.Folder)
	assert.False(t, target.Restic.Enable)
	assert.Nil(t, target.Restic.Forget)
}

func TestLoadDropsTargetsWithoutDestination(t *testing.T) {
	path := writeSession(t, `
real:
  destination: backup-disk
  source: [/data]
template:
  source: [/data]
  restic:
    enable: true
`)

	session, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, session.Names())
}

func TestLoadRejectsIncompleteMask(t *testing.T) {
	path := writeSession(t, `
broken:
  destination: backup-disk
  source: [/data]
  mask:
    real: /mnt/image
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestNamesSorted(t *testing.T) {
	session := Session{"b": {}, "a": {}, "c": {}}
	assert.Equal(t, []string{"a", "b", "c"}, session.Names())
}
