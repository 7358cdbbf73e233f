package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	opts := Default()
	require.NoError(t, opts.Validate())
	require.True(t, opts.Forward)
	require.EqualValues(t, defaultTTL, opts.TTL)
}

func TestSetDefaultsFillsZeroTTL(t *testing.T) {
	opts := Options{}
	opts.SetDefaults()
	require.EqualValues(t, defaultTTL, opts.TTL)
}

func TestValidateRejectsZeroTTL(t *testing.T) {
	opts := Options{TTL: 0}
	require.ErrorIs(t, opts.Validate(), ErrInvalidTTL)
}

func TestValidateRejectsMissingRecordingDirectory(t *testing.T) {
	opts := Options{TTL: 1, RecordingDirectory: filepath.Join(t.TempDir(), "does-not-exist")}
	require.Error(t, opts.Validate())
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ttl: 7\nforward: false\n"), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 7, opts.TTL)
	require.False(t, opts.Forward)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadUsesRecordingDirectoryWhenPresentAndValid(t *testing.T) {
	dir := t.TempDir()
	recDir := filepath.Join(dir, "rec")
	require.NoError(t, os.Mkdir(recDir, 0o755))
	path := filepath.Join(dir, "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recording-directory: "+recDir+"\noutput-generator-file-cap: 100\n"), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, recDir, opts.RecordingDirectory)
	require.EqualValues(t, 100, opts.OutputGeneratorFileCap)
}
