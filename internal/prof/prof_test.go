package prof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPUPath:   filepath.Join(dir, "cpu.out"),
		MemPath:   filepath.Join(dir, "mem.out"),
		TracePath: filepath.Join(dir, "trace.out"),
	}
	s, err := Start(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	for _, path := range []string{cfg.CPUPath, cfg.MemPath, cfg.TracePath} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size(), path)
	}
}

func TestStartFailureStopsCPU(t *testing.T) {
	dir := t.TempDir()
	_, err := Start(Config{
		CPUPath:   filepath.Join(dir, "cpu.out"),
		TracePath: filepath.Join(dir, "missing", "trace.out"),
	})
	require.Error(t, err)

	// the CPU profiler must be free again
	s, err := Start(Config{CPUPath: filepath.Join(dir, "cpu2.out")})
	require.NoError(t, err)
	require.NoError(t, s.Stop())
}

func TestEmptyConfig(t *testing.T) {
	s, err := Start(Config{})
	require.NoError(t, err)
	assert.NoError(t, s.Stop())
}
