package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	require.NoError(t, err)

	lockPath := filepath.Join(dir, LockFileName)
	data, err := os.ReadFile(lockPath)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("pid=%d\n", os.Getpid()), string(data))

	require.NoError(t, lock.Release())
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file should be removed on release")
}

func TestReleaseIsIdempotent(t *testing.T) {
	lock, err := Acquire(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())
}

func TestAcquireCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	lock, err := Acquire(dir)
	require.NoError(t, err)
	defer lock.Release()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestParsePID(t *testing.T) {
	assert.Equal(t, 12345, parsePID("pid=12345\n"))
	assert.Equal(t, 0, parsePID("pid=abc"))
	assert.Equal(t, 0, parsePID("garbage"))
	assert.Equal(t, 7, parsePID("something\npid=7"))
}

func TestHeldErrorMessage(t *testing.T) {
	err := &HeldError{Path: "/data/aio-bot.lock", Holder: "PID 42 (running)"}
	assert.Contains(t, err.Error(), "/data/aio-bot.lock")
	assert.Contains(t, err.Error(), "PID 42")
}
