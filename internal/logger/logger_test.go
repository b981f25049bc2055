package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesDailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	log, err := New(dir, "debug", false)
	require.NoError(t, err)
	log.Infow("hello", "k", "v")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(t.TempDir(), "loud", false)
	assert.Error(t, err)
}
