package utilities

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestIDGeneratorUnique(t *testing.T) {
	gen, err := NewIDGenerator(3)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 5000)
	for i := 0; i < 5000; i++ {
		id := gen.NextID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

func TestIDGeneratorRejectsBadNode(t *testing.T) {
	_, err := NewIDGenerator(5000)
	require.Error(t, err)
}

func TestSnowflakeNodeFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "")
	require.Equal(t, int64(1), SnowflakeNodeFromEnv())
	t.Setenv("SNOWFLAKE_NODE", "42")
	require.Equal(t, int64(42), SnowflakeNodeFromEnv())
	t.Setenv("SNOWFLAKE_NODE", "abc")
	require.Equal(t, int64(1), SnowflakeNodeFromEnv())
}

func TestNewKSUID(t *testing.T) {
	a, b := NewKSUID(), NewKSUID()
	require.Len(t, a, 27)
	require.NotEqual(t, a, b)
}

func TestLevelFromString(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, levelFromString("debug"))
	require.Equal(t, zapcore.WarnLevel, levelFromString("warning"))
	require.Equal(t, zapcore.InfoLevel, levelFromString("nonsense"))
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	lg, err := Init(Config{Level: "info", File: path, MaxAgeDays: 1})
	require.NoError(t, err)
	lg.Info("hello")
	_ = lg.Sync()

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
}
