package log

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNew_DefaultConfig 测试默认配置创建日志记录器
func TestNew_DefaultConfig(t *testing.T) {
	logger, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.NotNil(t, logger.GetZapLogger())

	logger.Info("测试信息")
	logger.Debugf("测试调试 %d", 1)
}

// TestNew_FileOutput 测试文件输出
func TestNew_FileOutput(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.FilePath = filepath.Join(dir, "zkip.log")
	config.Console = false

	logger, err := New(config)
	require.NoError(t, err)

	logger.Warn("写入文件的警告")
	require.NoError(t, logger.Sync())

	_, statErr := filepath.Glob(config.FilePath)
	require.NoError(t, statErr)
}

// TestLogger_With 测试附加字段返回新记录器
func TestLogger_With(t *testing.T) {
	logger, err := New(DefaultConfig())
	require.NoError(t, err)

	child := logger.With("module", "zkbackend")
	require.NotNil(t, child)
	require.NotSame(t, logger, child)

	child.Info("带字段的日志")
}

// TestGlobalLogger 测试全局记录器设置与获取
func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	defer SetLogger(original)

	logger, err := New(DefaultConfig())
	require.NoError(t, err)

	SetLogger(logger)
	require.Equal(t, logger, GetLogger())

	// nil 不覆盖现有记录器
	SetLogger(nil)
	require.Equal(t, logger, GetLogger())
}
