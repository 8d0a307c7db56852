package logger

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 配置了文件输出时 GetCurrentLogFile 返回该路径；
// 重新初始化为纯控制台输出后路径被清空。
func TestInitTracksCurrentLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "bot.log")

	require.NoError(t, Init(Config{Level: "debug", OutputFile: logFile}))
	assert.Equal(t, logFile, GetCurrentLogFile())
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())

	require.NoError(t, Init(Config{Level: "info"}))
	assert.Equal(t, "", GetCurrentLogFile())
}

// 非法级别回退到 info 而不是报错
func TestInitInvalidLevelFallsBack(t *testing.T) {
	require.NoError(t, Init(Config{Level: "nonsense"}))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
}
