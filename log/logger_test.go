package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf), WithLevel("warn"), WithFormatter(&logrus.TextFormatter{DisableColors: true}))

	logger.Info("hidden")
	logger.WithFields(Fields{"layer": "sparse"}).Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "layer=sparse")
}

func TestStandardFormatterColorsKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf))

	logger.WithField("layer", "sparse").Info("colored")
	assert.Contains(t, buf.String(), "colored")
	assert.Contains(t, buf.String(), "layer")
	assert.Contains(t, buf.String(), "=sparse")
	assert.NotContains(t, buf.String(), "layer=sparse")
}

func TestWithLevelReportsCallerWhenVerbose(t *testing.T) {
	logger := New(WithNullLogger(), WithLevel("trace"))
	assert.Equal(t, logrus.TraceLevel, logger.GetLevel())
	assert.True(t, logger.ReportCaller)

	logger = New(WithNullLogger(), WithLevel("error"))
	assert.False(t, logger.ReportCaller)
}

func TestUnknownLevelFallsBack(t *testing.T) {
	assert.Equal(t, defaultLogLevel, parseLevel("chatty"))
	assert.Equal(t, logrus.DebugLevel, parseLevel("debug"))
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.log")
	logger := NewLogger(path, "info")
	logger.Info("rotated output")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Pool logger started")
	assert.Contains(t, string(content), "rotated output")
}

func TestFormatFilePath(t *testing.T) {
	assert.Equal(t, "txpool/pool.go", formatFilePath("/src/core/txpool/pool.go", 2))
	assert.Equal(t, "pool.go", formatFilePath("pool.go", 2))
}
