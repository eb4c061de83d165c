package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "serialplot.log")
	logger, closeFn, err := New(Config{File: path, Level: "debug"})
	require.NoError(t, err)

	Component(logger, "worker").WithField("port", "/dev/ttyUSB0").Debug("opened")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, "component=worker"), out)
	assert.True(t, strings.Contains(out, "msg=opened"), out)
}

func TestNewWithoutFileDiscards(t *testing.T) {
	logger, closeFn, err := New(Config{Level: "debug"})
	require.NoError(t, err)
	require.NoError(t, closeFn())
	assert.NotNil(t, logger)
}

func TestNewBadLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	logger, closeFn, err := New(Config{File: path, Level: "loud"})
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestComponentNilLogger(t *testing.T) {
	e := Component(nil, "web")
	assert.Equal(t, "web", e.Data["component"])
}
