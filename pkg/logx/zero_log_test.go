package logx_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/marcodd23/go-stmt-cache/pkg/logx"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	env   string
	level string
}

func (c testConfig) GetServiceName() string { return "stmtcache-test" }
func (c testConfig) GetVersion() string     { return "1.0" }
func (c testConfig) GetEnvironment() string { return c.env }
func (c testConfig) GetLogLevel() string    { return c.level }

func TestZeroLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := logx.NewZeroLogger(testConfig{env: "PROD", level: "info"}, &buf)

	l.With("conn", "c-1").LogWarning(context.Background(), "release failed", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "release failed", entry["message"])
	require.Equal(t, "WARNING", entry["severity"])
	require.Equal(t, "c-1", entry["conn"])
	require.Equal(t, "boom", entry["error"])
	require.Equal(t, "stmtcache-test", entry["service"])
}

func TestZeroLogger_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := logx.NewZeroLogger(testConfig{env: "DEV", level: "info"}, &buf)

	l.LogDebug(context.Background(), "evicted statement")
	require.Empty(t, buf.String())

	l.LogInfo(context.Background(), "connected")
	require.Contains(t, buf.String(), "connected")
}

func TestSetupLoggerWithWriter_ReplacesGlobal(t *testing.T) {
	var buf bytes.Buffer
	l := logx.SetupLoggerWithWriter(testConfig{env: "local", level: "debug"}, &buf)
	t.Cleanup(func() { logx.SetLogger(nil) })

	require.Same(t, l, logx.GetLogger())
	logx.GetLogger().LogDebug(context.Background(), "hello console")
	require.Contains(t, buf.String(), "hello console")

	logx.SetLogger(nil)
	_, isDefault := logx.GetLogger().(*logx.DefaultLogger)
	require.True(t, isDefault)
}
