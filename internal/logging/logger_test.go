package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type captureLogger struct {
	debugs, infos, warns, errors int
}

func (c *captureLogger) Debug(string, ...any) { c.debugs++ }
func (c *captureLogger) Info(string, ...any)  { c.infos++ }
func (c *captureLogger) Warn(string, ...any)  { c.warns++ }
func (c *captureLogger) Error(string, ...any) { c.errors++ }

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	var typedNil *captureLogger
	assert.NotNil(t, OrNop(typedNil))

	capture := &captureLogger{}
	assert.Same(t, Logger(capture), OrNop(capture))
}

func TestMultiFansOut(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}

	logger := Multi(a, nil, b)
	logger.Info("hello %s", "world")
	logger.Error("boom")

	assert.Equal(t, 1, a.infos)
	assert.Equal(t, 1, b.infos)
	assert.Equal(t, 1, a.errors)
	assert.Equal(t, 1, b.errors)
}

func TestMultiFlattensNested(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}

	logger := Multi(Multi(a, b))
	logger.Warn("once")

	assert.Equal(t, 1, a.warns)
	assert.Equal(t, 1, b.warns)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}
