package util

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "info", "text").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")

	buf.Reset()
	NewLogger(&buf, "info", "json").Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	NewLogger(&buf, "warn", "json").Info("dropped")
	assert.Empty(t, buf.String())
}

func TestGormLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	gl := NewGormLogger(NewLogger(&buf, "debug", "text"), 10*time.Millisecond)
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT * FROM books", 1 }

	gl.Trace(ctx, time.Now(), sql, nil)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "component=gorm")

	buf.Reset()
	gl.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	gl.Trace(ctx, time.Now(), sql, errors.New("boom"))
	assert.Contains(t, buf.String(), "query failed")
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	gl.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "query failed")

	buf.Reset()
	gl.LogMode(logger.Silent).Trace(ctx, time.Now(), sql, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestGormLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	gl := NewGormLogger(NewLogger(&buf, "debug", "text"), 0).LogMode(logger.Warn)
	ctx := context.Background()

	gl.Info(ctx, "info %d", 1)
	assert.Empty(t, buf.String())

	gl.Warn(ctx, "warn %d", 2)
	assert.Contains(t, buf.String(), "warn 2")

	gl.Error(ctx, "error %s", "x")
	assert.Contains(t, buf.String(), "error x")
}
