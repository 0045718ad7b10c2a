package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func newObservedGormLogger(level gormlogger.LogLevel, slow time.Duration) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, slow), recorded
}

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("errors are logged", func(t *testing.T) {
		l, recorded := newObservedGormLogger(gormlogger.Warn, time.Second)
		l.Trace(ctx, time.Now(), sqlFn("INSERT INTO clients", 0), errors.New("duplicate key"))

		entries := recorded.FilterMessage("SQL error").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, "INSERT INTO clients", entries[0].ContextMap()["sql"])
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		l, recorded := newObservedGormLogger(gormlogger.Warn, time.Second)
		l.Trace(ctx, time.Now(), sqlFn("SELECT * FROM tables", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("slow statement warns", func(t *testing.T) {
		l, recorded := newObservedGormLogger(gormlogger.Warn, 10*time.Millisecond)
		l.Trace(ctx, time.Now().Add(-50*time.Millisecond), sqlFn("SELECT * FROM point_transactions", 3), nil)

		entries := recorded.FilterMessage("Slow SQL").All()
		require.Len(t, entries, 1)
		assert.EqualValues(t, 3, entries[0].ContextMap()["rows"])
	})

	t.Run("normal statement only at info level", func(t *testing.T) {
		l, recorded := newObservedGormLogger(gormlogger.Warn, time.Second)
		l.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
		assert.Zero(t, recorded.Len())

		verbose := l.LogMode(gormlogger.Info)
		verbose.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
		assert.Equal(t, 1, recorded.FilterMessage("SQL query").Len())
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		l, recorded := newObservedGormLogger(gormlogger.Silent, time.Second)
		l.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), errors.New("boom"))
		assert.Zero(t, recorded.Len())
	})

	t.Run("carries tenant id", func(t *testing.T) {
		l, recorded := newObservedGormLogger(gormlogger.Warn, time.Second)
		l.Trace(WithTenantID(ctx, "tenant-9"), time.Now(), sqlFn("UPDATE comandas", 1), errors.New("boom"))
		assert.Equal(t, "tenant-9", recorded.All()[0].ContextMap()["tenant_id"])
	})
}

func TestGormLogger_Messages(t *testing.T) {
	ctx := context.Background()
	l, recorded := newObservedGormLogger(gormlogger.Warn, 0)

	l.Info(ctx, "opened %d connections", 4)
	l.Warn(ctx, "pool at %d%%", 90)
	l.Error(ctx, "lost connection")

	require.Equal(t, 2, recorded.Len())
	assert.Equal(t, "pool at 90%", recorded.All()[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, recorded.All()[1].Level)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
}
