package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jonwraymond/employeesvc/observe"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger forwards gorm messages to an observe.Logger.
type gormLogger struct {
	logger observe.Logger
	level  gormlogger.LogLevel
}

func newGormLogger(l observe.Logger) gormlogger.Interface {
	return &gormLogger{logger: l.With(observe.Field{Key: "component", Value: "gorm"}), level: gormlogger.Warn}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.logger.Info(ctx, msg, observe.Field{Key: "args", Value: args})
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.logger.Warn(ctx, msg, observe.Field{Key: "args", Value: args})
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.logger.Error(ctx, msg, observe.Field{Key: "args", Value: args})
	}
}

// Trace logs failed and slow statements. Statement text is logged at debug
// only.
func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []observe.Field{
		{Key: "duration_ms", Value: float64(elapsed.Milliseconds())},
		{Key: "rows", Value: rows},
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		g.logger.Error(ctx, "query failed", append(fields, observe.Field{Key: "error", Value: err.Error()})...)
	case elapsed > slowQueryThreshold && g.level >= gormlogger.Warn:
		g.logger.Warn(ctx, "slow query", fields...)
	default:
		g.logger.Debug(ctx, "query", append(fields, observe.Field{Key: "sql", Value: sql})...)
	}
}
