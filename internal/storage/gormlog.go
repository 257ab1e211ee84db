package storage

import (
	"context"
	"time"

	ilog "regharvest/internal/log"

	"gorm.io/gorm/logger"
)

// gormLogger routes gorm's logging through the process logger.
type gormLogger struct {
	level logger.LogLevel
}

func newGormLogger() *gormLogger {
	return &gormLogger{level: logger.Warn}
}

// LogMode implements logger.Interface.
func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	out := *l
	out.level = level
	return &out
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		ilog.L().Info().Msgf(msg, data...)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		ilog.L().Warn().Msgf(msg, data...)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		ilog.L().Error().Msgf(msg, data...)
	}
}

// Trace logs SQL statements, flagging failures and slow queries.
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	switch {
	case err != nil && l.level >= logger.Error:
		ilog.L().Error().Err(err).Str("sql", sql).Int64("rows", rows).Msg("sql failed")
	case elapsed > time.Second && l.level >= logger.Warn:
		ilog.L().Warn().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("slow sql")
	case l.level >= logger.Info:
		ilog.L().Debug().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("sql")
	}
}
