package database

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger forwards gorm's query log to zerolog
type GormLogger struct {
	log     zerolog.Logger
	queries bool
}

// NewGormLogger returns a gorm logger writing through log; queries enables per-statement debug lines
func NewGormLogger(log zerolog.Logger, queries bool) *GormLogger {
	return &GormLogger{log: log, queries: queries}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.queries = level >= gormlogger.Info
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.log.Info().Msgf(msg, args...)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.log.Warn().Msgf(msg, args...)
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.log.Error().Msgf(msg, args...)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("Query failed")
	case elapsed > slowQueryThreshold:
		sql, rows := fc()
		l.log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("Slow query")
	case l.queries:
		sql, rows := fc()
		l.log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("Query")
	}
}
