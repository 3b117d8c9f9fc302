package logger

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"sql-agent/internal/application/port/output"
)

var _ output.LoggerPort = (*ZapAdapter)(nil)

// ZapAdapter backs output.LoggerPort with a zap sugared logger.
type ZapAdapter struct {
	s *zap.SugaredLogger
}

func New() (*ZapAdapter, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &ZapAdapter{s: l.Sugar()}, nil
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *ZapAdapter {
	return &ZapAdapter{s: zap.NewNop().Sugar()}
}

func (l *ZapAdapter) Debug(msg string, args ...any) {
	l.s.Debugw(msg, args...)
}

func (l *ZapAdapter) Info(msg string, args ...any) {
	l.s.Infow(msg, args...)
}

func (l *ZapAdapter) Warn(msg string, args ...any) {
	l.s.Warnw(msg, args...)
}

func (l *ZapAdapter) Error(msg string, args ...any) {
	l.s.Errorw(msg, args...)
}

func (l *ZapAdapter) WithField(key string, value any) output.LoggerPort {
	return &ZapAdapter{s: l.s.With(key, value)}
}

func (l *ZapAdapter) WithFields(fields map[string]any) output.LoggerPort {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return &ZapAdapter{s: l.s.With(args...)}
}

func (l *ZapAdapter) Close() error {
	return l.s.Sync()
}
