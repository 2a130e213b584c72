package logger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5/middleware"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
}

func SetLevel(l Level) {
	currentLevel.Store(int32(l))
}

func GetLevel() Level {
	return Level(currentLevel.Load())
}

// ParseLevel разбирает уровень из конфига ("debug", "info", "warn", "error")
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("неизвестный уровень логирования: %q", s)
}

func Debug(ctx context.Context, msg string, keyvals ...any) {
	output(ctx, LevelDebug, msg, keyvals)
}

func Info(ctx context.Context, msg string, keyvals ...any) {
	output(ctx, LevelInfo, msg, keyvals)
}

func Warn(ctx context.Context, msg string, keyvals ...any) {
	output(ctx, LevelWarn, msg, keyvals)
}

// Error логирует сообщение и ошибку в виде "msg: err"; err может быть nil
func Error(ctx context.Context, err error, msg string, keyvals ...any) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	output(ctx, LevelError, msg, keyvals)
}

func output(ctx context.Context, level Level, msg string, keyvals []any) {
	if level < GetLevel() {
		return
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)

	// request id проставляется middleware.RequestID в HTTP-адаптерах
	if ctx != nil {
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			keyvals = append([]any{"request_id", reqID}, keyvals...)
		}
	}

	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		var val any = "(MISSING)"
		if i+1 < len(keyvals) {
			val = keyvals[i+1]
		}
		fmt.Fprintf(&b, " %s=%v", key, val)
	}

	log.Print(b.String())
}
