package logger

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log atomic.Pointer[zap.Logger]

func init() { log.Store(zap.NewNop()) }

// Init 初始化全局日志；format 为 console 时输出彩色可读格式
func Init(level, format string) error {
	var cfg zap.Config
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	log.Store(l)
	return nil
}

// Set 替换全局日志（测试中注入 observer）
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	log.Store(l)
}

// L 返回底层 logger
func L() *zap.Logger { return log.Load() }

func Debug(msg string, fields ...zap.Field) { log.Load().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { log.Load().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { log.Load().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { log.Load().Error(msg, fields...) }

// Sync 刷新缓冲
func Sync() error { return log.Load().Sync() }
