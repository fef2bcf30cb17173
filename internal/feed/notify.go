package feed

import (
	"go.uber.org/zap"

	"github.com/d60-Lab/zenblog/pkg/logger"
)

// Notifier 瞬时提示（成功/失败）
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// LogNotifier 把提示写到日志
type LogNotifier struct{}

func (LogNotifier) Success(msg string) { logger.Info(msg, zap.String("kind", "toast")) }
func (LogNotifier) Error(msg string)   { logger.Error(msg, zap.String("kind", "toast")) }
