package middleware

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/zenblog/pkg/logger"
	"github.com/d60-Lab/zenblog/pkg/response"
)

// Recovery 捕获 panic 并返回 500；panic 的上报由 sentrygin 负责（Repanic 后到这里）
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("request_id", GetRequestID(c)),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				response.InternalError(c, fmt.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}

// ReportErrors 把 5xx 请求中挂载的错误上报 Sentry；未初始化 Sentry 时为空操作
func ReportErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() < 500 || len(c.Errors) == 0 {
			return
		}
		hub := sentry.GetHubFromContext(c.Request.Context())
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("request_id", GetRequestID(c))
			scope.SetTag("path", c.FullPath())
			for _, e := range c.Errors {
				hub.CaptureException(e.Err)
			}
		})
	}
}
