package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/zenblog/internal/service"
	"github.com/d60-Lab/zenblog/internal/validation"
	"github.com/d60-Lab/zenblog/pkg/logger"
)

// Handler HTTP 处理器集合
type Handler struct {
	postService service.PostService
}

func NewHandler(postService service.PostService) *Handler {
	return &Handler{postService: postService}
}

func warnValidation(c *gin.Context, msg string, errs validation.FieldErrors) {
	fields := []zap.Field{zap.Any("validationErrors", map[string][]string(errs))}
	if id := c.Param("id"); id != "" {
		fields = append(fields, zap.String("id", id))
	}
	logger.Warn(msg, fields...)
}
