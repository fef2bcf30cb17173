package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	MsgInternalError = "Internal Server Error"
	MsgPostNotFound  = "Post not found"
)

// ErrorBody 通用错误响应
type ErrorBody struct {
	Error string `json:"error" example:"Internal Server Error"`
}

// ValidationBody 字段校验失败响应
type ValidationBody struct {
	Errors map[string][]string `json:"errors"`
}

// MessageBody 操作确认
type MessageBody struct {
	Message string `json:"message" example:"Post deleted successfully"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageBody{Message: msg})
}

func ValidationFailed(c *gin.Context, errs map[string][]string) {
	c.JSON(http.StatusBadRequest, ValidationBody{Errors: errs})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: msg})
}

func TooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorBody{Error: "Too Many Requests"})
}

// InternalError 不向客户端暴露内部错误信息，err 仅挂到 gin 上下文供中间件记录
func InternalError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Error: MsgInternalError})
}
