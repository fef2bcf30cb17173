package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/zenblog/internal/service"
	"github.com/d60-Lab/zenblog/internal/validation"
	"github.com/d60-Lab/zenblog/pkg/response"
)

// postInput 仅用于接口文档
type postInput struct {
	Title     string `json:"title" example:"Hello"`
	Content   string `json:"content" example:"World"`
	Published bool   `json:"published" example:"true"`
}

// ListPosts 分页查询文章
// @Summary 文章列表
// @Tags 文章
// @Produce json
// @Param skip query int false "跳过条数" default(0)
// @Param take query int false "每页数量" default(10)
// @Success 200 {object} model.PostPage
// @Failure 500 {object} response.ErrorBody
// @Router /api/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	skip := queryInt(c, "skip", 0)
	take := queryInt(c, "take", 10)

	page, err := h.postService.List(c.Request.Context(), skip, take)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, page)
}

// CreatePost 创建文章
// @Summary 创建文章
// @Tags 文章
// @Accept json
// @Produce json
// @Param request body postInput true "文章内容"
// @Success 201 {object} model.Post
// @Failure 400 {object} response.ValidationBody
// @Failure 500 {object} response.ErrorBody
// @Router /api/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	in, errs := validation.ValidateCreate(body)
	if errs != nil {
		warnValidation(c, "Post creation validation failed", errs)
		response.ValidationFailed(c, errs)
		return
	}

	post, err := h.postService.Create(c.Request.Context(), in)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, post)
}

// GetPost 查询单篇文章
// @Summary 文章详情
// @Tags 文章
// @Produce json
// @Param id path string true "文章ID"
// @Success 200 {object} model.Post
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /api/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.postService.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrPostNotFound) {
		response.NotFound(c, response.MsgPostNotFound)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, post)
}

// UpdatePost 部分更新文章
// @Summary 更新文章
// @Tags 文章
// @Accept json
// @Produce json
// @Param id path string true "文章ID"
// @Param request body postInput false "需要修改的字段"
// @Success 200 {object} model.Post
// @Failure 400 {object} response.ValidationBody
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /api/posts/{id} [put]
func (h *Handler) UpdatePost(c *gin.Context) {
	id := c.Param("id")
	body, err := c.GetRawData()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	in, errs := validation.ValidateUpdate(body)
	if errs != nil {
		warnValidation(c, "Validation failed while updating post", errs)
		response.ValidationFailed(c, errs)
		return
	}

	post, err := h.postService.Update(c.Request.Context(), id, in)
	if errors.Is(err, service.ErrPostNotFound) {
		response.NotFound(c, response.MsgPostNotFound)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, post)
}

// DeletePost 删除文章
// @Summary 删除文章
// @Tags 文章
// @Produce json
// @Param id path string true "文章ID"
// @Success 200 {object} response.MessageBody
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /api/posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	err := h.postService.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrPostNotFound) {
		response.NotFound(c, response.MsgPostNotFound)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Message(c, "Post deleted successfully")
}

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} response.ErrorBody
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	if err := h.postService.Health(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.ErrorBody{Error: "Service Unavailable"})
		return
	}
	response.OK(c, gin.H{"status": "ok"})
}

// queryInt 非数字时回退到默认值
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
