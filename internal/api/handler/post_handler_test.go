package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/internal/service"
	"github.com/d60-Lab/zenblog/internal/validation"
)

type mockPostService struct {
	mock.Mock
}

func (m *mockPostService) List(ctx context.Context, skip, take int) (*model.PostPage, error) {
	args := m.Called(skip, take)
	page, _ := args.Get(0).(*model.PostPage)
	return page, args.Error(1)
}

func (m *mockPostService) Create(ctx context.Context, in *validation.PostCreate) (*model.Post, error) {
	args := m.Called(in)
	post, _ := args.Get(0).(*model.Post)
	return post, args.Error(1)
}

func (m *mockPostService) Get(ctx context.Context, id string) (*model.Post, error) {
	args := m.Called(id)
	post, _ := args.Get(0).(*model.Post)
	return post, args.Error(1)
}

func (m *mockPostService) Update(ctx context.Context, id string, in *validation.PostUpdate) (*model.Post, error) {
	args := m.Called(id, in)
	post, _ := args.Get(0).(*model.Post)
	return post, args.Error(1)
}

func (m *mockPostService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *mockPostService) Health(ctx context.Context) error {
	return m.Called().Error(0)
}

func newTestEngine(svc service.PostService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/api/posts", h.ListPosts)
	r.POST("/api/posts", h.CreatePost)
	r.GET("/api/posts/:id", h.GetPost)
	r.PUT("/api/posts/:id", h.UpdatePost)
	r.DELETE("/api/posts/:id", h.DeletePost)
	return r
}

func do(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListPosts_QueryParsing(t *testing.T) {
	svc := new(mockPostService)
	svc.On("List", 0, 10).Return(&model.PostPage{Posts: []*model.Post{}}, nil).Once()
	svc.On("List", 5, 5).Return(&model.PostPage{Posts: []*model.Post{}, TotalPosts: 9}, nil).Once()
	r := newTestEngine(svc)

	w := do(r, http.MethodGet, "/api/posts?skip=abc&take=", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"posts":[],"totalPosts":0}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/posts?skip=5&take=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"posts":[],"totalPosts":9}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestHandlers_UnexpectedErrorsAreOpaque(t *testing.T) {
	dbErr := errors.New("pq: connection refused on 10.0.0.5")
	svc := new(mockPostService)
	svc.On("List", 0, 10).Return(nil, dbErr)
	svc.On("Create", mock.Anything).Return(nil, dbErr)
	svc.On("Get", "x").Return(nil, dbErr)
	svc.On("Update", "x", mock.Anything).Return(nil, dbErr)
	svc.On("Delete", "x").Return(dbErr)
	r := newTestEngine(svc)

	cases := []struct{ method, target, body string }{
		{http.MethodGet, "/api/posts", ""},
		{http.MethodPost, "/api/posts", `{"title":"a","content":"b","published":true}`},
		{http.MethodGet, "/api/posts/x", ""},
		{http.MethodPut, "/api/posts/x", `{"title":"a"}`},
		{http.MethodDelete, "/api/posts/x", ""},
	}
	for _, tc := range cases {
		w := do(r, tc.method, tc.target, tc.body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, tc.method+" "+tc.target)
		assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
	}
}

func TestHandlers_NotFound(t *testing.T) {
	svc := new(mockPostService)
	svc.On("Get", "gone").Return(nil, service.ErrPostNotFound)
	svc.On("Update", "gone", mock.Anything).Return(nil, service.ErrPostNotFound)
	svc.On("Delete", "gone").Return(service.ErrPostNotFound)
	r := newTestEngine(svc)

	for _, w := range []*httptest.ResponseRecorder{
		do(r, http.MethodGet, "/api/posts/gone", ""),
		do(r, http.MethodPut, "/api/posts/gone", `{"published":true}`),
		do(r, http.MethodDelete, "/api/posts/gone", ""),
	} {
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Post not found"}`, w.Body.String())
	}
}

func TestHandlers_ValidationSkipsService(t *testing.T) {
	svc := new(mockPostService)
	r := newTestEngine(svc)

	w := do(r, http.MethodPost, "/api/posts", `{"title":"","published":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":{
		"title":["Title is required"],
		"content":["Invalid input: expected string, received undefined"],
		"published":["Invalid input: expected boolean, received string"]
	}}`, w.Body.String())

	w = do(r, http.MethodPut, "/api/posts/x", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":{"content":["Content is required"]}}`, w.Body.String())

	svc.AssertNotCalled(t, "Create", mock.Anything)
	svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestHealth(t *testing.T) {
	svc := new(mockPostService)
	svc.On("Health").Return(nil).Once()
	svc.On("Health").Return(errors.New("down")).Once()
	r := newTestEngine(svc)

	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
