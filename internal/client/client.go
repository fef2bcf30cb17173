package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/pkg/logger"
)

const postsPath = "/api/posts"

// PostForm 创建/更新表单；nil 字段不会发送
type PostForm struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// NewPostForm 构造完整表单
func NewPostForm(title, content string, published bool) PostForm {
	return PostForm{Title: &title, Content: &content, Published: &published}
}

type Client struct {
	endpoint string
	client   http.Client
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.client.Transport = transport
	}
}

// NewClient endpoint 形如 http://localhost:8080
func NewClient(endpoint string, options ...Option) *Client {
	c := Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   http.Client{Timeout: 5 * time.Second},
	}
	for _, option := range options {
		option(&c)
	}
	return &c
}

func (c *Client) ListPosts(ctx context.Context, skip, take int) (*model.PostPage, error) {
	q := url.Values{}
	q.Set("skip", fmt.Sprint(skip))
	q.Set("take", fmt.Sprint(take))
	var page model.PostPage
	if err := c.do(ctx, http.MethodGet, postsPath+"?"+q.Encode(), nil, &page, "Fetching posts"); err != nil {
		return nil, err
	}
	if page.Posts == nil {
		page.Posts = []*model.Post{}
	}
	return &page, nil
}

func (c *Client) CreatePost(ctx context.Context, form PostForm) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodPost, postsPath, form, &post, "Creating post"); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodGet, postPath(id), nil, &post, fmt.Sprintf("Fetching post (ID: %s)", id)); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, form PostForm) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodPut, postPath(id), form, &post, fmt.Sprintf("Updating post (ID: %s)", id)); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, postPath(id), nil, nil, fmt.Sprintf("Deleting post (ID: %s)", id))
}

func postPath(id string) string {
	return postsPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, reqData, respData any, action string) error {
	target := c.endpoint + path

	var body io.Reader
	if reqData != nil {
		data, err := json.Marshal(reqData)
		if err != nil {
			return &Error{Message: err.Error(), Err: err}
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &Error{Message: err.Error(), Err: err}
	}
	if reqData != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error(action+" network error", zap.String("url", target), zap.Error(err))
		return &Error{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error(action+" network error", zap.String("url", target), zap.Error(err))
		return &Error{Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := normalizeError(resp.StatusCode, parseErrorBody(resp.Header.Get("Content-Type"), data))
		logger.Error(action+" failed",
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
			zap.String("error", e.Message),
		)
		return e
	}

	if respData == nil {
		return nil
	}
	if err := json.Unmarshal(data, respData); err != nil {
		logger.Error(action+" failed", zap.String("url", target), zap.Int("status", resp.StatusCode), zap.Error(err))
		return &Error{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("invalid response body: %v", err),
			Err:     err,
		}
	}
	return nil
}
