package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
)

// Error 客户端唯一的错误类型：网络失败、非 2xx、响应体无法解析都归一到这里
type Error struct {
	// Status 为 0 表示请求未拿到响应
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) StatusCode() int { return e.Status }

// IsNotFound 服务端返回 404
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// IsValidation 服务端返回 400
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusBadRequest
}

type errorKind int

const (
	errorNone    errorKind = iota // 非 JSON 或没有可用字段
	errorMessage                  // {"error": "..."}
	errorFields                   // {"errors": {...}}
)

// errorBody 服务端可能返回的几种错误响应
type errorBody struct {
	Kind    errorKind
	Message string
	Fields  json.RawMessage
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

func parseErrorBody(contentType string, data []byte) errorBody {
	if !isJSON(contentType) {
		return errorBody{Kind: errorNone}
	}
	var raw struct {
		Error  json.RawMessage `json:"error"`
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errorBody{Kind: errorNone}
	}
	if msg, ok := truthyMessage(raw.Error); ok {
		return errorBody{Kind: errorMessage, Message: msg}
	}
	if truthy(raw.Errors) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw.Errors); err == nil {
			return errorBody{Kind: errorFields, Fields: buf.Bytes()}
		}
	}
	return errorBody{Kind: errorNone}
}

// truthyMessage 字符串直接使用，其他非空值按 JSON 文本使用
func truthyMessage(v json.RawMessage) (string, bool) {
	if !truthy(v) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, true
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return "", false
	}
	return buf.String(), true
}

// truthy 缺失、null、false、0 与空字符串视为无值
func truthy(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	switch string(v) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// normalizeError 把任一错误响应转换为 *Error
func normalizeError(status int, body errorBody) *Error {
	e := &Error{Status: status}
	switch body.Kind {
	case errorMessage:
		e.Message = body.Message
	case errorFields:
		e.Message = string(body.Fields)
	default:
		e.Message = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return e
}

// FieldErrors 400 响应中的字段错误，非校验错误时返回 nil
func FieldErrors(err error) map[string][]string {
	var e *Error
	if !errors.As(err, &e) || e.Status != http.StatusBadRequest {
		return nil
	}
	var fields map[string][]string
	if json.Unmarshal([]byte(e.Message), &fields) != nil {
		return nil
	}
	return fields
}
