package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/zenblog/internal/model"
)

// BodyField 非 JSON 对象请求体的错误键
const BodyField = "body"

// FieldErrors 字段 -> 有序错误信息
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// AsFieldErrors 从 error 链中取出 FieldErrors
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// PostCreate 创建文章的请求体
type PostCreate struct {
	Title     *string `json:"title" validate:"required,min=1"`
	Content   *string `json:"content" validate:"required,min=1"`
	Published *bool   `json:"published" validate:"required"`
}

// ToModel 转为待插入的文章，id 与时间戳由存储层生成
func (p *PostCreate) ToModel() *model.Post {
	return &model.Post{
		Title:     *p.Title,
		Content:   p.Content,
		Published: *p.Published,
	}
}

// PostUpdate 部分更新，仅非 nil 字段会被写入
type PostUpdate struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,min=1"`
	Content   *string `json:"content,omitempty" validate:"omitempty,min=1"`
	Published *bool   `json:"published,omitempty"`
}

// Columns 需要更新的列
func (p *PostUpdate) Columns() map[string]any {
	cols := make(map[string]any, 3)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.Published != nil {
		cols["published"] = *p.Published
	}
	return cols
}

type jsonKind string

const (
	kindString  jsonKind = "string"
	kindBoolean jsonKind = "boolean"
)

type fieldRule struct {
	name  string
	label string
	kind  jsonKind
}

var postFields = []fieldRule{
	{name: "title", label: "Title", kind: kindString},
	{name: "content", label: "Content", kind: kindString},
	{name: "published", label: "Published", kind: kindBoolean},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateCreate 校验创建请求：三个字段均必填
func ValidateCreate(body []byte) (*PostCreate, FieldErrors) {
	var out PostCreate
	if errs := check(body, &out, true); len(errs) > 0 {
		return nil, errs
	}
	return &out, nil
}

// ValidateUpdate 校验部分更新：字段可缺省，但出现时必须合法
func ValidateUpdate(body []byte) (*PostUpdate, FieldErrors) {
	var out PostUpdate
	if errs := check(body, &out, false); len(errs) > 0 {
		return nil, errs
	}
	return &out, nil
}

func check(body []byte, dst any, required bool) FieldErrors {
	errs := FieldErrors{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		errs.Add(BodyField, "Invalid JSON body")
		return errs
	}

	// 类型严格检查，不做字符串到布尔等隐式转换
	clean := make(map[string]json.RawMessage, len(postFields))
	for _, f := range postFields {
		v, ok := raw[f.name]
		if !ok {
			if required {
				errs.Add(f.name, fmt.Sprintf("Invalid input: expected %s, received undefined", f.kind))
			}
			continue
		}
		if got := kindOf(v); got != string(f.kind) {
			errs.Add(f.name, fmt.Sprintf("Invalid input: expected %s, received %s", f.kind, got))
			continue
		}
		clean[f.name] = v
	}

	b, err := json.Marshal(clean)
	if err == nil {
		err = json.Unmarshal(b, dst)
	}
	if err != nil {
		errs.Add(BodyField, "Invalid JSON body")
		return errs
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs.Add(BodyField, err.Error())
			return errs
		}
		for _, fe := range verrs {
			if errs.Has(fe.Field()) {
				continue
			}
			errs.Add(fe.Field(), message(fe))
		}
	}
	return errs
}

func message(fe validator.FieldError) string {
	rule := ruleFor(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Invalid input: expected %s, received undefined", rule.kind)
	case "min":
		return fmt.Sprintf("%s is required", rule.label)
	default:
		return fmt.Sprintf("%s is invalid", rule.label)
	}
}

func ruleFor(name string) fieldRule {
	for _, f := range postFields {
		if f.name == name {
			return f
		}
	}
	return fieldRule{name: name, label: name, kind: kindString}
}

// kindOf 返回原始 JSON 值的类型名
func kindOf(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "undefined"
	}
	switch v[0] {
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	case '{':
		return "object"
	case '[':
		return "array"
	default:
		return "number"
	}
}
