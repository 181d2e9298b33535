package domain

import (
	"errors"
	"fmt"
)

const (
	ErrCodeInputNotFound     = "input_not_found"
	ErrCodeUnsupportedFormat = "unsupported_format"
	ErrCodeDocumentInvalid   = "document_invalid"
	ErrCodeTableInvalid      = "table_invalid"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeIOFailed          = "io_failed"
)

// Error 是流水线阶段的结构化错误（带 error_code，供 CLI 输出与退出码判断）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s：%q：%v", e.Code, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s：%q", e.Code, e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%s：%v", e.Code, e.Err)
	default:
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode 从 error 中提取 error_code；若不是 *Error 则返回空串。
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
