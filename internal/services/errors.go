package services

// 领域错误：以显式的 kind 取代异常式控制流，由 HTTP 边界统一映射为状态码。

import "errors"

// Kind 区分领域错误类别，三类均终止当前操作，不重试、不部分生效。
type Kind string

const (
	KindUnauthorized Kind = "unauthorized" // 令牌缺失或无效
	KindForbidden    Kind = "forbidden"    // 已认证但对目标资源无权限
	KindNotFound     Kind = "not_found"    // 引用的用户/条目不存在
)

// Error 是带判别字段的领域错误。
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Is 让 errors.Is 按 Kind 匹配，而不要求同一实例。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// 哨兵值：服务层返回带具体消息的实例，调用方用 errors.Is 对类判断。
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Msg: "wrong token"}
	ErrForbidden    = &Error{Kind: KindForbidden, Msg: "you can't do it"}
	ErrNotFound     = &Error{Kind: KindNotFound, Msg: "not found"}
)

func unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func forbidden(msg string) error    { return &Error{Kind: KindForbidden, Msg: msg} }
func notFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }

// AsKind 提取领域错误的 kind；非领域错误返回 false（边界层按 5xx 处理）。
func AsKind(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
