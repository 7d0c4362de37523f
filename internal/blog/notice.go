package blog

import (
	"errors"
	"fmt"
)

// NotFoundKind says which lookup failed.
type NotFoundKind string

const (
	NotFoundPost     NotFoundKind = "post"
	NotFoundCategory NotFoundKind = "category"
)

// NotFoundError is returned when a post or category slug does not resolve.
type NotFoundError struct {
	Kind NotFoundKind
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Slug)
}

// Notice messages shown after a failed lookup.
const (
	MsgPostNotFound     = "포스트를 찾을 수 없습니다"
	MsgCategoryNotFound = "카테고리를 찾을 수 없습니다"
)

// Notice is the redirect-plus-message a visitor gets instead of an error
// page.
type Notice struct {
	Target  string // path to redirect to
	Level   string // flash level: "error", "info", ...
	Message string
}

// NoticeFor converts a lookup failure into a Notice. It reports false for
// errors that are not resolution failures; those are server errors.
func NoticeFor(err error) (Notice, bool) {
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return Notice{}, false
	}
	n := Notice{Target: "/", Level: "error"}
	switch nf.Kind {
	case NotFoundCategory:
		n.Message = MsgCategoryNotFound
	default:
		n.Message = MsgPostNotFound
	}
	return n, true
}
