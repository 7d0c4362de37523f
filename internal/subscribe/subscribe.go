// Package subscribe handles email sign-ups from the subscription form.
package subscribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"elixirblog/internal/models"
)

// ErrInvalidEmail is returned when the submitted address is not a valid
// email.
var ErrInvalidEmail = errors.New("invalid email format")

// Outcome is the result of a successful submission.
type Outcome int

const (
	Subscribed Outcome = iota + 1
	AlreadySubscribed
)

// Messages shown inline under the form.
const (
	MsgSubscribed        = "구독이 완료되었습니다! 새 글이 올라오면 이메일로 알려드릴게요."
	MsgAlreadySubscribed = "이미 구독하신 이메일입니다."
	MsgInvalidEmail      = "올바른 이메일 주소를 입력해주세요."
	MsgTryLater          = "잠시 후 다시 시도해주세요."
)

// Message returns the user-facing text for the outcome.
func (o Outcome) Message() string {
	switch o {
	case Subscribed:
		return MsgSubscribed
	case AlreadySubscribed:
		return MsgAlreadySubscribed
	}
	return ""
}

// Store persists subscribers. Insert must decide uniqueness atomically and
// report created=false when the email already exists.
type Store interface {
	Insert(ctx context.Context, email string) (sub *models.Subscriber, created bool, err error)
}

// Service validates and records subscriptions.
type Service struct {
	store Store
}

// NewService returns a Service writing to store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Normalize trims and lower-cases an address so that uniqueness does not
// depend on letter case.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the syntactic shape of an email address.
func Validate(email string) error {
	err := validation.Validate(email,
		validation.Required,
		validation.Length(5, 254),
		is.EmailFormat,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	return nil
}

// Subscribe records email. A repeated address yields AlreadySubscribed, not
// an error.
func (s *Service) Subscribe(ctx context.Context, email string) (Outcome, error) {
	email = Normalize(email)
	if err := Validate(email); err != nil {
		return 0, err
	}

	_, created, err := s.store.Insert(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("subscribe: %w", err)
	}
	if !created {
		return AlreadySubscribed, nil
	}
	return Subscribed, nil
}
