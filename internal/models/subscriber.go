package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber is an email address signed up for new-post notifications.
type Subscriber struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
