// Package stories is the submission pipeline that sits behind the identity
// core: authenticated users submit stories, editors and admins move them
// through a small review workflow, and authors are notified of the outcome.
package stories

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status is the review state of a submitted story.
type Status string

const (
	// StatusNew is the state every submission starts in.
	StatusNew Status = "new"
	// StatusPending is a submission picked up for review.
	StatusPending Status = "pending"
	// StatusPublished is an accepted submission. The author is notified.
	StatusPublished Status = "published"
	// StatusOnHold parks a submission without a decision.
	StatusOnHold Status = "on-hold"
	// StatusRejected is a declined submission. The author is notified.
	StatusRejected Status = "rejected"
)

// ParseStatus validates a raw status value.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusNew, StatusPending, StatusPublished, StatusOnHold, StatusRejected:
		return Status(s), true
	default:
		return "", false
	}
}

func (s Status) String() string {
	return string(s)
}

// Story is a user submission.
type Story struct {
	bun.BaseModel `bun:"table:stories,alias:sty"`

	ID        uuid.UUID  `bun:"id,pk,notnull" json:"id"`
	AuthorID  uuid.UUID  `bun:"author_id,notnull" json:"author_id"`
	Title     string     `bun:"title,notnull" json:"title"`
	Body      string     `bun:"body,notnull" json:"body"`
	Tags      []string   `bun:"tags" json:"tags"`
	Anonymous bool       `bun:"is_anonymous" json:"is_anonymous"`
	Status    Status     `bun:"status,notnull" json:"status"`
	CreatedAt *time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt *time.Time `bun:"updated_at,notnull" json:"updated_at"`
}
