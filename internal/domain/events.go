package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event
type EventType string

const (
	EventProductSubmitted EventType = "product.submitted"
	EventProductUpdated   EventType = "product.updated"
	EventProductApproved  EventType = "product.approved"
	EventProductRejected  EventType = "product.rejected"
	EventProductFeatured  EventType = "product.featured"
	EventProductDeleted   EventType = "product.deleted"
	EventProductRestored  EventType = "product.restored"

	EventReviewCreated  EventType = "review.created"
	EventReviewUpdated  EventType = "review.updated"
	EventReviewDeleted  EventType = "review.deleted"
	EventReviewApproved EventType = "review.approved"
	EventReviewRejected EventType = "review.rejected"
	EventReviewVoted    EventType = "review.voted"
)

// EventSubjectPrefix prefixes every event subject
const EventSubjectPrefix = "directory.events."

// Subject returns the messaging subject the event type is published on
func (t EventType) Subject() string {
	return EventSubjectPrefix + string(t)
}

// Event is published after a state change commits
type Event struct {
	ID            uuid.UUID  `json:"id"`
	Type          EventType  `json:"event_type"`
	Timestamp     time.Time  `json:"timestamp"`
	ActorID       uuid.UUID  `json:"actor_id"`
	ProductID     uuid.UUID  `json:"product_id"`
	ReviewID      *uuid.UUID `json:"review_id,omitempty"`
	Status        string     `json:"status,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	AverageRating *Rating    `json:"average_rating,omitempty"`
	TotalReviews  *int       `json:"total_reviews,omitempty"`
	HelpfulCount  *int       `json:"helpful_count,omitempty"`
}

// NewEvent stamps an event with an ID and the current time
func NewEvent(t EventType, actor *Actor, productID uuid.UUID) Event {
	e := Event{
		ID:        uuid.New(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		ProductID: productID,
	}
	if actor != nil {
		e.ActorID = actor.UserID
	}
	return e
}

// EventPublisher delivers an event on the subject of its type
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
