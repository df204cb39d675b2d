// Package events carries domain events from the engines to the live feed and
// the notification inbox. Delivery is best effort: a lost event never affects
// the state change that produced it.
package events

import (
	"context"
	"time"

	"nagarneuron/backend/internal/models"
)

type Type string

const (
	TypeComplaintCreated Type = "complaint.created"
	TypeStatusChanged    Type = "complaint.status_changed"
	TypeVerificationCast Type = "complaint.verification"
	TypeConsensusReached Type = "complaint.consensus"
	TypeBadgeUnlocked    Type = "badge.unlocked"
)

// Event is one domain occurrence. UserID is the user the event concerns:
// the complaint owner for complaint events, the earner for badge events.
type Event struct {
	Type               Type                      `json:"type"`
	ComplaintID        string                    `json:"complaintId,omitempty"`
	UserID             *uint                     `json:"userId,omitempty"`
	Status             models.Status             `json:"status,omitempty"`
	Vote               models.Vote               `json:"vote,omitempty"`
	VerificationStatus models.VerificationStatus `json:"verificationStatus,omitempty"`
	Badge              *models.Badge             `json:"badge,omitempty"`
	At                 time.Time                 `json:"at"`
}

// Publisher accepts events. Implementations must not block on slow consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler consumes an event delivered by a Bus.
type Handler func(ctx context.Context, e Event)

// Bus is a Publisher whose events are fanned out to subscribed handlers by Run.
type Bus interface {
	Publisher
	Subscribe(h Handler)
	Run(ctx context.Context) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
