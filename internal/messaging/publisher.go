package messaging

import (
	"fmt"

	"github.com/google/uuid"
)

// Publisher is the part of a NATS connection used to push messages.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// PlayerSubject is the subject an owner's client listens on for pushes and
// replies.
func PlayerSubject(owner uuid.UUID) string {
	return fmt.Sprintf("player-%s", owner)
}

// PlayerPublisher delivers messages to individual player channels.
type PlayerPublisher struct {
	pub Publisher
}

func NewPlayerPublisher(pub Publisher) *PlayerPublisher {
	return &PlayerPublisher{pub: pub}
}

func (p *PlayerPublisher) PublishToPlayer(owner uuid.UUID, data []byte) error {
	return p.pub.Publish(PlayerSubject(owner), data)
}
