// Package domain contains core concepts of the room engine.
// This file defines Message entities. Messages snapshot the sender's
// name and color so attribution survives the sender's departure.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind int

const (
	UserMessage MessageKind = iota
	SystemMessage
)

type Message struct {
	ID          string
	SenderID    string
	SenderName  string
	SenderColor string
	Content     string
	SentAt      time.Time
	Kind        MessageKind
}

func NewMessage(sender Participant, content string) Message {
	return Message{
		ID:          uuid.NewString(),
		SenderID:    sender.ID,
		SenderName:  sender.DisplayName,
		SenderColor: sender.ColorHex,
		Content:     content,
		SentAt:      time.Now().UTC(),
		Kind:        UserMessage,
	}
}
