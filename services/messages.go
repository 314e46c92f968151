// Package services composes the runtime components into the operation
// surface the transport layer exposes.
package services

import (
	"html"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"moment/domain"
)

// MaxMessageLength bounds user message content.
const MaxMessageLength = 2000

const (
	systemSenderID   = "system"
	systemSenderName = "System"
	systemColor      = "#6B7280"
)

var urlPattern = regexp.MustCompile(`(?i)(https?://[^\s]+)`)

// Messages is the content boundary for the engine: validation before a
// message is stored and HTML neutralization of its body. Implements
// contract.Sanitizer.
type Messages struct {
	maxLength int
}

func NewMessages(maxLength int) *Messages {
	if maxLength <= 0 {
		maxLength = MaxMessageLength
	}
	return &Messages{maxLength: maxLength}
}

// Validate accepts content that is non-empty after trimming and within
// the length bound.
func (m *Messages) Validate(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	return utf8.RuneCountInString(content) <= m.maxLength
}

// Sanitize HTML-escapes the content and turns plain http(s) URLs into
// anchor tags, then trims surrounding whitespace.
func (m *Messages) Sanitize(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	content = html.EscapeString(content)
	content = urlPattern.ReplaceAllString(content,
		`<a href="$1" target="_blank" rel="noopener noreferrer">$1</a>`)
	return strings.TrimSpace(content)
}

// NewSystemMessage builds an announcement attributed to the engine
// itself rather than a participant.
func NewSystemMessage(content string) domain.Message {
	return domain.Message{
		ID:          uuid.NewString(),
		SenderID:    systemSenderID,
		SenderName:  systemSenderName,
		SenderColor: systemColor,
		Content:     content,
		SentAt:      time.Now().UTC(),
		Kind:        domain.SystemMessage,
	}
}
