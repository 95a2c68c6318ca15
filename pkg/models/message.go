// Package models contains domain types for optiflow-engine.
package models

import "time"

// ChatRole represents the role of a conversation message sender.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ValidChatRoles contains all valid chat role values.
var ValidChatRoles = []ChatRole{
	ChatRoleSystem,
	ChatRoleUser,
	ChatRoleAssistant,
}

// IsValidChatRole checks if the given role is valid.
func IsValidChatRole(r ChatRole) bool {
	for _, v := range ValidChatRoles {
		if v == r {
			return true
		}
	}
	return false
}

// MessageKind distinguishes ordinary conversation turns from UI-only
// annotations. Annotation turns appear in the visible log but are never
// included in the payload sent to the completion provider.
type MessageKind string

const (
	// KindChat is an ordinary conversational turn.
	KindChat MessageKind = "chat"
	// KindUploadNotice marks the turn recording that a file was uploaded.
	KindUploadNotice MessageKind = "upload_notice"
	// KindAnalysisNotice marks the scripted post-upload acknowledgment.
	KindAnalysisNotice MessageKind = "analysis_notice"
)

// Message is a single entry in the conversation log. Messages are
// append-only: once added they are never mutated or removed, and their IDs
// are monotonically increasing within a conversation.
type Message struct {
	ID        int64       `json:"id"`
	Role      ChatRole    `json:"role"`
	Kind      MessageKind `json:"kind"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// IsAnnotation returns true for turns that are UI-only annotations.
func (m *Message) IsAnnotation() bool {
	return m.Kind == KindUploadNotice || m.Kind == KindAnalysisNotice
}
