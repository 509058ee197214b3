package domain

import "time"

type ConversationID string
type UserID string
type MessageID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// RecommendationKind is the wire value of a recommendation's "type" field.
type RecommendationKind string

const (
	KindBook  RecommendationKind = "BOOK"
	KindVideo RecommendationKind = "VIDEO"
)

type Timestamp = time.Time
