package domain

// Message is one entry in a conversation timeline. It is never modified once
// persisted.
type Message struct {
	ID        MessageID
	Role      Role
	Content   string
	CreatedAt Timestamp

	// Recommendations is empty unless the assistant reply carried one
	// well-formed recommendation block.
	Recommendations []Recommendation
}

// Conversation is a chat thread between one child and the assistant.
type Conversation struct {
	ID          ConversationID
	UserID      UserID
	CreatedAt   Timestamp
	LastUpdated Timestamp
}

// Recommendation is a book or video suggested in an assistant turn. It is
// generated from the reply text, never looked up in the catalog.
type Recommendation struct {
	ID          string
	Kind        RecommendationKind
	Title       string
	Description string
	Reason      string
	ImageURL    string
}
