package domain

// Favorite is a recommendation the child saved for later.
type Favorite struct {
	ID          string
	UserID      UserID
	ItemID      string
	Kind        RecommendationKind
	Title       string
	Description string
	ImageURL    string
	AddedAt     Timestamp
}

// FavoriteID is deterministic so that saving the same item twice is a no-op.
func FavoriteID(userID UserID, itemID string) string {
	return string(userID) + "_" + itemID
}
