package domain

// UserProfile is what the assistant knows about the child it talks to.
type UserProfile struct {
	Name         string
	Age          int
	Interests    []string
	ReadingLevel string

	Filters ContentFilters
}

// ContentFilters are the parental settings attached to a profile. The zero
// value places no restriction.
type ContentFilters struct {
	MaxAgeRating  int // 0 means no limit
	BlockedTopics []string
	VideosBlocked bool
}

// IsZero reports whether nothing is known about the child.
func (p UserProfile) IsZero() bool {
	return p.Name == "" && p.Age == 0 && len(p.Interests) == 0 && p.ReadingLevel == ""
}
