package httpadapter

import (
	"time"

	"github.com/kidsrec/chatbot/internal/domain"
)

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type conversationResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

type recommendationResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
	ImageURL    string `json:"image_url"`
}

type messageResponse struct {
	ID              string                   `json:"id"`
	Role            string                   `json:"role"`
	Content         string                   `json:"content"`
	CreatedAt       time.Time                `json:"created_at"`
	Recommendations []recommendationResponse `json:"recommendations"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"max=4000"`
}

type sendMessageResponse struct {
	UserMessage      messageResponse `json:"user_message"`
	AssistantMessage messageResponse `json:"assistant_message"`
}

type timelineResponse struct {
	Conversation conversationResponse `json:"conversation"`
	Messages     []messageResponse    `json:"messages"`
}

type contentFiltersDTO struct {
	MaxAgeRating  int      `json:"max_age_rating" validate:"gte=0,lte=18"`
	BlockedTopics []string `json:"blocked_topics" validate:"max=50,dive,max=100"`
	AllowVideos   *bool    `json:"allow_videos"`
}

type profileDTO struct {
	Name           string            `json:"name" validate:"max=100"`
	Age            int               `json:"age" validate:"gte=0,lte=18"`
	Interests      []string          `json:"interests" validate:"max=30,dive,max=100"`
	ReadingLevel   string            `json:"reading_level" validate:"max=50"`
	ContentFilters contentFiltersDTO `json:"content_filters"`
}

type bookResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	AgeRange     string `json:"age_range"`
	Genre        string `json:"genre"`
	ReadingLevel string `json:"reading_level"`
	ISBN         string `json:"isbn"`
	PageCount    int    `json:"page_count"`
}

type videoResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Channel         string `json:"channel"`
	Description     string `json:"description"`
	ThumbnailURL    string `json:"thumbnail_url"`
	VideoURL        string `json:"video_url"`
	AgeRange        string `json:"age_range"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"duration_minutes"`
}

type catalogResponse struct {
	Books  []bookResponse  `json:"books"`
	Videos []videoResponse `json:"videos"`
}

type addFavoriteRequest struct {
	ItemID      string `json:"item_id" validate:"required,max=200"`
	Type        string `json:"type" validate:"omitempty,oneof=BOOK VIDEO book video"`
	Title       string `json:"title" validate:"required,max=300"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

type favoriteResponse struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"item_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	AddedAt     time.Time `json:"added_at"`
}

// ─────────────────────────────────────────────
// Conversions
// ─────────────────────────────────────────────

func toConversationResponse(c *domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:          string(c.ID),
		UserID:      string(c.UserID),
		CreatedAt:   c.CreatedAt,
		LastUpdated: c.LastUpdated,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	recs := make([]recommendationResponse, 0, len(m.Recommendations))
	for _, r := range m.Recommendations {
		recs = append(recs, recommendationResponse{
			ID:          r.ID,
			Type:        string(r.Kind),
			Title:       r.Title,
			Description: r.Description,
			Reason:      r.Reason,
			ImageURL:    r.ImageURL,
		})
	}
	return messageResponse{
		ID:              string(m.ID),
		Role:            string(m.Role),
		Content:         m.Content,
		CreatedAt:       m.CreatedAt,
		Recommendations: recs,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func toProfileDTO(p *domain.UserProfile) profileDTO {
	allow := !p.Filters.VideosBlocked
	return profileDTO{
		Name:         p.Name,
		Age:          p.Age,
		Interests:    p.Interests,
		ReadingLevel: p.ReadingLevel,
		ContentFilters: contentFiltersDTO{
			MaxAgeRating:  p.Filters.MaxAgeRating,
			BlockedTopics: p.Filters.BlockedTopics,
			AllowVideos:   &allow,
		},
	}
}

func (d profileDTO) toDomain() *domain.UserProfile {
	return &domain.UserProfile{
		Name:         d.Name,
		Age:          d.Age,
		Interests:    d.Interests,
		ReadingLevel: d.ReadingLevel,
		Filters: domain.ContentFilters{
			MaxAgeRating:  d.ContentFilters.MaxAgeRating,
			BlockedTopics: d.ContentFilters.BlockedTopics,
			VideosBlocked: d.ContentFilters.AllowVideos != nil && !*d.ContentFilters.AllowVideos,
		},
	}
}

func toBookResponse(b *domain.Book) bookResponse {
	return bookResponse{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		Description:  b.Description,
		ImageURL:     b.ImageURL,
		AgeRange:     string(b.AgeRange),
		Genre:        b.Genre,
		ReadingLevel: b.ReadingLevel,
		ISBN:         b.ISBN,
		PageCount:    b.PageCount,
	}
}

func toVideoResponse(v *domain.Video) videoResponse {
	return videoResponse{
		ID:              v.ID,
		Title:           v.Title,
		Channel:         v.Channel,
		Description:     v.Description,
		ThumbnailURL:    v.ThumbnailURL,
		VideoURL:        v.VideoURL,
		AgeRange:        string(v.AgeRange),
		Category:        v.Category,
		DurationMinutes: v.DurationMinutes,
	}
}

func toFavoriteResponse(f *domain.Favorite) favoriteResponse {
	return favoriteResponse{
		ID:          f.ID,
		ItemID:      f.ItemID,
		Type:        string(f.Kind),
		Title:       f.Title,
		Description: f.Description,
		ImageURL:    f.ImageURL,
		AddedAt:     f.AddedAt,
	}
}
