package domain

// AgeRange is stored as "AGES_<min>_<max>", e.g. "AGES_6_8". The open-ended
// top band is "AGES_13_PLUS".
type AgeRange string

const (
	Ages3To5   AgeRange = "AGES_3_5"
	Ages6To8   AgeRange = "AGES_6_8"
	Ages9To12  AgeRange = "AGES_9_12"
	Ages13Plus AgeRange = "AGES_13_PLUS"
)

type Book struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Author       string   `yaml:"author"`
	Description  string   `yaml:"description"`
	ImageURL     string   `yaml:"image_url"`
	AgeRange     AgeRange `yaml:"age_range"`
	Genre        string   `yaml:"genre"`
	ReadingLevel string   `yaml:"reading_level"`
	ISBN         string   `yaml:"isbn"`
	PageCount    int      `yaml:"page_count"`
}

type Video struct {
	ID              string   `yaml:"id"`
	Title           string   `yaml:"title"`
	Channel         string   `yaml:"channel"`
	Description     string   `yaml:"description"`
	ThumbnailURL    string   `yaml:"thumbnail_url"`
	VideoURL        string   `yaml:"video_url"`
	AgeRange        AgeRange `yaml:"age_range"`
	Category        string   `yaml:"category"`
	DurationMinutes int      `yaml:"duration_minutes"`
}
