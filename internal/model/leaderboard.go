package model

// Leaderboard metrics.
const (
	LeaderboardRating      = "rating"
	LeaderboardAnswers     = "answers"
	LeaderboardHelpfulness = "helpfulness"
)

func ValidLeaderboardMetric(metric string) bool {
	switch metric {
	case LeaderboardRating, LeaderboardAnswers, LeaderboardHelpfulness:
		return true
	}
	return false
}

// LeaderboardEntry is one expert's position on a leaderboard. Samples is
// the number of ratings or answers the score was computed from.
type LeaderboardEntry struct {
	Rank           int     `gorm:"-" json:"rank"`
	UserID         uint    `json:"user_id"`
	Username       string  `json:"username"`
	FullName       string  `json:"full_name"`
	ProfilePicture *string `json:"profile_picture"`
	Score          float64 `json:"score"`
	Samples        int64   `json:"samples"`
}
