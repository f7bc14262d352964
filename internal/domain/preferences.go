package domain

import "time"

// List bounds for preference history fields.
const (
	MaxRecentSearches  = 10
	MaxRecentlyViewed  = 20
	MaxFavoriteCatsLen = 10
)

// Preferences is the small per-session personalization record. The core reads
// it as ranking input and never mutates it; updates come only through the
// preference API.
type Preferences struct {
	SessionID          string    `json:"sessionId"`
	UserID             string    `json:"userId,omitempty"`
	FavoriteCategories []string  `json:"favoriteCategories,omitempty"`
	RecentSearches     []string  `json:"recentSearches,omitempty"`
	RecentlyViewed     []string  `json:"recentlyViewed,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// PreferenceUpdate is a partial update merged into stored preferences.
type PreferenceUpdate struct {
	UserID           string `json:"userId,omitempty"`
	AddCategory      string `json:"addCategory,omitempty"`
	RemoveCategory   string `json:"removeCategory,omitempty"`
	RecordSearch     string `json:"recordSearch,omitempty"`
	RecordViewedID   string `json:"recordViewedId,omitempty"`
	ClearCategories  bool   `json:"clearCategories,omitempty"`
	ClearHistory     bool   `json:"clearHistory,omitempty"`
}

// Merge applies an update, returning the new record. Lists are
// prepend-dedupe-trim so the most recent entry leads.
func (p Preferences) Merge(u PreferenceUpdate, now time.Time) Preferences {
	out := p
	if u.UserID != "" {
		out.UserID = u.UserID
	}
	if u.ClearCategories {
		out.FavoriteCategories = nil
	}
	if u.ClearHistory {
		out.RecentSearches = nil
		out.RecentlyViewed = nil
	}
	if u.AddCategory != "" {
		out.FavoriteCategories = prependBounded(out.FavoriteCategories, u.AddCategory, MaxFavoriteCatsLen)
	}
	if u.RemoveCategory != "" {
		out.FavoriteCategories = remove(out.FavoriteCategories, u.RemoveCategory)
	}
	if u.RecordSearch != "" {
		out.RecentSearches = prependBounded(out.RecentSearches, u.RecordSearch, MaxRecentSearches)
	}
	if u.RecordViewedID != "" {
		out.RecentlyViewed = prependBounded(out.RecentlyViewed, u.RecordViewedID, MaxRecentlyViewed)
	}
	out.UpdatedAt = now
	return out
}

func prependBounded(list []string, v string, max int) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, v)
	for _, e := range list {
		if e != v {
			out = append(out, e)
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, e := range list {
		if e != v {
			out = append(out, e)
		}
	}
	return out
}
