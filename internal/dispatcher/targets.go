package dispatcher

import "github.com/JakeFAU/competitor-discovery/internal/competitor"

// Default actors and search modes per platform.
const (
	DefaultInstagramActor      = "apify/instagram-scraper"
	DefaultInstagramSearchType = "user"
	DefaultTikTokActor         = "clockworks/tiktok-scraper"
	DefaultTikTokSearchSection = "/user"
	DefaultResultsLimit        = 15
)

// Target is one platform the dispatcher starts a run for.
type Target struct {
	Platform   competitor.Platform
	ActorID    string
	BuildInput func(search string, limit int) any
}

// InstagramTarget searches Instagram with the given actor and search type.
func InstagramTarget(actorID, searchType string) Target {
	if actorID == "" {
		actorID = DefaultInstagramActor
	}
	if searchType == "" {
		searchType = DefaultInstagramSearchType
	}
	return Target{
		Platform: competitor.PlatformInstagram,
		ActorID:  actorID,
		BuildInput: func(search string, limit int) any {
			return map[string]any{
				"search":       search,
				"searchType":   searchType,
				"resultsLimit": limit,
			}
		},
	}
}

// TikTokTarget searches TikTok user results with the given actor.
func TikTokTarget(actorID string) Target {
	if actorID == "" {
		actorID = DefaultTikTokActor
	}
	return Target{
		Platform: competitor.PlatformTikTok,
		ActorID:  actorID,
		BuildInput: func(search string, limit int) any {
			return map[string]any{
				"searchQueries":  []string{search},
				"searchSection":  DefaultTikTokSearchSection,
				"resultsPerPage": limit,
			}
		},
	}
}

// DefaultTargets returns the supported platforms in dispatch order.
func DefaultTargets() []Target {
	return []Target{
		InstagramTarget("", ""),
		TikTokTarget(""),
	}
}
