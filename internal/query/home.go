package query

import (
	"fmt"

	"vibebeat/internal/catalog"
	"vibebeat/pkg/models"
)

// HomeConfig selects the songs shown on the home page.
type HomeConfig struct {
	RecentLimit int
	MadeForYou  []int
	Trending    []int
}

// DefaultHomeConfig returns the stock home layout
func DefaultHomeConfig() HomeConfig {
	return HomeConfig{
		RecentLimit: 6,
		MadeForYou:  []int{1, 2, 3, 4},
		Trending:    []int{2, 3, 1, 4},
	}
}

// HomeSections is the content of the home page.
type HomeSections struct {
	Recent     []models.Song
	MadeForYou []models.Song
	Trending   []models.Song
}

// Home builds the home sections. Recent is the head of the catalog in
// insertion order; the curated sections skip ids the catalog lacks.
func Home(c *catalog.Catalog, cfg HomeConfig) HomeSections {
	return HomeSections{
		Recent:     c.Head(cfg.RecentLimit),
		MadeForYou: c.Pick(cfg.MadeForYou),
		Trending:   c.Pick(cfg.Trending),
	}
}

// FormatTime renders milliseconds as M:SS. Negative values render as 0:00.
func FormatTime(ms int) string {
	if ms < 0 {
		ms = 0
	}
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
