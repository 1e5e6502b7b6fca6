package planetsdk

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Tier names in rank order.
const (
	TierTinyStar    = "TinyStar"
	TierShinyStar   = "ShinyStar"
	TierWaveStar    = "WaveStar"
	TierPlanetStar  = "PlanetStar"
	TierHappyGalaxy = "HappyGalaxy"
)

var tierRanks = map[string]int{
	TierTinyStar:    1,
	TierShinyStar:   2,
	TierWaveStar:    3,
	TierPlanetStar:  4,
	TierHappyGalaxy: 5,
}

// TierRank maps a tier name to 1..5. Unknown names rank 1.
func TierRank(name string) int {
	if r, ok := tierRanks[name]; ok {
		return r
	}
	return 1
}

// Rank is TierRank of the tier's name.
func (t Tier) Rank() int { return TierRank(t.Tier) }

// Progress is the fraction of the current level completed, in [0, 1].
func (t Tier) Progress() float64 {
	if t.MaxExp <= 0 {
		return 0
	}
	p := float64(t.CurrentExp) / float64(t.MaxExp)
	return min(max(p, 0), 1)
}

// CurrentTier returns the caller's tier for the current month.
func (c *Client) CurrentTier(ctx context.Context) (*Tier, error) {
	var tier Tier
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/tier/current",
		auth:   true,
	}, &tier)
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// TierForMonth returns the caller's tier for a past or current month.
func (c *Client) TierForMonth(ctx context.Context, year int, month time.Month) (*Tier, error) {
	var tier Tier
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/tier/%04d/%02d", year, int(month)),
		auth:   true,
	}, &tier)
	if err != nil {
		return nil, err
	}
	return &tier, nil
}
