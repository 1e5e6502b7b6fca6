package queries

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/planet/internal/querycache"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

// Cache keys. The prefixes are used for invalidation.
var (
	KeyTodayQuest       = querycache.Key{"quest", "today"}
	KeyQuestSuggestions = querycache.Key{"quest", "suggestions"}
	KeyQuestHistory     = querycache.Key{"quest", "my", "history"}
	KeyMe               = querycache.Key{"user", "me"}
	KeyTier             = querycache.Key{"user", "tier"}
	KeyCurrentTier      = querycache.Key{"user", "tier", "current"}
)

// HistoryKey is the key of the quest history between start and end.
func HistoryKey(start, end time.Time) querycache.Key {
	return append(append(querycache.Key(nil), KeyQuestHistory...),
		start.Format(planetsdk.DateLayout), end.Format(planetsdk.DateLayout))
}

// TierMonthKey is the key of the tier for one month.
func TierMonthKey(year int, month time.Month) querycache.Key {
	return append(append(querycache.Key(nil), KeyTier...),
		fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", int(month)))
}
