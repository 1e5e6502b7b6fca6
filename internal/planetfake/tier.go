package planetfake

import (
	"time"

	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

const (
	// ExpPerLevel is the experience needed to go up one level.
	ExpPerLevel = 100
	// ExpPerQuest is awarded for each completed quest.
	ExpPerQuest = 20
	// MaxLevel is the top level, HappyGalaxy.
	MaxLevel = 5
)

var tierNames = [MaxLevel]string{
	planetsdk.TierTinyStar,
	planetsdk.TierShinyStar,
	planetsdk.TierWaveStar,
	planetsdk.TierPlanetStar,
	planetsdk.TierHappyGalaxy,
}

// levelFor maps a month's experience to a level and the progress inside it.
// Experience past the top level is capped at a full bar.
func levelFor(exp int) (level, current int) {
	exp = max(exp, 0)
	level = min(exp/ExpPerLevel+1, MaxLevel)
	current = min(exp-(level-1)*ExpPerLevel, ExpPerLevel)
	return level, current
}

// tierFor builds the tier record for a user and month.
func tierFor(userID int64, month time.Time, exp int, updated time.Time) planetsdk.Tier {
	level, current := levelFor(exp)

	return planetsdk.Tier{
		ID:              userID*10000 + int64(month.Year()*100+int(month.Month())),
		UserID:          userID,
		Month:           month.Format("2006-01"),
		Tier:            tierNames[level-1],
		ExperiencePoint: exp,
		CurrentExp:      current,
		MaxExp:          ExpPerLevel,
		Level:           level,
		CreatedAt:       planetsdk.Timestamp{Time: time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())},
		LastModifiedAt:  planetsdk.Timestamp{Time: updated},
	}
}
