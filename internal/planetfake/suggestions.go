package planetfake

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

// SuggestionsPerBatch is how many suggestions one generate call returns.
const SuggestionsPerBatch = 3

var genericQuests = []string{
	"Take a 20 minute walk outside",
	"Drink eight glasses of water",
	"Write down three things you are grateful for",
	"Stretch for ten minutes after waking up",
	"Tidy one corner of your room",
	"Call a friend you have not talked to in a while",
	"Go to bed before midnight",
	"Read ten pages of a book",
	"Cook a meal from scratch",
	"Spend an hour without your phone",
}

// Quests that suit each MBTI energy direction.
var (
	extravertQuests = []string{
		"Invite someone to join you for lunch",
		"Strike up a conversation with a neighbour",
	}
	introvertQuests = []string{
		"Spend 15 minutes journaling alone",
		"Visit a quiet cafe and people-watch",
	}
)

var encouragements = []string{
	"Small steps every day make a galaxy.",
	"You've got this. One quest at a time.",
	"Your planet grows brighter with every quest.",
	"Consistency beats intensity. Keep going!",
}

// suggestionTitles picks n distinct titles suited to the user.
func suggestionTitles(u planetsdk.User, rng *rand.Rand, n int) []string {
	var pool []string
	for _, h := range u.Hobbies {
		if h = strings.TrimSpace(h); h != "" {
			pool = append(pool, fmt.Sprintf("Spend 30 minutes on %s", h))
		}
	}
	if strings.HasPrefix(string(u.MBTI), "E") {
		pool = append(pool, extravertQuests...)
	} else if u.MBTI != "" {
		pool = append(pool, introvertQuests...)
	}
	pool = append(pool, genericQuests...)

	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	seen := map[string]bool{}
	out := make([]string, 0, n)
	for _, title := range pool {
		if len(out) == n {
			break
		}
		if !seen[title] {
			seen[title] = true
			out = append(out, title)
		}
	}
	return out
}

func encouragementFor(rng *rand.Rand) string {
	return encouragements[rng.IntN(len(encouragements))]
}
