package planetfake

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

var (
	errUserExists          = errors.New("email already registered")
	errUserNotFound        = errors.New("user not found")
	errQuestNotFound       = errors.New("quest not found")
	errSuggestionNotFound  = errors.New("suggestion not found")
	errQuestAlreadyToday   = errors.New("a quest has already been approved today")
	errQuestAlreadyDone    = errors.New("quest already completed")
	errNoSuggestionsToday  = errors.New("no suggestions generated today")
	errMonthInFuture       = errors.New("month is in the future")
	errDateRangeReversed   = errors.New("startDate is after endDate")
	errEvidenceUnreadable  = errors.New("evidence image could not be read")
	errForbiddenOtherUser  = errors.New("cannot modify another user")
	errInvalidCredentials  = errors.New("invalid email or password")
	errMissingDateArgument = errors.New("startDate and endDate are required")
)

type userRecord struct {
	id   int64
	user planetsdk.User
	hash []byte

	// Experience per month ("2006-01") and when it last changed.
	exp        map[string]int
	expUpdated map[string]time.Time
}

// state is the backend's in-memory database.
type state struct {
	mu  sync.Mutex
	now func() time.Time
	loc *time.Location
	rng *rand.Rand

	nextUserID  int64
	nextQuestID int64

	users       map[string]*userRecord
	suggestions map[string][]planetsdk.QuestSuggestion
	quests      map[string][]planetsdk.Quest
}

func newState(now func() time.Time, loc *time.Location) *state {
	return &state{
		now:         now,
		loc:         loc,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		users:       make(map[string]*userRecord),
		suggestions: make(map[string][]planetsdk.QuestSuggestion),
		quests:      make(map[string][]planetsdk.Quest),
	}
}

func (s *state) clock() time.Time { return s.now().In(s.loc) }

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func monthKey(t time.Time) string { return t.Format("2006-01") }

func cloneUser(u planetsdk.User) planetsdk.User {
	u.Hobbies = slices.Clone(u.Hobbies)
	return u
}

// ============================================================================
// Users
// ============================================================================

func (s *state) createUser(req planetsdk.SignUpRequest, hash []byte) (planetsdk.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[req.Email]; ok {
		return planetsdk.User{}, errUserExists
	}

	s.nextUserID++
	rec := &userRecord{
		id: s.nextUserID,
		user: planetsdk.User{
			Email:   req.Email,
			Name:    req.Name,
			Role:    planetsdk.RoleUser,
			MBTI:    req.MBTI,
			Gender:  req.Gender,
			Hobbies: slices.Clone(req.Hobbies),
		},
		hash:       hash,
		exp:        make(map[string]int),
		expUpdated: make(map[string]time.Time),
	}
	s.users[req.Email] = rec

	return cloneUser(rec.user), nil
}

// credentials returns the user and password hash for email.
func (s *state) credentials(email string) (planetsdk.User, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[email]
	if !ok {
		return planetsdk.User{}, nil, false
	}
	return cloneUser(rec.user), rec.hash, true
}

func (s *state) user(email string) (planetsdk.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[email]
	if !ok {
		return planetsdk.User{}, errUserNotFound
	}
	return cloneUser(rec.user), nil
}

// updateUser applies the set fields of req. newHash replaces the password
// hash when non-nil.
func (s *state) updateUser(email string, req planetsdk.UserUpdateRequest, newHash []byte) (planetsdk.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[email]
	if !ok {
		return planetsdk.User{}, errUserNotFound
	}

	if req.Name != nil {
		rec.user.Name = *req.Name
	}
	if req.MBTI != nil {
		rec.user.MBTI = *req.MBTI
	}
	if req.Gender != nil {
		rec.user.Gender = *req.Gender
	}
	if req.Hobbies != nil {
		rec.user.Hobbies = slices.Clone(req.Hobbies)
	}
	if newHash != nil {
		rec.hash = newHash
	}

	return cloneUser(rec.user), nil
}

// ============================================================================
// Quests
// ============================================================================

// todayQuestLocked finds the quest approved on now's day. Callers hold s.mu.
func (s *state) todayQuestLocked(email string, now time.Time) (int, bool) {
	for i, q := range s.quests[email] {
		if sameDay(q.CreatedAt.In(s.loc), now) {
			return i, true
		}
	}
	return 0, false
}

func (s *state) todayQuest(email string) (planetsdk.Quest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.todayQuestLocked(email, s.clock())
	if !ok {
		return planetsdk.Quest{}, false
	}
	return s.quests[email][i], true
}

func (s *state) todaySuggestionsLocked(email string, now time.Time) []planetsdk.QuestSuggestion {
	out := []planetsdk.QuestSuggestion{}
	for _, sg := range s.suggestions[email] {
		if sameDay(sg.CreatedAt.In(s.loc), now) {
			out = append(out, sg)
		}
	}
	return out
}

func (s *state) todaySuggestions(email string) []planetsdk.QuestSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.todaySuggestionsLocked(email, s.clock())
}

// generate replaces the user's suggestions with a fresh batch.
func (s *state) generate(email string) ([]planetsdk.QuestSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[email]
	if !ok {
		return nil, errUserNotFound
	}

	now := s.clock()
	titles := suggestionTitles(rec.user, s.rng, SuggestionsPerBatch)

	batch := make([]planetsdk.QuestSuggestion, 0, len(titles))
	for _, title := range titles {
		batch = append(batch, planetsdk.QuestSuggestion{
			UUID:           uuid.NewString(),
			Title:          title,
			CreatedAt:      planetsdk.Timestamp{Time: now},
			RequesterEmail: email,
		})
	}
	s.suggestions[email] = batch

	return slices.Clone(batch), nil
}

// approve turns one of today's suggestions into today's quest.
func (s *state) approve(email, id string) (planetsdk.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if _, ok := s.todayQuestLocked(email, now); ok {
		return planetsdk.Quest{}, errQuestAlreadyToday
	}

	today := s.todaySuggestionsLocked(email, now)
	if len(today) == 0 {
		return planetsdk.Quest{}, errNoSuggestionsToday
	}
	i := slices.IndexFunc(today, func(sg planetsdk.QuestSuggestion) bool { return sg.UUID == id })
	if i < 0 {
		return planetsdk.Quest{}, errSuggestionNotFound
	}

	s.nextQuestID++
	quest := planetsdk.Quest{
		ID:             s.nextQuestID,
		Title:          today[i].Title,
		Encouragement:  encouragementFor(s.rng),
		CreatedAt:      planetsdk.Timestamp{Time: now},
		LastModifiedAt: planetsdk.Timestamp{Time: now},
	}
	s.quests[email] = append(s.quests[email], quest)
	delete(s.suggestions, email)

	return quest, nil
}

// complete marks the quest done, records the evidence and awards experience
// for the month the quest was completed in.
func (s *state) complete(email string, id int64, evidence *planetsdk.EvidenceImage) (planetsdk.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[email]
	if !ok {
		return planetsdk.Quest{}, errUserNotFound
	}

	quests := s.quests[email]
	i := slices.IndexFunc(quests, func(q planetsdk.Quest) bool { return q.ID == id })
	if i < 0 {
		return planetsdk.Quest{}, errQuestNotFound
	}
	if quests[i].IsCompleted {
		return planetsdk.Quest{}, errQuestAlreadyDone
	}

	now := s.clock()
	feedback := "Great job completing today's quest!"
	if evidence == nil {
		feedback = "Quest completed. Add a photo next time to remember it!"
	}

	q := &quests[i]
	q.IsCompleted = true
	q.CompletedAt = &planetsdk.Timestamp{Time: now}
	q.LastModifiedAt = planetsdk.Timestamp{Time: now}
	q.EvidenceImage = evidence
	q.Feedback = &feedback

	month := monthKey(now)
	rec.exp[month] += ExpPerQuest
	rec.expUpdated[month] = now

	return *q, nil
}

// questsBetween lists quests created on any day from start to end inclusive.
func (s *state) questsBetween(email string, start, end time.Time) []planetsdk.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)

	out := []planetsdk.Quest{}
	for _, q := range s.quests[email] {
		created := q.CreatedAt.In(s.loc)
		if !created.Before(from) && created.Before(to) {
			out = append(out, q)
		}
	}
	return out
}

// ============================================================================
// Tiers
// ============================================================================

func (s *state) tier(email string, year int, month time.Month) (planetsdk.Tier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[email]
	if !ok {
		return planetsdk.Tier{}, errUserNotFound
	}

	now := s.clock()
	first := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	if first.After(now) {
		return planetsdk.Tier{}, errMonthInFuture
	}

	key := monthKey(first)
	updated, ok := rec.expUpdated[key]
	if !ok {
		updated = first
	}
	return tierFor(rec.id, first, rec.exp[key], updated), nil
}
