package queries_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/planet/internal/querycache"
	"github.com/aussiebroadwan/planet/internal/queries"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
	"github.com/aussiebroadwan/planet/pkg/slogx"
)

// fakeAPI records calls and serves canned data.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	today       *planetsdk.Quest
	suggestions []planetsdk.QuestSuggestion
	history     []planetsdk.Quest
	tier        *planetsdk.Tier

	completeErrs []error
	evidence     []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:       map[string]int{},
		suggestions: []planetsdk.QuestSuggestion{{UUID: "u-1", Title: "Walk"}},
		history:     []planetsdk.Quest{{ID: 1}},
		tier:        &planetsdk.Tier{Tier: planetsdk.TierTinyStar, Level: 1},
	}
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) TodayQuest(context.Context) (*planetsdk.Quest, error) {
	f.hit("today")
	return f.today, nil
}

func (f *fakeAPI) QuestSuggestions(context.Context) ([]planetsdk.QuestSuggestion, error) {
	f.hit("suggestions")
	return f.suggestions, nil
}

func (f *fakeAPI) GenerateQuestSuggestions(context.Context) ([]planetsdk.QuestSuggestion, error) {
	f.hit("generate")
	f.suggestions = []planetsdk.QuestSuggestion{{UUID: "u-2", Title: "Read"}, {UUID: "u-3", Title: "Cook"}}
	return f.suggestions, nil
}

func (f *fakeAPI) ApproveQuestSuggestion(_ context.Context, uuid string) (*planetsdk.Quest, error) {
	f.hit("approve")
	f.today = &planetsdk.Quest{ID: 9, Title: uuid}
	return f.today, nil
}

func (f *fakeAPI) CompleteQuest(_ context.Context, id int64, ev *planetsdk.Evidence) (*planetsdk.Quest, error) {
	f.hit("complete")
	if ev != nil {
		b, _ := io.ReadAll(ev.Content)
		f.evidence = append(f.evidence, string(b))
	}
	if len(f.completeErrs) > 0 {
		err := f.completeErrs[0]
		f.completeErrs = f.completeErrs[1:]
		return nil, err
	}
	return &planetsdk.Quest{ID: id, IsCompleted: true}, nil
}

func (f *fakeAPI) MyQuests(context.Context, time.Time, time.Time) ([]planetsdk.Quest, error) {
	f.hit("history")
	return f.history, nil
}

func (f *fakeAPI) CurrentTier(context.Context) (*planetsdk.Tier, error) {
	f.hit("tier")
	return f.tier, nil
}

func (f *fakeAPI) TierForMonth(_ context.Context, year int, month time.Month) (*planetsdk.Tier, error) {
	f.hit("tier-month")
	return &planetsdk.Tier{Month: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")}, nil
}

type fakeSession struct {
	refreshErr error
	signedOut  bool
}

func (s *fakeSession) Refresh(context.Context) (*planetsdk.User, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return &planetsdk.User{Email: "a@b.c", Name: "Ann"}, nil
}

func (s *fakeSession) UpdateProfile(_ context.Context, req planetsdk.UserUpdateRequest) (*planetsdk.User, error) {
	return &planetsdk.User{Email: "a@b.c", Name: *req.Name}, nil
}

func (s *fakeSession) SignOut(context.Context) error {
	s.signedOut = true
	return nil
}

func setup(t *testing.T) (*queries.Queries, *fakeAPI, *fakeSession) {
	t.Helper()

	cfg := querycache.DefaultConfig()
	cfg.Logger = slogx.Discard()
	cfg.RetryDelay = time.Millisecond
	cache, err := querycache.New(cfg)
	require.NoError(t, err)

	api, session := newFakeAPI(), &fakeSession{}
	return queries.New(api, session, cache), api, session
}

func TestKeys(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "quest/my/history/2026-10-01/2026-10-31", queries.HistoryKey(start, end).String())
	require.Equal(t, "user/tier/2026/03", queries.TierMonthKey(2026, time.March).String())
	require.True(t, queries.KeyCurrentTier.HasPrefix(queries.KeyTier))
	require.Equal(t, "quest/my/history", queries.KeyQuestHistory.String(), "HistoryKey must not alias the prefix")
}

func TestTodayQuestIsCached(t *testing.T) {
	t.Parallel()

	q, api, _ := setup(t)
	ctx := context.Background()

	quest, err := q.TodayQuest(ctx)
	require.NoError(t, err)
	require.Nil(t, quest)

	_, err = q.TodayQuest(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, api.count("today"))
}

func TestGenerateOverwritesSuggestions(t *testing.T) {
	t.Parallel()

	q, api, _ := setup(t)
	ctx := context.Background()

	before, err := q.QuestSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)

	generated, err := q.GenerateQuestSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, generated, 2)

	after, err := q.QuestSuggestions(ctx)
	require.NoError(t, err)
	require.Equal(t, generated, after)
	require.Equal(t, 1, api.count("suggestions"))
}

func TestApproveSetsTodayAndInvalidatesSuggestions(t *testing.T) {
	t.Parallel()

	q, api, _ := setup(t)
	ctx := context.Background()

	_, err := q.QuestSuggestions(ctx)
	require.NoError(t, err)

	quest, err := q.ApproveQuestSuggestion(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(9), quest.ID)

	today, err := q.TodayQuest(ctx)
	require.NoError(t, err)
	require.Equal(t, "u-1", today.Title)
	require.Zero(t, api.count("today"))

	_, err = q.QuestSuggestions(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, api.count("suggestions"))
}

func TestCompleteQuestInvalidatesHistory(t *testing.T) {
	t.Parallel()

	q, api, _ := setup(t)
	ctx := context.Background()
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)

	_, err := q.MyQuestsHistory(ctx, start, end)
	require.NoError(t, err)
	_, err = q.CurrentTier(ctx)
	require.NoError(t, err)

	quest, err := q.CompleteQuest(ctx, 9, nil)
	require.NoError(t, err)
	require.True(t, quest.IsCompleted)

	today, err := q.TodayQuest(ctx)
	require.NoError(t, err)
	require.True(t, today.IsCompleted)
	require.Zero(t, api.count("today"))

	_, err = q.MyQuestsHistory(ctx, start, end)
	require.NoError(t, err)
	require.Equal(t, 2, api.count("history"))

	_, err = q.CurrentTier(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, api.count("tier"))
}

func TestCompleteQuestRetryResendsEvidence(t *testing.T) {
	t.Parallel()

	q, api, _ := setup(t)
	api.completeErrs = []error{&planetsdk.APIError{Kind: planetsdk.KindHTTP, StatusCode: http.StatusBadGateway}}

	ev := &planetsdk.Evidence{FileName: "evidence.jpg", Content: strings.NewReader("photo")}
	_, err := q.CompleteQuest(context.Background(), 3, ev)
	require.NoError(t, err)
	require.Equal(t, []string{"photo", "photo"}, api.evidence)
}

func TestMyQuestsHistoryDisabledWithoutDates(t *testing.T) {
	t.Parallel()

	q, api, _ := setup(t)

	_, err := q.MyQuestsHistory(context.Background(), time.Time{}, time.Now())
	require.ErrorIs(t, err, querycache.ErrDisabled)
	require.Zero(t, api.count("history"))
}

func TestTierForMonth(t *testing.T) {
	t.Parallel()

	q, api, _ := setup(t)
	ctx := context.Background()

	for range 2 {
		tier, err := q.TierForMonth(ctx, 2026, time.September)
		require.NoError(t, err)
		require.Equal(t, "2026-09", tier.Month)
	}
	require.Equal(t, 1, api.count("tier-month"))
}

func TestMeAndUpdateProfile(t *testing.T) {
	t.Parallel()

	q, _, _ := setup(t)
	ctx := context.Background()

	me, err := q.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ann", me.Name)

	name := "Bea"
	_, err = q.UpdateProfile(ctx, planetsdk.UserUpdateRequest{Name: &name})
	require.NoError(t, err)

	me, err = q.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bea", me.Name)
}

func TestMeUnauthorizedClearsCache(t *testing.T) {
	t.Parallel()

	q, _, session := setup(t)
	ctx := context.Background()

	_, err := q.TodayQuest(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, q.Cache().Len())

	session.refreshErr = &planetsdk.APIError{Kind: planetsdk.KindHTTP, StatusCode: http.StatusUnauthorized}
	_, err = q.Me(ctx)
	require.Error(t, err)
	require.Zero(t, q.Cache().Len())
}

func TestSignOutClearsCache(t *testing.T) {
	t.Parallel()

	q, _, session := setup(t)
	ctx := context.Background()

	_, err := q.TodayQuest(ctx)
	require.NoError(t, err)
	_, err = q.QuestSuggestions(ctx)
	require.NoError(t, err)

	require.NoError(t, q.SignOut(ctx))
	require.True(t, session.signedOut)
	require.Zero(t, q.Cache().Len())
}
