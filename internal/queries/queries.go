// Package queries exposes the Planet API through the query cache, pairing
// each read with its cache key and each write with the cache updates it
// implies.
package queries

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aussiebroadwan/planet/internal/querycache"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

// API is the part of *planetsdk.Client the queries use.
type API interface {
	TodayQuest(ctx context.Context) (*planetsdk.Quest, error)
	QuestSuggestions(ctx context.Context) ([]planetsdk.QuestSuggestion, error)
	GenerateQuestSuggestions(ctx context.Context) ([]planetsdk.QuestSuggestion, error)
	ApproveQuestSuggestion(ctx context.Context, uuid string) (*planetsdk.Quest, error)
	CompleteQuest(ctx context.Context, questID int64, evidence *planetsdk.Evidence) (*planetsdk.Quest, error)
	MyQuests(ctx context.Context, start, end time.Time) ([]planetsdk.Quest, error)
	CurrentTier(ctx context.Context) (*planetsdk.Tier, error)
	TierForMonth(ctx context.Context, year int, month time.Month) (*planetsdk.Tier, error)
}

// Session is the part of *planetsdk.Session the queries use.
type Session interface {
	Refresh(ctx context.Context) (*planetsdk.User, error)
	UpdateProfile(ctx context.Context, req planetsdk.UserUpdateRequest) (*planetsdk.User, error)
	SignOut(ctx context.Context) error
}

// Stale times per query.
const (
	TodayQuestStaleTime  = 5 * time.Minute
	SuggestionsStaleTime = 30 * time.Minute
	TierStaleTime        = 5 * time.Minute
	TierRetry            = 2
)

type Queries struct {
	api     API
	session Session
	cache   *querycache.Cache
}

func New(api API, session Session, cache *querycache.Cache) *Queries {
	return &Queries{api: api, session: session, cache: cache}
}

// Cache returns the underlying cache.
func (q *Queries) Cache() *querycache.Cache { return q.cache }

// TodayQuest returns today's quest, or nil when none has been approved.
func (q *Queries) TodayQuest(ctx context.Context) (*planetsdk.Quest, error) {
	return querycache.Fetch(ctx, q.cache, KeyTodayQuest, q.api.TodayQuest,
		querycache.WithStaleTime(TodayQuestStaleTime))
}

func (q *Queries) QuestSuggestions(ctx context.Context) ([]planetsdk.QuestSuggestion, error) {
	return querycache.Fetch(ctx, q.cache, KeyQuestSuggestions, q.api.QuestSuggestions,
		querycache.WithStaleTime(SuggestionsStaleTime))
}

// MyQuestsHistory lists quests between start and end. It is disabled, and
// returns querycache.ErrDisabled, until both dates are set.
func (q *Queries) MyQuestsHistory(ctx context.Context, start, end time.Time) ([]planetsdk.Quest, error) {
	fetch := func(ctx context.Context) ([]planetsdk.Quest, error) {
		return q.api.MyQuests(ctx, start, end)
	}
	return querycache.Fetch(ctx, q.cache, HistoryKey(start, end), fetch,
		querycache.Enabled(!start.IsZero() && !end.IsZero()))
}

func (q *Queries) CurrentTier(ctx context.Context) (*planetsdk.Tier, error) {
	return querycache.Fetch(ctx, q.cache, KeyCurrentTier, q.api.CurrentTier,
		querycache.WithStaleTime(TierStaleTime), querycache.WithRetry(TierRetry))
}

func (q *Queries) TierForMonth(ctx context.Context, year int, month time.Month) (*planetsdk.Tier, error) {
	fetch := func(ctx context.Context) (*planetsdk.Tier, error) {
		return q.api.TierForMonth(ctx, year, month)
	}
	return querycache.Fetch(ctx, q.cache, TierMonthKey(year, month), fetch,
		querycache.WithStaleTime(TierStaleTime), querycache.WithRetry(TierRetry))
}

// Me returns the signed-in user from the server. A rejected token signs the
// session out and empties the cache.
func (q *Queries) Me(ctx context.Context) (*planetsdk.User, error) {
	user, err := querycache.Fetch(ctx, q.cache, KeyMe, q.session.Refresh)
	if planetsdk.IsStatus(err, http.StatusUnauthorized) {
		q.cache.Clear()
	}
	return user, err
}

// GenerateQuestSuggestions replaces the cached suggestions with a new set.
func (q *Queries) GenerateQuestSuggestions(ctx context.Context) ([]planetsdk.QuestSuggestion, error) {
	return querycache.Mutate(ctx, q.cache, "generate suggestions", q.api.GenerateQuestSuggestions,
		func(c *querycache.Cache, s []planetsdk.QuestSuggestion) {
			c.SetQueryData(KeyQuestSuggestions, s)
		})
}

// ApproveQuestSuggestion makes the suggestion today's quest.
func (q *Queries) ApproveQuestSuggestion(ctx context.Context, uuid string) (*planetsdk.Quest, error) {
	approve := func(ctx context.Context) (*planetsdk.Quest, error) {
		return q.api.ApproveQuestSuggestion(ctx, uuid)
	}
	return querycache.Mutate(ctx, q.cache, "approve suggestion", approve,
		func(c *querycache.Cache, quest *planetsdk.Quest) {
			c.SetQueryData(KeyTodayQuest, quest)
			c.InvalidateQueries(KeyQuestSuggestions)
		})
}

// CompleteQuest completes a quest with optional evidence. The evidence is
// read once so that a retried upload sends the same bytes.
func (q *Queries) CompleteQuest(ctx context.Context, questID int64, evidence *planetsdk.Evidence) (*planetsdk.Quest, error) {
	var (
		data     []byte
		fileName string
	)
	if evidence != nil {
		if evidence.Content == nil {
			return nil, fmt.Errorf("%w: no content", planetsdk.ErrEvidence)
		}
		var err error
		if data, err = io.ReadAll(evidence.Content); err != nil {
			return nil, fmt.Errorf("%w: %w", planetsdk.ErrEvidence, err)
		}
		fileName = evidence.FileName
	}

	complete := func(ctx context.Context) (*planetsdk.Quest, error) {
		var ev *planetsdk.Evidence
		if evidence != nil {
			ev = &planetsdk.Evidence{FileName: fileName, Content: bytes.NewReader(data)}
		}
		return q.api.CompleteQuest(ctx, questID, ev)
	}

	return querycache.Mutate(ctx, q.cache, "complete quest", complete,
		func(c *querycache.Cache, quest *planetsdk.Quest) {
			c.SetQueryData(KeyTodayQuest, quest)
			c.InvalidateQueries(KeyQuestHistory)
			c.InvalidateQueries(KeyTier) // completion awards experience
		})
}

// UpdateProfile patches the signed-in user and caches the result.
func (q *Queries) UpdateProfile(ctx context.Context, req planetsdk.UserUpdateRequest) (*planetsdk.User, error) {
	update := func(ctx context.Context) (*planetsdk.User, error) {
		return q.session.UpdateProfile(ctx, req)
	}
	return querycache.Mutate(ctx, q.cache, "update profile", update,
		func(c *querycache.Cache, u *planetsdk.User) {
			c.SetQueryData(KeyMe, u)
		})
}

// SignOut ends the session and drops every cached query.
func (q *Queries) SignOut(ctx context.Context) error {
	defer q.cache.Clear()
	return q.session.SignOut(ctx)
}
