package planetsdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the format of the startDate/endDate query parameters.
const DateLayout = time.DateOnly

// DefaultEvidenceFileName is the file name evidence uploads carry.
const DefaultEvidenceFileName = "evidence.jpg"

// Evidence is the photo submitted when completing a quest.
type Evidence struct {
	FileName string
	Content  io.Reader
}

// OpenEvidence reads the image at path into memory. Failures wrap ErrEvidence.
func OpenEvidence(path string) (*Evidence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvidence, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrEvidence, path)
	}

	name := DefaultEvidenceFileName
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "", ".jpg", ".jpeg":
	default:
		name = "evidence" + ext
	}

	return &Evidence{FileName: name, Content: bytes.NewReader(data)}, nil
}

// TodayQuest returns today's approved quest. A 404 or 400 means there is no
// quest yet and is reported as nil, nil.
func (c *Client) TodayQuest(ctx context.Context) (*Quest, error) {
	var quest Quest
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/quest/today",
		auth:   true,
	}, &quest)
	if IsStatus(err, http.StatusNotFound, http.StatusBadRequest) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

// QuestSuggestions returns the suggestions generated earlier today.
func (c *Client) QuestSuggestions(ctx context.Context) ([]QuestSuggestion, error) {
	var suggestions []QuestSuggestion
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/quest/suggestions",
		auth:   true,
	}, &suggestions)
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

// GenerateQuestSuggestions asks the server for a fresh set of suggestions.
func (c *Client) GenerateQuestSuggestions(ctx context.Context) ([]QuestSuggestion, error) {
	var suggestions []QuestSuggestion
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/quest/suggestions/generate",
		auth:   true,
	}, &suggestions)
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

// ApproveQuestSuggestion turns a suggestion into today's quest.
func (c *Client) ApproveQuestSuggestion(ctx context.Context, uuid string) (*Quest, error) {
	var quest Quest
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/quest/suggestions/" + url.PathEscape(uuid) + "/approve",
		auth:   true,
	}, &quest)
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

// CompleteQuest marks a quest complete, uploading evidence as multipart
// field "evidenceImage" when given.
func (c *Client) CompleteQuest(ctx context.Context, questID int64, evidence *Evidence) (*Quest, error) {
	form := &multipartForm{}
	if evidence != nil {
		if evidence.Content == nil {
			return nil, fmt.Errorf("%w: no content", ErrEvidence)
		}
		name := evidence.FileName
		if name == "" {
			name = DefaultEvidenceFileName
		}
		form.files = append(form.files, formFile{
			field:    "evidenceImage",
			fileName: name,
			content:  evidence.Content,
		})
	}

	var quest Quest
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   fmt.Sprintf("/quest/%d/complete", questID),
		form:   form,
		auth:   true,
	}, &quest)
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

// MyQuests lists the caller's quests created between start and end, inclusive.
func (c *Client) MyQuests(ctx context.Context, start, end time.Time) ([]Quest, error) {
	var quests []Quest
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/quest/my",
		query: url.Values{
			"startDate": {start.Format(DateLayout)},
			"endDate":   {end.Format(DateLayout)},
		},
		auth: true,
	}, &quests)
	if err != nil {
		return nil, err
	}
	return quests, nil
}
