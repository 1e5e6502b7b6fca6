package planetfake

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/planet/pkg/httpx"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
	"github.com/aussiebroadwan/planet/pkg/slogx"
)

// maxEvidenceBytes bounds an evidence upload.
const maxEvidenceBytes = 10 << 20

func (s *Server) handleTodayQuest(w http.ResponseWriter, r *http.Request) {
	quest, ok := s.state.todayQuest(subject(r))
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "no quest approved today")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, quest)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, s.state.todaySuggestions(subject(r)))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	batch, err := s.state.generate(subject(r))
	if err != nil {
		writeStateError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, batch)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("uuid")
	if _, err := uuid.Parse(id); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid suggestion id")
		return
	}

	quest, err := s.state.approve(subject(r), id)
	if err != nil {
		writeStateError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, quest)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid quest id")
		return
	}

	evidence, err := readEvidence(w, r)
	if err != nil {
		log.Warn("evidence rejected", "quest_id", id, "err", err)
		writeStateError(w, r, errEvidenceUnreadable)
		return
	}

	quest, err := s.state.complete(subject(r), id, evidence)
	if err != nil {
		writeStateError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, quest)
}

// readEvidence reads the optional "evidenceImage" part. A request that is not
// multipart, or has no such part, carries no evidence.
func readEvidence(w http.ResponseWriter, r *http.Request) (*planetsdk.EvidenceImage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEvidenceBytes)

	if err := r.ParseMultipartForm(maxEvidenceBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	f, hdr, err := r.FormFile("evidenceImage")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := io.Copy(io.Discard, f)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.New("empty evidence image")
	}

	return &planetsdk.EvidenceImage{
		ID:       uuid.NewString(),
		FileName: hdr.Filename,
		Size:     n,
	}, nil
}

func (s *Server) handleMyQuests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("startDate") == "" || q.Get("endDate") == "" {
		writeStateError(w, r, errMissingDateArgument)
		return
	}

	start, err := time.ParseInLocation(planetsdk.DateLayout, q.Get("startDate"), s.cfg.Location)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	end, err := time.ParseInLocation(planetsdk.DateLayout, q.Get("endDate"), s.cfg.Location)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
		return
	}
	if start.After(end) {
		writeStateError(w, r, errDateRangeReversed)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, s.state.questsBetween(subject(r), start, end))
}
