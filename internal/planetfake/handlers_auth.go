package planetfake

import (
	"net/http"

	"github.com/aussiebroadwan/planet/pkg/httpx"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
	"github.com/aussiebroadwan/planet/pkg/slogx"
)

// subject returns the authenticated email. BearerAuth guarantees it is set.
func subject(r *http.Request) string {
	sub, _ := httpx.SubjectFromContext(r.Context())
	return sub
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req planetsdk.SignUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeStateError(w, r, err)
		return
	}

	user, err := s.state.createUser(req, hash)
	if err != nil {
		writeStateError(w, r, err)
		return
	}

	log.Info("user registered", "email", user.Email)
	httpx.WriteJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req planetsdk.SignInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, hash, ok := s.state.credentials(req.Email)
	if !ok {
		writeStateError(w, r, errInvalidCredentials)
		return
	}
	if err := verifyPassword(req.Password, hash); err != nil {
		log.Warn("login failed", "email", req.Email, "err", err)
		writeStateError(w, r, errInvalidCredentials)
		return
	}

	token, exp, err := s.tokens.Issue(user.Email, string(user.Role))
	if err != nil {
		writeStateError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, planetsdk.SignInResponse{
		AccessToken:          token,
		AccessTokenExpiresAt: planetsdk.Timestamp{Time: exp},
		User:                 user,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.state.user(subject(r))
	if err != nil {
		writeStateError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	email := subject(r)
	if r.PathValue("email") != email {
		writeStateError(w, r, errForbiddenOtherUser)
		return
	}

	var req planetsdk.UserUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var newHash []byte
	if req.Password != nil {
		var err error
		if newHash, err = hashPassword(*req.Password); err != nil {
			writeStateError(w, r, err)
			return
		}
	}

	user, err := s.state.updateUser(email, req, newHash)
	if err != nil {
		writeStateError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}
