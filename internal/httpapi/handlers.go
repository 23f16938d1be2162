package httpapi

import (
	"net/http"
	"strconv"

	"traktflix/internal/app"
	"traktflix/internal/reconcile"
	"traktflix/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	Activities []app.ActivityView `json:"activities"`
}

type stateResponse struct {
	LocalID     string          `json:"local_id"`
	State       reconcile.State `json:"state"`
	FormVisible bool            `json:"form_visible"`
	HasError    bool            `json:"has_error"`
	Busy        bool            `json:"busy"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

type refreshResponse struct {
	Attached int `json:"attached"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{UnmatchedOnly: r.URL.Query().Get("unmatched") == "true"}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		filter.Limit = n
	}
	views, err := s.backend.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if views == nil {
		views = []app.ActivityView{}
	}
	s.writeJSON(w, http.StatusOK, listResponse{Activities: views})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := s.backend.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleOpenCorrection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := s.backend.OpenCorrection(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateResponse(id, state))
}

func (s *Server) handleHideCorrection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := s.backend.HideCorrection(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateResponse(id, state))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.backend.Submit(r.Context(), r.PathValue("id"), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.backend.AcceptSuggestion(r.Context(), r.PathValue("id"), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.backend.Toggle(r.Context(), r.PathValue("id"), req.Enabled)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	n, err := s.backend.RefreshSuggestions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, refreshResponse{Attached: n})
}

func newStateResponse(id string, st reconcile.State) stateResponse {
	return stateResponse{
		LocalID:     id,
		State:       st,
		FormVisible: st.FormVisible(),
		HasError:    st.HasError(),
		Busy:        st.Busy(),
	}
}
