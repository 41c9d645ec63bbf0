package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pokecounter/pokecounter/pkg/auth"
	"github.com/pokecounter/pokecounter/pkg/tracker"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Action is "signin" (default) or "signup".
	Action string `json:"action,omitempty"`
}

func (s *Server) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, auth.Result{Error: err.Error()})
		return
	}
	us := s.session(r)

	var res auth.Result
	if req.Action == actionSignUp {
		res = s.auth.SignUp(r.Context(), us.auth, req.Email, req.Password)
	} else {
		res = s.auth.SignIn(r.Context(), us.auth, req.Email, req.Password)
	}
	if res.Error != "" {
		writeJSON(w, http.StatusUnauthorized, res)
		return
	}
	us.dropList()
	s.remember(w, us)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAPILogout(w http.ResponseWriter, r *http.Request) {
	us, ok := s.lookup(r)
	if !ok {
		writeJSON(w, http.StatusOK, auth.Result{Success: true})
		return
	}
	res := s.auth.SignOut(r.Context(), us.auth)
	if res.Error != "" {
		writeJSON(w, http.StatusBadGateway, res)
		return
	}
	us.dropList()
	s.forget(w, us)
	writeJSON(w, http.StatusOK, res)
}

type HuntsResponse struct {
	Hunts []tracker.Item `json:"hunts"`
}

// loadedList returns the session's list, loading it first if it never was.
func (s *Server) loadedList(ctx context.Context, us *userSession) (*tracker.List, error) {
	list := s.listFor(us)
	if !list.Loaded() {
		if err := list.Load(ctx); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request, us *userSession) {
	list := s.listFor(us)
	if err := list.Load(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "could not load hunts"})
		return
	}
	writeJSON(w, http.StatusOK, HuntsResponse{Hunts: list.Items()})
}

type CreateRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAPICreate(w http.ResponseWriter, r *http.Request, us *userSession) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	list, err := s.loadedList(r.Context(), us)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "could not load hunts"})
		return
	}
	created, err := list.Create(r.Context(), req.Name)
	if err != nil {
		s.writeListError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, HuntsResponse{Hunts: created})
}

// PatchRequest changes one field. A non-zero Delta adjusts the count by
// one; otherwise Column and Value name the field and its new value.
type PatchRequest struct {
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
	Delta  int    `json:"delta,omitempty"`
}

var errClosed = errors.New("hunt is closed")

func (s *Server) handleAPIPatch(w http.ResponseWriter, r *http.Request, us *userSession) {
	var req PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	list, err := s.loadedList(r.Context(), us)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "could not load hunts"})
		return
	}
	id := r.PathValue("id")
	it, ok := list.Get(id)
	if !ok {
		s.writeListError(w, tracker.ErrNotFound)
		return
	}

	var updated tracker.Item
	if req.Delta != 0 {
		if !it.Editable() {
			s.writeListError(w, errClosed)
			return
		}
		updated, err = list.Adjust(r.Context(), id, req.Delta)
	} else {
		m, perr := tracker.ParseMutation(req.Column, req.Value)
		if perr != nil {
			s.writeListError(w, perr)
			return
		}
		if m.Column() != tracker.ColumnStatus && !it.Editable() {
			s.writeListError(w, errClosed)
			return
		}
		updated, err = list.Apply(r.Context(), id, m)
	}
	if err != nil {
		s.writeListError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request, us *userSession) {
	if r.URL.Query().Get("confirm") != "true" {
		writeJSON(w, http.StatusConflict, errorBody{Error: tracker.ErrNotConfirmed.Error() + ": add ?confirm=true"})
		return
	}
	list, err := s.loadedList(r.Context(), us)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "could not load hunts"})
		return
	}
	id := r.PathValue("id")
	if err := list.MarkDelete(id); err != nil {
		s.writeListError(w, err)
		return
	}
	if err := list.Delete(r.Context(), id); err != nil {
		s.writeListError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeListError(w http.ResponseWriter, err error) {
	switch {
	case tracker.IsValidation(err), errors.Is(err, tracker.ErrInvalidDelta):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, tracker.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, errClosed), errors.Is(err, tracker.ErrNotConfirmed):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		// Already logged by the list.
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "remote store error"})
	}
}

type NameResponse struct {
	Name    string `json:"name"`
	English string `json:"english"`
	German  string `json:"german"`
	Sprite  string `json:"sprite,omitempty"`
}

func (s *Server) handleAPIName(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	e, ok := s.names.Lookup(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown Pokémon"})
		return
	}
	resp := NameResponse{Name: name, English: e.English, German: e.German}
	if s.sprites != nil {
		resp.Sprite, _ = s.sprites.Lookup(r.Context(), e.English)
	}
	writeJSON(w, http.StatusOK, resp)
}
