package api

import (
	"net/http"
	"strconv"

	"github.com/kathyli05/kathboard/internal/models"
)

var success = map[string]bool{"success": true}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.WithError(err).Warn("health check failed")
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// --- Friends ---

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	includeHidden, _ := strconv.ParseBool(q.Get("include_hidden"))

	friends, err := s.store.ListFriends(r.Context(), models.FriendFilter{
		Query:         q.Get("q"),
		IncludeHidden: includeHidden,
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

func (s *Server) handleCreateFriend(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !decodeBody(w, r, &body) {
		return
	}
	name, _ := body["name"].(string)

	id, err := s.store.CreateFriend(r.Context(), name, body)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetFriend(w http.ResponseWriter, r *http.Request) {
	friend, err := s.store.GetFriend(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, friend)
}

func (s *Server) handleUpdateFriend(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.store.UpdateFriend(r.Context(), r.PathValue("id"), body); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

func (s *Server) handleDeleteFriend(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteFriend(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Attributes ---

type setAttributeRequest struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

func (s *Server) handleListAttributes(w http.ResponseWriter, r *http.Request) {
	attrs, err := s.store.GetAttributes(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attrs)
}

func (s *Server) handleSetAttribute(w http.ResponseWriter, r *http.Request) {
	var req setAttributeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := s.store.SetAttribute(r.Context(), r.PathValue("id"), req.Key, req.Value); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

func (s *Server) handleDeleteAttribute(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAttribute(r.Context(), r.PathValue("id"), r.PathValue("key")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttributeKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.ListAttributeKeys(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// --- Notes ---

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListNotes(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var in models.NoteInput
	if !decodeBody(w, r, &in) {
		return
	}
	id, err := s.store.CreateNote(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var u models.NoteUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	if err := s.store.UpdateNote(r.Context(), r.PathValue("id"), u); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteNote(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
