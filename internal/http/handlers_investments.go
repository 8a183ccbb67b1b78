package http

import (
	"net/http"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := s.store.Investments(r.Context())
	if err != nil {
		s.respondStoreError(w, r, err, "error listando inversiones")
		return
	}
	respondJSON(w, http.StatusOK, investments)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var v core.Investment
	if err := decodeJSON(r, &v); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := v.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateInvestment(r.Context(), v)
	if err != nil {
		s.respondStoreError(w, r, err, "error creando inversión")
		return
	}
	s.invalidate(r.Context(), "investment_created", "", 0)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	v, err := s.store.GetInvestment(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error obteniendo inversión")
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	var v core.Investment
	if err := decodeJSON(r, &v); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	v.ID = id
	if err := v.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateInvestment(r.Context(), v); err != nil {
		s.respondStoreError(w, r, err, "error actualizando inversión")
		return
	}
	s.invalidate(r.Context(), "investment_updated", "", 0)
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	if err := s.store.DeleteInvestment(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err, "error eliminando inversión")
		return
	}
	s.invalidate(r.Context(), "investment_deleted", "", 0)
	w.WriteHeader(http.StatusNoContent)
}
