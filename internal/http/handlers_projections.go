package http

import (
	"errors"
	"net/http"

	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/projection"
)

// horizonFrom reads ?meses=N, accepting only the supported horizons.
func (s *Server) horizonFrom(r *http.Request) (int, error) {
	months := queryInt(r, "meses", projection.DefaultHorizon)
	if err := projection.ValidateHorizon(months); err != nil {
		return 0, err
	}
	return months, nil
}

func (s *Server) handleListProjections(w http.ResponseWriter, r *http.Request) {
	includePaid := r.URL.Query().Get("incluir_pagadas") == "true"
	rows, err := s.store.Projections(r.Context(), includePaid)
	if err != nil {
		s.respondStoreError(w, r, err, "error listando proyecciones")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCreateProjection(w http.ResponseWriter, r *http.Request) {
	var p core.Projection
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if p.Kind == "" {
		p.Kind = "otro"
	}
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateProjection(r.Context(), p)
	if err != nil {
		s.respondStoreError(w, r, err, "error creando proyección")
		return
	}
	s.invalidate(r.Context(), "projection_created", "", 0)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteProjection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	if err := s.store.DeleteProjection(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err, "error eliminando proyección")
		return
	}
	s.invalidate(r.Context(), "projection_deleted", "", 0)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkProjectionPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	var body struct {
		Paid bool `json:"pagado"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	if err := s.store.MarkProjectionPaid(r.Context(), id, body.Paid); err != nil {
		s.respondStoreError(w, r, err, "error actualizando proyección")
		return
	}
	s.invalidate(r.Context(), "projection_paid", "", 0)
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "pagado": body.Paid})
}

// handleCardProjections computes the card forecast over ?meses=N cycles,
// grouped into monthly buckets.
func (s *Server) handleCardProjections(w http.ResponseWriter, r *http.Request) {
	months, err := s.horizonFrom(r)
	if err != nil {
		if errors.Is(err, projection.ErrInvalidHorizon) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "parámetro meses inválido")
		return
	}

	s.cachedJSON(w, r, func() (any, int, error) {
		cards, err := s.store.CreditCards(r.Context())
		if err != nil {
			return nil, 0, err
		}
		today := s.now().UTC()
		entries := projection.CardEntries(cards, today, months)
		return projection.Group(entries), http.StatusOK, nil
	})
}

// handleLoanProjections computes the loan amortization forecast over
// ?meses=N months, grouped into monthly buckets.
func (s *Server) handleLoanProjections(w http.ResponseWriter, r *http.Request) {
	months, err := s.horizonFrom(r)
	if err != nil {
		if errors.Is(err, projection.ErrInvalidHorizon) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "parámetro meses inválido")
		return
	}

	s.cachedJSON(w, r, func() (any, int, error) {
		loans, err := s.store.Loans(r.Context())
		if err != nil {
			return nil, 0, err
		}
		today := s.now().UTC()
		entries := projection.LoanEntries(loans, today, months)
		return projection.Group(entries), http.StatusOK, nil
	})
}
