package http

import (
	"net/http"

	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/log"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func listBounds(r *http.Request) (limit, offset int) {
	limit = queryInt(r, "limite", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset = queryInt(r, "desde", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	limit, offset := listBounds(r)
	incomes, err := s.store.ListIncomes(r.Context(), limit, offset)
	if err != nil {
		s.respondStoreError(w, r, err, "error listando ingresos")
		return
	}
	respondJSON(w, http.StatusOK, incomes)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.Income
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateIncome(r.Context(), in)
	if err != nil {
		s.respondStoreError(w, r, err, "error creando ingreso")
		return
	}
	s.logger.InfoContext(r.Context(), "Income created",
		log.FieldEntityID, created.ID,
		log.FieldAmount, created.Amount,
		log.FieldCurrency, created.Currency)
	s.invalidate(r.Context(), "income_created", "", 0)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	in, err := s.store.GetIncome(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error obteniendo ingreso")
		return
	}
	respondJSON(w, http.StatusOK, in)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	var in core.Income
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	in.ID = id
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateIncome(r.Context(), in); err != nil {
		s.respondStoreError(w, r, err, "error actualizando ingreso")
		return
	}
	s.invalidate(r.Context(), "income_updated", "", 0)
	respondJSON(w, http.StatusOK, in)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	if err := s.store.DeleteIncome(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err, "error eliminando ingreso")
		return
	}
	s.invalidate(r.Context(), "income_deleted", "", 0)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	limit, offset := listBounds(r)
	expenses, err := s.store.ListExpenses(r.Context(), limit, offset)
	if err != nil {
		s.respondStoreError(w, r, err, "error listando gastos")
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeJSON(r, &e); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := e.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateExpense(r.Context(), e)
	if err != nil {
		s.respondStoreError(w, r, err, "error creando gasto")
		return
	}
	s.logger.InfoContext(r.Context(), "Expense created",
		log.FieldEntityID, created.ID,
		log.FieldAmount, created.Amount,
		log.FieldCurrency, created.Currency,
		"kind", created.Kind)
	s.invalidate(r.Context(), "expense_created", "", 0)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	e, err := s.store.GetExpense(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error obteniendo gasto")
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	var e core.Expense
	if err := decodeJSON(r, &e); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	e.ID = id
	if err := e.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateExpense(r.Context(), e); err != nil {
		s.respondStoreError(w, r, err, "error actualizando gasto")
		return
	}
	s.invalidate(r.Context(), "expense_updated", "", 0)
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	if err := s.store.DeleteExpense(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err, "error eliminando gasto")
		return
	}
	s.invalidate(r.Context(), "expense_deleted", "", 0)
	w.WriteHeader(http.StatusNoContent)
}
