package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/log"
)

func loanRateConfig(l core.Loan) core.RateConfig {
	return core.RateConfig{
		AnnualRate:    l.AnnualRate,
		VATRate:       l.VATRate,
		IncomeTaxRate: l.IncomeTaxRate,
		AdminFee:      l.AdminFee,
		Insurance:     l.Insurance,
		StampTaxRate:  l.StampTaxRate,
	}
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.store.Loans(r.Context())
	if err != nil {
		s.respondStoreError(w, r, err, "error listando préstamos")
		return
	}
	respondJSON(w, http.StatusOK, loans)
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var l core.Loan
	if err := decodeJSON(r, &l); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := l.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateLoan(r.Context(), l)
	if err != nil {
		s.respondStoreError(w, r, err, "error creando préstamo")
		return
	}
	s.logger.InfoContext(r.Context(), "Loan created",
		log.FieldLoanID, created.ID, "name", created.Name)
	s.invalidate(r.Context(), "loan_created", "prestamo", created.ID)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	l, err := s.store.GetLoan(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error obteniendo préstamo")
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	var l core.Loan
	if err := decodeJSON(r, &l); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	l.ID = id
	if err := l.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateLoan(r.Context(), l); err != nil {
		s.respondStoreError(w, r, err, "error actualizando préstamo")
		return
	}
	s.invalidate(r.Context(), "loan_updated", "prestamo", id)
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	if err := s.store.DeleteLoan(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err, "error eliminando préstamo")
		return
	}
	s.invalidate(r.Context(), "loan_deleted", "prestamo", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleLoanBreakdown decomposes the loan's next installment. A settled
// loan returns a message instead.
func (s *Server) handleLoanBreakdown(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	l, err := s.store.GetLoan(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error obteniendo préstamo")
		return
	}

	pending := l.Pending()
	if pending.LessThanOrEqual(core.CentTolerance) {
		respondJSON(w, http.StatusOK, map[string]string{
			"mensaje": "El préstamo no tiene saldo pendiente",
		})
		return
	}

	today := s.now().UTC()
	due, number := core.NextInstallment(l.StartDate.Time, today)

	b := core.InstallmentBreakdown(pending, l.MonthlyInstallment, loanRateConfig(l))
	respondJSON(w, http.StatusOK, struct {
		LoanID            int64           `json:"prestamo_id"`
		Name              string          `json:"nombre"`
		DueDate           core.Date       `json:"fecha_vencimiento"`
		InstallmentNumber int             `json:"numero_cuota"`
		Pending           decimal.Decimal `json:"saldo_pendiente"`
		Breakdown         core.Breakdown  `json:"desglose"`
	}{
		LoanID:            l.ID,
		Name:              l.Name,
		DueDate:           core.DateOf(due),
		InstallmentNumber: number,
		Pending:           pending,
		Breakdown:         b,
	})
}

func (s *Server) handleListLoanPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	if _, err := s.store.GetLoan(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err, "error obteniendo préstamo")
		return
	}
	payments, err := s.store.LoanPayments(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error listando pagos de préstamo")
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

func (s *Server) handleCreateLoanPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	var p core.Payment
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	p.InstrumentID = id
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateLoanPayment(r.Context(), p)
	if err != nil {
		s.respondStoreError(w, r, err, "error registrando pago de préstamo")
		return
	}
	s.logger.InfoContext(r.Context(), "Loan payment registered",
		log.FieldLoanID, id,
		log.FieldAmount, created.Amount)
	s.invalidate(r.Context(), "loan_payment", "prestamo", id)
	respondJSON(w, http.StatusCreated, created)
}
