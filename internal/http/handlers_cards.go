package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/log"
)

func cardRateConfig(c core.CreditCard) core.RateConfig {
	return core.RateConfig{
		MonthlyRate:   c.MonthlyRate,
		AnnualRate:    c.AnnualRate,
		VATRate:       c.VATRate,
		IncomeTaxRate: c.IncomeTaxRate,
		AdminFee:      c.AdminFee,
		StampTaxRate:  c.StampTaxRate,
		Maintenance:   c.Maintenance,
	}
}

// cardView decorates a card with its partial-payment status for listings.
type cardView struct {
	core.CreditCard
	HasPartialPayments  bool `json:"tiene_pagos_parciales"`
	PartialPaymentCount int  `json:"cantidad_pagos_parciales"`
}

// reconcileCard replays the card's payments against the reconstructed
// opening balance. The stored balance is already net of payments, so the
// opening is the balance plus everything paid.
func reconcileCard(c core.CreditCard, payments []core.Payment) ([]core.PaymentRecord, decimal.Decimal) {
	opening := c.Balance
	for _, p := range payments {
		opening = opening.Add(p.Amount)
	}
	return core.Reconcile(opening, payments)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.CreditCards(r.Context())
	if err != nil {
		s.respondStoreError(w, r, err, "error listando tarjetas")
		return
	}

	views := make([]cardView, 0, len(cards))
	for _, c := range cards {
		payments, err := s.store.CardPayments(r.Context(), c.ID)
		if err != nil {
			s.respondStoreError(w, r, err, "error listando pagos de tarjeta")
			return
		}
		records, _ := reconcileCard(c, payments)
		partials := core.PartialCount(records)
		views = append(views, cardView{
			CreditCard:          c,
			HasPartialPayments:  partials > 0,
			PartialPaymentCount: partials,
		})
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var c core.CreditCard
	if err := decodeJSON(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateCard(r.Context(), c)
	if err != nil {
		s.respondStoreError(w, r, err, "error creando tarjeta")
		return
	}
	s.logger.InfoContext(r.Context(), "Card created",
		log.FieldCardID, created.ID, "name", created.Name)
	s.invalidate(r.Context(), "card_created", "tarjeta", created.ID)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	c, err := s.store.GetCard(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error obteniendo tarjeta")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	var c core.CreditCard
	if err := decodeJSON(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	c.ID = id
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateCard(r.Context(), c); err != nil {
		s.respondStoreError(w, r, err, "error actualizando tarjeta")
		return
	}
	s.invalidate(r.Context(), "card_updated", "tarjeta", id)
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	if err := s.store.DeleteCard(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err, "error eliminando tarjeta")
		return
	}
	s.invalidate(r.Context(), "card_deleted", "tarjeta", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleCardDetails returns the card with its payment history annotated
// by the reconciliation: running balances and partial flags.
func (s *Server) handleCardDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	c, err := s.store.GetCard(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error obteniendo tarjeta")
		return
	}
	payments, err := s.store.CardPayments(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error listando pagos de tarjeta")
		return
	}

	records, final := reconcileCard(c, payments)
	respondJSON(w, http.StatusOK, struct {
		Card                core.CreditCard      `json:"tarjeta"`
		Balance             decimal.Decimal      `json:"saldo_actual"`
		Payments            []core.PaymentRecord `json:"pagos"`
		PartialPaymentCount int                  `json:"cantidad_pagos_parciales"`
	}{
		Card:                c,
		Balance:             final,
		Payments:            records,
		PartialPaymentCount: core.PartialCount(records),
	})
}

// handleCardBreakdown decomposes the card's next statement into capital
// and charges. A card with nothing owing returns a message instead.
func (s *Server) handleCardBreakdown(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	c, err := s.store.GetCard(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error obteniendo tarjeta")
		return
	}

	if c.Balance.LessThanOrEqual(core.CentTolerance) {
		respondJSON(w, http.StatusOK, map[string]string{
			"mensaje": "La tarjeta no tiene saldo pendiente",
		})
		return
	}

	today := s.now().UTC()
	closing := core.NextClosing(today, c.ClosingDay)
	due := core.DueDateFor(closing, c.ClosingDay, c.DueDay)

	b := core.RevolvingBreakdown(c.Balance, cardRateConfig(c))
	respondJSON(w, http.StatusOK, struct {
		CardID      int64          `json:"tarjeta_id"`
		Name        string         `json:"nombre"`
		ClosingDate core.Date      `json:"fecha_cierre"`
		DueDate     core.Date      `json:"fecha_vencimiento"`
		Breakdown   core.Breakdown `json:"desglose"`
	}{
		CardID:      c.ID,
		Name:        c.Name,
		ClosingDate: core.DateOf(closing),
		DueDate:     core.DateOf(due),
		Breakdown:   b,
	})
}

func (s *Server) handleListCardPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	if _, err := s.store.GetCard(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err, "error obteniendo tarjeta")
		return
	}
	payments, err := s.store.CardPayments(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error listando pagos de tarjeta")
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

func (s *Server) handleCreateCardPayment(w http.ResponseWriter, r *http.Request) {
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

	created, err := s.store.CreateCardPayment(r.Context(), p)
	if err != nil {
		s.respondStoreError(w, r, err, "error registrando pago de tarjeta")
		return
	}
	s.logger.InfoContext(r.Context(), "Card payment registered",
		log.FieldCardID, id,
		log.FieldAmount, created.Amount)
	s.invalidate(r.Context(), "card_payment", "tarjeta", id)
	respondJSON(w, http.StatusCreated, created)
}

// handleCardPeriodExpenses returns the expenses dated inside the card's
// current statement cycle.
func (s *Server) handleCardPeriodExpenses(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}
	c, err := s.store.GetCard(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err, "error obteniendo tarjeta")
		return
	}

	today := s.now().UTC()
	closing := core.NextClosing(today, c.ClosingDay)
	start, end := core.CycleFor(closing, c.ClosingDay)

	expenses, err := s.store.ExpensesBetween(r.Context(), start, end)
	if err != nil {
		s.respondStoreError(w, r, err, "error listando gastos del período")
		return
	}

	totals := make(map[core.Currency]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Currency] = totals[e.Currency].Add(e.Amount)
	}
	respondJSON(w, http.StatusOK, struct {
		CardID   int64                             `json:"tarjeta_id"`
		Start    core.Date                         `json:"fecha_inicio"`
		End      core.Date                         `json:"fecha_cierre"`
		Totals   map[core.Currency]decimal.Decimal `json:"totales"`
		Expenses []core.Expense                    `json:"gastos"`
	}{
		CardID:   c.ID,
		Start:    core.DateOf(start),
		End:      core.DateOf(end),
		Totals:   totals,
		Expenses: expenses,
	})
}
