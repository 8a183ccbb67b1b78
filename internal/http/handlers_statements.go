package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/log"
	"github.com/Ferchu2021/Finanzas/internal/statement"
)

const maxStatementBytes = 10 << 20

// statementFromRequest reads the uploaded PDF from the "archivo" form
// field and extracts the settlement figures.
func (s *Server) statementFromRequest(w http.ResponseWriter, r *http.Request) (*statement.Result, bool) {
	if err := r.ParseMultipartForm(maxStatementBytes); err != nil {
		respondError(w, http.StatusBadRequest, "formulario multipart inválido")
		return nil, false
	}
	file, _, err := r.FormFile("archivo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "falta el archivo PDF (campo 'archivo')")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxStatementBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "no se pudo leer el archivo")
		return nil, false
	}

	res, err := statement.ExtractPDF(data)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Statement extraction failed",
			log.FieldError, err,
			log.FieldOperation, log.OpParse)
		respondError(w, http.StatusUnprocessableEntity, "no se pudo procesar la liquidación")
		return nil, false
	}
	return res, true
}

// handleStatementPreview extracts the settlement without persisting
// anything.
func (s *Server) handleStatementPreview(w http.ResponseWriter, r *http.Request) {
	res, ok := s.statementFromRequest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleStatementProcess extracts the settlement and stores its total as
// an upcoming payment projection. When the form carries a tarjeta_id the
// projection is linked to that card.
func (s *Server) handleStatementProcess(w http.ResponseWriter, r *http.Request) {
	res, ok := s.statementFromRequest(w, r)
	if !ok {
		return
	}

	if res.Total.Sign() <= 0 || res.DueDate == nil {
		respondError(w, http.StatusUnprocessableEntity,
			"la liquidación no contiene total o fecha de vencimiento")
		return
	}

	proj := core.Projection{
		Kind:        "otro",
		DueDate:     *res.DueDate,
		Amount:      res.Total,
		Currency:    core.ARS,
		Description: statementDescription(res),
	}
	if v := r.FormValue("tarjeta_id"); v != "" {
		cardID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || cardID < 1 {
			respondError(w, http.StatusBadRequest, "tarjeta_id inválido")
			return
		}
		card, err := s.store.GetCard(r.Context(), cardID)
		if err != nil {
			s.respondStoreError(w, r, err, "error obteniendo tarjeta")
			return
		}
		proj.EntityID = card.ID
		proj.Currency = card.Currency
	}

	created, err := s.store.CreateProjection(r.Context(), proj)
	if err != nil {
		s.respondStoreError(w, r, err, "error guardando proyección de liquidación")
		return
	}
	s.logger.InfoContext(r.Context(), "Statement processed",
		log.FieldEntityID, created.ID,
		log.FieldAmount, created.Amount,
		"bank", res.Bank)
	s.invalidate(r.Context(), "statement_processed", "", 0)

	respondJSON(w, http.StatusCreated, struct {
		Statement  *statement.Result `json:"liquidacion"`
		Projection core.Projection   `json:"proyeccion"`
	}{Statement: res, Projection: created})
}

func statementDescription(res *statement.Result) string {
	desc := "Liquidación"
	if res.Bank != "" {
		desc += " " + res.Bank
	}
	if res.CardNumber != "" {
		desc += " " + res.CardNumber
	}
	return desc
}
