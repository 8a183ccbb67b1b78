package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Ferchu2021/Finanzas/internal/reports"
)

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r, s.now().UTC())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.cachedJSON(w, r, func() (any, int, error) {
		summary, err := s.reports.MonthlySummary(r.Context(), year, month)
		if err != nil {
			return nil, 0, err
		}
		return summary, http.StatusOK, nil
	})
}

func (s *Server) handleMonthlyOutflows(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r, s.now().UTC())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.cachedJSON(w, r, func() (any, int, error) {
		outflows, err := s.reports.MonthlyOutflows(r.Context(), year, month)
		if err != nil {
			return nil, 0, err
		}
		return outflows, http.StatusOK, nil
	})
}

func (s *Server) handleMonthlyBalance(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r, s.now().UTC())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.cachedJSON(w, r, func() (any, int, error) {
		balance, err := s.reports.MonthlyBalance(r.Context(), year, month)
		if err != nil {
			return nil, 0, err
		}
		return balance, http.StatusOK, nil
	})
}

// exportRange reads desde/hasta, defaulting to the current month.
func (s *Server) exportRange(r *http.Request) (time.Time, time.Time, error) {
	today := s.now().UTC()
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).AddDate(0, 0, -1)

	if v := r.URL.Query().Get("desde"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("desde inválido: %q", v)
		}
		from = t
	}
	if v := r.URL.Query().Get("hasta"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("hasta inválido: %q", v)
		}
		to = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("rango invertido: %s > %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return from, to, nil
}

func (s *Server) handleExpensesPDF(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.exportRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	expenses, err := s.store.ExpensesBetween(r.Context(), from, to)
	if err != nil {
		s.respondStoreError(w, r, err, "error listando gastos")
		return
	}

	body, err := reports.ExpensesPDF(expenses, from, to)
	if err != nil {
		s.respondStoreError(w, r, err, "error generando PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="gastos_%s_%s.pdf"`, from.Format("20060102"), to.Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleExpensesExcel(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.exportRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	expenses, err := s.store.ExpensesBetween(r.Context(), from, to)
	if err != nil {
		s.respondStoreError(w, r, err, "error listando gastos")
		return
	}

	body, err := reports.ExpensesExcel(expenses, from, to)
	if err != nil {
		s.respondStoreError(w, r, err, "error generando Excel")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="gastos_%s_%s.xlsx"`, from.Format("20060102"), to.Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
