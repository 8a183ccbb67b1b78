// Package http exposes the finance tracker as a JSON API under /api:
// movements, credit cards, loans, investments, payment projections,
// alerts, reports and statement PDF processing.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/Ferchu2021/Finanzas/internal/alerts"
	"github.com/Ferchu2021/Finanzas/internal/amqp"
	"github.com/Ferchu2021/Finanzas/internal/cache"
	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/log"
	"github.com/Ferchu2021/Finanzas/internal/reports"
)

// Store is everything the API needs from persistence. Implemented by
// *storage.SQLiteRepository.
type Store interface {
	Ping(ctx context.Context) error

	CreateIncome(ctx context.Context, in core.Income) (core.Income, error)
	GetIncome(ctx context.Context, id int64) (core.Income, error)
	ListIncomes(ctx context.Context, limit, offset int) ([]core.Income, error)
	IncomesBetween(ctx context.Context, from, to time.Time) ([]core.Income, error)
	UpdateIncome(ctx context.Context, in core.Income) error
	DeleteIncome(ctx context.Context, id int64) error

	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context, limit, offset int) ([]core.Expense, error)
	ExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error

	CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error)
	GetCard(ctx context.Context, id int64) (core.CreditCard, error)
	CreditCards(ctx context.Context) ([]core.CreditCard, error)
	UpdateCard(ctx context.Context, c core.CreditCard) error
	DeleteCard(ctx context.Context, id int64) error
	CreateCardPayment(ctx context.Context, p core.Payment) (core.Payment, error)
	CardPayments(ctx context.Context, cardID int64) ([]core.Payment, error)
	CardPaymentsBetween(ctx context.Context, from, to time.Time) ([]core.Payment, error)

	CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error)
	GetLoan(ctx context.Context, id int64) (core.Loan, error)
	Loans(ctx context.Context) ([]core.Loan, error)
	UpdateLoan(ctx context.Context, l core.Loan) error
	DeleteLoan(ctx context.Context, id int64) error
	CreateLoanPayment(ctx context.Context, p core.Payment) (core.Payment, error)
	LoanPayments(ctx context.Context, loanID int64) ([]core.Payment, error)
	LoanPaymentsBetween(ctx context.Context, from, to time.Time) ([]core.Payment, error)

	CreateInvestment(ctx context.Context, v core.Investment) (core.Investment, error)
	GetInvestment(ctx context.Context, id int64) (core.Investment, error)
	Investments(ctx context.Context) ([]core.Investment, error)
	UpdateInvestment(ctx context.Context, v core.Investment) error
	DeleteInvestment(ctx context.Context, id int64) error

	CreateProjection(ctx context.Context, p core.Projection) (core.Projection, error)
	Projections(ctx context.Context, includePaid bool) ([]core.Projection, error)
	ProjectionsDueBetween(ctx context.Context, from, to time.Time) ([]core.Projection, error)
	MarkProjectionPaid(ctx context.Context, id int64, paid bool) error
	DeleteProjection(ctx context.Context, id int64) error
}

// Publisher notifies the projection worker that instruments changed. May
// be nil when the broker is not configured.
type Publisher interface {
	PublishRefresh(ctx context.Context, msg *amqp.RefreshMessage) error
}

// Options configures the API server.
type Options struct {
	Addr               string
	CacheTTL           time.Duration
	CacheSize          int
	RateLimitPerMinute int
	ProjectionMonths   int
}

type Server struct {
	http.Server

	store     Store
	publisher Publisher
	logger    *log.Logger
	access    *log.StructuredLogger

	alerts  *alerts.Engine
	reports *reports.Builder

	limiter       *rateLimiter
	responseCache *cache.LRUCache[[]byte]

	projectionMonths int
	now              func() time.Time
	shutdownOnce     sync.Once
}

// NewServer wires routes and middleware and returns a ready-to-run server.
func NewServer(opts Options, store Store, publisher Publisher, logger *log.Logger) *Server {
	httpLogger := logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		store:            store,
		publisher:        publisher,
		logger:           httpLogger,
		access:           log.NewStructuredLogger(httpLogger),
		alerts:           alerts.NewEngine(store, logger),
		reports:          reports.NewBuilder(store),
		limiter:          newRateLimiter(opts.RateLimitPerMinute),
		responseCache:    cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		projectionMonths: opts.ProjectionMonths,
		now:              time.Now,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.requestIDMiddleware)
	api.Use(s.loggingMiddleware)
	api.Use(s.securityHeadersMiddleware)
	api.Use(s.rateLimitMiddleware)

	api.HandleFunc("/ingresos", s.handleListIncomes).Methods(http.MethodGet)
	api.HandleFunc("/ingresos", s.handleCreateIncome).Methods(http.MethodPost)
	api.HandleFunc("/ingresos/{id:[0-9]+}", s.handleGetIncome).Methods(http.MethodGet)
	api.HandleFunc("/ingresos/{id:[0-9]+}", s.handleUpdateIncome).Methods(http.MethodPut)
	api.HandleFunc("/ingresos/{id:[0-9]+}", s.handleDeleteIncome).Methods(http.MethodDelete)

	api.HandleFunc("/gastos", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/gastos", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/gastos/{id:[0-9]+}", s.handleGetExpense).Methods(http.MethodGet)
	api.HandleFunc("/gastos/{id:[0-9]+}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/gastos/{id:[0-9]+}", s.handleDeleteExpense).Methods(http.MethodDelete)

	api.HandleFunc("/tarjetas", s.handleListCards).Methods(http.MethodGet)
	api.HandleFunc("/tarjetas", s.handleCreateCard).Methods(http.MethodPost)
	api.HandleFunc("/tarjetas/{id:[0-9]+}", s.handleGetCard).Methods(http.MethodGet)
	api.HandleFunc("/tarjetas/{id:[0-9]+}", s.handleUpdateCard).Methods(http.MethodPut)
	api.HandleFunc("/tarjetas/{id:[0-9]+}", s.handleDeleteCard).Methods(http.MethodDelete)
	api.HandleFunc("/tarjetas/{id:[0-9]+}/detalles", s.handleCardDetails).Methods(http.MethodGet)
	api.HandleFunc("/tarjetas/{id:[0-9]+}/desglose-cuota", s.handleCardBreakdown).Methods(http.MethodGet)
	api.HandleFunc("/tarjetas/{id:[0-9]+}/pagos", s.handleListCardPayments).Methods(http.MethodGet)
	api.HandleFunc("/tarjetas/{id:[0-9]+}/pagos", s.handleCreateCardPayment).Methods(http.MethodPost)
	api.HandleFunc("/tarjetas/{id:[0-9]+}/gastos-periodo", s.handleCardPeriodExpenses).Methods(http.MethodGet)

	api.HandleFunc("/prestamos", s.handleListLoans).Methods(http.MethodGet)
	api.HandleFunc("/prestamos", s.handleCreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/prestamos/{id:[0-9]+}", s.handleGetLoan).Methods(http.MethodGet)
	api.HandleFunc("/prestamos/{id:[0-9]+}", s.handleUpdateLoan).Methods(http.MethodPut)
	api.HandleFunc("/prestamos/{id:[0-9]+}", s.handleDeleteLoan).Methods(http.MethodDelete)
	api.HandleFunc("/prestamos/{id:[0-9]+}/desglose-cuota", s.handleLoanBreakdown).Methods(http.MethodGet)
	api.HandleFunc("/prestamos/{id:[0-9]+}/pagos", s.handleListLoanPayments).Methods(http.MethodGet)
	api.HandleFunc("/prestamos/{id:[0-9]+}/pagos", s.handleCreateLoanPayment).Methods(http.MethodPost)

	api.HandleFunc("/inversiones", s.handleListInvestments).Methods(http.MethodGet)
	api.HandleFunc("/inversiones", s.handleCreateInvestment).Methods(http.MethodPost)
	api.HandleFunc("/inversiones/{id:[0-9]+}", s.handleGetInvestment).Methods(http.MethodGet)
	api.HandleFunc("/inversiones/{id:[0-9]+}", s.handleUpdateInvestment).Methods(http.MethodPut)
	api.HandleFunc("/inversiones/{id:[0-9]+}", s.handleDeleteInvestment).Methods(http.MethodDelete)

	api.HandleFunc("/proyecciones", s.handleListProjections).Methods(http.MethodGet)
	api.HandleFunc("/proyecciones", s.handleCreateProjection).Methods(http.MethodPost)
	api.HandleFunc("/proyecciones/tarjetas", s.handleCardProjections).Methods(http.MethodGet)
	api.HandleFunc("/proyecciones/prestamos", s.handleLoanProjections).Methods(http.MethodGet)
	api.HandleFunc("/proyecciones/{id:[0-9]+}", s.handleDeleteProjection).Methods(http.MethodDelete)
	api.HandleFunc("/proyecciones/{id:[0-9]+}/pagado", s.handleMarkProjectionPaid).Methods(http.MethodPut)

	api.HandleFunc("/alertas", s.handleAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alertas/tendencias", s.handleTrends).Methods(http.MethodGet)

	api.HandleFunc("/reportes/resumen-mensual", s.handleMonthlySummary).Methods(http.MethodGet)
	api.HandleFunc("/reportes/egresos-mensuales", s.handleMonthlyOutflows).Methods(http.MethodGet)
	api.HandleFunc("/reportes/saldos-positivos", s.handleMonthlyBalance).Methods(http.MethodGet)
	api.HandleFunc("/reportes/gastos/pdf", s.handleExpensesPDF).Methods(http.MethodGet)
	api.HandleFunc("/reportes/gastos/excel", s.handleExpensesExcel).Methods(http.MethodGet)

	api.HandleFunc("/pdf/previsualizar", s.handleStatementPreview).Methods(http.MethodPost)
	api.HandleFunc("/pdf/procesar-liquidacion", s.handleStatementProcess).Methods(http.MethodPost)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// invalidate drops every cached read after a mutation and asks the worker
// to rebuild stored projections when an instrument changed.
func (s *Server) invalidate(ctx context.Context, reason, kind string, entityID int64) {
	s.responseCache.Clear()
	if s.publisher == nil || kind == "" {
		return
	}
	msg := amqp.NewRefreshMessage(reason, kind, entityID)
	if err := s.publisher.PublishRefresh(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish refresh message",
			log.FieldError, err,
			"reason", reason,
			log.FieldEntityID, entityID)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Readiness check failed", log.FieldError, err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
