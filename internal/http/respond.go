package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/log"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes the error body as {"detail": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}

// respondStoreError maps storage errors onto status codes.
func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, msg+": no encontrado")
		return
	}
	s.logger.ErrorContext(r.Context(), msg,
		log.FieldError, err,
		log.FieldPath, r.URL.Path,
		log.FieldMethod, r.Method)
	respondError(w, http.StatusInternalServerError, msg)
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// yearMonth reads the anio/mes query parameters, defaulting to the month
// of `today`.
func yearMonth(r *http.Request, today time.Time) (int, time.Month, error) {
	year := queryInt(r, "anio", today.Year())
	month := queryInt(r, "mes", int(today.Month()))
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("mes %d out of range", month)
	}
	if year < 1970 || year > 9999 {
		return 0, 0, fmt.Errorf("anio %d out of range", year)
	}
	return year, time.Month(month), nil
}

// cachedJSON serves a GET endpoint through the response cache. The
// compute function runs only on a miss.
func (s *Server) cachedJSON(w http.ResponseWriter, r *http.Request, compute func() (any, int, error)) {
	key := r.URL.String()
	if body, ok := s.responseCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	v, status, err := compute()
	if err != nil {
		s.respondStoreError(w, r, err, "error generando respuesta")
		return
	}
	if status != http.StatusOK {
		respondJSON(w, status, v)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		s.respondStoreError(w, r, err, "error serializando respuesta")
		return
	}
	s.responseCache.Set(key, body)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
