package http

import "net/http"

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s.cachedJSON(w, r, func() (any, int, error) {
		found, err := s.alerts.Evaluate(r.Context(), s.now().UTC())
		if err != nil {
			return nil, 0, err
		}
		return found, http.StatusOK, nil
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	s.cachedJSON(w, r, func() (any, int, error) {
		trends, err := s.alerts.Trends(r.Context(), s.now().UTC())
		if err != nil {
			return nil, 0, err
		}
		return trends, http.StatusOK, nil
	})
}
