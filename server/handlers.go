package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
)

const maxBodyBytes = 1 << 20

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.badRequest(w, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.badRequest(w, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !s.decode(w, r, &req) {
		return
	}
	limit := -1
	if req.Limit != nil {
		limit = *req.Limit
	}

	res, err := s.svc.Recommend(r.Context(), engine.Request{
		UserID:  req.UserID,
		Query:   req.Query,
		Filters: req.Filters,
		Limit:   limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !s.decode(w, r, &req) {
		return
	}
	var ratings map[int64]int
	if len(req.ItemRatings) > 0 {
		ratings = make(map[int64]int, len(req.ItemRatings))
		for k, v := range req.ItemRatings {
			id, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				s.badRequest(w, fmt.Sprintf("invalid item id %q", k))
				return
			}
			ratings[id] = v
		}
	}
	err := s.svc.SubmitFeedback(r.Context(), engine.Feedback{
		QueryID:     req.QueryID,
		UserID:      req.UserID,
		Rating:      req.Rating,
		Text:        req.FeedbackText,
		ItemRatings: ratings,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.badRequest(w, "invalid item id")
		return
	}
	item, err := s.svc.GetItem(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearch(r)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	page, err := s.svc.SearchItems(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := page.Items
	if items == nil {
		items = []*core.Item{}
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: page.Total})
}

// parseSearch 解析检索参数：category_id（可重复）、min_price、max_price、min_rating、available、limit、offset
func parseSearch(r *http.Request) (core.CatalogQuery, error) {
	values := r.URL.Query()
	q := core.CatalogQuery{OrderBy: core.OrderByRatingDesc}

	for _, raw := range values["category_id"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, fmt.Errorf("invalid category_id %q", raw)
		}
		q.CategoryIDs = append(q.CategoryIDs, id)
	}

	floats := []struct {
		key string
		dst **float64
	}{
		{"min_price", &q.MinPrice},
		{"max_price", &q.MaxPrice},
		{"min_rating", &q.MinRating},
	}
	for _, f := range floats {
		raw := values.Get(f.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, fmt.Errorf("invalid %s %q", f.key, raw)
		}
		*f.dst = &v
	}

	if raw := values.Get("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("invalid available %q", raw)
		}
		q.AvailableOnly = v
	}

	var err error
	if q.Limit, err = intParam(values.Get("limit")); err != nil {
		return q, fmt.Errorf("invalid limit: %w", err)
	}
	if q.Offset, err = intParam(values.Get("offset")); err != nil {
		return q, fmt.Errorf("invalid offset: %w", err)
	}
	return q, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (s *Server) handleIntentStats(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r.URL.Query().Get("top"))
	if err != nil {
		s.badRequest(w, "invalid top")
		return
	}
	stats, err := s.svc.IntentStats(r.Context(), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if stats == nil {
		stats = []engine.IntentCount{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"intents": stats})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.svc.Health(r.Context())
	status := http.StatusOK
	if h.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, h)
}
