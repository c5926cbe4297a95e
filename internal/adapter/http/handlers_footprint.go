package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"carbon/internal/app"
	"carbon/internal/domain"

	"github.com/go-chi/chi/v5"
)

type historyView struct {
	Kind       domain.EntryKind `json:"kind"`
	Category   domain.Category  `json:"category,omitempty"`
	Label      string           `json:"label"`
	Icon       string           `json:"icon"`
	Impact     float64          `json:"impact"`
	ImpactText string           `json:"impactText"`
	Count      int              `json:"count"`
	Timestamp  time.Time        `json:"timestamp"`
}

type footprintView struct {
	Counts   map[string]int `json:"counts"`
	Total    float64        `json:"total"`
	Level    domain.Level   `json:"level"`
	Progress float64        `json:"progress"`
	History  []historyView  `json:"history"`
}

type mutationResponse struct {
	Changed   bool          `json:"changed"`
	Notice    *app.Notice   `json:"notice,omitempty"`
	Footprint footprintView `json:"footprint"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

type categoryView struct {
	ID     domain.Category `json:"id"`
	Label  string          `json:"label"`
	Icon   string          `json:"icon"`
	Factor float64         `json:"factor"`
}

func (s *Server) footprintView() footprintView {
	snap := s.tracker.Snapshot()
	history := make([]historyView, 0, len(snap.History))
	for _, e := range snap.History {
		history = append(history, historyView{
			Kind:       e.Kind,
			Category:   e.Category,
			Label:      e.Label,
			Icon:       e.Icon,
			Impact:     e.Impact,
			ImpactText: e.ImpactText(),
			Count:      e.Count,
			Timestamp:  e.Timestamp,
		})
	}
	return footprintView{
		Counts:   snap.Footprint.Counts(),
		Total:    snap.Total,
		Level:    snap.Level,
		Progress: snap.Progress,
		History:  history,
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := domain.Categories()
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryView{ID: c, Label: c.Label(), Icon: c.Icon(), Factor: c.ImpactFactor()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleFootprint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.footprintView())
}

func (s *Server) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	c, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	notice, err := s.tracker.AddActivity(r.Context(), c)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Changed: true, Notice: &notice, Footprint: s.footprintView()})
}

func (s *Server) handleRemoveActivity(w http.ResponseWriter, r *http.Request) {
	c, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	notice, changed, err := s.tracker.RemoveActivity(r.Context(), c)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	resp := mutationResponse{Changed: changed, Footprint: s.footprintView()}
	if changed {
		resp.Notice = &notice
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !req.Confirm {
		writeError(w, http.StatusBadRequest, "confirmation_required", errors.New("reset must be confirmed"))
		return
	}

	notice, err := s.tracker.ResetPeriod(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Changed: true, Notice: &notice, Footprint: s.footprintView()})
}
