package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/opencode-ai/narrator/internal/codes"
	"github.com/opencode-ai/narrator/internal/library"
	"github.com/opencode-ai/narrator/internal/models"
	"github.com/opencode-ai/narrator/internal/report"
	"github.com/opencode-ai/narrator/internal/validation"
)

// TemplateSummary is the list form of a template.
type TemplateSummary struct {
	ID       string              `json:"id"`
	Type     models.TemplateType `json:"type"`
	Name     string              `json:"name"`
	Version  string              `json:"version"`
	Category string              `json:"category,omitempty"`
	Source   string              `json:"source,omitempty"`
}

// ValuesRequest carries a value environment.
type ValuesRequest struct {
	Values models.Values `json:"values"`
}

// GenerateResponse is the rendered text of one template.
type GenerateResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ReportRequest selects a finding and action with their values.
type ReportRequest struct {
	Finding       string        `json:"finding"`
	Action        string        `json:"action"`
	FindingValues models.Values `json:"findingValues"`
	ActionValues  models.Values `json:"actionValues"`
}

// ReportResponse is a report snapshot plus the actions offered next.
type ReportResponse struct {
	*report.Report
	AvailableActions []string `json:"availableActions"`
	SuggestedActions []string `json:"suggestedActions"`
}

// CodesRequest names the templates to assign codes for.
type CodesRequest struct {
	Templates []string `json:"templates"`
}

// CodesResponse is the code assignment for a template list.
type CodesResponse struct {
	Assignments   []codes.Assignment  `json:"assignments"`
	Compatibility codes.Compatibility `json:"compatibility"`
	Summary       codes.Summary       `json:"summary"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"templates": h.lib.Len(),
	})
}

func (h *handlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	templates := h.lib.All()
	switch {
	case query.Get("category") != "":
		templates = h.lib.ListByCategory(query.Get("category"))
	case query.Get("type") != "":
		templates = h.lib.ListByType(models.TemplateType(query.Get("type")))
	case query.Get("code") != "":
		templates = h.lib.ByCode(query.Get("code"))
	case query.Get("q") != "":
		templates = h.lib.ByKeyword(query.Get("q"))
	}

	out := make([]TemplateSummary, 0, len(templates))
	for _, tmpl := range templates {
		out = append(out, summarize(tmpl))
	}
	writeJSON(w, http.StatusOK, out)
}

func summarize(tmpl *models.Template) TemplateSummary {
	return TemplateSummary{
		ID:       tmpl.ID,
		Type:     tmpl.Type,
		Name:     tmpl.Name,
		Version:  tmpl.Version,
		Category: tmpl.Category,
		Source:   tmpl.Source,
	}
}

func (h *handlers) template(w http.ResponseWriter, r *http.Request) (*models.Template, bool) {
	tmpl, err := h.lib.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return tmpl, true
}

func (h *handlers) getTemplate(w http.ResponseWriter, r *http.Request) {
	if tmpl, ok := h.template(w, r); ok {
		writeJSON(w, http.StatusOK, tmpl)
	}
}

func (h *handlers) relationships(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := h.template(w, r)
	if !ok {
		return
	}
	rels := h.lib.Relationships(tmpl.ID)
	if rels == nil {
		rels = []library.Relationship{}
	}
	writeJSON(w, http.StatusOK, rels)
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := h.template(w, r)
	if !ok {
		return
	}
	var req ValuesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text := h.engine.GenerateTemplate(tmpl, req.Values, h.lib.SharedPool())
	writeJSON(w, http.StatusOK, GenerateResponse{ID: tmpl.ID, Text: text})
}

func (h *handlers) validate(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := h.template(w, r)
	if !ok {
		return
	}
	var req ValuesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	validator := validation.New(validation.WithLogger(h.logger))
	writeJSON(w, http.StatusOK, validator.Validate(tmpl.Variables, req.Values, h.lib.SharedPool()))
}

func (h *handlers) report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session := report.New(h.lib, report.WithLogger(h.logger), report.WithEngine(h.engine))
	if err := session.SetFinding(strings.TrimSpace(req.Finding)); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if req.FindingValues != nil {
		if err := session.UpdateFindingValues(req.FindingValues); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
	}
	if err := session.SetAction(strings.TrimSpace(req.Action)); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if req.ActionValues != nil {
		if err := session.UpdateActionValues(req.ActionValues); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, ReportResponse{
		Report:           session.Report(),
		AvailableActions: templateIDs(session.AvailableActions()),
		SuggestedActions: templateIDs(session.SuggestedActions()),
	})
}

func (h *handlers) codes(w http.ResponseWriter, r *http.Request) {
	var req CodesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	templates := make([]*models.Template, 0, len(req.Templates))
	for _, id := range req.Templates {
		tmpl, err := h.lib.Get(id)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		templates = append(templates, tmpl)
	}
	assignments := codes.Assign(templates)
	writeJSON(w, http.StatusOK, CodesResponse{
		Assignments:   assignments,
		Compatibility: codes.ValidateCompatibility(assignments),
		Summary:       codes.Format(assignments),
	})
}

func (h *handlers) lint(w http.ResponseWriter, r *http.Request) {
	issues := h.lib.Lint()
	if issues == nil {
		issues = []library.Issue{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

func templateIDs(templates []*models.Template) []string {
	out := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		out = append(out, tmpl.ID)
	}
	return out
}
