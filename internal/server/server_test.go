package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opencode-ai/narrator/internal/library"
	"github.com/opencode-ai/narrator/internal/server"
	"github.com/opencode-ai/narrator/internal/validation"
	"github.com/rs/zerolog"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	lib, err := library.Load(library.LoadOptions{SearchPaths: []string{}})
	if err != nil {
		t.Fatalf("load library: %v", err)
	}
	return server.NewRouter(server.Deps{Library: lib, Logger: zerolog.Nop()})
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newRouter(t), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var resp map[string]any
	decode(t, rec, &resp)
	if resp["status"] != "ok" || resp["templates"] != float64(11) {
		t.Errorf("unexpected health response: %v", resp)
	}
}

func TestListTemplates(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"findings", "?type=finding", []string{"mass", "polyp"}},
		{"category", "?category=morphology", []string{"paris"}},
		{"code", "?code=65801008", []string{"polypectomy"}},
		{"unknown category", "?category=nope", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/templates"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
			}
			var resp []server.TemplateSummary
			decode(t, rec, &resp)
			got := make([]string, 0, len(resp))
			for _, item := range resp {
				got = append(got, item.ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetTemplate(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodGet, "/templates/polyp", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var tmpl map[string]any
	decode(t, rec, &tmpl)
	if tmpl["id"] != "polyp" || tmpl["source"] != "builtin" {
		t.Errorf("unexpected template: id=%v source=%v", tmpl["id"], tmpl["source"])
	}

	rec = do(t, router, http.MethodGet, "/templates/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var errResp map[string]string
	decode(t, rec, &errResp)
	if !strings.Contains(errResp["error"], "template not found") {
		t.Errorf("error = %q", errResp["error"])
	}
}

func TestGenerate(t *testing.T) {
	body := `{"values": {"technique": "hot snare", "complete": true}}`
	rec := do(t, newRouter(t), http.MethodPost, "/templates/polypectomy/generate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var resp server.GenerateResponse
	decode(t, rec, &resp)
	if resp.Text != "Polypectomy performed using hot snare  " {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestGenerateBadBody(t *testing.T) {
	rec := do(t, newRouter(t), http.MethodPost, "/templates/polyp/generate", `{"values": [1]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestValidate(t *testing.T) {
	body := `{"values": {"method": "forceps", "samples": 12, "adequate": true}}`
	rec := do(t, newRouter(t), http.MethodPost, "/templates/biopsy/validate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result validation.Result
	decode(t, rec, &result)
	if result.IsValid {
		t.Fatalf("expected invalid result")
	}
	if result.Errors["samples"] != "Must be at most 10" {
		t.Errorf("samples error = %q", result.Errors["samples"])
	}
}

func TestReport(t *testing.T) {
	body := `{
		"finding": "polyp",
		"findingValues": {"number": 1, "location": ["asc"], "size": "small"},
		"action": "polypectomy",
		"actionValues": {"technique": "cold snare", "complete": true}
	}`
	rec := do(t, newRouter(t), http.MethodPost, "/report", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID               string   `json:"id"`
		Text             string   `json:"text"`
		Valid            bool     `json:"valid"`
		AvailableActions []string `json:"availableActions"`
		SuggestedActions []string `json:"suggestedActions"`
		Codes            struct {
			Primary string   `json:"primary"`
			Sources []string `json:"sources"`
		} `json:"codes"`
	}
	decode(t, rec, &resp)
	if resp.ID == "" || !resp.Valid {
		t.Errorf("id=%q valid=%v", resp.ID, resp.Valid)
	}
	if !strings.HasSuffix(resp.Text, "\nPolypectomy performed using cold snare  ") {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.Codes.Primary != "68496003" || len(resp.Codes.Sources) != 2 {
		t.Errorf("codes = %+v", resp.Codes)
	}
	if strings.Join(resp.AvailableActions, ",") != "biopsy,polypectomy" {
		t.Errorf("available = %v", resp.AvailableActions)
	}
	if len(resp.SuggestedActions) != 0 {
		t.Errorf("suggested = %v", resp.SuggestedActions)
	}
}

func TestReportWrongType(t *testing.T) {
	rec := do(t, newRouter(t), http.MethodPost, "/report", `{"finding": "biopsy"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestCodes(t *testing.T) {
	rec := do(t, newRouter(t), http.MethodPost, "/codes", `{"templates": ["polyp", "biopsy"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp server.CodesResponse
	decode(t, rec, &resp)
	if !resp.Compatibility.IsValid || resp.Summary.Primary != "68496003" || len(resp.Assignments) != 2 {
		t.Errorf("unexpected codes response: %+v", resp)
	}
}

func TestLintAndRelationships(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodGet, "/lint", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var lint struct {
		Issues []library.Issue `json:"issues"`
	}
	decode(t, rec, &lint)
	if len(lint.Issues) == 0 {
		t.Errorf("expected builtin lint issues")
	}

	rec = do(t, router, http.MethodGet, "/templates/polyp/relationships", "")
	var rels []library.Relationship
	decode(t, rec, &rels)
	if len(rels) != 2 || rels[0].To != "polypectomy" {
		t.Errorf("relationships = %+v", rels)
	}
}
