package report

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/opencode-ai/narrator/internal/codes"
	"github.com/opencode-ai/narrator/internal/library"
	"github.com/opencode-ai/narrator/internal/models"
	"github.com/opencode-ai/narrator/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinSession(t *testing.T) *Session {
	t.Helper()
	lib, err := library.Load(library.LoadOptions{SearchPaths: []string{}})
	require.NoError(t, err)
	return New(lib)
}

func ids(templates []*models.Template) []string {
	out := []string{}
	for _, tmpl := range templates {
		out = append(out, tmpl.ID)
	}
	return out
}

func TestAvailableActions(t *testing.T) {
	s := builtinSession(t)
	assert.Equal(t, []string{"dilatation"}, ids(s.AvailableActions()), "standalone only without a finding")

	require.NoError(t, s.SetFinding("polyp"))
	assert.Equal(t, []string{"biopsy", "polypectomy"}, ids(s.AvailableActions()))

	require.NoError(t, s.SetFinding("mass"))
	assert.Equal(t, []string{"biopsy"}, ids(s.AvailableActions()))

	require.NoError(t, s.SetFinding(""))
	assert.Equal(t, []string{"dilatation"}, ids(s.AvailableActions()))
}

func TestAvailableActionsConditions(t *testing.T) {
	finding := &models.Template{
		ID: "ulcer", Type: models.TemplateTypeFinding, Name: "Ulcer", Version: "1.0.0",
		Codes: models.Codes{Snomed: []string{"1"}},
		Body:  models.NewBody("ulcer"),
		AllowedActions: []models.AllowedAction{{
			ID:         "clip",
			Conditions: []models.Condition{{Field: "bleeding", Operator: models.OperatorEquals, Value: true}},
			Default:    map[string]any{"count": 2},
		}},
	}
	clip := &models.Template{
		ID: "clip", Type: models.TemplateTypeAction, Name: "Clip", Version: "1.0.0",
		Codes:            models.Codes{Snomed: []string{"2"}},
		Body:             models.NewBody("{count} clips placed"),
		Variables:        map[string]models.Variable{"count": {Type: models.VariableTypeNumber}},
		ValidForFindings: []string{"ulcer"},
	}
	wash := &models.Template{
		ID: "wash", Type: models.TemplateTypeAction, Name: "Wash", Version: "1.0.0",
		Codes:            models.Codes{Snomed: []string{"3"}},
		Body:             models.NewBody("washed"),
		ValidForFindings: []string{"*"},
	}
	lib, err := library.New([]*models.Template{finding, clip, wash})
	require.NoError(t, err)

	s := New(lib)
	require.NoError(t, s.SetFinding("ulcer"))
	assert.Equal(t, []string{"wash"}, ids(s.AvailableActions()), "unlisted wildcard action stays available")

	require.NoError(t, s.UpdateFindingValues(models.Values{"bleeding": true}))
	assert.Equal(t, []string{"clip", "wash"}, ids(s.AvailableActions()))

	require.NoError(t, s.SetAction("clip"))
	assert.Equal(t, "ulcer\n2 clips placed", s.Generate(), "action values start from the allowed default")
}

func TestSetFindingErrors(t *testing.T) {
	s := builtinSession(t)

	require.ErrorIs(t, s.SetFinding("biopsy"), ErrNotFinding)
	require.ErrorIs(t, s.SetAction("polyp"), ErrNotAction)
	require.ErrorIs(t, s.SetFinding("missing"), library.ErrTemplateNotFound)
	require.ErrorIs(t, s.UpdateFindingValues(models.Values{}), ErrNoActiveFinding)
	require.ErrorIs(t, s.UpdateActionValues(models.Values{}), ErrNoActiveAction)
	assert.Nil(t, s.Finding())
}

func TestUpdateValuesRevalidates(t *testing.T) {
	s := builtinSession(t)
	require.NoError(t, s.SetFinding("polyp"))
	require.NoError(t, s.SetAction("polypectomy"))

	require.NoError(t, s.UpdateFindingValues(models.Values{"number": 0}))
	errs := s.Errors()
	assert.Equal(t, validation.MsgRequired, errs["location"])
	assert.Contains(t, errs, "number")

	require.NoError(t, s.UpdateActionValues(models.Values{"technique": "laser", "complete": true}))
	assert.Equal(t, validation.MsgInvalidOption, s.Errors()["technique"])

	require.NoError(t, s.SetFinding("polyp"))
	assert.NotContains(t, s.Errors(), "location", "selecting a finding clears its errors")
	assert.Contains(t, s.Errors(), "technique")
}

func TestGenerate(t *testing.T) {
	s := builtinSession(t)
	assert.Equal(t, "", s.Generate())

	require.NoError(t, s.SetFinding("polyp"))
	require.NoError(t, s.UpdateFindingValues(models.Values{
		"number":         2,
		"location":       []any{"asc", "sig"},
		"size":           []any{10},
		"morphology":     "sessile",
		"classification": "0-is",
	}))
	require.NoError(t, s.SetAction("polypectomy"))
	require.NoError(t, s.UpdateActionValues(models.Values{"technique": "cold snare", "complete": true}))

	want := "2 sessile 0-Is polyps  were found in ascending colon, sigmoid colon  \n" +
		"Polypectomy performed using cold snare  "
	assert.Equal(t, want, s.Generate())
}

func TestSuggestedActions(t *testing.T) {
	s := builtinSession(t)
	assert.Nil(t, s.SuggestedActions())

	require.NoError(t, s.SetAction("dilatation"))
	require.NoError(t, s.UpdateActionValues(models.Values{
		"complications": []any{"mucosal disruption", "bleeding"},
	}))
	// hemostasis is not in the library.
	assert.Equal(t, []string{"biopsy"}, ids(s.SuggestedActions()))

	require.NoError(t, s.UpdateActionValues(models.Values{"complications": []any{"pain"}}))
	assert.Empty(t, s.SuggestedActions())
}

func TestCodesAndConflicts(t *testing.T) {
	s := builtinSession(t)
	require.NoError(t, s.SetFinding("polyp"))
	require.NoError(t, s.SetAction("biopsy"))

	want := codes.Summary{Primary: "68496003", Modifiers: []string{}, Sources: []string{"polyp", "biopsy"}}
	if diff := cmp.Diff(want, s.Codes()); diff != "" {
		t.Fatalf("Codes() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, s.Conflicts())

	finding := &models.Template{ID: "a", Type: models.TemplateTypeFinding, Name: "A", Version: "1.0.0",
		Codes: models.Codes{Snomed: []string{"42"}}, Body: models.NewBody("a")}
	action := &models.Template{ID: "b", Type: models.TemplateTypeAction, Name: "B", Version: "2.1.0",
		Codes: models.Codes{Snomed: []string{"42"}}, Body: models.NewBody("b"), ValidForFindings: []string{"*"}}
	lib, err := library.New([]*models.Template{finding, action})
	require.NoError(t, err)

	s = New(lib)
	require.NoError(t, s.SetFinding("a"))
	assert.True(t, s.Compatible(), "partial selection is compatible")
	require.NoError(t, s.SetAction("b"))
	assert.Equal(t, []string{"Duplicate primary code 42 from template b"}, s.Conflicts())
	assert.False(t, s.Compatible())
	assert.Equal(t, "1.0.0", s.Version())
}

func TestReport(t *testing.T) {
	s := builtinSession(t)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	require.NoError(t, s.SetFinding("polyp"))
	require.NoError(t, s.UpdateFindingValues(models.Values{
		"number":         1,
		"location":       []any{"asc", "sig"},
		"size":           "small",
		"classification": "0-is",
	}))

	r := s.Report()
	_, err := uuid.Parse(r.ID)
	require.NoError(t, err)
	assert.NotEqual(t, r.ID, s.Report().ID)
	assert.Equal(t, s.now(), r.CreatedAt)
	assert.Equal(t, "polyp", r.Finding)
	assert.Empty(t, r.Action)
	assert.True(t, r.Valid, "%v", r.Errors)

	wantOptions := []codes.Assignment{
		{Primary: "1234569", Modifiers: []string{}, Source: "polyp.classification:0-is"},
		{Primary: "9040008", Modifiers: []string{}, Source: "polyp.location:asc"},
		{Primary: "60184004", Modifiers: []string{}, Source: "polyp.location:sig"},
		{Primary: "255508009", Modifiers: []string{}, Source: "polyp.size:small"},
	}
	if diff := cmp.Diff(wantOptions, r.OptionCodes); diff != "" {
		t.Fatalf("OptionCodes mismatch (-want +got):\n%s", diff)
	}

	r.FindingValues["number"] = 9
	assert.Equal(t, 1, s.Report().FindingValues["number"], "snapshot values are copies")
}

func TestReloadClearsSelection(t *testing.T) {
	s := builtinSession(t)
	require.NoError(t, s.SetFinding("polyp"))
	require.NoError(t, s.SetAction("biopsy"))

	lib, err := library.New(nil)
	require.NoError(t, err)
	s.Reload(lib)

	assert.Nil(t, s.Finding())
	assert.Nil(t, s.Action())
	assert.Empty(t, s.AvailableActions())
	assert.Equal(t, codes.Summary{Modifiers: []string{}, Sources: []string{}}, s.Codes())
}
