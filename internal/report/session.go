// Package report holds the stateful finding/action selection that a report
// editor works against.
package report

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-ai/narrator/internal/codes"
	"github.com/opencode-ai/narrator/internal/library"
	"github.com/opencode-ai/narrator/internal/logging"
	"github.com/opencode-ai/narrator/internal/models"
	"github.com/opencode-ai/narrator/internal/narrative"
	"github.com/opencode-ai/narrator/internal/validation"
	"github.com/rs/zerolog"
)

// Session errors.
var (
	ErrNotFinding      = errors.New("template is not a finding")
	ErrNotAction       = errors.New("template is not an action")
	ErrNoActiveFinding = errors.New("no finding selected")
	ErrNoActiveAction  = errors.New("no action selected")
)

// Session tracks one selected finding, one selected action and their values.
type Session struct {
	lib       *library.Library
	engine    *narrative.Engine
	validator *validation.Validator
	logger    zerolog.Logger
	now       func() time.Time

	mu            sync.RWMutex
	finding       *models.Template
	action        *models.Template
	findingValues models.Values
	actionValues  models.Values
	findingErrors map[string]string
	actionErrors  map[string]string
	assignments   []codes.Assignment
	conflicts     []string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithEngine replaces the default narrative engine.
func WithEngine(engine *narrative.Engine) Option {
	return func(s *Session) {
		s.engine = engine
	}
}

// New creates an empty session over lib.
func New(lib *library.Library, opts ...Option) *Session {
	s := &Session{
		lib:    lib,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Component(s.logger, "report")
	if s.engine == nil {
		s.engine = narrative.New(narrative.WithLogger(s.logger))
	}
	s.validator = validation.New(validation.WithLogger(s.logger))
	s.resetLocked()
	return s
}

// Library returns the library the session selects from.
func (s *Session) Library() *library.Library {
	return s.lib
}

// Reload swaps the library and clears the selection.
func (s *Session) Reload(lib *library.Library) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lib = lib
	s.resetLocked()
}

// Reset clears the selection and all values.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.finding = nil
	s.action = nil
	s.findingValues = models.Values{}
	s.actionValues = models.Values{}
	s.findingErrors = map[string]string{}
	s.actionErrors = map[string]string{}
	s.assignments = []codes.Assignment{}
	s.conflicts = []string{}
}

// SetFinding selects a finding by id. An empty id clears the finding.
// Finding values and errors are reset.
func (s *Session) SetFinding(id string) error {
	tmpl, err := s.lookup(id, models.TemplateTypeFinding, ErrNotFinding)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.finding = tmpl
	s.findingValues = models.Values{}
	s.findingErrors = map[string]string{}
	s.recomputeLocked()
	s.logger.Debug().Str("finding", id).Msg("finding selected")
	return nil
}

// SetAction selects an action by id. An empty id clears the action. Action
// values start from the active finding's allowedActions default, if any.
func (s *Session) SetAction(id string) error {
	tmpl, err := s.lookup(id, models.TemplateTypeAction, ErrNotAction)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.action = tmpl
	s.actionValues = models.Values{}
	s.actionErrors = map[string]string{}
	if tmpl != nil && s.finding != nil {
		for _, allowed := range s.finding.AllowedActions {
			if allowed.ID == tmpl.ID {
				for key, value := range allowed.Default {
					s.actionValues[key] = value
				}
			}
		}
	}
	s.recomputeLocked()
	s.logger.Debug().Str("action", id).Msg("action selected")
	return nil
}

func (s *Session) lookup(id string, want models.TemplateType, wrongType error) (*models.Template, error) {
	if id == "" {
		return nil, nil
	}
	tmpl, err := s.lib.Get(id)
	if err != nil {
		return nil, err
	}
	if tmpl.Type != want {
		return nil, fmt.Errorf("%w: %s is %s", wrongType, id, tmpl.Type)
	}
	return tmpl, nil
}

// UpdateFindingValues replaces the finding values and revalidates them.
func (s *Session) UpdateFindingValues(values models.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finding == nil {
		return ErrNoActiveFinding
	}
	s.findingValues = values.Clone()
	result := s.validator.Validate(s.finding.Variables, s.findingValues, s.lib.SharedPool())
	s.findingErrors = result.Errors
	s.recomputeLocked()
	return nil
}

// UpdateActionValues replaces the action values and revalidates them.
func (s *Session) UpdateActionValues(values models.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.action == nil {
		return ErrNoActiveAction
	}
	s.actionValues = values.Clone()
	result := s.validator.Validate(s.action.Variables, s.actionValues, s.lib.SharedPool())
	s.actionErrors = result.Errors
	s.recomputeLocked()
	return nil
}

func (s *Session) recomputeLocked() {
	s.assignments = codes.Assign(s.activeLocked())
	s.conflicts = codes.ValidateCompatibility(s.assignments).Conflicts
	if len(s.conflicts) > 0 {
		s.logger.Warn().Strs("conflicts", s.conflicts).Msg("code conflicts")
	}
}

func (s *Session) activeLocked() []*models.Template {
	active := make([]*models.Template, 0, 2)
	if s.finding != nil {
		active = append(active, s.finding)
	}
	if s.action != nil {
		active = append(active, s.action)
	}
	return active
}

// Finding returns the selected finding, or nil.
func (s *Session) Finding() *models.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finding
}

// Action returns the selected action, or nil.
func (s *Session) Action() *models.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.action
}

// Errors returns the current field errors. Finding errors win on key clashes.
func (s *Session) Errors() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorsLocked()
}

func (s *Session) errorsLocked() map[string]string {
	out := make(map[string]string, len(s.findingErrors)+len(s.actionErrors))
	for key, msg := range s.actionErrors {
		out[key] = msg
	}
	for key, msg := range s.findingErrors {
		out[key] = msg
	}
	return out
}

// Conflicts returns duplicate primary code messages for the selection.
func (s *Session) Conflicts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.conflicts...)
}

// AvailableActions lists the actions that may be selected next. Without a
// finding only standalone actions qualify. With one, an action must be
// non-standalone, valid for the finding and either listed in its
// allowedActions with holding conditions or valid for every finding.
func (s *Session) AvailableActions() []*models.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var available []*models.Template
	for _, action := range s.lib.ListByType(models.TemplateTypeAction) {
		if s.finding == nil {
			if action.Standalone {
				available = append(available, action)
			}
			continue
		}
		if action.Standalone || !action.ValidForFinding(s.finding.ID) {
			continue
		}
		allowed, listed := s.allowedLocked(action.ID)
		if !listed {
			if containsWildcard(action.ValidForFindings) {
				available = append(available, action)
			}
			continue
		}
		if s.conditionsHold(allowed.Conditions, s.findingValues, action.ID) {
			available = append(available, action)
		}
	}
	return available
}

func containsWildcard(ids []string) bool {
	for _, id := range ids {
		if id == "*" {
			return true
		}
	}
	return false
}

func (s *Session) allowedLocked(actionID string) (models.AllowedAction, bool) {
	for _, allowed := range s.finding.AllowedActions {
		if allowed.ID == actionID {
			return allowed, true
		}
	}
	return models.AllowedAction{}, false
}

// RequiredActions lists allowed actions the finding marks as required.
func (s *Session) RequiredActions() []*models.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.finding == nil {
		return nil
	}
	var required []*models.Template
	for _, allowed := range s.finding.AllowedActions {
		if !allowed.Required {
			continue
		}
		if tmpl, err := s.lib.Get(allowed.ID); err == nil {
			required = append(required, tmpl)
		}
	}
	return required
}

// SuggestedActions lists the selected action's follow-ups whose conditions
// hold against the action values.
func (s *Session) SuggestedActions() []*models.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.action == nil {
		return nil
	}
	var suggested []*models.Template
	for _, next := range s.action.NextActions {
		if !s.conditionsHold(next.Conditions, s.actionValues, next.ID) {
			continue
		}
		tmpl, err := s.lib.Get(next.ID)
		if err != nil {
			s.logger.Warn().Str("action", s.action.ID).Str("next", next.ID).Msg("next action not in library")
			continue
		}
		suggested = append(suggested, tmpl)
	}
	return suggested
}

func (s *Session) conditionsHold(conditions []models.Condition, values models.Values, target string) bool {
	ok, err := models.EvaluateConditions(conditions, values)
	if err != nil {
		s.logger.Error().Err(err).Str("target", target).Msg("condition evaluation failed")
		return false
	}
	return ok
}

// Generate renders the finding text, then the action text, joined by a
// newline. Unselected templates contribute nothing.
func (s *Session) Generate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generateLocked()
}

func (s *Session) generateLocked() string {
	pool := s.lib.SharedPool()
	var texts []string
	if s.finding != nil {
		texts = append(texts, s.engine.Generate(s.finding.Body, s.findingValues, s.finding.Variables, pool))
	}
	if s.action != nil {
		texts = append(texts, s.engine.Generate(s.action.Body, s.actionValues, s.action.Variables, pool))
	}
	result := strings.Join(texts, "\n")
	s.logger.Debug().Int("templates", len(texts)).Str("text", result).Msg("generated report text")
	return result
}

// Version returns the selected finding's version, or "" without one.
func (s *Session) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.finding == nil {
		return ""
	}
	return s.finding.Version
}

// Compatible reports whether the finding and action share a major version.
// A partial selection is always compatible.
func (s *Session) Compatible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compatibleLocked()
}

func (s *Session) compatibleLocked() bool {
	if s.finding == nil || s.action == nil {
		return true
	}
	return s.finding.MajorVersion() == s.action.MajorVersion()
}

// Codes returns the flattened code summary of the selection.
func (s *Session) Codes() codes.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return codes.Format(s.assignments)
}

// Report is a point-in-time snapshot of a session.
type Report struct {
	ID            string             `json:"id"`
	CreatedAt     time.Time          `json:"createdAt"`
	Finding       string             `json:"finding,omitempty"`
	Action        string             `json:"action,omitempty"`
	FindingValues models.Values      `json:"findingValues"`
	ActionValues  models.Values      `json:"actionValues"`
	Text          string             `json:"text"`
	Codes         codes.Summary      `json:"codes"`
	OptionCodes   []codes.Assignment `json:"optionCodes"`
	Conflicts     []string           `json:"conflicts"`
	Errors        map[string]string  `json:"errors"`
	Compatible    bool               `json:"compatible"`
	Valid         bool               `json:"valid"`
}

// Report snapshots the session under a fresh id.
func (s *Session) Report() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool := s.lib.SharedPool()
	optionCodes := []codes.Assignment{}
	r := &Report{
		ID:            uuid.NewString(),
		CreatedAt:     s.now().UTC(),
		FindingValues: s.findingValues.Clone(),
		ActionValues:  s.actionValues.Clone(),
		Text:          s.generateLocked(),
		Codes:         codes.Format(s.assignments),
		Conflicts:     append([]string{}, s.conflicts...),
		Errors:        s.errorsLocked(),
		Compatible:    s.compatibleLocked(),
	}
	if s.finding != nil {
		r.Finding = s.finding.ID
		optionCodes = append(optionCodes, codes.SelectedOptions(s.finding, s.findingValues, pool)...)
	}
	if s.action != nil {
		r.Action = s.action.ID
		optionCodes = append(optionCodes, codes.SelectedOptions(s.action, s.actionValues, pool)...)
	}
	r.OptionCodes = optionCodes
	r.Valid = len(r.Errors) == 0 && len(r.Conflicts) == 0 && r.Compatible
	return r
}
