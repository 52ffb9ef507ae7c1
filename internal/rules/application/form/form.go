// Package form implements the rule form: the draft state of one create or
// edit session, the values derived from it, and the payloads it emits.
//
// A Form never performs I/O. Save, RunOnce and ConfirmDelete return the
// request to send; the caller sends it and reports progress back through
// the in-flight setters.
package form

import (
	"errors"
	"strings"
	"time"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
)

// Form errors.
var (
	ErrNotSubmittable     = errors.New("rule is not ready to submit")
	ErrRunOnceUnavailable = errors.New("run once is not available for this form")
	ErrDeleteUnavailable  = errors.New("delete is not available for this form")
	ErrBusy               = errors.New("a request for this form is already in flight")
)

// DefaultScheduleTime is the local time offered when a schedule is first
// enabled.
const DefaultScheduleTime = "09:00"

// DeleteConfirmation is the question asked before a rule is deleted.
const DeleteConfirmation = "Are you sure you want to delete this rule? This action cannot be undone."

// Mode distinguishes creating a rule from editing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// DeleteState tracks the delete confirmation step.
type DeleteState string

const (
	DeleteClosed     DeleteState = "closed"
	DeleteConfirming DeleteState = "confirming"
	DeleteCancelled  DeleteState = "cancelled"
	DeleteConfirmed  DeleteState = "confirmed"
)

// Deps are the collaborators every form needs.
type Deps struct {
	Catalog    *connectors.Catalog
	Connectors []connectors.Connector
	Groups     []groups.Group
	// Location is the user's time zone. Defaults to time.Local.
	Location *time.Location
	// Now supplies the reference date for offset lookups. Defaults to time.Now.
	Now func() time.Time
}

// CreateOptions seed a create-mode form.
type CreateOptions struct {
	Suggestion   string
	ChatIDs      []string
	SuggestionID string
	// RunOnce is true when the caller can execute run-once requests.
	RunOnce bool
}

// Form is the draft state of one rule.
type Form struct {
	deps Deps
	mode Mode

	// edit mode
	rule rules.Rule

	// create mode
	suggestionID string
	runOnce      bool

	rawText          string
	selectedGroups   []string
	scheduleEnabled  bool
	scheduleTime     string
	scheduleInterval rules.Interval

	deleteState      DeleteState
	groupPickerOpen  bool
	groupSearchQuery string

	saving      bool
	deleting    bool
	runningOnce bool

	runOnceResult *rules.RunOnceResult
}

// NewCreateForm opens a form for a new rule.
func NewCreateForm(deps Deps, opts CreateOptions) *Form {
	f := newForm(deps, ModeCreate)
	f.rawText = opts.Suggestion
	f.SetSelectedGroups(opts.ChatIDs)
	f.suggestionID = opts.SuggestionID
	f.runOnce = opts.RunOnce
	f.scheduleInterval = rules.IntervalNone
	return f
}

// NewEditForm opens a form seeded from an existing rule. Scheduled rules
// start with the schedule on and a named cadence, falling back to the
// default for unknown day counts. Unscheduled rules start with no cadence.
func NewEditForm(deps Deps, rule rules.Rule) *Form {
	f := newForm(deps, ModeEdit)
	f.rule = rule
	f.rawText = rule.RawText
	f.SetSelectedGroups(rule.WIDs)
	f.scheduleInterval = rules.IntervalNone

	if sched := rule.Schedule(); sched.IsScheduled() {
		f.scheduleEnabled = true
		f.scheduleInterval = sched.Interval()
		if local, err := rules.UTCToLocalTime(sched.TriggerTime(), f.deps.Location, f.deps.Now()); err == nil {
			f.scheduleTime = local
		}
	}
	return f
}

func newForm(deps Deps, mode Mode) *Form {
	if deps.Catalog == nil {
		deps.Catalog = connectors.DefaultCatalog()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Form{
		deps:         deps,
		mode:         mode,
		scheduleTime: DefaultScheduleTime,
		deleteState:  DeleteClosed,
	}
}

// ParseChatIDs reads the chat preselection query parameters. A non-empty
// comma separated chatIDs list wins over the single chatID.
func ParseChatIDs(chatIDs, chatID string) []string {
	var out []string
	for _, id := range strings.Split(chatIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	if len(out) == 0 && strings.TrimSpace(chatID) != "" {
		out = []string{strings.TrimSpace(chatID)}
	}
	return out
}

// Mode returns the form mode.
func (f *Form) Mode() Mode { return f.mode }

// Rule returns the rule being edited. Zero in create mode.
func (f *Form) Rule() rules.Rule { return f.rule }

// SuggestionID is the suggestion the form was opened from, if any.
func (f *Form) SuggestionID() string { return f.suggestionID }

// RawText returns the rule text.
func (f *Form) RawText() string { return f.rawText }

// SelectedGroups returns the selected target ids in selection order.
func (f *Form) SelectedGroups() []string {
	out := make([]string, len(f.selectedGroups))
	copy(out, f.selectedGroups)
	return out
}

// IsGroupSelected reports whether wID is selected.
func (f *Form) IsGroupSelected(wID string) bool {
	for _, id := range f.selectedGroups {
		if id == wID {
			return true
		}
	}
	return false
}

// ScheduleEnabled reports whether the schedule section is on.
func (f *Form) ScheduleEnabled() bool { return f.scheduleEnabled }

// ScheduleTime is the local HH:MM.
func (f *Form) ScheduleTime() string { return f.scheduleTime }

// ScheduleInterval is the selected cadence.
func (f *Form) ScheduleInterval() rules.Interval { return f.scheduleInterval }

// Location is the time zone schedule times are entered in.
func (f *Form) Location() *time.Location { return f.deps.Location }

// Groups returns every selectable group.
func (f *Form) Groups() []groups.Group { return f.deps.Groups }

// Connectors returns the user's connectors.
func (f *Form) Connectors() []connectors.Connector { return f.deps.Connectors }

// DeleteState returns the delete confirmation state.
func (f *Form) DeleteState() DeleteState { return f.deleteState }

// GroupPickerOpen reports whether the group picker is shown.
func (f *Form) GroupPickerOpen() bool { return f.groupPickerOpen }

// GroupSearchQuery is the group picker's search text.
func (f *Form) GroupSearchQuery() string { return f.groupSearchQuery }

// RunOnceResult returns the result being shown, if any.
func (f *Form) RunOnceResult() (rules.RunOnceResult, bool) {
	if f.runOnceResult == nil {
		return rules.RunOnceResult{}, false
	}
	return *f.runOnceResult, true
}

// SetRawText replaces the rule text.
func (f *Form) SetRawText(text string) { f.rawText = text }

// SetSelectedGroups replaces the selection, dropping blanks and duplicates.
func (f *Form) SetSelectedGroups(ids []string) {
	seen := make(map[string]bool, len(ids))
	selected := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" || seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, id)
	}
	f.selectedGroups = selected
}

// ToggleGroup selects or deselects one target.
func (f *Form) ToggleGroup(wID string) {
	for i, id := range f.selectedGroups {
		if id == wID {
			f.selectedGroups = append(f.selectedGroups[:i], f.selectedGroups[i+1:]...)
			return
		}
	}
	if strings.TrimSpace(wID) != "" {
		f.selectedGroups = append(f.selectedGroups, wID)
	}
}

// SetScheduleEnabled turns the schedule section on or off.
func (f *Form) SetScheduleEnabled(enabled bool) { f.scheduleEnabled = enabled }

// SetScheduleTime sets the local HH:MM.
func (f *Form) SetScheduleTime(local string) error {
	c, err := rules.ParseClock(local)
	if err != nil {
		return err
	}
	f.scheduleTime = c.String()
	return nil
}

// SetScheduleInterval sets the cadence.
func (f *Form) SetScheduleInterval(i rules.Interval) error {
	if _, err := rules.ParseInterval(string(i)); err != nil {
		return err
	}
	f.scheduleInterval = i
	return nil
}

// ToggleConnector does nothing. Connectors follow the rule text and cannot
// be deselected from the form.
func (f *Form) ToggleConnector(connectors.ID) {}

// OpenGroupPicker shows the group picker.
func (f *Form) OpenGroupPicker() { f.groupPickerOpen = true }

// CloseGroupPicker hides the group picker and clears its search.
func (f *Form) CloseGroupPicker() {
	f.groupPickerOpen = false
	f.groupSearchQuery = ""
}

// SetGroupSearchQuery filters the group picker.
func (f *Form) SetGroupSearchQuery(q string) { f.groupSearchQuery = q }

// SetSaving marks a save request in flight.
func (f *Form) SetSaving(v bool) { f.saving = v }

// SetDeleting marks a delete request in flight.
func (f *Form) SetDeleting(v bool) { f.deleting = v }

// SetRunningOnce marks a run-once request in flight.
func (f *Form) SetRunningOnce(v bool) { f.runningOnce = v }

// SetRunOnceResult shows a run-once result.
func (f *Form) SetRunOnceResult(r rules.RunOnceResult) { f.runOnceResult = &r }

// DismissRunOnceResult clears the shown result.
func (f *Form) DismissRunOnceResult() { f.runOnceResult = nil }

// SetConnectors replaces the connector list, for example after a connect.
func (f *Form) SetConnectors(c []connectors.Connector) { f.deps.Connectors = c }
