package form

import (
	"strings"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
)

// Values below are recomputed on every call and never cached.

// Suggestion scans the current text for connector keywords.
func (f *Form) Suggestion() connectors.Suggestion {
	return f.deps.Catalog.Suggest(f.rawText)
}

// SuggestedConnectorIDs are the connectors the text mentions.
func (f *Form) SuggestedConnectorIDs() []connectors.ID {
	return f.Suggestion().ConnectorIDs
}

// MatchedKeywords are the keywords that produced the suggestions.
func (f *Form) MatchedKeywords() []string {
	return f.Suggestion().Keywords
}

// SelectedConnectors are the suggested connectors that are connected.
func (f *Form) SelectedConnectors() []connectors.Connector {
	return connectors.Select(f.SuggestedConnectorIDs(), f.deps.Connectors)
}

// UnconnectedSuggestions are suggested connectors the user still has to
// connect.
func (f *Form) UnconnectedSuggestions() []connectors.ID {
	connected := make(map[connectors.ID]bool)
	for _, c := range f.SelectedConnectors() {
		connected[c.ID] = true
	}
	var out []connectors.ID
	for _, id := range f.SuggestedConnectorIDs() {
		if !connected[id] {
			out = append(out, id)
		}
	}
	return out
}

// ShowGroupSelector is true when WhatsApp is among the selected connectors.
func (f *Form) ShowGroupSelector() bool {
	for _, c := range f.SelectedConnectors() {
		if c.ID == connectors.WhatsApp {
			return true
		}
	}
	return false
}

// IsLoading reports whether any request is in flight.
func (f *Form) IsLoading() bool {
	return f.saving || f.deleting || f.runningOnce
}

// Saving, Deleting and RunningOnce expose the individual in-flight flags.
func (f *Form) Saving() bool      { return f.saving }
func (f *Form) Deleting() bool    { return f.deleting }
func (f *Form) RunningOnce() bool { return f.runningOnce }

// Problems lists why the form cannot be submitted. Empty means CanSave.
func (f *Form) Problems() []string {
	var out []string
	if strings.TrimSpace(f.rawText) == "" {
		out = append(out, "describe what the rule should do")
	}
	if f.ShowGroupSelector() && len(f.selectedGroups) == 0 {
		out = append(out, "select at least one group")
	}
	if f.scheduleEnabled && f.scheduleInterval == rules.IntervalNone {
		out = append(out, "choose how often the schedule repeats")
	}
	if f.IsLoading() {
		out = append(out, "wait for the current request to finish")
	}
	return out
}

// CanSave reports whether Save would produce a request.
func (f *Form) CanSave() bool {
	return len(f.Problems()) == 0
}

// RunOnceAvailable reports whether this form offers run once at all.
func (f *Form) RunOnceAvailable() bool {
	return f.mode == ModeCreate && f.runOnce
}

// CanRunOnce reports whether RunOnce would produce a request.
func (f *Form) CanRunOnce() bool {
	return f.RunOnceAvailable() && f.CanSave()
}

// CanDelete reports whether RequestDelete would open the confirmation.
func (f *Form) CanDelete() bool {
	return f.mode == ModeEdit && !f.IsLoading()
}

// FilteredGroups are the groups matching the picker search by name or id.
func (f *Form) FilteredGroups() []groups.Group {
	return groups.Search(f.deps.Groups, f.groupSearchQuery)
}

// SelectedGroupNames resolves the selection to display names. Ids without
// a known group are shown as-is.
func (f *Form) SelectedGroupNames() []string {
	out := make([]string, 0, len(f.selectedGroups))
	for _, id := range f.selectedGroups {
		if g, err := groups.Find(f.deps.Groups, id); err == nil {
			out = append(out, g.DisplayName())
			continue
		}
		out = append(out, id)
	}
	return out
}
