package form

import (
	"fmt"

	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
)

// payload builds the fields shared by every request the form emits.
func (f *Form) payload(status rules.Status) (rules.RulePayload, error) {
	wids := f.SelectedGroups()
	p := rules.RulePayload{
		WIDs:    wids,
		RawText: f.rawText,
		Status:  status,
	}
	if !f.scheduleEnabled {
		return p, nil
	}

	trigger, err := rules.LocalTimeToUTC(f.scheduleTime, f.deps.Location, f.deps.Now())
	if err != nil {
		return rules.RulePayload{}, err
	}
	days, ok := f.scheduleInterval.Days()
	if !ok {
		return rules.RulePayload{}, fmt.Errorf("%w: schedule needs an interval", ErrNotSubmittable)
	}
	p.TriggerTime = &trigger
	p.Interval = &days
	return p, nil
}

// Save returns the request that persists the form: a CreateRuleRequest in
// create mode, an UpdateRuleRequest in edit mode. Edit mode keeps the
// rule's status; create mode always creates an active rule.
func (f *Form) Save() (rules.Submission, error) {
	if problems := f.Problems(); len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotSubmittable, problems[0])
	}

	if f.mode == ModeEdit {
		p, err := f.payload(f.rule.Status)
		if err != nil {
			return nil, err
		}
		return rules.UpdateRuleRequest{RuleID: f.rule.RuleID, RulePayload: p}, nil
	}

	p, err := f.payload(rules.StatusActive)
	if err != nil {
		return nil, err
	}
	return rules.CreateRuleRequest{RulePayload: p, SuggestionID: f.suggestionID}, nil
}

// RunOnce returns the request for a single dry run. It is always active and
// never carries a rule id.
func (f *Form) RunOnce() (rules.CreateRuleRequest, error) {
	if !f.RunOnceAvailable() {
		return rules.CreateRuleRequest{}, ErrRunOnceUnavailable
	}
	if problems := f.Problems(); len(problems) > 0 {
		return rules.CreateRuleRequest{}, fmt.Errorf("%w: %s", ErrNotSubmittable, problems[0])
	}
	p, err := f.payload(rules.StatusActive)
	if err != nil {
		return rules.CreateRuleRequest{}, err
	}
	return rules.CreateRuleRequest{RulePayload: p, SuggestionID: f.suggestionID}, nil
}

// RequestDelete opens the delete confirmation.
func (f *Form) RequestDelete() error {
	if f.mode != ModeEdit {
		return ErrDeleteUnavailable
	}
	if f.IsLoading() {
		return ErrBusy
	}
	f.deleteState = DeleteConfirming
	return nil
}

// CancelDelete closes a pending confirmation without deleting.
func (f *Form) CancelDelete() {
	if f.deleteState == DeleteConfirming {
		f.deleteState = DeleteCancelled
	}
}

// ConfirmDelete accepts a pending confirmation and returns the request to
// send.
func (f *Form) ConfirmDelete() (rules.DeleteRuleRequest, error) {
	if f.deleteState != DeleteConfirming {
		return rules.DeleteRuleRequest{}, fmt.Errorf("%w: no confirmation pending", ErrDeleteUnavailable)
	}
	f.deleteState = DeleteConfirmed
	return rules.DeleteRuleRequest{RuleID: f.rule.RuleID}, nil
}

// DeleteDialogOpen reports whether the confirmation is showing.
func (f *Form) DeleteDialogOpen() bool {
	return f.deleteState == DeleteConfirming
}
