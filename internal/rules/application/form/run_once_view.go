package form

import (
	"fmt"

	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
)

// Run-once dialog copy.
const (
	RunOnceSuccessHeadline = "Your rule ran once and sent messages. Here's what happened:"
	RunOnceFailureHeadline = "The run encountered an issue. You can still create the rule."
	RunOnceNothingToDo     = "Rule ran successfully. No matching messages to act on. Create the rule to keep it active."
)

// RunOnceView is the presentation of a run-once result.
type RunOnceView struct {
	Success  bool
	Title    string
	Headline string
	Summary  string
	// Scanned is empty when the result does not report a count.
	Scanned string
	Groups  []string
	Actions []string
	// Fallback is set for successful runs that report nothing else.
	Fallback string
}

// DescribeRunOnce renders a result for display. A failed result shows only
// its error, or a generic message when it has none.
func DescribeRunOnce(r rules.RunOnceResult) RunOnceView {
	v := RunOnceView{Success: r.Success}

	if !r.Success {
		v.Title = "Run failed"
		v.Headline = RunOnceFailureHeadline
		if r.Error != "" {
			v.Headline = r.Error
		}
		return v
	}

	v.Title = "Run complete"
	v.Headline = RunOnceSuccessHeadline
	v.Summary = r.Summary

	if r.MessagesScanned != nil {
		v.Scanned = pluralize(*r.MessagesScanned, "message", "messages") + " scanned"
	}
	for _, g := range r.GroupsProcessed {
		v.Groups = append(v.Groups, fmt.Sprintf("%s: %s", g.ChatName, pluralize(g.MessageCount, "message", "messages")))
	}
	for _, a := range r.Actions {
		line := a.Description
		if a.Target != "" {
			line += " (" + a.Target + ")"
		}
		if a.Preview != "" {
			line += ": " + a.Preview
		}
		v.Actions = append(v.Actions, line)
	}

	if r.IsEmpty() {
		v.Fallback = RunOnceNothingToDo
	}
	return v
}

// Lines flattens the view into text lines.
func (v RunOnceView) Lines() []string {
	lines := []string{v.Headline}
	if v.Summary != "" {
		lines = append(lines, v.Summary)
	}
	if v.Scanned != "" {
		lines = append(lines, v.Scanned)
	}
	if len(v.Groups) > 0 {
		lines = append(lines, "Groups processed:")
		for _, g := range v.Groups {
			lines = append(lines, "  "+g)
		}
	}
	if len(v.Actions) > 0 {
		lines = append(lines, "Actions:")
		for _, a := range v.Actions {
			lines = append(lines, "  "+a)
		}
	}
	if v.Fallback != "" {
		lines = append(lines, v.Fallback)
	}
	return lines
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
