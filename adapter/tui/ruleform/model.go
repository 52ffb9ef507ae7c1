// Package ruleform is the interactive terminal rule form. It renders an
// editor.Session and runs its requests off the event loop.
package ruleform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	connectorApp "github.com/felixgeelhaar/aira/internal/connectors/application"
	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	"github.com/felixgeelhaar/aira/internal/rules/application/editor"
	"github.com/felixgeelhaar/aira/internal/rules/application/form"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Bold(true)
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#25D366"))
	dialogStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

// Messages carrying request outcomes back to the loop.
type (
	savedMsg struct {
		resp rules.MutationResponse
		err  error
	}
	runOnceMsg struct {
		result rules.RunOnceResult
	}
	deletedMsg struct {
		err error
	}
	integratedMsg struct {
		id  connectors.ID
		res connectorApp.ConnectResult
		err error
	}
)

type field int

const (
	fieldText field = iota
	fieldConnectors
	fieldGroups
	fieldSchedule
	fieldTime
	fieldInterval
	fieldCount
)

// Outcome is how the form was closed.
type Outcome struct {
	Saved     bool
	Deleted   bool
	Cancelled bool
	Response  rules.MutationResponse
}

// Model is the bubbletea model for one rule form.
type Model struct {
	ctx     context.Context
	session *editor.Session

	focus      field
	text       textarea.Model
	search     textinput.Model
	clock      textinput.Model
	spin       spinner.Model
	groupIndex int
	connIndex  int

	notice  string
	problem string
	outcome Outcome
	width   int
}

// New creates the model over session. ctx bounds every request.
func New(ctx context.Context, session *editor.Session) Model {
	f := session.Form

	ta := textarea.New()
	ta.Placeholder = "Describe what the rule should do..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetWidth(70)
	ta.SetHeight(4)
	ta.SetValue(f.RawText())
	ta.Focus()

	search := textinput.New()
	search.Placeholder = "search groups"
	search.Prompt = "/ "

	clock := textinput.New()
	clock.Placeholder = form.DefaultScheduleTime
	clock.CharLimit = 5
	clock.SetValue(f.ScheduleTime())

	return Model{
		ctx:     ctx,
		session: session,
		text:    ta,
		search:  search,
		clock:   clock,
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Outcome reports how the form was closed.
func (m Model) Outcome() Outcome {
	return m.outcome
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	f := m.session.Form

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 10 {
			m.text.SetWidth(min(msg.Width-4, 100))
		}
		return m, nil

	case spinner.TickMsg:
		if !f.IsLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case savedMsg:
		m.session.CompleteSave(msg.err)
		if msg.err != nil {
			m.problem = "Save failed: " + msg.err.Error()
			return m, nil
		}
		m.outcome = Outcome{Saved: true, Response: msg.resp}
		return m, tea.Quit

	case runOnceMsg:
		m.session.CompleteRunOnce(msg.result)
		return m, nil

	case deletedMsg:
		m.session.CompleteDelete(msg.err)
		if msg.err != nil {
			m.problem = "Delete failed: " + msg.err.Error()
			return m, nil
		}
		m.outcome = Outcome{Deleted: true}
		return m, tea.Quit

	case integratedMsg:
		var setup *connectorApp.SetupRequiredError
		switch {
		case errors.As(msg.err, &setup):
			m.notice = setup.Connector.SetupHint
		case msg.err != nil:
			m.problem = msg.err.Error()
		case msg.res.RedirectURL != "":
			m.notice = fmt.Sprintf("Open this link to connect %s:\n%s", msg.res.Connector.Name, msg.res.RedirectURL)
		default:
			m.notice = fmt.Sprintf("%s connection started.", msg.res.Connector.Name)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.session.Form

	if msg.String() == "ctrl+c" {
		m.outcome = Outcome{Cancelled: true}
		return m, tea.Quit
	}

	// Dialogs capture every other key.
	if _, ok := f.RunOnceResult(); ok {
		if msg.String() == "enter" || msg.String() == "esc" {
			f.DismissRunOnceResult()
		}
		return m, nil
	}
	if f.DeleteDialogOpen() {
		switch msg.String() {
		case "y", "Y":
			req, err := m.session.PrepareDelete()
			if err != nil {
				m.problem = err.Error()
				return m, nil
			}
			return m, tea.Batch(m.spin.Tick, m.sendDelete(req))
		case "n", "N", "esc":
			f.CancelDelete()
		}
		return m, nil
	}
	if f.GroupPickerOpen() {
		return m.handlePickerKey(msg)
	}

	m.problem = ""
	switch msg.String() {
	case "esc":
		m.outcome = Outcome{Cancelled: true}
		return m, tea.Quit
	case "tab":
		return m.moveFocus(1), nil
	case "shift+tab":
		return m.moveFocus(-1), nil
	case "ctrl+s":
		return m.save()
	case "ctrl+r":
		return m.runOnce()
	case "ctrl+d":
		if err := f.RequestDelete(); err != nil {
			m.problem = err.Error()
		}
		return m, nil
	}

	switch m.focus {
	case fieldConnectors:
		pending := f.UnconnectedSuggestions()
		switch msg.String() {
		case "up", "k":
			if m.connIndex > 0 {
				m.connIndex--
			}
		case "down", "j":
			if m.connIndex < len(pending)-1 {
				m.connIndex++
			}
		case "enter":
			if m.connIndex < len(pending) {
				return m, m.integrate(pending[m.connIndex])
			}
		}
		return m, nil
	case fieldGroups:
		if msg.String() == "enter" || msg.String() == "/" {
			f.OpenGroupPicker()
			m.groupIndex = 0
			m.search.SetValue("")
			return m, m.search.Focus()
		}
		return m, nil
	case fieldSchedule:
		if msg.String() == " " || msg.String() == "enter" {
			enabled := !f.ScheduleEnabled()
			f.SetScheduleEnabled(enabled)
			if enabled && f.ScheduleInterval() == rules.IntervalNone {
				_ = f.SetScheduleInterval(rules.DefaultInterval)
			}
		}
		return m, nil
	case fieldInterval:
		switch msg.String() {
		case "left", "h":
			_ = f.SetScheduleInterval(cycleInterval(f.ScheduleInterval(), -1))
		case "right", "l", " ":
			_ = f.SetScheduleInterval(cycleInterval(f.ScheduleInterval(), 1))
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.session.Form
	visible := f.FilteredGroups()
	switch msg.String() {
	case "esc", "enter":
		f.CloseGroupPicker()
		m.search.Blur()
		return m, nil
	case "up":
		if m.groupIndex > 0 {
			m.groupIndex--
		}
		return m, nil
	case "down":
		if m.groupIndex < len(visible)-1 {
			m.groupIndex++
		}
		return m, nil
	case " ":
		if m.groupIndex < len(visible) {
			f.ToggleGroup(visible[m.groupIndex].WID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	f.SetGroupSearchQuery(m.search.Value())
	if m.groupIndex >= len(f.FilteredGroups()) {
		m.groupIndex = 0
	}
	return m, cmd
}

// updateInputs feeds msg to the focused text input and syncs the form.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	f := m.session.Form
	var cmd tea.Cmd
	switch m.focus {
	case fieldText:
		m.text, cmd = m.text.Update(msg)
		f.SetRawText(m.text.Value())
		if n := len(f.UnconnectedSuggestions()); m.connIndex >= n {
			m.connIndex = 0
		}
	case fieldTime:
		m.clock, cmd = m.clock.Update(msg)
		if err := f.SetScheduleTime(m.clock.Value()); err != nil && len(m.clock.Value()) == 5 {
			m.problem = err.Error()
		}
	}
	return m, cmd
}

func (m Model) moveFocus(delta int) Model {
	next := (int(m.focus) + delta + int(fieldCount)) % int(fieldCount)
	m.focus = field(next)

	m.text.Blur()
	m.clock.Blur()
	switch m.focus {
	case fieldText:
		m.text.Focus()
	case fieldTime:
		m.clock.Focus()
	}
	return m
}

func (m Model) save() (tea.Model, tea.Cmd) {
	sub, err := m.session.PrepareSave()
	if err != nil {
		m.problem = err.Error()
		return m, nil
	}
	session, ctx := m.session, m.ctx
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		resp, err := session.SendSave(ctx, sub)
		return savedMsg{resp: resp, err: err}
	})
}

func (m Model) runOnce() (tea.Model, tea.Cmd) {
	req, err := m.session.PrepareRunOnce()
	if err != nil {
		m.problem = err.Error()
		return m, nil
	}
	session, ctx := m.session, m.ctx
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		return runOnceMsg{result: session.SendRunOnce(ctx, req)}
	})
}

func (m Model) sendDelete(req rules.DeleteRuleRequest) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		return deletedMsg{err: session.SendDelete(ctx, req)}
	}
}

func (m Model) integrate(id connectors.ID) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		res, err := session.Integrate(ctx, string(id))
		return integratedMsg{id: id, res: res, err: err}
	}
}

func cycleInterval(current rules.Interval, delta int) rules.Interval {
	all := rules.Intervals()[1:]
	for i, v := range all {
		if v == current {
			return all[(i+delta+len(all))%len(all)]
		}
	}
	return rules.DefaultInterval
}

// View implements tea.Model.
func (m Model) View() string {
	f := m.session.Form
	var b strings.Builder

	title := "New rule"
	if f.Mode() == form.ModeEdit {
		title = "Edit rule"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	if res, ok := f.RunOnceResult(); ok {
		b.WriteString(renderRunOnce(res))
		b.WriteString("\n" + mutedStyle.Render("enter to close") + "\n")
		return b.String()
	}
	if f.DeleteDialogOpen() {
		b.WriteString(dialogStyle.Render(form.DeleteConfirmation+"\n\n[y] delete   [n] cancel") + "\n")
		return b.String()
	}
	if f.GroupPickerOpen() {
		b.WriteString(m.viewPicker())
		return b.String()
	}

	b.WriteString(m.label(fieldText, "Rule") + "\n")
	b.WriteString(m.text.View() + "\n\n")

	b.WriteString(m.label(fieldConnectors, "Connectors") + "\n")
	b.WriteString(m.viewConnectors() + "\n")

	if f.ShowGroupSelector() || len(f.SelectedGroups()) > 0 {
		b.WriteString(m.label(fieldGroups, "Groups") + " ")
		if names := f.SelectedGroupNames(); len(names) > 0 {
			b.WriteString(strings.Join(names, ", "))
		} else {
			b.WriteString(mutedStyle.Render("none selected (enter to choose)"))
		}
		b.WriteString("\n\n")
	}

	check := "[ ]"
	if f.ScheduleEnabled() {
		check = "[x]"
	}
	b.WriteString(m.label(fieldSchedule, "Schedule") + " " + check + "\n")
	if f.ScheduleEnabled() {
		b.WriteString(m.label(fieldTime, "  Time") + " " + m.clock.View() + " " +
			mutedStyle.Render(f.Location().String()) + "\n")
		b.WriteString(m.label(fieldInterval, "  Repeat") + " < " + f.ScheduleInterval().Label() + " >\n")
	}
	b.WriteString("\n")

	if f.IsLoading() {
		b.WriteString(m.spin.View() + " working...\n")
	}
	if m.notice != "" {
		b.WriteString(successStyle.Render(m.notice) + "\n")
	}
	if m.problem != "" {
		b.WriteString(errorStyle.Render(m.problem) + "\n")
	} else if problems := f.Problems(); len(problems) > 0 && !f.IsLoading() {
		b.WriteString(mutedStyle.Render("To save: "+strings.Join(problems, "; ")) + "\n")
	}

	help := []string{"tab next", "ctrl+s save"}
	if f.RunOnceAvailable() {
		help = append(help, "ctrl+r run once")
	}
	if f.Mode() == form.ModeEdit {
		help = append(help, "ctrl+d delete")
	}
	help = append(help, "esc cancel")
	b.WriteString("\n" + mutedStyle.Render(strings.Join(help, " | ")) + "\n")
	return b.String()
}

func (m Model) label(fl field, text string) string {
	if m.focus == fl {
		return focusStyle.Render("> " + text)
	}
	return labelStyle.Render("  " + text)
}

func (m Model) viewConnectors() string {
	f := m.session.Form
	var b strings.Builder
	for _, c := range f.SelectedConnectors() {
		b.WriteString("  " + successStyle.Render("* "+c.Name) + "\n")
	}
	for i, id := range f.UnconnectedSuggestions() {
		name := string(id)
		for _, c := range f.Connectors() {
			if c.ID == id {
				name = c.Name
			}
		}
		cursor := "  "
		if m.focus == fieldConnectors && i == m.connIndex {
			cursor = "> "
		}
		b.WriteString(cursor + mutedStyle.Render("o "+name+" (not connected, enter to connect)") + "\n")
	}
	if b.Len() == 0 {
		return "  " + mutedStyle.Render("none suggested yet") + "\n"
	}
	return b.String()
}

func (m Model) viewPicker() string {
	f := m.session.Form
	var b strings.Builder
	b.WriteString(m.search.View() + "\n\n")
	visible := f.FilteredGroups()
	if len(visible) == 0 {
		b.WriteString(mutedStyle.Render("No groups match.") + "\n")
	}
	for i, g := range visible {
		cursor := "  "
		if i == m.groupIndex {
			cursor = "> "
		}
		check := "[ ]"
		if f.IsGroupSelected(g.WID) {
			check = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, check, g.DisplayName()))
	}
	b.WriteString("\n" + mutedStyle.Render("space toggle | enter done") + "\n")
	return b.String()
}

func renderRunOnce(r rules.RunOnceResult) string {
	v := form.DescribeRunOnce(r)
	style := successStyle
	if !v.Success {
		style = errorStyle
	}
	lines := v.Lines()
	lines[0] = style.Render(lines[0])
	return dialogStyle.Render(labelStyle.Render(v.Title) + "\n\n" + strings.Join(lines, "\n"))
}

// Run shows the form until it is saved, deleted or cancelled.
func Run(ctx context.Context, session *editor.Session) (Outcome, error) {
	final, err := tea.NewProgram(New(ctx, session), tea.WithContext(ctx)).Run()
	if err != nil {
		return Outcome{}, err
	}
	return final.(Model).Outcome(), nil
}
