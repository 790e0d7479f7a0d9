package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stackpick/stackpick/internal/picker"
	"github.com/stackpick/stackpick/pkg/stackai"
)

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	breadcrumbStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dirStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)

	statusIndexed = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusPending = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusDeleted = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)

	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	modalStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(1, 2)
)

// folderLoadedMsg carries a finished folder load back to the model. The
// generation ties the response to the navigation state that requested it.
type folderLoadedMsg struct {
	generation uint64
	resources  []stackai.Resource
	err        error
}

type indexDoneMsg struct {
	outcome *picker.IndexOutcome
	err     error
}

type deleteDoneMsg struct {
	resource stackai.Resource
	err      error
}

type Model struct {
	browser      *picker.Browser
	loader       *picker.Loader
	orchestrator *picker.Orchestrator

	cursor int
	width  int
	height int

	spinner     spinner.Model
	filterInput textinput.Model
	filtering   bool

	// pendingDelete holds the staged target while the confirm modal is up.
	pendingDelete *stackai.Resource

	indexing bool
	notice   string
}

func NewModel(loader *picker.Loader, orchestrator *picker.Orchestrator, connectionID string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	filter := textinput.New()
	filter.Placeholder = "filter by name"
	filter.CharLimit = 64

	return Model{
		browser:      picker.NewBrowser(connectionID),
		loader:       loader,
		orchestrator: orchestrator,
		spinner:      sp,
		filterInput:  filter,
	}
}

func (m Model) Init() tea.Cmd {
	m.browser.Reload()
	return tea.Batch(m.spinner.Tick, m.loadFolder(false))
}

// loadFolder fetches the current folder in the background. The generation is
// captured at dispatch time so a response landing after further navigation is
// recognized as stale.
func (m Model) loadFolder(fresh bool) tea.Cmd {
	generation := m.browser.Generation()
	folderID := m.browser.CurrentFolderID()
	loader := m.loader

	return func() tea.Msg {
		resources, err := loader.Load(context.Background(), folderID, fresh)
		return folderLoadedMsg{generation: generation, resources: resources, err: err}
	}
}

func (m Model) indexSelected() tea.Cmd {
	selected := m.browser.Selected()
	connectionID := m.browser.ConnectionID()
	orchestrator := m.orchestrator

	return func() tea.Msg {
		outcome, err := orchestrator.IndexSelected(context.Background(), connectionID, selected, nil)
		return indexDoneMsg{outcome: outcome, err: err}
	}
}

func (m Model) deleteStaged() tea.Cmd {
	target := *m.pendingDelete
	orchestrator := m.orchestrator

	return func() tea.Msg {
		updated, err := orchestrator.DeleteResource(context.Background(), target)
		return deleteDoneMsg{resource: updated, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case folderLoadedMsg:
		if !m.browser.CompleteLoad(msg.generation, msg.resources, msg.err) {
			return m, nil
		}
		m.clampCursor()
		return m, nil

	case indexDoneMsg:
		m.indexing = false
		if msg.err != nil {
			m.notice = errorStyle.Render(fmt.Sprintf("Indexing failed: %v", msg.err))
			return m, nil
		}
		m.loader.SetKnowledgeBaseID(msg.outcome.KnowledgeBaseID)
		// Cached listings predate the mutation; drop them so navigation does
		// not revert the pending decoration.
		m.loader.Invalidate()
		m.browser.ApplyUpdates(msg.outcome.Resources)
		m.browser.ClearSelection()
		if msg.outcome.SyncErr != nil {
			m.notice = errorStyle.Render(fmt.Sprintf("Knowledge base created, sync failed: %v", msg.outcome.SyncErr))
		} else {
			m.notice = noticeStyle.Render(fmt.Sprintf("Indexing %d file(s) into %s", len(msg.outcome.Resources), msg.outcome.KnowledgeBaseID))
		}
		return m, nil

	case deleteDoneMsg:
		if msg.err != nil {
			m.notice = errorStyle.Render(fmt.Sprintf("Delete failed: %v", msg.err))
			return m, nil
		}
		m.browser.ApplyUpdates([]stackai.Resource{msg.resource})
		m.loader.Invalidate()
		m.notice = noticeStyle.Render(fmt.Sprintf("Removed %s from the index", msg.resource.Name()))
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The confirm modal captures all input until answered.
	if m.pendingDelete != nil {
		switch msg.String() {
		case "y", "Y":
			cmd := m.deleteStaged()
			m.pendingDelete = nil
			return m, cmd
		case "n", "N", "esc":
			m.pendingDelete = nil
			return m, nil
		}
		return m, nil
	}

	if m.filtering {
		switch msg.String() {
		case "enter", "esc":
			m.filtering = false
			m.filterInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.browser.SetFilter(m.filterInput.Value())
			m.clampCursor()
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.browser.Visible())-1 {
			m.cursor++
		}
		return m, nil

	case "enter", "l":
		current, ok := m.currentResource()
		if !ok || !current.IsDirectory() {
			return m, nil
		}
		if err := m.browser.NavigateInto(current); err != nil {
			return m, nil
		}
		m.cursor = 0
		m.resetFilter()
		return m, m.loadFolder(false)

	case "backspace", "h":
		atRoot := len(m.browser.Path()) == 0
		m.browser.NavigateBack()
		if atRoot {
			return m, nil
		}
		m.cursor = 0
		m.resetFilter()
		return m, m.loadFolder(false)

	case " ":
		// Directories are selectable too; the remote service indexes them
		// recursively.
		if current, ok := m.currentResource(); ok {
			m.browser.ToggleSelect(current.ResourceID)
		}
		return m, nil

	case "i":
		if m.browser.SelectionCount() == 0 || m.indexing {
			return m, nil
		}
		m.indexing = true
		m.notice = ""
		return m, m.indexSelected()

	case "d":
		current, ok := m.currentResource()
		if !ok || current.KnowledgeBaseID == "" || current.Status == stackai.StatusDeleted {
			return m, nil
		}
		m.pendingDelete = &current
		return m, nil

	case "s":
		if m.browser.SortBy() == picker.SortByName {
			m.browser.SetSort(picker.SortByDate)
		} else {
			m.browser.SetSort(picker.SortByName)
		}
		m.clampCursor()
		return m, nil

	case "/":
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case "r":
		m.browser.Reload()
		m.notice = ""
		return m, m.loadFolder(true)
	}

	return m, nil
}

func (m *Model) currentResource() (stackai.Resource, bool) {
	visible := m.browser.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return stackai.Resource{}, false
	}
	return visible[m.cursor], true
}

func (m *Model) clampCursor() {
	if n := len(m.browser.Visible()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) resetFilter() {
	m.filterInput.SetValue("")
	m.browser.SetFilter("")
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" stackpick "))
	b.WriteString("  ")
	b.WriteString(breadcrumbStyle.Render(m.renderBreadcrumbs()))
	b.WriteString("\n\n")

	switch m.browser.State() {
	case picker.StateLoading, picker.StateIdle:
		b.WriteString(fmt.Sprintf("  %s Loading folder...\n", m.spinner.View()))

	case picker.StateErrored:
		b.WriteString(errorStyle.Render(fmt.Sprintf("  Error: %v", m.browser.Err())))
		b.WriteString("\n\n  Press r to retry.\n")

	case picker.StateLoaded:
		b.WriteString(m.renderListing())
	}

	if m.filtering || m.filterInput.Value() != "" {
		b.WriteString("\n  Filter: ")
		b.WriteString(m.filterInput.View())
		b.WriteString("\n")
	}

	if m.indexing {
		b.WriteString(fmt.Sprintf("\n  %s Creating knowledge base and starting sync...\n", m.spinner.View()))
	}

	if m.notice != "" {
		b.WriteString("\n  ")
		b.WriteString(m.notice)
		b.WriteString("\n")
	}

	if m.pendingDelete != nil {
		b.WriteString("\n")
		b.WriteString(modalStyle.Render(fmt.Sprintf(
			"Remove %q from the index?\nThe file itself is not touched.\n\n[y] confirm   [n] cancel",
			m.pendingDelete.Name(),
		)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.renderHelp()))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderBreadcrumbs() string {
	parts := []string{"/"}
	for _, crumb := range m.browser.Path() {
		parts = append(parts, crumb.Name)
	}
	return strings.Join(parts, " > ")
}

func (m Model) renderListing() string {
	visible := m.browser.Visible()
	if len(visible) == 0 {
		return "  This folder is empty.\n"
	}

	var b strings.Builder
	for i, r := range visible {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}

		check := "[ ]"
		if m.browser.IsSelected(r.ResourceID) {
			check = selectedStyle.Render("[x]")
		}

		name := r.Name()
		if r.IsDirectory() {
			name = dirStyle.Render(name + "/")
		}

		line := fmt.Sprintf("%s%s %s %s", cursor, check, name, renderStatus(r.Status))
		b.WriteString(line)
		b.WriteString("\n")
	}

	if count := m.browser.SelectionCount(); count > 0 {
		b.WriteString(fmt.Sprintf("\n  %d file(s) selected\n", count))
	}

	return b.String()
}

func renderStatus(s stackai.ResourceStatus) string {
	switch s {
	case stackai.StatusIndexed:
		return statusIndexed.Render("● indexed")
	case stackai.StatusPending:
		return statusPending.Render("● pending")
	case stackai.StatusFailed:
		return statusFailed.Render("● failed")
	case stackai.StatusDeleted:
		return statusDeleted.Render("deleted")
	default:
		return ""
	}
}

func (m Model) renderHelp() string {
	sortLabel := "name"
	if m.browser.SortBy() == picker.SortByDate {
		sortLabel = "date"
	}
	return fmt.Sprintf(
		"enter: open | backspace: up | space: select | i: index | d: de-index | s: sort (%s) | /: filter | r: refresh | q: quit",
		sortLabel,
	)
}
