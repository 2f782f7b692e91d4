// Package tui provides an interactive terminal UI for the task repository
// using Bubble Tea.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/byronguina/tasktracker/internal/model"
	"github.com/byronguina/tasktracker/internal/repository"
)

// ViewMode represents the current view state.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)

// Source selects which repository listing the list pane shows.
type Source int

const (
	SourceAll Source = iota
	SourcePrioritized
	SourceHistory
)

func (s Source) String() string {
	switch s {
	case SourcePrioritized:
		return "prioritized"
	case SourceHistory:
		return "history"
	default:
		return "all"
	}
}

// InputMode represents what kind of text input is active.
type InputMode int

const (
	InputNone   InputMode = iota
	InputSearch           // Entering search text
	InputCreate           // Entering new task name
)

const (
	iconNew        = "○"
	iconInProgress = "◐"
	iconDone       = "●"
)

// Minimum terminal width for split view
const minSplitWidth = 80

// FocusPane represents which pane is focused in split view.
type FocusPane int

const (
	FocusList FocusPane = iota
	FocusDetail
)

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	repo     *repository.Repository
	source   Source
	items    []*model.Item // current listing from the repository
	filtered []*model.Item // items after filtering
	cursor   int
	viewMode ViewMode

	filterStatuses map[model.Status]bool
	filterSearch   string

	inputMode  InputMode
	inputText  string
	inputLabel string

	width   int
	height  int
	err     error
	message string

	// Item opened with enter; opening records a view in the history.
	opened   *model.Item
	subtasks []*model.Item

	focusPane    FocusPane
	detailScroll int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	statusColors = map[model.Status]lipgloss.Color{
		model.StatusNew:        lipgloss.Color("252"),
		model.StatusInProgress: lipgloss.Color("214"),
		model.StatusDone:       lipgloss.Color("42"),
	}

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	contentPadding = 2
)

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusNew:
		return iconNew
	case model.StatusInProgress:
		return iconInProgress
	case model.StatusDone:
		return iconDone
	default:
		return "?"
	}
}

// New creates a TUI model over repo. Done items are hidden until toggled on.
func New(repo *repository.Repository) Model {
	return Model{
		repo:     repo,
		viewMode: ViewList,
		filterStatuses: map[model.Status]bool{
			model.StatusNew:        true,
			model.StatusInProgress: true,
			model.StatusDone:       false,
		},
	}
}

type itemsMsg struct {
	items []*model.Item
}

type openedMsg struct {
	item     *model.Item
	subtasks []*model.Item
	err      error
}

type actionMsg struct {
	message string
	err     error
}

// loadItems reads the listing for the current source.
func (m Model) loadItems() tea.Cmd {
	repo, source := m.repo, m.source
	return func() tea.Msg {
		switch source {
		case SourcePrioritized:
			return itemsMsg{items: repo.Prioritized()}
		case SourceHistory:
			return itemsMsg{items: repo.History()}
		}
		var items []*model.Item
		items = append(items, repo.Tasks()...)
		items = append(items, repo.Epics()...)
		items = append(items, repo.Subtasks()...)
		return itemsMsg{items: items}
	}
}

// openItem fetches the selected item through the repository, which records
// it as viewed.
func (m Model) openItem() tea.Cmd {
	item := m.selected()
	if item == nil {
		return nil
	}
	repo := m.repo
	return func() tea.Msg {
		var (
			got *model.Item
			err error
		)
		switch item.Kind {
		case model.KindTask:
			got, err = repo.GetTask(item.ID)
		case model.KindEpic:
			got, err = repo.GetEpic(item.ID)
		default:
			got, err = repo.GetSubtask(item.ID)
		}
		if err != nil {
			return openedMsg{err: err}
		}
		msg := openedMsg{item: got}
		if got.Kind == model.KindEpic {
			msg.subtasks = repo.SubtasksForEpic(got.ID)
		}
		return msg
	}
}

func (m Model) selected() *model.Item {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	return m.filtered[m.cursor]
}

// applyFilters filters items based on current filter state.
func (m *Model) applyFilters() {
	m.filtered = nil
	search := strings.ToLower(m.filterSearch)
	for _, item := range m.items {
		if !m.filterStatuses[item.Status] {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) &&
			!strings.Contains(fmt.Sprint(item.ID), search) {
			continue
		}
		m.filtered = append(m.filtered, item)
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadItems()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.message = ""
		m.err = nil
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Narrow modal → Wide: close modal, show split view
		if m.viewMode == ViewDetail && m.width >= minSplitWidth {
			m.viewMode = ViewList
			m.focusPane = FocusDetail
		}
		return m, nil

	case itemsMsg:
		m.items = msg.items
		m.applyFilters()
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, m.loadItems()
		}
		m.opened = msg.item
		m.subtasks = msg.subtasks
		// Opening changes the history listing.
		if m.source == SourceHistory {
			return m, m.loadItems()
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.message = msg.message
		}
		return m, m.loadItems()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode != InputNone {
		return m.handleInputKey(msg)
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputMode = InputNone
		m.inputText = ""
		return m, nil

	case "enter":
		return m.submitInput()

	case "backspace":
		if len(m.inputText) > 0 {
			m.inputText = m.inputText[:len(m.inputText)-1]
		}

	default:
		if msg.Type == tea.KeySpace {
			m.inputText += " "
		} else if msg.Type == tea.KeyRunes {
			m.inputText += string(msg.Runes)
		}
	}

	if m.inputMode == InputSearch {
		m.filterSearch = m.inputText
		m.applyFilters()
	}
	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.inputText)
	mode := m.inputMode
	m.inputMode = InputNone
	m.inputText = ""

	switch mode {
	case InputSearch:
		m.filterSearch = text
		m.applyFilters()
		return m, nil

	case InputCreate:
		if text == "" {
			return m, nil
		}
		repo := m.repo
		return m, func() tea.Msg {
			task, err := repo.AddTask(model.NewTask(text, "", model.StatusNew, nil, 0))
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{message: fmt.Sprintf("Created task %d", task.ID)}
		}
	}

	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.width >= minSplitWidth && m.focusPane == FocusDetail {
		return m.handleDetailPaneKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.width >= minSplitWidth {
			m.focusPane = FocusDetail
		}

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.detailScroll = 0
		}

	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.detailScroll = 0
		}

	case "g", "home":
		m.cursor = 0
		m.detailScroll = 0

	case "G", "end":
		m.cursor = max(0, len(m.filtered)-1)
		m.detailScroll = 0

	case "enter", "l":
		if m.selected() == nil {
			return m, nil
		}
		if m.width < minSplitWidth {
			m.viewMode = ViewDetail
		} else {
			m.focusPane = FocusDetail
		}
		return m, m.openItem()

	case "s":
		return m.doStart()
	case "d":
		return m.doDone()
	case "D":
		return m.doDelete()
	case "n":
		return m.startInput(InputCreate, "New task: ")

	case "/":
		return m.startInput(InputSearch, "Search: ")
	case "1":
		m.toggleStatus(model.StatusNew)
	case "2":
		m.toggleStatus(model.StatusInProgress)
	case "3":
		m.toggleStatus(model.StatusDone)
	case "0":
		for s := range m.filterStatuses {
			m.filterStatuses[s] = true
		}
		m.applyFilters()

	case "v":
		m.source = (m.source + 1) % 3
		m.cursor = 0
		return m, m.loadItems()

	case "esc":
		if m.filterSearch == "" {
			return m, tea.Quit
		}
		m.filterSearch = ""
		m.applyFilters()

	case "r":
		return m, m.loadItems()
	}

	return m, nil
}

func (m *Model) toggleStatus(s model.Status) {
	m.filterStatuses[s] = !m.filterStatuses[s]
	m.applyFilters()
}

// handleDetailPaneKey handles keys when detail pane is focused in split view.
func (m Model) handleDetailPaneKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab", "esc", "h":
		m.focusPane = FocusList

	case "up", "k":
		if m.detailScroll > 0 {
			m.detailScroll--
		}

	case "down", "j":
		m.detailScroll++

	case "g", "home":
		m.detailScroll = 0

	case "G", "end":
		// Bounded by content in detailViewWithHeight
		m.detailScroll = 9999

	case "s":
		return m.doStart()
	case "d":
		return m.doDone()
	}

	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc", "h", "backspace":
		m.viewMode = ViewList

	case "s":
		return m.doStart()
	case "d":
		return m.doDone()

	case "r":
		return m, m.openItem()
	}

	return m, nil
}

func (m Model) startInput(mode InputMode, label string) (Model, tea.Cmd) {
	m.inputMode = mode
	m.inputLabel = label
	m.inputText = ""
	return m, nil
}

func (m Model) doStart() (Model, tea.Cmd) {
	return m.setStatus(model.StatusNew, model.StatusInProgress, "Started")
}

func (m Model) doDone() (Model, tea.Cmd) {
	return m.setStatus(model.StatusInProgress, model.StatusDone, "Completed")
}

// setStatus moves the selected task or subtask from one status to the next.
// Epic status follows the subtasks and cannot be set.
func (m Model) setStatus(from, to model.Status, verb string) (Model, tea.Cmd) {
	item := m.selected()
	if item == nil {
		return m, nil
	}
	if item.Kind == model.KindEpic {
		m.message = "Epic status follows its subtasks"
		return m, nil
	}
	if item.Status != from {
		m.message = fmt.Sprintf("Can only do that to %s items", from)
		return m, nil
	}

	updated := item.Clone()
	updated.Status = to
	repo := m.repo
	return m, func() tea.Msg {
		var err error
		if updated.Kind == model.KindTask {
			err = repo.UpdateTask(updated)
		} else {
			err = repo.UpdateSubtask(updated)
		}
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: fmt.Sprintf("%s %s", verb, updated)}
	}
}

func (m Model) doDelete() (Model, tea.Cmd) {
	item := m.selected()
	if item == nil {
		return m, nil
	}
	repo := m.repo
	return m, func() tea.Msg {
		var err error
		switch item.Kind {
		case model.KindTask:
			err = repo.RemoveTask(item.ID)
		case model.KindEpic:
			err = repo.RemoveEpic(item.ID)
		default:
			err = repo.RemoveSubtask(item.ID)
		}
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: fmt.Sprintf("Deleted %s", item)}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	switch m.viewMode {
	case ViewList:
		b.WriteString(m.listView())
	case ViewDetail:
		b.WriteString(m.detailViewWithHeight(0, 0))
	}

	if m.inputMode != InputNone {
		b.WriteString("\n")
		b.WriteString(inputStyle.Render(m.inputLabel + m.inputText + "█"))
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	} else if m.message != "" {
		b.WriteString("\n")
		b.WriteString(messageStyle.Render(m.message))
	}

	padStyle := lipgloss.NewStyle().
		PaddingLeft(contentPadding).
		PaddingRight(contentPadding).
		PaddingTop(1)

	return padStyle.Render(b.String())
}

func (m Model) listView() string {
	if m.width >= minSplitWidth {
		return m.splitView()
	}
	height := m.height - 8
	if height < 10 {
		height = 15
	}
	return m.renderListPane(m.width-(contentPadding*2), height)
}

// splitView renders the list on the left and details on the right.
func (m Model) splitView() string {
	focusedColor := lipgloss.Color("39")
	unfocusedColor := lipgloss.Color("241")

	// Each pane has a one-column border on both sides; one column between them.
	gap := 1
	borderChars := 4
	availableWidth := m.width - borderChars - gap - (contentPadding * 2)
	leftContentWidth := availableWidth / 2
	rightContentWidth := availableWidth - leftContentWidth

	// Outer padding top, both borders and the status line.
	contentHeight := m.height - 4
	if contentHeight < 10 {
		contentHeight = 10
	}

	leftLines := strings.Split(m.renderListPane(leftContentWidth, contentHeight), "\n")
	rightLines := strings.Split(m.detailViewWithHeight(rightContentWidth, contentHeight), "\n")
	leftLines = normalizeLines(leftLines, contentHeight, leftContentWidth)
	rightLines = normalizeLines(rightLines, contentHeight, rightContentWidth)

	leftColor, rightColor := focusedColor, unfocusedColor
	if m.focusPane == FocusDetail {
		leftColor, rightColor = unfocusedColor, focusedColor
	}

	leftBox := buildBorderedBox(leftLines, leftContentWidth, leftColor)
	rightBox := buildBorderedBox(rightLines, rightContentWidth, rightColor)
	return lipgloss.JoinHorizontal(lipgloss.Top, leftBox, strings.Repeat(" ", gap), rightBox)
}

// normalizeLines returns exactly height lines, each padded to width.
func normalizeLines(lines []string, height, width int) []string {
	result := make([]string, height)
	for i := range result {
		if i < len(lines) {
			result[i] = padToWidth(lines[i], width)
		} else {
			result[i] = strings.Repeat(" ", width)
		}
	}
	return result
}

// buildBorderedBox draws a rounded border around content lines.
func buildBorderedBox(lines []string, contentWidth int, borderColor lipgloss.Color) string {
	style := lipgloss.NewStyle().Foreground(borderColor)
	horizontal := strings.Repeat(style.Render("─"), contentWidth)
	vertical := style.Render("│")

	var b strings.Builder
	b.WriteString(style.Render("╭") + horizontal + style.Render("╮") + "\n")
	for _, line := range lines {
		b.WriteString(vertical + line + vertical + "\n")
	}
	b.WriteString(style.Render("╰") + horizontal + style.Render("╯"))
	return b.String()
}

// padToWidth pads s with spaces to width visible columns, ignoring ANSI
// escape codes.
func padToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func (m Model) renderListPane(width, height int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tasks"))
	b.WriteString(fmt.Sprintf("  %s  %d/%d items", m.source, len(m.filtered), len(m.items)))
	if filters := m.activeFiltersString(); filters != "" {
		b.WriteString("  ")
		b.WriteString(filterStyle.Render(filters))
	}
	b.WriteString("\n\n")

	// Two header lines and three footer lines.
	itemsHeight := max(3, height-5)
	rowWidth := max(40, width)

	if len(m.filtered) == 0 {
		b.WriteString("No items match filters\n")
	} else {
		start := 0
		if m.cursor >= itemsHeight {
			start = m.cursor - itemsHeight + 1
		}
		end := min(start+itemsHeight, len(m.filtered))

		for i := start; i < end; i++ {
			item := m.filtered[i]
			if i == m.cursor {
				b.WriteString(selectedRowStyle.Width(rowWidth).Render(formatItemLine(item, rowWidth, false)))
			} else {
				b.WriteString(lipgloss.NewStyle().Width(rowWidth).Render(formatItemLine(item, rowWidth, true)))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.width >= minSplitWidth {
		b.WriteString(helpStyle.Render("j/k:nav  enter:open  tab:focus  s:start d:done D:delete n:new"))
	} else {
		b.WriteString(helpStyle.Render("j/k:nav  enter:detail  s:start d:done D:delete n:new"))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("/:search 1-3:status 0:all  v:view r:refresh q:quit"))

	return b.String()
}

// formatItemLine renders one list row. Selected rows are plain so a single
// highlight style can cover them.
func formatItemLine(item *model.Item, width int, styled bool) string {
	icon := statusIcon(item.Status)
	id := fmt.Sprintf("%4d", item.ID)
	kind := fmt.Sprintf("%-7s", item.Kind)
	when := ""
	if item.StartTime != nil {
		when = item.StartTime.Format(model.TimeLayout)
	}

	// icon, id, kind and spacing take 16 columns; the time takes 19.
	nameWidth := width - 16 - len(when)
	if nameWidth < 20 {
		nameWidth = 20
	}
	name := item.Name
	if len(name) > nameWidth {
		name = name[:nameWidth-3] + "..."
	}

	if styled {
		icon = lipgloss.NewStyle().Foreground(statusColors[item.Status]).Render(icon)
		id = dimStyle.Render(id)
		kind = dimStyle.Render(kind)
		when = dimStyle.Render(when)
	}
	return fmt.Sprintf("%s %s %s  %-*s %s", icon, id, kind, nameWidth, name, when)
}

func (m Model) activeFiltersString() string {
	var parts []string

	var statuses []string
	for _, s := range []model.Status{model.StatusNew, model.StatusInProgress, model.StatusDone} {
		if m.filterStatuses[s] {
			statuses = append(statuses, strings.ToLower(string(s)[:1]))
		}
	}
	if len(statuses) < len(m.filterStatuses) {
		parts = append(parts, "status:"+strings.Join(statuses, ""))
	}
	if m.filterSearch != "" {
		parts = append(parts, "search:\""+m.filterSearch+"\"")
	}
	return strings.Join(parts, " ")
}

// detailViewWithHeight renders the detail pane. A width of 0 means the full
// screen detail view; otherwise the content is clipped to width and height
// and scrolled by detailScroll.
func (m Model) detailViewWithHeight(width, height int) string {
	item := m.selected()
	if item == nil {
		return "No item selected"
	}
	opened := m.opened != nil && m.opened.ID == item.ID
	var subtasks []*model.Item
	if opened {
		item, subtasks = m.opened, m.subtasks
	}

	effectiveWidth := width
	if effectiveWidth == 0 {
		effectiveWidth = m.width - (contentPadding * 2)
	}
	effectiveWidth = max(40, effectiveWidth)
	truncate := func(s string, n int) string {
		if width == 0 || len(s) <= n {
			return s
		}
		if n <= 3 {
			return "..."
		}
		return s[:n-3] + "..."
	}

	color := statusColors[item.Status]
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Foreground(color).Render(statusIcon(item.Status))+" "+titleStyle.Render(truncate(item.Name, effectiveWidth-4)))
	lines = append(lines, "")
	lines = append(lines, detailLabelStyle.Render("ID:       ")+fmt.Sprint(item.ID))
	lines = append(lines, detailLabelStyle.Render("Type:     ")+string(item.Kind))
	lines = append(lines, detailLabelStyle.Render("Status:   ")+lipgloss.NewStyle().Foreground(color).Render(string(item.Status)))
	if item.Kind == model.KindSubtask {
		lines = append(lines, detailLabelStyle.Render("Epic:     ")+fmt.Sprint(item.EpicID))
	}
	if item.StartTime != nil {
		lines = append(lines, detailLabelStyle.Render("Start:    ")+item.StartTime.Format(model.TimeLayout))
		lines = append(lines, detailLabelStyle.Render("End:      ")+item.EndTime().Format(model.TimeLayout))
	}
	lines = append(lines, detailLabelStyle.Render("Duration: ")+fmt.Sprintf("%d min", item.Duration))

	if item.Description != "" {
		lines = append(lines, "", detailLabelStyle.Render("Description:"))
		for _, dl := range strings.Split(item.Description, "\n") {
			lines = append(lines, truncate(dl, effectiveWidth))
		}
	}

	if len(subtasks) > 0 {
		lines = append(lines, "", detailLabelStyle.Render("Subtasks:"))
		for _, s := range subtasks {
			lines = append(lines, "  "+statusIcon(s.Status)+" "+dimStyle.Render(fmt.Sprint(s.ID))+" "+truncate(s.Name, effectiveWidth-10))
		}
	} else if item.Kind == model.KindEpic && !opened {
		lines = append(lines, "", dimStyle.Render("enter to load subtasks"))
	}

	if width == 0 {
		lines = append(lines, "", helpStyle.Render("esc:back  s:start d:done r:reload  q:quit"))
		return strings.Join(lines, "\n")
	}

	visibleHeight := height
	if visibleHeight <= 0 {
		visibleHeight = len(lines)
	}
	scroll := min(m.detailScroll, max(0, len(lines)-visibleHeight))
	end := min(scroll+visibleHeight, len(lines))
	return strings.Join(lines[scroll:end], "\n")
}

// Run starts the TUI on repo and blocks until the user quits.
func Run(repo *repository.Repository) error {
	p := tea.NewProgram(New(repo), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
