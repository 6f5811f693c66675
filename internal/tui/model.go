package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/Brandtweary/cyberorganism/internal/command"
	"github.com/Brandtweary/cyberorganism/internal/display"
	"github.com/Brandtweary/cyberorganism/internal/domain"
	"github.com/Brandtweary/cyberorganism/internal/genius"
)

// helpMarkdown is rendered into the help overlay.
const helpMarkdown = `# cyberorganism

Type into the input line and press enter. Plain text creates a task in the
active container; command verbs act on existing tasks.

## Commands

| Command | Effect |
| --- | --- |
| ` + "`<text>`" + ` | create a task (or save edits to the focused task) |
| ` + "`complete <task>`" + ` | complete and archive a task |
| ` + "`delete <task>`" + ` | delete a task |
| ` + "`move to <container> <task>`" + ` | move a task between containers |
| ` + "`focus <task>`" + ` | focus a task and load it for editing |
| ` + "`show <container>`" + ` | switch the visible container |
| ` + "`toggle <task>`" + ` | fold or unfold a task's subtasks |
| ` + "`subtask <parent> <text>`" + ` | add a subtask under a parent |

Tasks are matched by display index (` + "`1`" + `, ` + "`1.2`" + `) or by exact
content. With no argument, commands act on the focused task.

## Keys

Arrow keys move focus through the visible tasks; the input line is slot
zero. Esc returns to the input line. Enter runs the input.
`

// feedAddMarker prefixes feed items captured into the taskpad.
const feedAddMarker = "genius: "

// Model represents model data used by this package.
type Model struct {
	exec     *command.Executor
	engine   *display.Engine
	activity *display.ActivityLog
	bridge   *genius.Bridge
	clip     func(string) error

	ready  bool
	width  int
	height int
	err    error

	status string

	help  help.Model
	keys  keyMap
	input textinput.Model
	md    markdownRenderer

	tasks []domain.Task

	showHelp bool

	feedVisible  bool
	feedLoading  bool
	feedQuery    string
	feedIndex    int
	feedItems    []genius.Item
	feedExpanded map[string]struct{}
	feedPinned   map[string]struct{}
}

// tasksLoadedMsg carries the initial task set.
type tasksLoadedMsg struct {
	tasks []domain.Task
	err   error
}

// commandDoneMsg carries the task set after a command executed.
type commandDoneMsg struct {
	tasks []domain.Task
	err   error
}

// feedLoadedMsg carries accumulated feed items after a query or page load.
type feedLoadedMsg struct {
	items []genius.Item
	query string
	page  int
	err   error
}

// yankDoneMsg reports the clipboard write result.
type yankDoneMsg struct {
	content string
	err     error
}

// NewModel constructs a new value for this package.
func NewModel(exec *command.Executor, engine *display.Engine, activity *display.ActivityLog, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "task content or command"
	input.CharLimit = 512
	m := Model{
		exec:         exec,
		engine:       engine,
		activity:     activity,
		clip:         clipboard.WriteAll,
		status:       "loading...",
		help:         h,
		keys:         newKeyMap(),
		input:        input,
		feedExpanded: map[string]struct{}{},
		feedPinned:   map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadTasks
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(max(20, m.width-4))
		return m, nil

	case tasksLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.tasks = msg.tasks
		var focusCmd tea.Cmd
		if m.engine.TakeInitialStartup() {
			focusCmd = m.input.Focus()
		}
		m.consumeUIRequests()
		m.status = "ready"
		return m, focusCmd

	case commandDoneMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		m.tasks = msg.tasks
		m.consumeUIRequests()
		if latest, ok := m.activity.Latest(); ok {
			m.status = latest
		}
		return m, nil

	case feedLoadedMsg:
		m.feedLoading = false
		if msg.err != nil {
			m.status = "feed error: " + msg.err.Error()
			return m, nil
		}
		m.feedItems = msg.items
		m.feedQuery = msg.query
		if m.feedIndex >= len(m.feedItems) {
			m.feedIndex = max(0, len(m.feedItems)-1)
		}
		m.status = fmt.Sprintf("%d feed results", len(m.feedItems))
		return m, nil

	case yankDoneMsg:
		if msg.err != nil {
			m.status = "yank failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "yanked: " + truncate(msg.content, 48)
		return m, nil

	case tea.KeyPressMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.feedVisible {
			return m.handleFeedKey(msg)
		}
		return m.handleMainKey(msg)

	default:
		return m, nil
	}
}

// handleMainKey routes keys in the main task view. Navigation and control
// chords are intercepted; everything else feeds the input line.
func (m Model) handleMainKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggleHelp):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.focusUp):
		m.engine.FocusPrevious()
		m.engine.SyncInputForFocus(m.tasks)
		m.consumeUIRequests()
		m.syncInputFromEngine()
		return m, nil

	case key.Matches(msg, m.keys.focusDown):
		m.engine.FocusNext()
		m.engine.SyncInputForFocus(m.tasks)
		m.consumeUIRequests()
		m.syncInputFromEngine()
		return m, nil

	case key.Matches(msg, m.keys.clearFocus):
		m.engine.FocusTask("", m.tasks)
		m.consumeUIRequests()
		return m, nil

	case key.Matches(msg, m.keys.toggleFold):
		id, ok := m.engine.FocusedTaskID()
		if !ok {
			m.status = "no task focused"
			return m, nil
		}
		m.engine.ToggleFold(id, m.tasks)
		m.engine.FocusTask(id, m.tasks)
		m.consumeUIRequests()
		return m, nil

	case key.Matches(msg, m.keys.collapseAll):
		m.engine.CollapseAll()
		m.engine.Recompute(m.tasks)
		m.consumeUIRequests()
		m.status = "collapsed all subtasks"
		return m, nil

	case key.Matches(msg, m.keys.yankTask):
		content, ok := m.engine.FocusedContent(m.tasks)
		if !ok {
			content = m.input.Value()
		}
		if strings.TrimSpace(content) == "" {
			m.status = "nothing to yank"
			return m, nil
		}
		return m, m.yankCmd(content)

	case key.Matches(msg, m.keys.showFeed):
		if m.bridge == nil {
			m.status = "feed not configured"
			return m, nil
		}
		m.feedVisible = true
		m.feedIndex = 0
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			m.status = "type a query on the input line, then open the feed"
			return m, nil
		}
		m.feedLoading = true
		return m, m.queryFeedCmd(query)

	case key.Matches(msg, m.keys.submit):
		return m.submitInput()

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.engine.SetInput(m.input.Value())
		return m, cmd
	}
}

// submitInput parses the input line and dispatches the resulting command.
// Plain text with a task focused saves edits to that task instead of
// creating a new one.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return m, nil
	}

	cmd := command.Parse(value)
	if create, isCreate := cmd.(command.Create); isCreate {
		if id, focused := m.engine.FocusedTaskID(); focused {
			cmd = command.Edit{TaskID: id, Content: create.Content}
		}
	}
	return m, m.runCommandCmd(cmd)
}

// handleFeedKey routes keys while the feed overlay is open. The input line
// does not capture text here, so plain letters act as shortcuts.
func (m Model) handleFeedKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.clearFocus), key.Matches(msg, m.keys.showFeed):
		m.feedVisible = false
		return m, nil

	case key.Matches(msg, m.keys.focusUp):
		if m.feedIndex > 0 {
			m.feedIndex--
		}
		return m, nil

	case key.Matches(msg, m.keys.focusDown):
		if m.feedIndex < len(m.feedItems)-1 {
			m.feedIndex++
		}
		return m, nil

	case key.Matches(msg, m.keys.submit):
		item, ok := m.focusedFeedItem()
		if !ok {
			return m, nil
		}
		if _, expanded := m.feedExpanded[item.ID]; expanded {
			delete(m.feedExpanded, item.ID)
		} else {
			m.feedExpanded[item.ID] = struct{}{}
		}
		return m, nil
	}

	switch msg.Text {
	case "p":
		item, ok := m.focusedFeedItem()
		if !ok {
			return m, nil
		}
		if _, pinned := m.feedPinned[item.ID]; pinned {
			delete(m.feedPinned, item.ID)
		} else {
			m.feedPinned[item.ID] = struct{}{}
		}
		return m, nil

	case "n":
		if m.bridge == nil || m.feedLoading {
			return m, nil
		}
		m.feedLoading = true
		return m, m.nextFeedPageCmd()

	case "a":
		item, ok := m.focusedFeedItem()
		if !ok {
			return m, nil
		}
		m.feedVisible = false
		return m, m.runCommandCmd(command.Create{Content: feedAddMarker + item.Description})
	}
	return m, nil
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress ctrl+c to quit\n")
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	if m.showHelp {
		v := tea.NewView(m.md.render(helpMarkdown, max(28, m.width-4)))
		v.AltScreen = true
		return v
	}
	if m.feedVisible {
		v := tea.NewView(m.renderFeed())
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	containerStyle := lipgloss.NewStyle().Foreground(accent)
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("cyberorganism") + "  " +
		containerStyle.Render(m.engine.ActiveContainer().DisplayName()) +
		statusStyle.Render(fmt.Sprintf("  %d visible", m.engine.Len()))

	inputLine := m.input.View()
	if _, hasFocus := m.engine.FocusedTaskID(); !hasFocus {
		inputLine = lipgloss.NewStyle().Bold(true).Render(inputLine)
	}

	sections := []string{header, "", inputLine, ""}
	sections = append(sections, m.renderTaskRows()...)
	sections = append(sections, "", statusStyle.Render(m.status))

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	v := tea.NewView(strings.Join(sections, "\n") + "\n" + helpLine)
	v.AltScreen = true
	return v
}

// renderTaskRows walks the visible tree the same way the display engine
// orders it: top-level tasks of the active container, descending through
// expanded nodes only.
func (m Model) renderTaskRows() []string {
	focusedID, _ := m.engine.FocusedTaskID()
	rows := make([]string, 0, m.engine.Len())

	var walk func(task domain.Task, label string, depth int)
	walk = func(task domain.Task, label string, depth int) {
		rows = append(rows, m.renderTaskRow(task, label, depth, task.ID == focusedID))
		if !m.engine.IsExpanded(task.ID) {
			return
		}
		childNum := 0
		for _, childID := range task.ChildIDs {
			child := domain.FindTask(m.tasks, childID)
			if child == nil {
				continue
			}
			childNum++
			walk(*child, fmt.Sprintf("%s%d.", label, childNum), depth+1)
		}
	}

	topNum := 0
	for i := range m.tasks {
		task := &m.tasks[i]
		if task.Container != m.engine.ActiveContainer() || !task.IsTopLevel() {
			continue
		}
		topNum++
		walk(*task, fmt.Sprintf("%d.", topNum), 0)
	}

	if len(rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
			Render("no tasks in " + m.engine.ActiveContainer().DisplayName())
		rows = append(rows, empty)
	}
	return rows
}

func (m Model) renderTaskRow(task domain.Task, label string, depth int, focused bool) string {
	marker := "  "
	if hasLiveChildren(task, m.tasks) {
		if m.engine.IsExpanded(task.ID) {
			marker = "▼ "
		} else {
			marker = "▶ "
		}
	}

	check := "[ ]"
	if task.Status == domain.StatusDone {
		check = "[x]"
	}

	row := strings.Repeat("  ", depth) + label + " " + marker + check + " " + task.Content
	if focused {
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Render("▸ " + row)
	}
	return "  " + row
}

func (m Model) renderFeed() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))

	header := titleStyle.Render("genius feed")
	if m.feedQuery != "" {
		header += muted.Render(fmt.Sprintf("  %q  page %d", m.feedQuery, m.bridgePage()))
	}

	lines := []string{header, ""}
	switch {
	case m.feedLoading:
		lines = append(lines, muted.Render("loading..."))
	case len(m.feedItems) == 0:
		lines = append(lines, muted.Render("no results"))
	}

	for idx, item := range m.feedItems {
		prefix := "  "
		if idx == m.feedIndex {
			prefix = "▸ "
		}
		pin := " "
		if _, pinned := m.feedPinned[item.ID]; pinned {
			pin = "*"
		}
		desc := item.Description
		if _, expanded := m.feedExpanded[item.ID]; !expanded {
			desc = truncate(firstLine(desc), max(24, m.width-12))
		}
		lines = append(lines, fmt.Sprintf("%s%s %2d. %s", prefix, pin, idx+1, desc))
	}

	lines = append(lines, "", muted.Render("enter expand • p pin • a add as task • n next page • esc close"))
	return strings.Join(lines, "\n")
}

func (m Model) bridgePage() int {
	if m.bridge == nil {
		return 0
	}
	return m.bridge.Page()
}

func (m Model) focusedFeedItem() (genius.Item, bool) {
	if m.feedIndex < 0 || m.feedIndex >= len(m.feedItems) {
		return genius.Item{}, false
	}
	return m.feedItems[m.feedIndex], true
}

// consumeUIRequests applies pending engine-side input requests to the
// textinput widget.
func (m *Model) consumeUIRequests() {
	refocus, cursorAtEnd, syncInput := m.engine.TakeUIRequests()
	if syncInput {
		m.syncInputFromEngine()
	}
	if cursorAtEnd {
		m.input.CursorEnd()
	}
	if refocus {
		m.input.Focus()
	}
}

func (m *Model) syncInputFromEngine() {
	if m.input.Value() != m.engine.InputValue() {
		m.input.SetValue(m.engine.InputValue())
		m.input.CursorEnd()
	}
}

func (m Model) loadTasks() tea.Msg {
	tasks, err := m.exec.Execute(context.Background(), nil)
	return tasksLoadedMsg{tasks: tasks, err: err}
}

func (m Model) runCommandCmd(cmd command.Command) tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.exec.Execute(context.Background(), cmd)
		return commandDoneMsg{tasks: tasks, err: err}
	}
}

func (m Model) queryFeedCmd(query string) tea.Cmd {
	bridge := m.bridge
	return func() tea.Msg {
		items, err := bridge.Query(context.Background(), query)
		return feedLoadedMsg{items: items, query: query, page: bridge.Page(), err: err}
	}
}

func (m Model) nextFeedPageCmd() tea.Cmd {
	bridge := m.bridge
	return func() tea.Msg {
		items, err := bridge.LoadNextPage(context.Background())
		return feedLoadedMsg{items: items, query: bridge.CurrentQuery(), page: bridge.Page(), err: err}
	}
}

func (m Model) yankCmd(content string) tea.Cmd {
	write := m.clip
	return func() tea.Msg {
		return yankDoneMsg{content: content, err: write(content)}
	}
}

func hasLiveChildren(task domain.Task, tasks []domain.Task) bool {
	for _, childID := range task.ChildIDs {
		if domain.FindTask(tasks, childID) != nil {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
