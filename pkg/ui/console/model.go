package console

import (
	"context"
	"fmt"
	"strings"

	"relaybot/pkg/bus"
	"relaybot/pkg/chat"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type entryKind int

const (
	entryUser entryKind = iota
	entryBot
	entryActivity
	entryError
)

type entry struct {
	kind     entryKind
	author   string
	text     string
	segments []chat.Segment
}

type outboundMsg bus.OutboundMessage

type activityMsg bus.Event

type sayResultMsg struct {
	roomID string
	err    error
}

type model struct {
	ctx      context.Context
	session  Session
	messages *bus.MessageBus
	events   <-chan bus.Event

	theme     theme
	input     textinput.Model
	viewport  viewport.Model
	rooms     []chat.Conversation
	active    int
	entries   map[string][]entry
	unseen    map[string]int
	width     int
	height    int
	isReady   bool
	followLog bool
	lastErr   string
}

func newModel(ctx context.Context, session Session, messages *bus.MessageBus, events <-chan bus.Event) *model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "Say something, or /bot help"
	in.Focus()
	in.CharLimit = 0

	vp := viewport.New(80, 12)

	return &model{
		ctx:       ctx,
		session:   session,
		messages:  messages,
		events:    events,
		theme:     defaultTheme(),
		input:     in,
		viewport:  vp,
		rooms:     session.Rooms(),
		entries:   make(map[string][]entry),
		unseen:    make(map[string]int),
		width:     100,
		height:    28,
		followLog: true,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitOutboundCmd(m.ctx, m.messages), waitActivityCmd(m.events))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeComponents()
		m.refreshViewport(false)
		m.isReady = true
		return m, nil
	case tea.MouseMsg:
		m.handleViewportMouse(typed)
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.switchRoom(1)
			return m, nil
		case "shift+tab":
			m.switchRoom(-1)
			return m, nil
		case "enter":
			return m, m.submit()
		}

		if m.handleViewportKey(typed) {
			return m, nil
		}
	case outboundMsg:
		m.appendEntry(typed.ConversationID, entry{kind: entryBot, author: "relaybot", segments: typed.Segments})
		return m, waitOutboundCmd(m.ctx, m.messages)
	case activityMsg:
		m.appendEntry(typed.ConversationID, entry{kind: entryActivity, text: describeActivity(bus.Event(typed))})
		return m, waitActivityCmd(m.events)
	case sayResultMsg:
		if typed.err != nil {
			m.lastErr = typed.err.Error()
			m.appendEntry(typed.roomID, entry{kind: entryError, text: typed.err.Error()})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit records the typed line in the active room and hands it to the
// console transport.
func (m *model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	if isExitCommand(text) {
		return tea.Quit
	}

	room := m.activeRoom()
	m.lastErr = ""
	m.input.SetValue("")
	m.followLog = true
	m.appendEntry(room.ID, entry{kind: entryUser, author: m.session.User().FullName, text: text})

	return sayCmd(m.ctx, m.session, room.ID, text)
}

func (m *model) activeRoom() chat.Conversation {
	return m.rooms[m.active]
}

func (m *model) switchRoom(step int) {
	m.active = (m.active + step + len(m.rooms)) % len(m.rooms)
	delete(m.unseen, m.activeRoom().ID)
	m.followLog = true
	m.refreshViewport(true)
}

func (m *model) appendEntry(roomID string, item entry) {
	m.entries[roomID] = append(m.entries[roomID], item)
	if roomID != m.activeRoom().ID {
		m.unseen[roomID]++
		return
	}

	m.refreshViewport(false)
}

func (m *model) View() string {
	if !m.isReady {
		m.resizeComponents()
		m.refreshViewport(false)
	}

	header := m.theme.header.Width(m.width - 2).Render("relaybot console")
	line := m.theme.divider.Width(m.width - 2).Render(strings.Repeat("═", max(8, m.width-2)))

	status := m.theme.status.Render("Enter send  ·  Tab switch room  ·  PgUp/PgDn scroll  ·  Ctrl+C/Esc quit")
	if m.lastErr != "" {
		status = m.theme.statusErr.Render("last message failed: " + m.lastErr)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.roomTabs(),
		line,
		m.theme.viewport.Width(m.width-2).Render(m.viewport.View()),
		status,
		m.theme.inputLabel.Render(m.session.User().FullName)+" "+m.theme.hint.Render("in "+m.activeRoom().Name),
		m.theme.input.Width(m.width-2).Render(m.input.View()),
	)
}

func (m *model) roomTabs() string {
	tabs := make([]string, 0, len(m.rooms))
	for i, room := range m.rooms {
		label := room.Name
		if n := m.unseen[room.ID]; n > 0 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		if i == m.active {
			tabs = append(tabs, m.theme.roomActive.Render(label))
			continue
		}
		tabs = append(tabs, m.theme.roomIdle.Render(label))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *model) resizeComponents() {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	h := m.height - 10
	if h < 8 {
		h = 8
	}

	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 2
}

func (m *model) refreshViewport(forceBottom bool) {
	previousOffset := m.viewport.YOffset

	items := m.entries[m.activeRoom().ID]
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, m.renderEntry(item))
	}

	m.viewport.SetContent(strings.Join(lines, "\n"))
	if m.followLog || forceBottom {
		m.viewport.GotoBottom()
		m.followLog = true
		return
	}

	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if previousOffset > maxOffset {
		previousOffset = maxOffset
	}
	m.viewport.SetYOffset(previousOffset)
}

func (m *model) renderEntry(item entry) string {
	switch item.kind {
	case entryUser:
		return m.theme.userName.Render(item.author+":") + " " + item.text
	case entryBot:
		return m.theme.botName.Render(item.author+":") + " " + m.renderSegments(item.segments)
	case entryActivity:
		return m.theme.activity.Render("  · " + item.text)
	default:
		return m.theme.errorLine.Render("! " + item.text)
	}
}

// renderSegments styles rich text for the terminal. Links show their target
// when it differs from the label.
func (m *model) renderSegments(segments []chat.Segment) string {
	var b strings.Builder
	for _, segment := range segments {
		if segment.Kind == chat.SegmentLineBreak {
			b.WriteString("\n")
			continue
		}

		style := lipgloss.NewStyle()
		text := segment.Text
		if segment.Kind == chat.SegmentLink {
			style = m.theme.link
			if segment.Target != "" && segment.Target != segment.Text {
				text = fmt.Sprintf("%s <%s>", text, segment.Target)
			}
		}
		b.WriteString(style.Bold(segment.Bold).Italic(segment.Italic).Render(text))
	}

	return b.String()
}

func (m *model) handleViewportKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "pgup", "ctrl+b", "alt+up", "ctrl+up":
		m.viewport.PageUp()
		m.followLog = false
		return true
	case "pgdown", "ctrl+f", "alt+down", "ctrl+down":
		m.viewport.PageDown()
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	case "home":
		m.viewport.GotoTop()
		m.followLog = false
		return true
	case "end":
		m.viewport.GotoBottom()
		m.followLog = true
		return true
	default:
		return false
	}
}

func (m *model) handleViewportMouse(msg tea.MouseMsg) bool {
	if msg.Action != tea.MouseActionPress {
		return false
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.ScrollUp(3)
		m.followLog = false
		return true
	case tea.MouseButtonWheelDown:
		m.viewport.ScrollDown(3)
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	default:
		return false
	}
}

func waitOutboundCmd(ctx context.Context, messages *bus.MessageBus) tea.Cmd {
	return func() tea.Msg {
		msg, ok := messages.SubscribeOutbound(ctx)
		if !ok {
			return nil
		}
		return outboundMsg(msg)
	}
}

func waitActivityCmd(events <-chan bus.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return activityMsg(event)
	}
}

func sayCmd(ctx context.Context, session Session, roomID string, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := session.Say(ctx, roomID, text)
		return sayResultMsg{roomID: roomID, err: err}
	}
}

func describeActivity(event bus.Event) string {
	var details []string
	for _, key := range []string{"command", "name", "keyword", "sent"} {
		if value, ok := event.Payload[key]; ok {
			details = append(details, key+"="+value)
		}
	}
	if len(details) == 0 {
		return string(event.Type)
	}

	return string(event.Type) + " " + strings.Join(details, " ")
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "/exit", "quit", ":q":
		return true
	default:
		return false
	}
}
