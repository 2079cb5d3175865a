// Package tui is the terminal frontend: a chat view plus the menu and
// connection dialogs the user drives the core with. It renders the display
// callback's lines and forwards typed input to the controller; the protocol
// itself lives in internal/chat.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tcpchat/internal/app"
	"tcpchat/internal/config"
)

type screen int

const (
	screenMenu screen = iota
	screenForm
	screenChat
)

// displayMsg carries one line from the core's display callback into the
// bubbletea event loop, which marshals it onto the render goroutine.
type displayMsg string

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("200"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

var menuItems = []string{
	"Connect to server",
	"Host server",
	"Close connection",
	"Quit",
}

const (
	fieldName = iota
	fieldPassword
	fieldHost
	fieldPort
	fieldCount
)

// Model is the bubbletea model of the whole frontend.
type Model struct {
	controller *app.Controller
	displayCh  chan string

	screen     screen
	menuCursor int

	// Form state. hostMode hides the host field: hosting only needs a port.
	fields    [fieldCount]textinput.Model
	focus     int
	hostMode  bool

	// Chat state.
	history   []string
	viewport  viewport.Model
	chatInput textinput.Model
	ready     bool
}

// NewModel builds the frontend with form defaults taken from configuration.
func NewModel(cfg *config.Config) *Model {
	displayCh := make(chan string, 64)

	m := &Model{
		displayCh: displayCh,
		screen:    screenMenu,
	}
	m.controller = app.NewController(func(text string) {
		m.displayCh <- text
	})

	labels := [fieldCount]string{"Name", "Password", "Host", "Port"}
	defaults := [fieldCount]string{
		cfg.Chat.Name,
		cfg.Chat.Password,
		cfg.Chat.Host,
		fmt.Sprintf("%d", cfg.Chat.Port),
	}
	for i := range m.fields {
		ti := textinput.New()
		ti.Prompt = labels[i] + ": "
		ti.SetValue(defaults[i])
		ti.CharLimit = 64
		ti.Width = 30
		if i == fieldPassword {
			ti.EchoMode = textinput.EchoPassword
		}
		m.fields[i] = ti
	}

	ci := textinput.New()
	ci.Prompt = "> "
	ci.Placeholder = "Type a message..."
	ci.CharLimit = 512
	m.chatInput = ci

	return m
}

// Run starts the frontend and blocks until the user quits.
func Run(cfg *config.Config) error {
	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func waitForDisplay(ch chan string) tea.Cmd {
	return func() tea.Msg {
		return displayMsg(<-ch)
	}
}

func (m *Model) Init() tea.Cmd {
	return waitForDisplay(m.displayCh)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case displayMsg:
		m.appendLine(string(msg))
		return m, waitForDisplay(m.displayCh)

	case tea.WindowSizeMsg:
		height := msg.Height - 4
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
			m.viewport.SetContent(strings.Join(m.history, "\n"))
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.chatInput.Width = msg.Width - 4
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.controller.Active() {
				m.controller.CloseConnection()
			}
			return m, tea.Quit
		}
		switch m.screen {
		case screenMenu:
			return m.updateMenu(msg)
		case screenForm:
			return m.updateForm(msg)
		case screenChat:
			return m.updateChat(msg)
		}
	}

	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < len(menuItems)-1 {
			m.menuCursor++
		}
	case "esc":
		m.screen = screenChat
		return m, m.focusChat()
	case "enter":
		switch m.menuCursor {
		case 0: // connect
			m.hostMode = false
			return m.openForm()
		case 1: // host
			m.hostMode = true
			return m.openForm()
		case 2:
			m.controller.CloseConnection()
			m.screen = screenChat
			return m, m.focusChat()
		case 3:
			if m.controller.Active() {
				m.controller.CloseConnection()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) openForm() (tea.Model, tea.Cmd) {
	m.screen = screenForm
	m.focus = fieldName
	return m, m.focusField()
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenMenu
		return m, nil
	case "enter":
		if m.focus == m.lastField() {
			m.submitForm()
			m.screen = screenChat
			return m, m.focusChat()
		}
		m.focus = m.nextField()
		return m, m.focusField()
	case "tab", "down":
		m.focus = m.nextField()
		return m, m.focusField()
	case "shift+tab", "up":
		m.focus = m.prevField()
		return m, m.focusField()
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenMenu
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.chatInput.Value())
		m.chatInput.Reset()
		if text != "" {
			m.controller.SendInput(text)
		}
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m *Model) submitForm() {
	name := m.fields[fieldName].Value()
	password := m.fields[fieldPassword].Value()
	host := m.fields[fieldHost].Value()
	port := m.fields[fieldPort].Value()

	if m.hostMode {
		m.controller.Host(name, password, port)
	} else {
		m.controller.Connect(name, password, host, port)
	}
}

// lastField accounts for the hidden host field while hosting.
func (m *Model) lastField() int {
	return fieldPort
}

func (m *Model) nextField() int {
	next := m.focus + 1
	if m.hostMode && next == fieldHost {
		next++
	}
	if next > fieldPort {
		next = fieldName
	}
	return next
}

func (m *Model) prevField() int {
	prev := m.focus - 1
	if m.hostMode && prev == fieldHost {
		prev--
	}
	if prev < fieldName {
		prev = fieldPort
	}
	return prev
}

func (m *Model) focusField() tea.Cmd {
	for i := range m.fields {
		m.fields[i].Blur()
	}
	m.fields[m.focus].Focus()
	return textinput.Blink
}

func (m *Model) focusChat() tea.Cmd {
	m.chatInput.Focus()
	return textinput.Blink
}

func (m *Model) appendLine(line string) {
	m.history = append(m.history, renderLine(line))
	if m.ready {
		m.viewport.SetContent(strings.Join(m.history, "\n"))
		m.viewport.GotoBottom()
	}
}

func (m *Model) View() string {
	switch m.screen {
	case screenMenu:
		return m.viewMenu()
	case screenForm:
		return m.viewForm()
	default:
		return m.viewChat()
	}
}

func (m *Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TCP Chat") + "\n\n")
	for i, item := range menuItems {
		cursor := "  "
		if i == m.menuCursor {
			cursor = cursorStyle.Render("> ")
		}
		b.WriteString(cursor + item + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("Enter to select, Esc for chat view, Ctrl+C to quit"))
	return b.String()
}

func (m *Model) viewForm() string {
	title := "Connect to server"
	if m.hostMode {
		title = "Host server"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + "\n\n")
	for i := range m.fields {
		if m.hostMode && i == fieldHost {
			continue
		}
		b.WriteString(m.fields[i].View() + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("Tab to switch fields, Enter on the last field to submit, Esc to cancel"))
	return borderStyle.Render(b.String())
}

func (m *Model) viewChat() string {
	content := strings.Join(m.history, "\n")
	if m.ready {
		content = m.viewport.View()
	}
	return content + "\n" +
		m.chatInput.View() + "\n" +
		hintStyle.Render("Enter to send, Esc for menu, Ctrl+C to quit")
}

// renderLine colours error lines; everything else is shown as-is.
func renderLine(line string) string {
	if strings.HasPrefix(line, "Error:") {
		return errorStyle.Render(line)
	}
	return line
}
