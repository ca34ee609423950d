package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cnstln/chirp/internal/chirp"
	"github.com/cnstln/chirp/internal/config"
	"github.com/cnstln/chirp/internal/protocol"
)

// discoverMsg carries one discovery event from the manager callback into
// the bubbletea update loop.
type discoverMsg struct {
	service  chirp.DiscoveredService
	departed bool
}

// watchKeyMap defines key bindings for the watch screen
type watchKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Request key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Request, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Request, k.Quit},
	}
}

// serviceItem wraps a DiscoveredService for use with bubbles/list
type serviceItem struct {
	service chirp.DiscoveredService
}

// Implement list.Item interface
func (s serviceItem) FilterValue() string {
	return s.service.Identifier.String() + " " + s.service.Address.String()
}

// Title returns the service kind and port for list display
func (s serviceItem) Title() string {
	return fmt.Sprintf("%s on port %d", s.service.Identifier, s.service.Port)
}

// Description returns peer details for list display
func (s serviceItem) Description() string {
	return fmt.Sprintf("%s • peer %s", s.service.Address, shortHash(s.service.NameHash))
}

func shortHash(h protocol.MD5Hash) string {
	return h.String()[:8]
}

// WatchModel is the live discovery screen: the discovered-service list
// updating as OFFER and LEAVING broadcasts arrive.
type WatchModel struct {
	manager *chirp.Manager
	group   string
	name    string

	serviceList list.Model
	spinner     spinner.Model
	help        help.Model
	keys        watchKeyMap

	width     int
	height    int
	lastEvent string
	departed  bool
}

// NewWatchModel creates the watch screen for a started manager.
func NewWatchModel(manager *chirp.Manager, group, name string) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	delegate := list.NewDefaultDelegate()
	serviceList := list.New([]list.Item{}, delegate, 0, 0)
	serviceList.Title = "Discovered Services"
	serviceList.SetShowStatusBar(false)
	serviceList.SetFilteringEnabled(true)
	serviceList.SetShowHelp(false)
	serviceList.Styles.Title = TitleStyle

	keys := watchKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Request: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "re-request all"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return WatchModel{
		manager:     manager,
		group:       group,
		name:        name,
		serviceList: serviceList,
		spinner:     s,
		help:        help.New(),
		keys:        keys,
		width:       GetTerminalWidth(),
	}
}

// Init starts the spinner and asks the group to announce itself.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.requestAll)
}

// requestAll broadcasts a REQUEST for every known service identifier so
// that peers started before us re-announce.
func (m WatchModel) requestAll() tea.Msg {
	for _, name := range config.ServiceNames() {
		id, err := config.ParseService(name)
		if err != nil {
			continue
		}
		m.manager.SendRequest(id)
		// Small gap between requests; each one triggers a burst of OFFERs
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// Update handles events
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.serviceList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Request):
			m.lastEvent = "REQUEST broadcast sent"
			m.departed = false
			return m, m.requestAll
		}

	case discoverMsg:
		// Rebuild from the manager's snapshot; the event itself only
		// feeds the footer line
		m.refreshItems()
		if msg.departed {
			m.lastEvent = fmt.Sprintf("departed: %s", msg.service)
			m.departed = true
		} else {
			m.lastEvent = fmt.Sprintf("discovered: %s", msg.service)
			m.departed = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.serviceList, cmd = m.serviceList.Update(msg)
	return m, cmd
}

// refreshItems replaces the list contents with the current snapshot.
func (m *WatchModel) refreshItems() {
	services := m.manager.GetDiscoveredServices()
	items := make([]list.Item, 0, len(services))
	for _, service := range services {
		items = append(items, serviceItem{service: service})
	}
	m.serviceList.SetItems(items)
}

// View renders the screen
func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("CHIRP Watch"))
	b.WriteString("\n")
	b.WriteString(IdentityStyle.Render(fmt.Sprintf("group %q as %q", m.group, m.name)))
	b.WriteString("\n\n")

	if len(m.serviceList.Items()) == 0 {
		b.WriteString(EmptyStyle.Render(m.spinner.View() + " Listening for services..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.serviceList.View())
		b.WriteString("\n")
	}

	if m.lastEvent != "" {
		style := EventStyle
		if m.departed {
			style = DepartedEventStyle
		}
		b.WriteString(style.Render(m.lastEvent))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// Run starts the watch UI on a started manager and blocks until the user
// quits. Discovery events are forwarded into the program from a manager
// callback, which is removed again before returning.
func Run(manager *chirp.Manager, group, name string) error {
	model := NewWatchModel(manager, group, name)
	program := tea.NewProgram(model, tea.WithAltScreen())

	forward := func(service chirp.DiscoveredService, departed bool, _ any) {
		program.Send(discoverMsg{service: service, departed: departed})
	}
	manager.RegisterDiscoverCallback(forward, nil)
	defer manager.UnregisterDiscoverCallback(forward, nil)

	_, err := program.Run()
	return err
}
