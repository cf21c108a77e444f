// Package tui implements the interactive club dashboard. Every pane is bound
// to a hook, so data loaded anywhere in the process shows up on screen.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/clubhub/internal/authz"
	"github.com/felixgeelhaar/clubhub/internal/hooks"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/session"
)

// Pane identifies one of the team panes.
type Pane int

const (
	PanePlayers Pane = iota
	PaneEvents
	PaneStaff
	paneCount
)

func (p Pane) String() string {
	switch p {
	case PanePlayers:
		return "Players"
	case PaneEvents:
		return "Events"
	case PaneStaff:
		return "Staff"
	}
	return "Unknown"
}

// Backend performs the actions the dashboard triggers.
type Backend interface {
	SwitchTeam(ctx context.Context, teamID string) (*session.Session, error)
	LoadCapabilities(ctx context.Context) (authz.Capabilities, error)
}

// Roster creates players.
type Roster interface {
	Insert(ctx context.Context, teamID string, in platform.PlayerInput) (*platform.Player, error)
}

// Options configures NewModel.
type Options struct {
	Scope   *hooks.Scope
	Session hooks.SessionReader
	Backend Backend
	Roster  Roster
	// TeamID is the team shown first; empty uses the session's current team.
	TeamID string
	Logger *log.Logger
}

type formKind int

const (
	formNone formKind = iota
	formTeam
	formPlayer
)

// Model is the dashboard state (a Bubble Tea model).
type Model struct {
	ctx     context.Context
	session hooks.SessionReader
	backend Backend
	roster  Roster
	logger  *log.Logger

	app     *hooks.AppHook
	teams   *hooks.TeamsHook
	players *hooks.PlayersHook
	events  *hooks.EventsHook
	staff   *hooks.StaffHook

	teamID string
	caps   authz.Capabilities
	pane   Pane
	tables [paneCount]table.Model

	spinner  spinner.Model
	form     *huh.Form
	formKind formKind

	width    int
	height   int
	ready    bool
	quitting bool
	showHelp bool
	flash    string
	busy     string

	styles Styles
}

// Messages

// updatedMsg reports a new snapshot from one of the bound hooks.
type updatedMsg struct{ source string }

type capsMsg struct {
	caps authz.Capabilities
	err  error
}

type switchedMsg struct {
	teamID string
	err    error
}

type createdMsg struct {
	player *platform.Player
	err    error
}

// NewModel mounts the dashboard hooks. Call Close (or quit the program) to
// release them.
func NewModel(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}
	sc := opts.Scope

	m := Model{
		ctx:     ctx,
		session: opts.Session,
		backend: opts.Backend,
		roster:  opts.Roster,
		logger:  logger.With("component", "dashboard"),
		app:     sc.UseApp(ctx),
		teams:   sc.UseTeams(ctx, ""),
		players: sc.UsePlayers(ctx, opts.TeamID),
		events:  sc.UseEvents(ctx, opts.TeamID),
		staff:   sc.UseStaff(ctx, opts.TeamID),
		teamID:  opts.TeamID,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:  DefaultStyles(),
	}

	m.tables[PanePlayers] = newTable([]table.Column{
		{Title: "#", Width: 4}, {Title: "Name", Width: 24}, {Title: "Position", Width: 14}, {Title: "Status", Width: 10},
	})
	m.tables[PaneEvents] = newTable([]table.Column{
		{Title: "Date", Width: 16}, {Title: "Title", Width: 24}, {Title: "Type", Width: 10}, {Title: "Opponent", Width: 18},
	})
	m.tables[PaneStaff] = newTable([]table.Column{
		{Title: "Name", Width: 24}, {Title: "Title", Width: 24},
	})
	m.tables[PanePlayers].Focus()
	m.refreshAll()
	return m
}

func newTable(cols []table.Column) table.Model {
	t := table.New(table.WithColumns(cols), table.WithHeight(10))
	t.SetStyles(table.DefaultStyles())
	return t
}

// Close releases the hooks. In-flight requests still complete.
func (m Model) Close() {
	m.app.Close()
	m.teams.Close()
	m.players.Close()
	m.events.Close()
	m.staff.Close()
}

// Init starts the spinner, the hook listeners and the capability lookup.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		listen(m.app.Updates(), "app"),
		listen(m.teams.Updates(), "teams"),
		listen(m.players.Updates(), "players"),
		listen(m.events.Updates(), "events"),
		listen(m.staff.Updates(), "staff"),
		m.loadCapabilities(),
	)
}

// listen waits for the next snapshot on ch. A closed channel ends the loop.
func listen[S any](ch <-chan *S, source string) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return updatedMsg{source: source}
	}
}

func (m Model) updates(source string) tea.Cmd {
	switch source {
	case "app":
		return listen(m.app.Updates(), source)
	case "teams":
		return listen(m.teams.Updates(), source)
	case "players":
		return listen(m.players.Updates(), source)
	case "events":
		return listen(m.events.Updates(), source)
	case "staff":
		return listen(m.staff.Updates(), source)
	}
	return nil
}

func (m Model) loadCapabilities() tea.Cmd {
	return func() tea.Msg {
		caps, err := m.backend.LoadCapabilities(m.ctx)
		return capsMsg{caps: caps, err: err}
	}
}

func (m Model) switchTeam(teamID string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.backend.SwitchTeam(m.ctx, teamID)
		return switchedMsg{teamID: teamID, err: err}
	}
}

func (m Model) createPlayer(in platform.PlayerInput) tea.Cmd {
	teamID := m.currentTeam()
	return func() tea.Msg {
		p, err := m.roster.Insert(m.ctx, teamID, in)
		return createdMsg{player: p, err: err}
	}
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			m.closeForm()
			return m, nil
		}
		if _, ok := msg.(tea.KeyMsg); ok {
			return m.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		for i := range m.tables {
			m.tables[i].SetHeight(max(msg.Height-12, 3))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case updatedMsg:
		m.refresh(msg.source)
		return m, m.updates(msg.source)

	case capsMsg:
		if msg.err != nil {
			m.logger.WithError(msg.err).Warn("could not load capabilities")
		}
		m.caps = msg.caps
		return m, nil

	case switchedMsg:
		m.busy = ""
		if msg.err != nil {
			m.flash = "Switch failed: " + msg.err.Error()
			return m, nil
		}
		m.teamID = msg.teamID
		m.flash = "Switched to " + m.teamName()
		m.refreshAll()
		return m, nil

	case createdMsg:
		m.busy = ""
		if msg.err != nil {
			m.flash = "Could not add player: " + msg.err.Error()
			return m, nil
		}
		m.flash = "Added " + msg.player.FullName()
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	f, cmd := m.form.Update(msg)
	if f, ok := f.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		next := m.submitForm()
		m.closeForm()
		return m, tea.Batch(cmd, next)
	case huh.StateAborted:
		m.closeForm()
	}
	return m, cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.formKind = formNone
}

func (m *Model) submitForm() tea.Cmd {
	switch m.formKind {
	case formTeam:
		teamID := m.form.GetString("team")
		if teamID == "" || teamID == m.currentTeam() {
			return nil
		}
		m.busy = "Switching team"
		return m.switchTeam(teamID)
	case formPlayer:
		in := platform.PlayerInput{
			FirstName: strings.TrimSpace(m.form.GetString("first")),
			LastName:  strings.TrimSpace(m.form.GetString("last")),
			Position:  strings.TrimSpace(m.form.GetString("position")),
		}
		if n := strings.TrimSpace(m.form.GetString("number")); n != "" {
			in.Number, _ = strconv.Atoi(n)
		}
		m.busy = "Adding player"
		return m.createPlayer(in)
	}
	return nil
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		m.Close()
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "esc":
		m.showHelp = false
		m.flash = ""
		return m, nil

	case "tab", "right":
		m.focus((m.pane + 1) % paneCount)
		return m, nil

	case "shift+tab", "left":
		m.focus((m.pane + paneCount - 1) % paneCount)
		return m, nil

	case "t":
		return m, m.openTeamPicker()

	case "r":
		teamID := m.currentTeam()
		if teamID == "" {
			m.flash = "No team selected"
			return m, nil
		}
		m.busy = "Refreshing"
		return m, m.switchTeam(teamID)

	case "n":
		return m, m.openNewItem()
	}

	var cmd tea.Cmd
	m.tables[m.pane], cmd = m.tables[m.pane].Update(msg)
	return m, cmd
}

func (m *Model) focus(p Pane) {
	m.tables[m.pane].Blur()
	m.pane = p
	m.tables[m.pane].Focus()
}

func (m *Model) openTeamPicker() tea.Cmd {
	teams := m.teams.Teams()
	if len(teams) == 0 {
		m.flash = "No teams loaded"
		return nil
	}
	current := m.currentTeam()
	opts := make([]huh.Option[string], 0, len(teams))
	for _, t := range teams {
		opts = append(opts, huh.NewOption(t.Name, t.ID).Selected(t.ID == current))
	}

	m.form = huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Key("team").Title("Switch team").Options(opts...),
	)).WithShowHelp(false)
	m.formKind = formTeam
	return m.form.Init()
}

// openNewItem opens the create form for the active pane when the role allows it.
func (m *Model) openNewItem() tea.Cmd {
	if m.pane != PanePlayers {
		m.flash = fmt.Sprintf("Use 'clubhub %s add' to create %s", strings.ToLower(m.pane.String()), strings.ToLower(m.pane.String()))
		return nil
	}
	if !m.caps.Allows(authz.ActionCreate, authz.ResourcePlayer) {
		m.flash = "Your role cannot create players"
		return nil
	}
	if m.currentTeam() == "" {
		m.flash = "No team selected"
		return nil
	}

	m.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().Key("first").Title("First name").Validate(required("first name")),
		huh.NewInput().Key("last").Title("Last name").Validate(required("last name")),
		huh.NewInput().Key("position").Title("Position"),
		huh.NewInput().Key("number").Title("Shirt number").Validate(optionalNumber),
	)).WithShowHelp(false)
	m.formKind = formPlayer
	return m.form.Init()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func optionalNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err != nil || n < 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

// currentTeam is the team the dashboard shows: the last switched-to team,
// else the session's current team.
func (m Model) currentTeam() string {
	if m.teamID != "" {
		return m.teamID
	}
	if m.session == nil {
		return ""
	}
	if sess, ok := m.session.Read(); ok {
		return sess.CurrentTeamID
	}
	return ""
}

func (m Model) teamName() string {
	id := m.currentTeam()
	for _, t := range m.teams.Teams() {
		if t.ID == id {
			return t.Name
		}
	}
	if id == "" {
		return "no team selected"
	}
	return id
}

func (m *Model) refreshAll() {
	for _, s := range []string{"players", "events", "staff"} {
		m.refresh(s)
	}
}

func (m *Model) refresh(source string) {
	switch source {
	case "players":
		rows := make([]table.Row, 0, len(m.players.Players()))
		for _, p := range m.players.Players() {
			num := ""
			if p.Number > 0 {
				num = strconv.Itoa(p.Number)
			}
			rows = append(rows, table.Row{num, clean(p.FullName()), clean(p.Position), clean(p.Status)})
		}
		m.tables[PanePlayers].SetRows(rows)
	case "events":
		rows := make([]table.Row, 0, len(m.events.Events()))
		for _, e := range m.events.Events() {
			rows = append(rows, table.Row{e.StartsAt.Local().Format("2006-01-02 15:04"), clean(e.Title), e.Type, clean(e.Opponent)})
		}
		m.tables[PaneEvents].SetRows(rows)
	case "staff":
		rows := make([]table.Row, 0, len(m.staff.Staff()))
		for _, s := range m.staff.Staff() {
			rows = append(rows, table.Row{clean(s.FullName()), clean(s.Title)})
		}
		m.tables[PaneStaff].SetRows(rows)
	}
}

// paneState returns the loading flag and error of the hook behind p.
func (m Model) paneState(p Pane) (bool, error) {
	switch p {
	case PanePlayers:
		return m.players.Loading(), m.players.Err()
	case PaneEvents:
		return m.events.Loading(), m.events.Err()
	case PaneStaff:
		return m.staff.Loading(), m.staff.Err()
	}
	return false, nil
}
