// Package dashboard is the terminal UI for the stocktracker client. It
// composes the session store, reference data cache, movers fetcher, query
// engine, and pagination controllers into the auth, dashboard, and stock
// detail screens. All state changes flow through the bubbletea update loop;
// fetches run as commands whose results come back as messages.
package dashboard

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"stocktracker/internal/config"
	"stocktracker/internal/localstate"
	"stocktracker/internal/page"
	"stocktracker/internal/query"
	"stocktracker/internal/refdata"
	"stocktracker/internal/search"
	"stocktracker/internal/session"
	"stocktracker/pkg/stocktracker"
)

// screen identifies the active view.
type screen int

const (
	screenAuth screen = iota
	screenDashboard
	screenDetail
)

// panel identifies the focused scrolling panel on the dashboard.
type panel int

const (
	panelGainers panel = iota
	panelLosers
	panelAnalysis
	panelCount
)

// promptKind identifies what the inline prompt input is editing.
type promptKind int

const (
	promptNone promptKind = iota
	promptSearch
	promptMarketCap
	promptDates
	promptNote
)

// Messages.
type sessionReadyMsg struct{}

type refdataMsg struct{ err error }

type moversMsg struct{}

type analysisMsg struct {
	seq uint64
	res stocktracker.AnalysisResult
	err error
}

type authResultMsg struct{ err error }

type detailMsg struct {
	stock stocktracker.Stock
	err   error
}

type watchMsg struct {
	watched bool
	err     error
}

// Model is the bubbletea model for the whole client UI.
type Model struct {
	cfg     *config.Config
	log     *slog.Logger
	client  *stocktracker.Client
	session *session.Store
	state   *localstate.Store
	cache   *refdata.Cache
	movers  *refdata.MoversFetcher
	engine  *query.Engine

	screen        screen
	width, height int
	viewport      viewport.Model
	ready         bool

	// Auth form.
	registerMode bool
	inputs       []textinput.Model
	focusIdx     int
	authErr      string
	authBusy     bool

	// Dashboard.
	booting      bool // initial refdata load in flight
	bootErr      string
	focus        panel
	gainersPage  *page.Controller
	losersPage   *page.Controller
	analysisPage *page.Controller
	fetching     bool // analysis fetch in flight
	paramErr     string

	// Inline prompt.
	prompt      promptKind
	promptInput textinput.Model
	promptErr   string

	// Stock detail.
	detail    *stocktracker.Stock
	detailErr string
	watched   bool
	note      string
}

// New wires a Model over the shared components.
func New(
	cfg *config.Config,
	log *slog.Logger,
	client *stocktracker.Client,
	sess *session.Store,
	state *localstate.Store,
	cache *refdata.Cache,
	movers *refdata.MoversFetcher,
	engine *query.Engine,
) Model {
	m := Model{
		cfg:          cfg,
		log:          log,
		client:       client,
		session:      sess,
		state:        state,
		cache:        cache,
		movers:       movers,
		engine:       engine,
		screen:       screenAuth,
		booting:      true,
		gainersPage:  page.New(cfg.Dashboard.MoversPageSize),
		losersPage:   page.New(cfg.Dashboard.MoversPageSize),
		analysisPage: page.New(cfg.Dashboard.AnalysisPageSize),
	}
	m.inputs = loginInputs()
	m.promptInput = textinput.New()
	m.promptInput.CharLimit = 120
	return m
}

func loginInputs() []textinput.Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.Focus()
	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	return []textinput.Model{email, password}
}

func registerInputs() []textinput.Model {
	name := textinput.New()
	name.Placeholder = "name"
	name.Focus()
	inputs := loginInputs()
	inputs[0].Blur()
	return append([]textinput.Model{name}, inputs...)
}

// Init settles the session before anything protected renders.
func (m Model) Init() tea.Cmd {
	return m.initSessionCmd()
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (m Model) initSessionCmd() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		sess.Initialize(context.Background())
		return sessionReadyMsg{}
	}
}

// loadRefdataCmd fetches the availability window and sectors; the movers
// fetch runs in parallel as its own command.
func (m Model) loadRefdataCmd() tea.Cmd {
	cache := m.cache
	return func() tea.Msg {
		return refdataMsg{err: cache.Load(context.Background())}
	}
}

func (m Model) fetchMoversCmd() tea.Cmd {
	movers := m.movers
	period, limit := m.cfg.Dashboard.MoversPeriod, m.cfg.Dashboard.MoversLimit
	return func() tea.Msg {
		movers.Fetch(context.Background(), period, limit)
		return moversMsg{}
	}
}

// fetchAnalysisCmd issues one engine fetch. The sequence number travels with
// the response message so stale completions are discarded on arrival.
func (m *Model) fetchAnalysisCmd() tea.Cmd {
	f, ok := m.engine.Begin()
	if !ok {
		return nil
	}
	m.fetching = true
	client, engine := m.client, m.engine
	return func() tea.Msg {
		res, err := client.GetAnalysis(context.Background(), f.Req)
		engine.Apply(f.Seq, res, err)
		return analysisMsg{seq: f.Seq, res: res, err: err}
	}
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		return authResultMsg{err: sess.Login(context.Background(), email, password)}
	}
}

func (m Model) registerCmd(name, email, password string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		return authResultMsg{err: sess.Register(context.Background(), name, email, password)}
	}
}

func (m Model) fetchDetailCmd(ticker string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		stock, err := client.GetStock(context.Background(), ticker)
		return detailMsg{stock: stock, err: err}
	}
}

func (m Model) toggleWatchCmd(ticker string, watched bool) tea.Cmd {
	state := m.state
	return func() tea.Msg {
		var err error
		if watched {
			err = state.RemoveFromWatchlist(ticker)
		} else {
			err = state.AddToWatchlist(ticker)
		}
		return watchMsg{watched: !watched, err: err}
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

// Update is the single state-transition function of the UI.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := m.height - 3
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshContent()
		return m, nil

	case sessionReadyMsg:
		if m.session.Authenticated() {
			m.screen = screenDashboard
			m.refreshContent()
			return m, tea.Batch(m.loadRefdataCmd(), m.fetchMoversCmd())
		}
		m.screen = screenAuth
		return m, nil

	case refdataMsg:
		m.booting = false
		if msg.err != nil {
			m.bootErr = "Failed to load initial data. " + msg.err.Error()
			m.refreshContent()
			return m, nil
		}
		m.bootErr = ""
		window, _ := m.cache.Availability()
		m.engine.SetAvailability(window)
		cmd := m.fetchAnalysisCmd()
		m.refreshContent()
		return m, cmd

	case moversMsg:
		set := m.movers.Set()
		m.gainersPage.Reclamp(len(set.Gainers))
		m.losersPage.Reclamp(len(set.Losers))
		m.refreshContent()
		return m, nil

	case analysisMsg:
		m.fetching = m.engine.State() == query.Fetching
		m.analysisPage.Reclamp(len(m.engine.Results()))
		m.refreshContent()
		return m, nil

	case authResultMsg:
		m.authBusy = false
		if msg.err != nil {
			m.authErr = msg.err.Error()
			return m, nil
		}
		m.authErr = ""
		m.screen = screenDashboard
		m.booting = true
		m.refreshContent()
		return m, tea.Batch(m.loadRefdataCmd(), m.fetchMoversCmd())

	case detailMsg:
		if msg.err != nil {
			m.detailErr = stocktracker.ErrorMessage(msg.err, "Failed to load stock data.")
			m.detail = nil
		} else {
			m.detailErr = ""
			stock := msg.stock
			m.detail = &stock
			m.watched, _ = m.state.IsWatched(stock.Ticker)
			m.note, _ = m.state.GetNote(stock.Ticker)
		}
		m.screen = screenDetail
		m.refreshContent()
		return m, nil

	case watchMsg:
		if msg.err == nil {
			m.watched = msg.watched
		}
		m.refreshContent()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}

	switch m.screen {
	case screenAuth:
		return m.handleAuthKey(msg)
	case screenDetail:
		return m.handleDetailKey(msg)
	default:
		return m.handleDashboardKey(msg)
	}
}

// ---------------------------------------------------------------------------
// Auth screen
// ---------------------------------------------------------------------------

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focusInput(m.focusIdx + 1)
		return m, nil
	case "shift+tab", "up":
		m.focusInput(m.focusIdx - 1)
		return m, nil
	case "ctrl+r":
		m.registerMode = !m.registerMode
		if m.registerMode {
			m.inputs = registerInputs()
		} else {
			m.inputs = loginInputs()
		}
		m.focusIdx = 0
		m.authErr = ""
		return m, nil
	case "enter":
		if m.authBusy {
			return m, nil
		}
		m.authBusy = true
		if m.registerMode {
			return m, m.registerCmd(m.inputs[0].Value(), m.inputs[1].Value(), m.inputs[2].Value())
		}
		return m, m.loginCmd(m.inputs[0].Value(), m.inputs[1].Value())
	}

	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

func (m *Model) focusInput(idx int) {
	n := len(m.inputs)
	idx = ((idx % n) + n) % n
	m.inputs[m.focusIdx].Blur()
	m.focusIdx = idx
	m.inputs[m.focusIdx].Focus()
}

// ---------------------------------------------------------------------------
// Dashboard screen
// ---------------------------------------------------------------------------

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "ctrl+l":
		m.session.Logout()
		m.screen = screenAuth
		m.registerMode = false
		m.inputs = loginInputs()
		m.focusIdx = 0
		m.authErr = ""
		return m, nil

	case "tab":
		m.focus = (m.focus + 1) % panelCount
		m.refreshContent()
		return m, nil

	case "left", "right":
		ctrl, length := m.focusedPanel()
		delta := 1
		if msg.String() == "left" {
			delta = -1
		}
		ctrl.SetPage(ctrl.Page()+delta, length)
		m.refreshContent()
		return m, nil

	case "+":
		ctrl, _ := m.focusedPanel()
		ctrl.SetPageSize(nextPageSize(ctrl.PageSize()))
		m.refreshContent()
		return m, nil

	case "r":
		// Explicit reload: reference data and movers together, analysis
		// follows once availability is back.
		m.booting = true
		m.refreshContent()
		return m, tea.Batch(m.loadRefdataCmd(), m.fetchMoversCmd())

	case "/":
		return m.openPrompt(promptSearch, "ticker or company"), nil
	case "m":
		return m.openPrompt(promptMarketCap, "market cap min,max (crores)"), nil
	case "d":
		return m.openPrompt(promptDates, "start,end (YYYY-MM-DD)"), nil

	case "f":
		return m.cycleSector()
	case "o":
		return m.toggleSortOrder()
	case "b":
		return m.cycleSortBy()

	case "1", "2", "3", "4", "5", "6":
		idx := int(msg.String()[0] - '1')
		return m.togglePeriod(query.DefaultPeriods[idx])

	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) focusedPanel() (*page.Controller, int) {
	set := m.movers.Set()
	switch m.focus {
	case panelGainers:
		return m.gainersPage, len(set.Gainers)
	case panelLosers:
		return m.losersPage, len(set.Losers)
	default:
		return m.analysisPage, len(m.engine.Results())
	}
}

func nextPageSize(current int) int {
	for i, s := range page.Sizes {
		if s == current {
			return page.Sizes[(i+1)%len(page.Sizes)]
		}
	}
	return page.Sizes[0]
}

func (m Model) cycleSector() (tea.Model, tea.Cmd) {
	sectors := m.cache.Sectors()
	if len(sectors) == 0 {
		return m, nil
	}
	err := m.engine.UpdateParams(func(p *query.Params) error {
		if p.Sector == "" {
			p.Sector = sectors[0]
			return nil
		}
		for i, s := range sectors {
			if s == p.Sector {
				if i+1 < len(sectors) {
					p.Sector = sectors[i+1]
				} else {
					p.Sector = ""
				}
				return nil
			}
		}
		p.Sector = ""
		return nil
	})
	return m.afterParamChange(err)
}

func (m Model) toggleSortOrder() (tea.Model, tea.Cmd) {
	err := m.engine.UpdateParams(func(p *query.Params) error {
		if p.SortOrder == "desc" {
			p.SetSort(p.SortBy, "asc")
		} else {
			p.SetSort(p.SortBy, "desc")
		}
		return nil
	})
	return m.afterParamChange(err)
}

func (m Model) cycleSortBy() (tea.Model, tea.Cmd) {
	err := m.engine.UpdateParams(func(p *query.Params) error {
		opts := p.SortOptions()
		for i, opt := range opts {
			if opt == p.SortBy {
				p.SetSort(opts[(i+1)%len(opts)], p.SortOrder)
				return nil
			}
		}
		p.SetSort(opts[0], p.SortOrder)
		return nil
	})
	return m.afterParamChange(err)
}

func (m Model) togglePeriod(period int) (tea.Model, tea.Cmd) {
	err := m.engine.UpdateParams(func(p *query.Params) error {
		p.TogglePeriod(period)
		return nil
	})
	return m.afterParamChange(err)
}

// afterParamChange issues exactly one analysis fetch for an accepted
// parameter edit; rejected edits surface inline and fetch nothing.
func (m Model) afterParamChange(err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.paramErr = err.Error()
		m.refreshContent()
		return m, nil
	}
	m.paramErr = ""
	cmd := m.fetchAnalysisCmd()
	m.refreshContent()
	return m, cmd
}

// ---------------------------------------------------------------------------
// Inline prompt
// ---------------------------------------------------------------------------

func (m Model) openPrompt(kind promptKind, placeholder string) Model {
	m.prompt = kind
	m.promptErr = ""
	m.promptInput.SetValue("")
	m.promptInput.Placeholder = placeholder
	if kind == promptNote {
		m.promptInput.SetValue(m.note)
	}
	m.promptInput.Focus()
	m.refreshContent()
	return m
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = promptNone
		m.promptInput.Blur()
		m.refreshContent()
		return m, nil
	case "enter":
		return m.commitPrompt()
	}

	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(msg)
	return m, cmd
}

func (m Model) commitPrompt() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.promptInput.Value())
	kind := m.prompt
	m.prompt = promptNone
	m.promptInput.Blur()

	switch kind {
	case promptSearch:
		set := m.movers.Set()
		found, ok := search.Resolve(value, set.Gainers, set.Losers, m.engine.Results())
		if !ok {
			m.promptErr = "Stock not found"
			m.refreshContent()
			return m, nil
		}
		return m, m.fetchDetailCmd(found.Ticker)

	case promptMarketCap:
		minStr, maxStr := splitPair(value)
		err := m.engine.UpdateParams(func(p *query.Params) error {
			return p.SetMarketCapRange(minStr, maxStr)
		})
		return m.afterParamChange(err)

	case promptDates:
		start, end := splitPair(value)
		window, ok := m.cache.Availability()
		if !ok {
			m.refreshContent()
			return m, nil
		}
		err := m.engine.UpdateParams(func(p *query.Params) error {
			p.SetDateRange(start, end, window)
			return nil
		})
		return m.afterParamChange(err)

	case promptNote:
		if m.detail != nil {
			if err := m.state.SaveNote(m.detail.Ticker, value); err != nil {
				m.log.Warn("saving note", "ticker", m.detail.Ticker, "error", err)
			} else {
				m.note = value
			}
		}
		m.refreshContent()
		return m, nil
	}

	m.refreshContent()
	return m, nil
}

// splitPair splits "a,b" into its halves, tolerating a missing comma.
func splitPair(s string) (string, string) {
	a, b, found := strings.Cut(s, ",")
	if !found {
		return strings.TrimSpace(a), ""
	}
	return strings.TrimSpace(a), strings.TrimSpace(b)
}

// ---------------------------------------------------------------------------
// Detail screen
// ---------------------------------------------------------------------------

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.screen = screenDashboard
		m.detail = nil
		m.detailErr = ""
		m.refreshContent()
		return m, nil
	case "q":
		return m, tea.Quit
	case "w":
		if m.detail != nil {
			return m, m.toggleWatchCmd(m.detail.Ticker, m.watched)
		}
	case "n":
		if m.detail != nil {
			return m.openPrompt(promptNote, "note"), nil
		}
	case "/":
		return m.openPrompt(promptSearch, "ticker or company"), nil
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refreshContent re-renders the viewport content from current state.
func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderContent())
}
