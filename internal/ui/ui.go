package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/recipebox/internal/formatter"
	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/prefs"
	"github.com/desertthunder/recipebox/internal/recipes"
	"github.com/desertthunder/recipebox/internal/session"
	"github.com/desertthunder/recipebox/internal/shared"
	"github.com/desertthunder/recipebox/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	ListView
	AddView
	ConfirmView
	DetailView
)

// statusKind selects the style of the status line.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusErr
)

// ModelOpts contains the dependencies of a [Model].
type ModelOpts struct {
	Session        *session.Controller
	Repo           *recipes.Repository
	Workflow       *tasks.Workflow
	Prefs          *prefs.Store
	Logger         *log.Logger
	RefreshOnStart bool
}

// Model represents the TUI application state.
type Model struct {
	ctx            context.Context
	view           ViewState
	session        *session.Controller
	repo           *recipes.Repository
	workflow       *tasks.Workflow
	prefs          *prefs.Store
	logger         *log.Logger
	refreshOnStart bool
	width          int
	height         int
	list           list.Model
	email          textinput.Model
	password       textinput.Model
	url            textinput.Model
	registering    bool
	spinner        spinner.Model
	theme          string
	layout         string
	palette        *Palette
	events         chan tea.Msg
	unsubscribe    []func()
	loggingOut     bool
	owner          string
	loading        bool
	status         string
	statusKind     statusKind
	help           help.Model
	keys           keyMap
}

// NewModel creates a new TUI model and subscribes it to session and collection changes.
//
// Call [Model.Close] when the program exits.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	m := &Model{
		ctx:            ctx,
		session:        opts.Session,
		repo:           opts.Repo,
		workflow:       opts.Workflow,
		prefs:          opts.Prefs,
		logger:         opts.Logger,
		refreshOnStart: opts.RefreshOnStart,
		events:         make(chan tea.Msg, 64),
		spinner:        spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:           help.New(),
		keys:           newKeyMap(),
	}

	m.email = textinput.New()
	m.email.Placeholder = "you@example.com"
	m.email.Prompt = "Email:    "

	m.password = textinput.New()
	m.password.Placeholder = "password"
	m.password.Prompt = "Password: "
	m.password.EchoMode = textinput.EchoPassword

	m.url = textinput.New()
	m.url.Placeholder = "https://example.com/some-recipe"
	m.url.Prompt = "URL: "

	m.list = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.list.Title = "Recipes"
	m.list.SetShowHelp(false)

	m.theme = m.prefs.Get(ctx, prefs.Theme)
	m.layout = m.prefs.Get(ctx, prefs.View)
	m.applyTheme()

	if m.session.CurrentState(ctx) == session.Authenticated {
		m.view = ListView
		m.owner = m.session.Identity(ctx)
	} else {
		m.view = LoginView
		m.email.Focus()
	}

	m.unsubscribe = append(m.unsubscribe,
		m.session.Subscribe(func(s session.State) { m.post(sessionChangedMsg(s)) }),
		m.repo.Subscribe(func([]models.Recipe) { m.post(recipesChangedMsg()) }),
	)
	m.syncList()
	return m
}

// Close removes the model's subscriptions.
func (m *Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
}

// post queues msg for the program without blocking the notifier.
func (m *Model) post(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		m.logger.Debug("ui event queue full, dropping event")
	}
}

// Init starts the event pump, the spinner and, when signed in, the first fetch.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForEvent(), m.spinner.Tick, textinput.Blink}
	if m.view == ListView {
		if m.refreshOnStart {
			cmds = append(cmds, m.fetch())
		} else {
			m.setStatus(statusInfo, "Press r to load your recipes")
		}
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case ListView:
			return m.handleListKeys(msg)
		case AddView:
			return m.handleAddKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionChanged:
		return m, tea.Batch(m.waitForEvent(), m.onSessionChanged(msg.data.(session.State)))

	case MsgRecipesChanged:
		m.syncList()
		return m, m.waitForEvent()

	case MsgFetched:
		data := msg.data.(fetchedData)
		m.loading = false
		switch {
		case data.err != nil:
			m.reportError("Refresh failed", data.err)
		case !data.result.Applied:
			m.setStatus(statusInfo, "Refresh superseded by a newer change")
		default:
			m.setStatus(statusInfo, fmt.Sprintf("Loaded %d recipes", len(data.result.Recipes)))
		}
		return m, nil

	case MsgLoggedIn:
		if err, _ := msg.data.(error); err != nil {
			m.reportError("Login failed", err)
			return m, nil
		}
		m.password.SetValue("")
		return m, nil

	case MsgAdded:
		data := msg.data.(addedData)
		if data.err != nil {
			if errors.Is(data.err, shared.ErrAlreadyInProgress) {
				m.setStatus(statusWarn, "An add is already in progress")
				return m, nil
			}
			m.reportError("Add failed", data.err)
			return m, nil
		}
		m.syncList()
		m.list.Select(0)
		m.setStatus(statusOK, fmt.Sprintf("✓ Added %s", formatter.Clean(data.recipe.Name)))
		return m, nil

	case MsgRemoved:
		data := msg.data.(removedData)
		if data.err != nil {
			m.reportError("Delete failed", data.err)
			return m, nil
		}
		text := data.message
		if text == "" {
			text = fmt.Sprintf("Recipe %d deleted", data.id)
		}
		m.setStatus(statusOK, "✓ "+text)
		return m, nil
	}
	return m, nil
}

// onSessionChanged moves between the login prompt and the collection.
func (m *Model) onSessionChanged(state session.State) tea.Cmd {
	if state == session.Authenticated {
		m.view = ListView
		m.email.Blur()
		m.password.Blur()
		identity := m.session.Identity(m.ctx)
		if m.owner != "" && m.owner != identity {
			m.repo.Clear()
		}
		m.owner = identity
		m.setStatus(statusOK, "Signed in as "+identity)
		return m.fetch()
	}

	// An expired session keeps the collection; only an explicit logout drops it.
	m.view = LoginView
	m.password.SetValue("")
	m.email.Focus()
	if m.loggingOut {
		m.loggingOut = false
		m.setStatus(statusInfo, "Logged out")
	} else {
		m.setStatus(statusWarn, shared.ErrUnauthorized.Error())
	}
	return nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.abort), key.Matches(msg, m.keys.back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		if m.email.Focused() {
			m.email.Blur()
			return m, m.password.Focus()
		}
		m.password.Blur()
		return m, m.email.Focus()
	case key.Matches(msg, m.keys.mode):
		m.registering = !m.registering
		return m, nil
	case key.Matches(msg, m.keys.enter):
		creds := models.Credentials{Email: strings.TrimSpace(m.email.Value()), Password: m.password.Value()}
		if err := creds.Validate(); err != nil {
			m.reportError("Login failed", err)
			return m, nil
		}
		m.setStatus(statusInfo, "Signing in...")
		return m, m.login(creds, m.registering)
	}
	return m.updateInputs(msg)
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.add):
		m.view = AddView
		m.url.SetValue("")
		return m, m.url.Focus()
	case key.Matches(msg, m.keys.remove):
		if _, ok := m.selected(); ok {
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.loading = true
		m.setStatus(statusInfo, "Refreshing...")
		return m, m.fetch()
	case key.Matches(msg, m.keys.theme):
		m.toggle(prefs.Theme)
		return m, nil
	case key.Matches(msg, m.keys.layout):
		m.toggle(prefs.View)
		return m, nil
	case key.Matches(msg, m.keys.logout):
		m.loggingOut = true
		m.session.Logout(m.ctx)
		m.repo.Clear()
		m.owner = ""
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if _, ok := m.selected(); ok {
			m.view = DetailView
		}
		return m, nil
	}

	if m.layout == prefs.Grid {
		if moved := m.moveGrid(msg); moved {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// moveGrid moves the selection by cell or by row in grid layout.
func (m *Model) moveGrid(msg tea.KeyMsg) bool {
	n := len(m.list.Items())
	if n == 0 {
		return false
	}

	cols := gridColumns(m.width)
	i := m.list.Index()
	switch {
	case key.Matches(msg, m.keys.left):
		i--
	case key.Matches(msg, m.keys.right):
		i++
	case key.Matches(msg, m.keys.up):
		i -= cols
	case key.Matches(msg, m.keys.down):
		i += cols
	default:
		return false
	}

	m.list.Select(max(0, min(i, n-1)))
	return true
}

func (m *Model) handleAddKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.abort):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.url.Blur()
		m.view = ListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		raw := m.url.Value()
		if _, err := tasks.ValidateURL(raw); err != nil {
			m.reportError("Add failed", err)
			return m, nil
		}
		m.url.Blur()
		m.view = ListView
		return m, m.submit(raw)
	}
	return m.updateInputs(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.abort):
		return m, tea.Quit
	case key.Matches(msg, m.keys.yes):
		m.view = ListView
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.setStatus(statusInfo, fmt.Sprintf("Deleting %s...", formatter.Clean(r.Name)))
		return m, m.remove(r.ID)
	case key.Matches(msg, m.keys.no):
		m.view = ListView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = ListView
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		var emailCmd, passwordCmd tea.Cmd
		m.email, emailCmd = m.email.Update(msg)
		m.password, passwordCmd = m.password.Update(msg)
		cmd = tea.Batch(emailCmd, passwordCmd)
	case AddView:
		m.url, cmd = m.url.Update(msg)
	case ListView:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

// selected returns the highlighted recipe, re-read from the repository.
func (m *Model) selected() (models.Recipe, bool) {
	item, ok := m.list.SelectedItem().(recipeItem)
	if !ok {
		return models.Recipe{}, false
	}
	return m.repo.Get(item.recipe.ID)
}

// syncList rebuilds the list items from the repository, keeping the selection on the same record.
func (m *Model) syncList() {
	var keep int
	if item, ok := m.list.SelectedItem().(recipeItem); ok {
		keep = item.recipe.ID
	}

	snapshot := m.repo.Snapshot()
	m.list.SetItems(recipeItems(snapshot))

	for i, r := range snapshot {
		if r.ID == keep {
			m.list.Select(i)
			return
		}
	}
	if idx := m.list.Index(); idx >= len(snapshot) && len(snapshot) > 0 {
		m.list.Select(len(snapshot) - 1)
	}
}

func (m *Model) toggle(k prefs.Kind) {
	v, err := m.prefs.Toggle(m.ctx, k)
	if err != nil {
		m.reportError("Could not save preference", err)
		return
	}

	switch k {
	case prefs.Theme:
		m.theme = v
		m.applyTheme()
	case prefs.View:
		m.layout = v
	}
	m.setStatus(statusInfo, fmt.Sprintf("%s: %s", k, v))
}

func (m *Model) applyTheme() {
	m.palette = PaletteFor(m.theme)
	m.list.Styles.Title = m.palette.title
	m.spinner.Style = m.palette.ok
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

// reportError shows the failure reason. Expired sessions are announced by the session transition instead.
func (m *Model) reportError(prefix string, err error) {
	m.logger.Warn(prefix, "error", err)
	if errors.Is(err, shared.ErrUnauthorized) {
		return
	}
	m.setStatus(statusErr, fmt.Sprintf("%s: %s", prefix, shared.Reason(err)))
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		result, err := m.repo.FetchAll(m.ctx)
		return fetchedMsg(result, err)
	}
}

func (m *Model) login(creds models.Credentials, register bool) tea.Cmd {
	return func() tea.Msg {
		if register {
			if err := m.session.Register(m.ctx, creds); err != nil {
				return loggedInMsg(err)
			}
		}
		_, err := m.session.Login(m.ctx, creds)
		return loggedInMsg(err)
	}
}

func (m *Model) submit(raw string) tea.Cmd {
	return func() tea.Msg {
		rec, err := m.workflow.Submit(m.ctx, raw, nil)
		return addedMsg(rec, err)
	}
}

func (m *Model) remove(id int) tea.Cmd {
	return func() tea.Msg {
		message, err := m.repo.Remove(m.ctx, id)
		return removedMsg(id, message, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case ListView:
		body = m.renderList()
	case AddView:
		body = m.renderAdd()
	case ConfirmView:
		body = m.renderConfirm()
	case DetailView:
		body = m.renderDetail()
	}
	return fmt.Sprintf("%s\n%s\n\n%s", body, m.renderStatus(), m.renderHelp())
}

func (m *Model) renderLogin() string {
	title := "Sign in to recipebox"
	if m.registering {
		title = "Create a recipebox account"
	}
	return fmt.Sprintf("%s\n%s\n%s\n", m.palette.title.Render(title), m.email.View(), m.password.View())
}

func (m *Model) renderList() string {
	header := m.palette.title.Render(fmt.Sprintf("recipebox • %s", m.session.Identity(m.ctx)))
	if m.layout == prefs.Grid && m.list.FilterState() == list.Unfiltered {
		return fmt.Sprintf("%s\n%s", header, renderGrid(m.repo.Snapshot(), m.list.Index(), m.width, m.palette))
	}
	if len(m.list.Items()) == 0 {
		return fmt.Sprintf("%s\n%s", header, m.palette.help.Render("No recipes yet. Press a to add one by URL."))
	}
	return fmt.Sprintf("%s\n%s", header, m.list.View())
}

func (m *Model) renderAdd() string {
	title := m.palette.title.Render("Add a recipe by URL")
	hint := m.palette.help.Render("The server fetches the page and extracts the recipe. This can take a while.")
	return fmt.Sprintf("%s\n%s\n\n%s\n", title, m.url.View(), hint)
}

func (m *Model) renderConfirm() string {
	r, ok := m.selected()
	if !ok {
		return m.palette.warn.Render("Nothing selected")
	}
	title := m.palette.title.Render(fmt.Sprintf("Delete '%s'?", formatter.Clean(r.Name)))
	return fmt.Sprintf("%s\nThis cannot be undone.\n", title)
}

func (m *Model) renderDetail() string {
	r, ok := m.selected()
	if !ok {
		return m.palette.warn.Render("Recipe no longer available")
	}
	return formatter.RecipeText(r)
}

// renderStatus shows the add slot while pending, otherwise the last status message.
func (m *Model) renderStatus() string {
	state := m.workflow.State()
	if state.Status == tasks.Submitting {
		return fmt.Sprintf("%s Extracting recipe from %s...", m.spinner.View(), state.URL)
	}
	if m.loading {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.status)
	}

	switch m.statusKind {
	case statusOK:
		return m.palette.ok.Render(m.status)
	case statusWarn:
		return m.palette.warn.Render(m.status)
	case statusErr:
		return m.palette.err.Render(m.status)
	default:
		return m.status
	}
}

func (m *Model) renderHelp() string {
	var keys []key.Binding
	switch m.view {
	case LoginView:
		keys = []key.Binding{m.keys.enter, m.keys.tab, m.keys.mode, m.keys.abort}
	case ListView:
		keys = []key.Binding{m.keys.add, m.keys.remove, m.keys.refresh, m.keys.theme, m.keys.layout, m.keys.logout, m.keys.quit}
	case AddView:
		keys = []key.Binding{m.keys.enter, m.keys.back}
	case ConfirmView:
		keys = []key.Binding{m.keys.yes, m.keys.no}
	case DetailView:
		keys = []key.Binding{m.keys.back, m.keys.quit}
	}
	return m.palette.help.Render(m.help.ShortHelpView(keys))
}
