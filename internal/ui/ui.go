package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/results"
	"github.com/desertthunder/cinx/internal/services"
	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/store"
	"github.com/desertthunder/cinx/internal/tasks"
)

var _ results.Delegate = rows{}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	FilterView
	DetailView
	ConfirmView
	SearchView
)

// Options wires the TUI to the rest of the application.
//
// Engine and Catalog are optional: without them catalog search and detail loading are disabled.
// Reload, when set, brings the store in step with storage before a refresh.
type Options struct {
	Source     results.Source
	Dispatcher store.Dispatcher
	Reload     func() error
	Engine     *tasks.Engine
	Catalog    services.Catalog
	Category   models.Category
	Logger     *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	scheduler  *ProgramScheduler
	controller *results.Controller
	dispatcher store.Dispatcher
	resync     func() error
	engine     *tasks.Engine
	loader     *tasks.DetailLoader
	logger     *log.Logger
	category   models.Category
	width      int
	height     int
	movies     list.Model
	filter     textinput.Model
	query      textinput.Model
	found      list.Model
	detailID   int64
	detail     *models.Movie
	confirm    *models.StoredMovie
	batch      batch
	lastBatch  int
	status     string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	m := &Model{
		ctx:        ctx,
		view:       ListView,
		scheduler:  NewProgramScheduler(),
		dispatcher: opts.Dispatcher,
		resync:     opts.Reload,
		engine:     opts.Engine,
		logger:     opts.Logger,
		category:   opts.Category,
		movies:     newList("", nil),
		found:      newList("Search Results", nil),
		filter:     textinput.New(),
		query:      textinput.New(),
		help:       help.New(),
		keys:       newKeyMap(),
	}
	m.filter.Placeholder = "Filter titles"
	m.filter.Prompt = "/ "
	m.query.Placeholder = "Search the catalog (empty for upcoming)"
	m.query.Prompt = "? "

	m.controller = results.NewController(opts.Source, m.scheduler, rows{m}, opts.Logger)
	m.controller.OnError = m.ReportError
	if opts.Catalog != nil {
		m.loader = tasks.NewDetailLoader(opts.Catalog, opts.Dispatcher, m.scheduler, opts.Logger)
	}
	return m
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetShowHelp(false)
	return l
}

// ReportError shows err on the alert line. Safe to call from any goroutine.
func (m *Model) ReportError(err error) {
	m.scheduler.Schedule(func() { m.err = err })
}

// Refresh reloads the store, re-reads the source and replays any differences.
// Safe to call from any goroutine.
func (m *Model) Refresh() {
	if m.resync != nil {
		if err := m.resync(); err != nil {
			m.ReportError(err)
		}
	}
	if err := m.controller.Refresh(m.ctx); err != nil {
		m.ReportError(err)
	}
}

// Close stops observing the source and releases the scheduler.
func (m *Model) Close() {
	m.controller.Close()
	m.scheduler.Stop()
}

// Init starts the results controller and listens for scheduled work.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.scheduler.Wait())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.movies.SetSize(msg.Width-4, msg.Height-6)
		m.found.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case FilterView:
			return m.handleFilterKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgScheduled:
		for _, fn := range msg.data.([]func()) {
			fn()
		}
		return m, m.scheduler.Wait()

	case MsgSearchFetched:
		res := msg.data.(searchResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		items := make([]list.Item, len(res.page.Results))
		for i, mv := range res.page.Results {
			items[i] = resultItem{movie: mv}
		}
		m.found.Title = searchTitle(res.query, res.page)
		cmd := m.found.SetItems(items)
		m.query.Blur()
		return m, cmd

	case MsgStatus:
		m.status = msg.data.(string)
		m.err = nil

	case MsgFailed:
		m.err = msg.data.(error)
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case ListView, ConfirmView, FilterView:
		body = m.renderList()
	case DetailView:
		body = m.renderDetail()
	case SearchView:
		body = m.renderSearch()
	}

	if line := m.renderAlert(); line != "" {
		body = fmt.Sprintf("%s\n%s", body, line)
	}
	return body
}

// batch collects the row changes between BeginUpdate and EndUpdate.
type batch struct {
	deletes []int
	inserts []int
	updates []int
	moves   [][2]int
}

func (b batch) size() int {
	return len(b.deletes) + len(b.inserts) + len(b.updates) + len(b.moves)
}

// rows is the [results.Delegate] of the movie list. Its callbacks run inside [Model.Update].
type rows struct{ m *Model }

func (r rows) BeginUpdate()      { r.m.batch = batch{} }
func (r rows) Insert(i int)      { r.m.batch.inserts = append(r.m.batch.inserts, i) }
func (r rows) Delete(i int)      { r.m.batch.deletes = append(r.m.batch.deletes, i) }
func (r rows) Update(i int)      { r.m.batch.updates = append(r.m.batch.updates, i) }
func (r rows) Move(from, to int) { r.m.batch.moves = append(r.m.batch.moves, [2]int{from, to}) }
func (r rows) EndUpdate()        { r.m.applyBatch() }

// applyBatch edits the list rows in place: updates at old indexes, then removals from the
// bottom up, then insertions from the top down. Rows that end up out of step with the
// controller are replaced wholesale.
func (m *Model) applyBatch() {
	b := m.batch
	m.batch = batch{}
	m.lastBatch = b.size()

	objects := m.controller.Objects()
	byID := make(map[int64]models.StoredMovie, len(objects))
	for _, o := range objects {
		byID[o.ID] = o
	}

	var selectedID int64
	if movie, ok := m.selected(); ok {
		selectedID = movie.ID
	}

	items := m.movies.Items()
	for _, i := range b.updates {
		if i < 0 || i >= len(items) {
			continue
		}
		if row, ok := byID[items[i].(movieItem).movie.ID]; ok {
			m.movies.SetItem(i, movieItem{movie: row})
		}
	}

	removals := slices.Clone(b.deletes)
	insertions := slices.Clone(b.inserts)
	for _, mv := range b.moves {
		removals = append(removals, mv[0])
		insertions = append(insertions, mv[1])
	}
	slices.Sort(removals)
	slices.Sort(insertions)

	for _, i := range slices.Backward(removals) {
		m.movies.RemoveItem(i)
	}
	for _, i := range insertions {
		if i < len(objects) {
			m.movies.InsertItem(i, movieItem{movie: objects[i]})
		}
	}

	if !sameRows(m.movies.Items(), objects) {
		if m.logger != nil {
			m.logger.Warn("list rows out of step, reloading", "rows", len(m.movies.Items()), "objects", len(objects))
		}
		m.reload()
		return
	}

	m.selectID(selectedID)
	m.movies.Title = listTitle(m.controller.Predicate(), len(objects))
}

func sameRows(items []list.Item, objects []models.StoredMovie) bool {
	if len(items) != len(objects) {
		return false
	}
	for i, item := range items {
		row, ok := item.(movieItem)
		if !ok || row.movie.ID != objects[i].ID || !row.movie.SameContent(objects[i]) {
			return false
		}
	}
	return true
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.category):
		m.category = m.category.Next()
		return m, m.refetch(results.Predicate{Category: m.category, Query: m.filter.Value()})
	case key.Matches(msg, m.keys.filter):
		m.view = FilterView
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		return m, m.query.Focus()
	case key.Matches(msg, m.keys.back):
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			return m, m.refetch(results.Predicate{Category: m.category})
		}
		return m, nil
	}

	movie, ok := m.selected()
	if ok {
		switch {
		case key.Matches(msg, m.keys.enter):
			return m, m.openDetail(movie)
		case key.Matches(msg, m.keys.watch):
			return m, m.toggleWatched(movie)
		case key.Matches(msg, m.keys.remove):
			m.confirm = &movie
			m.view = ConfirmView
			return m, nil
		case key.Matches(msg, m.keys.open):
			return m, m.openBrowser(movie.ID)
		}
	}

	var cmd tea.Cmd
	m.movies, cmd = m.movies.Update(msg)
	return m, cmd
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.filter.Blur()
		m.view = ListView
		return m, nil
	case "enter":
		m.filter.Blur()
		m.view = ListView
		return m, m.refetch(results.Predicate{Category: m.category, Query: strings.TrimSpace(m.filter.Value())})
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
		m.detail = nil
		m.detailID = 0
		return m, nil
	case key.Matches(msg, m.keys.open):
		return m, m.openBrowser(m.detailID)
	case key.Matches(msg, m.keys.watch):
		if stored, ok := m.stored(m.detailID); ok {
			return m, m.toggleWatched(stored)
		}
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		movie := m.confirm
		m.confirm = nil
		m.view = ListView
		if movie == nil {
			return m, nil
		}
		return m, m.dispatch(store.DeleteMovie{ID: movie.ID}, fmt.Sprintf("Removed %s", movie.Title))
	case key.Matches(msg, m.keys.no), msg.String() == "q", msg.String() == "ctrl+c":
		m.confirm = nil
		m.view = ListView
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.query.Focused() {
		switch msg.String() {
		case "esc":
			m.query.Blur()
			m.view = ListView
			return m, nil
		case "enter":
			return m, m.search(strings.TrimSpace(m.query.Value()))
		}

		var cmd tea.Cmd
		m.query, cmd = m.query.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
		return m, nil
	case key.Matches(msg, m.keys.filter):
		return m, m.query.Focus()
	case key.Matches(msg, m.keys.save):
		if item, ok := m.found.SelectedItem().(resultItem); ok {
			return m, m.dispatch(
				store.SaveMovie{Movie: item.movie, Watched: false},
				fmt.Sprintf("Saved %s to your watchlist", item.movie.Title),
			)
		}
		return m, nil
	case key.Matches(msg, m.keys.open):
		if item, ok := m.found.SelectedItem().(resultItem); ok {
			return m, m.openBrowser(item.movie.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.found, cmd = m.found.Update(msg)
	return m, cmd
}

// reload replaces the list rows with the controller's, keeping the selected movie selected when it is still shown.
func (m *Model) reload() {
	rows := m.controller.Objects()

	var selectedID int64
	if movie, ok := m.selected(); ok {
		selectedID = movie.ID
	}

	items := make([]list.Item, len(rows))
	index := -1
	for i, row := range rows {
		items[i] = movieItem{movie: row}
		if row.ID == selectedID {
			index = i
		}
	}
	m.movies.SetItems(items)

	switch {
	case index >= 0:
		m.movies.Select(index)
	case len(items) > 0 && m.movies.Index() >= len(items):
		m.movies.Select(len(items) - 1)
	}
	m.movies.Title = listTitle(m.controller.Predicate(), len(rows))
}

// selectID selects the row of movie id, or clamps the cursor when that row is gone.
func (m *Model) selectID(id int64) {
	items := m.movies.Items()
	for i, item := range items {
		if item.(movieItem).movie.ID == id {
			m.movies.Select(i)
			return
		}
	}
	if len(items) > 0 && m.movies.Index() >= len(items) {
		m.movies.Select(len(items) - 1)
	}
}

func (m *Model) selected() (models.StoredMovie, bool) {
	item, ok := m.movies.SelectedItem().(movieItem)
	if !ok {
		return models.StoredMovie{}, false
	}
	return item.movie, true
}

func (m *Model) stored(id int64) (models.StoredMovie, bool) {
	for _, item := range m.movies.Items() {
		if row, ok := item.(movieItem); ok && row.movie.ID == id {
			return row.movie, true
		}
	}
	return models.StoredMovie{}, false
}

func (m *Model) showDetail(movie models.Movie) {
	if m.view != DetailView || movie.ID != m.detailID {
		return
	}
	m.detail = &movie
}

func (m *Model) openDetail(movie models.StoredMovie) tea.Cmd {
	m.view = DetailView
	m.detailID = movie.ID
	m.detail = nil

	if m.loader == nil {
		m.showDetail(movie.Movie)
		return nil
	}
	m.loader.Load(m.ctx, movie.Movie, m.showDetail)
	return nil
}

func (m *Model) start() tea.Cmd {
	p := results.Predicate{Category: m.category}
	return func() tea.Msg {
		if err := m.controller.Start(m.ctx, p, m.reload); err != nil {
			return failedMsg(err)
		}
		return nil
	}
}

func (m *Model) refetch(p results.Predicate) tea.Cmd {
	return func() tea.Msg {
		if err := m.controller.Refetch(m.ctx, p, m.reload); err != nil {
			return failedMsg(err)
		}
		return nil
	}
}

func (m *Model) toggleWatched(movie models.StoredMovie) tea.Cmd {
	status := fmt.Sprintf("Marked %s as seen", movie.Title)
	if movie.Watched {
		status = fmt.Sprintf("Moved %s back to your watchlist", movie.Title)
	}
	return m.dispatch(store.MarkWatched{ID: movie.ID, Watched: !movie.Watched}, status)
}

// dispatch sends action from a command goroutine so that store subscribers never run inside Update.
// status is shown only when the action was applied.
func (m *Model) dispatch(action store.Action, status string) tea.Cmd {
	return func() tea.Msg {
		if err := m.apply(action); err != nil {
			return failedMsg(err)
		}
		return statusMsg(status)
	}
}

// apply applies action to the store. A movie the store does not hold yet may have been
// written by another process, so the store is reloaded and the action tried once more.
func (m *Model) apply(action store.Action) error {
	applier, ok := m.dispatcher.(store.Applier)
	if !ok {
		m.dispatcher.Dispatch(action)
		return nil
	}
	err := applier.Apply(action)
	if errors.Is(err, shared.ErrMovieNotFound) && m.resync != nil {
		if rerr := m.resync(); rerr != nil {
			return rerr
		}
		err = applier.Apply(action)
	}
	return err
}

func (m *Model) search(query string) tea.Cmd {
	if m.engine == nil {
		return func() tea.Msg {
			return failedMsg(fmt.Errorf("%w: configure catalog credentials to search", shared.ErrMissingCredentials))
		}
	}
	return func() tea.Msg {
		page, err := m.engine.Search(m.ctx, query, 1, nil)
		return searchFetchedMsg(query, page, err)
	}
}

func (m *Model) openBrowser(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := shared.OpenBrowser(services.MovieURL(id)); err != nil {
			return failedMsg(err)
		}
		return nil
	}
}

func (m *Model) renderList() string {
	var view string
	switch m.view {
	case FilterView:
		helpKeys := []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			m.keys.back,
		}
		view = fmt.Sprintf("%s\n%s\n\n%s", m.movies.View(), m.filter.View(), m.help.ShortHelpView(helpKeys))
	case ConfirmView:
		prompt := styles.warn.Render(fmt.Sprintf("Remove '%s'?", m.confirm.Title))
		helpKeys := []key.Binding{m.keys.yes, m.keys.no}
		view = fmt.Sprintf("%s\n%s\n\n%s", m.movies.View(), prompt, m.help.ShortHelpView(helpKeys))
	default:
		helpKeys := []key.Binding{m.keys.enter, m.keys.category, m.keys.filter, m.keys.search, m.keys.watch, m.keys.remove, m.keys.quit}
		view = fmt.Sprintf("%s\n\n%s", m.movies.View(), m.help.ShortHelpView(helpKeys))
	}
	return view
}

func (m *Model) renderDetail() string {
	helpKeys := []key.Binding{m.keys.watch, m.keys.open, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.detail == nil {
		return fmt.Sprintf("%s\n\n%s", styles.help.Render("Loading..."), helpView)
	}

	mv := m.detail
	var b strings.Builder
	b.WriteString(styles.title.Render(mv.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Release:"), shared.FormatRelativeRelease(mv.ReleaseDate, time.Now()))
	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Runtime:"), shared.FormatRuntime(mv.Runtime))
	fmt.Fprintf(&b, "%s %s (%d votes)\n", styles.label.Render("Rating:"), shared.FormatVote(mv.VoteAverage), mv.VoteCount)

	if stored, ok := m.stored(mv.ID); ok && stored.Watched {
		seen := "Seen"
		if stored.WatchedAt != nil {
			seen = fmt.Sprintf("Seen on %s", shared.FormatReleaseDate(*stored.WatchedAt))
		}
		b.WriteString(styles.ok.Render(seen))
		b.WriteString("\n")
	}

	overview := mv.Overview
	if overview == "" {
		overview = "No overview available."
	}
	width := m.width - 4
	if width < 20 {
		width = 60
	}
	b.WriteString(styles.body.Width(width).Render(overview))

	return fmt.Sprintf("%s\n\n%s", b.String(), helpView)
}

func (m *Model) renderSearch() string {
	var helpKeys []key.Binding
	if m.query.Focused() {
		helpKeys = []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
			m.keys.back,
		}
	} else {
		helpKeys = []key.Binding{m.keys.save, m.keys.open, m.keys.filter, m.keys.back, m.keys.quit}
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.query.View(), m.found.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderAlert() string {
	switch {
	case m.err != nil:
		msg := m.err.Error()
		if errors.Is(m.err, shared.ErrPersistence) {
			msg = "Could not save your change: " + msg
		}
		return styles.err.Render(msg)
	case m.status != "":
		return styles.ok.Render(m.status)
	default:
		return ""
	}
}

func listTitle(p results.Predicate, n int) string {
	title := fmt.Sprintf("%s • %s", p.Category.Title(), shared.FormatMovieCount(n))
	if p.Query != "" {
		title = fmt.Sprintf("%s • %q", title, p.Query)
	}
	return title
}

func searchTitle(query string, page *models.Page) string {
	if query == "" {
		return fmt.Sprintf("Upcoming • %s", shared.FormatMovieCount(page.TotalResults))
	}
	return fmt.Sprintf("Results for %q • %s", query, shared.FormatMovieCount(page.TotalResults))
}
