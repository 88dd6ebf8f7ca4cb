// Package tui implements the interactive browser: a search box over
// paginated Wikimedia Commons results with infinite scroll, and a viewer
// overlay with AI story, analysis, and chat panes for the selected image.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/Allknowingroger/Commons-Explorer/cmd/commons-explorer/ui"
	"github.com/Allknowingroger/Commons-Explorer/internal/assist"
	"github.com/Allknowingroger/Commons-Explorer/internal/browse"
	"github.com/Allknowingroger/Commons-Explorer/internal/commons"
	"github.com/Allknowingroger/Commons-Explorer/internal/config"
	"github.com/Allknowingroger/Commons-Explorer/internal/gemini"
	"github.com/Allknowingroger/Commons-Explorer/internal/logging"
)

// ViewMode determines which surface is active
type ViewMode int

const (
	BrowseView ViewMode = iota
	ViewerView
)

func (m ViewMode) String() string {
	if m == ViewerView {
		return "viewer"
	}
	return "browse"
}

// loadMoreThreshold is how close (in rows) the cursor must be to the end of
// the list before the next page is requested.
const loadMoreThreshold = 5

// paneState holds the display state of one viewer pane.
type paneState struct {
	raw  string // accumulated generated text
	err  string // inline error, shown instead of placeholder
	busy bool   // a generation is in flight
}

// Options wires the TUI to its backends.
type Options struct {
	Config       *config.UserConfig
	Commons      browse.Searcher
	Gemini       *gemini.Client // nil when no API key is configured
	Genres       []assist.Genre
	InitialQuery string
}

// Model is the bubbletea model for the whole program.
type Model struct {
	// UI components
	styles    ui.Styles
	search    textinput.Model
	chatInput textinput.Model
	spin      spinner.Model
	results   viewport.Model
	pane      viewport.Model
	renderer  *glamour.TermRenderer

	// Window
	width  int
	height int
	ready  bool

	// Browse state
	mode      ViewMode
	items     []commons.Result
	cursor    int
	loading   bool
	noResults string // query that matched nothing; "" when n/a
	status    string

	// Viewer state
	selected    commons.Result
	session     string // active assist session; "" when viewer closed
	activeTab   paneID
	panes       [paneCount]paneState
	genres      []assist.Genre
	genreIdx    int
	chatTurns   []assist.ChatTurn // completed exchanges for display
	pendingChat string            // user message awaiting a reply

	// Backend
	browse  *browse.Controller
	assist  *assist.Controller
	events  chan tea.Msg
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	initial string
}

// New builds the program model and wires the controllers to it.
func New(opts Options) *Model {
	styles := ui.NewStyles(ui.ThemeByName(opts.Config.GetTheme()))

	search := textinput.New()
	search.Placeholder = "Search Wikimedia Commons..."
	search.CharLimit = 256
	search.Prompt = "? "
	search.Focus()

	chatInput := textinput.New()
	chatInput.Placeholder = "Ask about this image..."
	chatInput.CharLimit = 512
	chatInput.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	genres := opts.Genres
	if len(genres) == 0 {
		genres = assist.DefaultGenres()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Model{
		styles:    styles,
		search:    search,
		chatInput: chatInput,
		spin:      sp,
		genres:    genres,
		events:    make(chan tea.Msg, 256),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		initial:   opts.InitialQuery,
	}

	sink := uiSink{events: m.events, done: m.done}
	m.browse = browse.NewController(opts.Commons, sink, opts.Config.GetPageSize())

	if opts.Gemini != nil {
		m.assist = assist.NewController(opts.Gemini, assist.Panes{
			Story:    paneWriter{events: m.events, done: m.done, pane: paneStory},
			Analysis: paneWriter{events: m.events, done: m.done, pane: paneAnalysis},
			Chat:     paneWriter{events: m.events, done: m.done, pane: paneChat},
		})
	}

	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spin.Tick, m.waitForEvent()}
	if m.initial != "" {
		m.search.SetValue(m.initial)
		cmds = append(cmds, m.startSearch(m.initial))
	}
	logging.UI("tui started")
	return tea.Batch(cmds...)
}

// waitForEvent returns a command that delivers the next forwarded
// controller event. Update re-arms it after consuming each one.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// startSearch runs a search in the background; results arrive through the
// sink as messages.
func (m *Model) startSearch(query string) tea.Cmd {
	ctrl, ctx := m.browse, m.ctx
	return func() tea.Msg {
		ctrl.Search(ctx, query)
		return nil
	}
}

// startLoadMore requests the next page if the controller allows it.
func (m *Model) startLoadMore() tea.Cmd {
	ctrl, ctx := m.browse, m.ctx
	return func() tea.Msg {
		ctrl.LoadNextPage(ctx)
		return nil
	}
}

// startGenerate runs one generation into the given pane.
func (m *Model) startGenerate(pane paneID, prompt string) tea.Cmd {
	ctrl, ctx := m.assist, m.ctx
	w := paneWriter{events: m.events, done: m.done, pane: pane, session: m.session}
	return func() tea.Msg {
		ctrl.Generate(ctx, prompt, w, true)
		return generateDoneMsg{Pane: pane, Session: w.session}
	}
}

// startChat sends one chat message about the selected image.
func (m *Model) startChat(text string) tea.Cmd {
	ctrl, ctx := m.assist, m.ctx
	w := paneWriter{events: m.events, done: m.done, pane: paneChat, session: m.session}
	return func() tea.Msg {
		ctrl.Chat(ctx, text, w, true)
		return generateDoneMsg{Pane: paneChat, Session: w.session}
	}
}

// currentGenre returns the genre under the picker.
func (m *Model) currentGenre() assist.Genre {
	if len(m.genres) == 0 {
		return assist.Genre{Tag: "noir"}
	}
	return m.genres[m.genreIdx%len(m.genres)]
}

func (m *Model) storyPrompt() string {
	return assist.StoryPrompt(m.selected.DisplayTitle(), m.currentGenre())
}

func (m *Model) analysisPrompt() string {
	return assist.AnalysisPrompt(m.selected.DisplayTitle())
}

// shutdown stops background work before quitting.
func (m *Model) shutdown() {
	close(m.done)
	m.cancel()
	logging.UI("tui shutting down")
}
