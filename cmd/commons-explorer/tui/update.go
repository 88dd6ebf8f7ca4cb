package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/Allknowingroger/Commons-Explorer/internal/logging"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.shutdown()
			return m, tea.Quit
		}
		if m.mode == ViewerView {
			return m.updateViewer(msg)
		}
		return m.updateBrowse(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.busyNow() {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case resultsResetMsg:
		m.items = nil
		m.cursor = 0
		m.noResults = ""
		m.status = ""
		m.loading = true
		m.renderResults()
		return m, tea.Batch(m.waitForEvent(), m.spin.Tick)

	case resultsAppendedMsg:
		m.items = append(m.items, msg.Results...)
		m.renderResults()
		return m, m.waitForEvent()

	case noResultsMsg:
		m.noResults = msg.Query
		m.renderResults()
		return m, m.waitForEvent()

	case loadFinishedMsg:
		m.loading = false
		if msg.Err != nil {
			m.status = fmt.Sprintf("load failed: %v", msg.Err)
		}
		m.renderResults()
		return m, m.waitForEvent()

	case paneResetMsg:
		m.panes[msg.Pane] = paneState{}
		m.syncPane()
		return m, m.waitForEvent()

	case paneTextMsg:
		if msg.Session == m.session {
			m.panes[msg.Pane].raw = msg.Text
			m.syncPane()
		}
		return m, m.waitForEvent()

	case paneChunkMsg:
		if msg.Session == m.session {
			m.panes[msg.Pane].raw += msg.Chunk
			m.syncPane()
		}
		return m, m.waitForEvent()

	case paneErrorMsg:
		if msg.Session == m.session {
			m.panes[msg.Pane].err = msg.Msg
			m.syncPane()
		}
		return m, m.waitForEvent()

	case generateDoneMsg:
		// Arrives from the command itself, not the event channel.
		if msg.Session != m.session {
			logging.UIDebug("dropping completion for stale session %s", msg.Session)
			return m, nil
		}
		m.panes[msg.Pane].busy = false
		if msg.Pane == paneChat {
			if m.assist != nil {
				m.chatTurns = m.assist.Transcript()
			}
			m.pendingChat = ""
			if m.panes[paneChat].err == "" {
				m.panes[paneChat].raw = ""
			}
		}
		m.syncPane()
		return m, nil
	}

	// Remaining messages (cursor blinks and the like) go to the inputs.
	var searchCmd, chatCmd tea.Cmd
	m.search, searchCmd = m.search.Update(msg)
	m.chatInput, chatCmd = m.chatInput.Update(msg)
	return m, tea.Batch(searchCmd, chatCmd)
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.search.Focused() {
		switch msg.Type {
		case tea.KeyEnter:
			query := strings.TrimSpace(m.search.Value())
			if query == "" {
				return m, nil
			}
			if query == m.browse.Query() {
				// The controller ignores duplicate submissions and emits no
				// events, so do not flip the loading flag for one.
				m.search.Blur()
				return m, nil
			}
			m.search.Blur()
			m.loading = true
			return m, tea.Batch(m.startSearch(query), m.spin.Tick)
		case tea.KeyEsc:
			if len(m.items) > 0 || m.noResults != "" {
				m.search.Blur()
				return m, nil
			}
			m.shutdown()
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		m.shutdown()
		return m, tea.Quit
	case "/", "s":
		return m, m.search.Focus()
	case "j", "down":
		return m, m.moveCursor(1)
	case "k", "up":
		return m, m.moveCursor(-1)
	case "g", "home":
		return m, m.moveCursor(-len(m.items))
	case "G", "end":
		return m, m.moveCursor(len(m.items))
	case "pgdown", "ctrl+d":
		return m, m.moveCursor(m.results.Height / 2)
	case "pgup", "ctrl+u":
		return m, m.moveCursor(-m.results.Height / 2)
	case "enter":
		m.openViewer()
		return m, nil
	}
	return m, nil
}

func (m *Model) updateViewer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeViewer()
		return m, nil
	case tea.KeyTab:
		return m, m.setTab((m.activeTab + 1) % paneCount)
	case tea.KeyShiftTab:
		return m, m.setTab((m.activeTab + paneCount - 1) % paneCount)
	}

	if m.activeTab == paneChat && m.chatInput.Focused() {
		if msg.Type == tea.KeyEnter {
			return m, m.dispatchChat()
		}
		var cmd tea.Cmd
		m.chatInput, cmd = m.chatInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.closeViewer()
		return m, nil
	case "1":
		return m, m.setTab(paneStory)
	case "2":
		return m, m.setTab(paneAnalysis)
	case "3":
		return m, m.setTab(paneChat)
	case "h", "left":
		if m.activeTab == paneStory && len(m.genres) > 0 {
			m.genreIdx = (m.genreIdx + len(m.genres) - 1) % len(m.genres)
		}
		return m, nil
	case "l", "right":
		if m.activeTab == paneStory && len(m.genres) > 0 {
			m.genreIdx = (m.genreIdx + 1) % len(m.genres)
		}
		return m, nil
	case "enter":
		return m, m.dispatchGenerate(m.activeTab)
	case "j", "down":
		m.pane.LineDown(1)
		return m, nil
	case "k", "up":
		m.pane.LineUp(1)
		return m, nil
	case "pgdown", "ctrl+d":
		m.pane.HalfViewDown()
		return m, nil
	case "pgup", "ctrl+u":
		m.pane.HalfViewUp()
		return m, nil
	}
	return m, nil
}

// moveCursor shifts the selection, keeps it visible, and requests the next
// page when the cursor nears the end of what is loaded.
func (m *Model) moveCursor(delta int) tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	m.renderResults()

	if m.cursor >= len(m.items)-loadMoreThreshold && m.browse.CanLoadMore() {
		m.loading = true
		return tea.Batch(m.startLoadMore(), m.spin.Tick)
	}
	return nil
}

func (m *Model) openViewer() {
	if len(m.items) == 0 {
		return
	}
	m.selected = m.items[m.cursor]
	m.mode = ViewerView
	m.activeTab = paneStory
	m.chatTurns = nil
	m.pendingChat = ""
	m.chatInput.SetValue("")
	m.chatInput.Blur()
	if m.assist != nil {
		url := m.selected.ThumbURL
		if url == "" {
			url = m.selected.URL
		}
		m.session = m.assist.SelectImage(url, m.selected.DisplayTitle())
	}
	m.syncPane()
}

func (m *Model) closeViewer() {
	if m.assist != nil {
		m.assist.ClearSelection()
	}
	m.session = ""
	m.mode = BrowseView
	m.chatInput.Blur()
	for i := range m.panes {
		m.panes[i] = paneState{}
	}
}

// setTab switches the visible pane and moves input focus with it.
func (m *Model) setTab(tab paneID) tea.Cmd {
	m.activeTab = tab
	m.syncPane()
	if tab == paneChat && m.assist != nil {
		return m.chatInput.Focus()
	}
	m.chatInput.Blur()
	return nil
}

// dispatchGenerate starts a story or analysis generation for the active tab.
func (m *Model) dispatchGenerate(pane paneID) tea.Cmd {
	if m.assist == nil || pane == paneChat {
		return nil
	}
	if m.panes[pane].busy {
		return nil
	}
	var prompt string
	switch pane {
	case paneStory:
		prompt = m.storyPrompt()
	case paneAnalysis:
		prompt = m.analysisPrompt()
	}
	m.panes[pane] = paneState{busy: true}
	m.syncPane()
	return tea.Batch(m.startGenerate(pane, prompt), m.spin.Tick)
}

func (m *Model) dispatchChat() tea.Cmd {
	if m.assist == nil || m.panes[paneChat].busy {
		return nil
	}
	text := strings.TrimSpace(m.chatInput.Value())
	if text == "" {
		return nil
	}
	m.chatInput.SetValue("")
	m.pendingChat = text
	m.panes[paneChat].busy = true
	m.panes[paneChat].err = ""
	m.panes[paneChat].raw = ""
	m.syncPane()
	return tea.Batch(m.startChat(text), m.spin.Tick)
}

// busyNow reports whether anything is running that deserves a spinner.
func (m *Model) busyNow() bool {
	if m.loading {
		return true
	}
	for i := range m.panes {
		if m.panes[i].busy {
			return true
		}
	}
	return false
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	m.search.Width = max(20, width-8)
	m.chatInput.Width = max(20, width-12)

	listHeight := max(3, height-6)
	paneHeight := max(3, height-10)
	paneWidth := max(20, width-8)

	if !m.ready {
		m.results = viewport.New(width, listHeight)
		m.pane = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.results.Width = width
		m.results.Height = listHeight
		m.pane.Width = paneWidth
		m.pane.Height = paneHeight
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(20, paneWidth-2)),
	)
	if err == nil {
		m.renderer = renderer
	}

	m.renderResults()
	m.syncPane()
}
