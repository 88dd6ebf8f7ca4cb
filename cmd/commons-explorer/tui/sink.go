package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Allknowingroger/Commons-Explorer/internal/commons"
)

// uiSink forwards pagination events from the browse controller into the
// program's event channel. Sends are abandoned once the program shuts
// down so controller goroutines never block on a dead UI.
type uiSink struct {
	events chan<- tea.Msg
	done   <-chan struct{}
}

func (s uiSink) send(msg tea.Msg) {
	select {
	case s.events <- msg:
	case <-s.done:
	}
}

func (s uiSink) ResetResults() {
	s.send(resultsResetMsg{})
}

func (s uiSink) AppendResults(results []commons.Result) {
	s.send(resultsAppendedMsg{Results: results})
}

func (s uiSink) ShowNoResults(query string) {
	s.send(noResultsMsg{Query: query})
}

func (s uiSink) LoadFinished(err error) {
	s.send(loadFinishedMsg{Err: err})
}

// paneWriter implements assist.Output for one pane of one viewer session.
// Update drops its messages when the session is no longer active, so output
// from a generation that outlived its viewer is discarded.
type paneWriter struct {
	events  chan<- tea.Msg
	done    <-chan struct{}
	pane    paneID
	session string
}

func (w paneWriter) send(msg tea.Msg) {
	select {
	case w.events <- msg:
	case <-w.done:
	}
}

func (w paneWriter) Reset() {
	w.send(paneResetMsg{Pane: w.pane})
}

func (w paneWriter) SetText(s string) {
	w.send(paneTextMsg{Pane: w.pane, Session: w.session, Text: s})
}

func (w paneWriter) Append(s string) {
	w.send(paneChunkMsg{Pane: w.pane, Session: w.session, Chunk: s})
}

func (w paneWriter) Fail(msg string) {
	w.send(paneErrorMsg{Pane: w.pane, Session: w.session, Msg: msg})
}
