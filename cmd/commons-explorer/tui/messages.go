package tui

import (
	"github.com/Allknowingroger/Commons-Explorer/internal/commons"
)

// paneID identifies one of the three viewer output panes.
type paneID int

const (
	paneStory paneID = iota
	paneAnalysis
	paneChat
	paneCount
)

func (p paneID) String() string {
	switch p {
	case paneStory:
		return "Story"
	case paneAnalysis:
		return "Analysis"
	case paneChat:
		return "Chat"
	default:
		return "Unknown"
	}
}

// Messages delivered to Update. The results* and pane* messages are
// forwarded from controller sinks over the event channel; the rest come
// straight from commands.
type (
	// resultsResetMsg clears the result list for a new search.
	resultsResetMsg struct{}

	// resultsAppendedMsg delivers one page of results in server order.
	resultsAppendedMsg struct {
		Results []commons.Result
	}

	// noResultsMsg reports that the first page matched nothing.
	noResultsMsg struct {
		Query string
	}

	// loadFinishedMsg reports the end of a page load.
	loadFinishedMsg struct {
		Err error
	}

	// paneResetMsg returns a pane to its placeholder state.
	paneResetMsg struct {
		Pane paneID
	}

	// paneTextMsg replaces a pane's content with a complete result.
	paneTextMsg struct {
		Pane    paneID
		Session string
		Text    string
	}

	// paneChunkMsg appends one streamed fragment to a pane.
	paneChunkMsg struct {
		Pane    paneID
		Session string
		Chunk   string
	}

	// paneErrorMsg renders an inline error in a pane.
	paneErrorMsg struct {
		Pane    paneID
		Session string
		Msg     string
	}

	// generateDoneMsg reports that a generation call returned.
	generateDoneMsg struct {
		Pane    paneID
		Session string
	}
)
