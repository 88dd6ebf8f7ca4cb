package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Allknowingroger/Commons-Explorer/internal/assist"
	"github.com/Allknowingroger/Commons-Explorer/internal/commons"
)

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.mode == ViewerView {
		return m.viewViewer()
	}
	return m.viewBrowse()
}

func (m *Model) viewBrowse() string {
	header := m.styles.Header.Render("Commons Explorer")
	searchRow := m.styles.SearchBox.Width(max(20, m.width-4)).Render(m.search.View())
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		searchRow,
		m.results.View(),
		m.statusLine(),
	)
}

func (m *Model) statusLine() string {
	switch {
	case m.loading && len(m.items) == 0:
		return m.styles.StatusBar.Render(m.spin.View() + " searching...")
	case m.loading:
		return m.styles.StatusBar.Render(m.spin.View() + " loading more...")
	case m.status != "":
		return m.styles.Error.Render(m.status)
	case m.noResults != "":
		return m.styles.StatusBar.Render("press / to search again")
	case len(m.items) > 0:
		return m.styles.StatusBar.Render(fmt.Sprintf(
			"%d results · enter view · / search · q quit", len(m.items)))
	default:
		return m.styles.StatusBar.Render("press / and type a query to search Wikimedia Commons")
	}
}

// renderResults rebuilds the list viewport and keeps the cursor in view.
func (m *Model) renderResults() {
	if !m.ready {
		return
	}
	if m.noResults != "" {
		m.results.SetContent(m.styles.NoResults.Render(
			fmt.Sprintf("No files match %q.", m.noResults)))
		return
	}

	width := max(10, m.width-2)
	var b strings.Builder
	for i, it := range m.items {
		if i > 0 {
			b.WriteByte('\n')
		}
		title := it.DisplayTitle()
		meta := resultMeta(it)
		if i == m.cursor {
			b.WriteString(m.styles.ResultCursor.MaxWidth(width).Render("> " + title))
			b.WriteByte('\n')
			b.WriteString(m.styles.ResultMeta.MaxWidth(width).Render("    " + meta))
		} else {
			b.WriteString(m.styles.ResultTitle.MaxWidth(width).Render("  " + title))
			b.WriteByte('\n')
			b.WriteString(m.styles.ResultMeta.MaxWidth(width).Render("    " + meta))
		}
	}
	if len(m.items) > 0 && !m.loading && !m.browse.CanLoadMore() {
		b.WriteByte('\n')
		b.WriteString(m.styles.EndOfResults.Render("End of results."))
	}
	m.results.SetContent(b.String())
	m.ensureCursorVisible()
}

// Each result occupies two lines in the list.
const resultRowLines = 2

func (m *Model) ensureCursorVisible() {
	top := m.cursor * resultRowLines
	if top < m.results.YOffset {
		m.results.SetYOffset(top)
		return
	}
	if bottom := top + resultRowLines; bottom > m.results.YOffset+m.results.Height {
		m.results.SetYOffset(bottom - m.results.Height)
	}
}

func resultMeta(r commons.Result) string {
	parts := make([]string, 0, 4)
	if r.Width > 0 && r.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", r.Width, r.Height))
	}
	if r.MIME != "" {
		parts = append(parts, r.MIME)
	}
	if r.License != "" {
		parts = append(parts, r.License)
	}
	if r.Artist != "" {
		parts = append(parts, r.Artist)
	}
	if len(parts) == 0 {
		return "no file details"
	}
	return strings.Join(parts, " · ")
}

func (m *Model) viewViewer() string {
	title := m.styles.ViewerTitle.Render(m.selected.DisplayTitle())
	meta := m.styles.ViewerMeta.Render(resultMeta(m.selected))
	page := m.styles.ViewerMeta.Render(m.selected.PageURL)

	rows := []string{title, meta, page, m.tabBar()}
	if m.activeTab == paneStory {
		rows = append(rows, m.genreLine())
	}
	rows = append(rows, m.styles.RenderDivider(max(10, m.pane.Width)))
	rows = append(rows, m.pane.View())

	if m.activeTab == paneChat && m.assist != nil {
		rows = append(rows, m.chatInput.View())
	} else {
		rows = append(rows, m.styles.StatusBar.Render("enter generate · tab switch · esc back"))
	}

	inner := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return m.styles.ViewerFrame.Width(max(24, m.width-4)).Render(inner)
}

func (m *Model) tabBar() string {
	labels := [paneCount]string{"1 Story", "2 Analysis", "3 Chat"}
	rendered := make([]string, 0, paneCount)
	for p := paneID(0); p < paneCount; p++ {
		if p == m.activeTab {
			rendered = append(rendered, m.styles.TabActive.Render(labels[p]))
		} else {
			rendered = append(rendered, m.styles.TabInactive.Render(labels[p]))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m *Model) genreLine() string {
	return m.styles.ViewerMeta.Render(
		fmt.Sprintf("genre: < %s >  (h/l to change)", m.currentGenre().Tag))
}

// syncPane refreshes the pane viewport for the active tab. While a
// generation streams, the viewport follows the newest text.
func (m *Model) syncPane() {
	if !m.ready || m.mode != ViewerView {
		return
	}
	m.pane.SetContent(m.paneContent(m.activeTab))
	if m.panes[m.activeTab].busy {
		m.pane.GotoBottom()
	}
}

func (m *Model) paneContent(p paneID) string {
	if m.assist == nil {
		return m.styles.Warning.Render(
			"Set GEMINI_API_KEY (or run `commons-explorer config init`) to enable stories, analysis, and chat.")
	}
	st := m.panes[p]
	if st.err != "" {
		return m.styles.Error.Render(st.err)
	}

	switch p {
	case paneStory:
		if st.raw == "" {
			if st.busy {
				return m.styles.Placeholder.Render("Writing...")
			}
			return m.styles.Placeholder.Render(fmt.Sprintf(
				"Press enter to write a %s story about this image.", m.currentGenre().Tag))
		}
		return m.safeRenderMarkdown(st.raw)
	case paneAnalysis:
		if st.raw == "" {
			if st.busy {
				return m.styles.Placeholder.Render("Looking...")
			}
			return m.styles.Placeholder.Render("Press enter to analyze this image.")
		}
		return m.safeRenderMarkdown(st.raw)
	default:
		return m.chatPane()
	}
}

func (m *Model) chatPane() string {
	st := m.panes[paneChat]
	var b strings.Builder
	for _, t := range m.chatTurns {
		if t.Role == assist.RoleUser {
			b.WriteString("**You:** " + t.Text + "\n\n")
		} else {
			b.WriteString("**Model:** " + t.Text + "\n\n")
		}
	}
	if m.pendingChat != "" {
		b.WriteString("**You:** " + m.pendingChat + "\n\n")
		switch {
		case st.raw != "":
			b.WriteString("**Model:** " + st.raw + "\n\n")
		case st.busy:
			b.WriteString("*thinking...*\n\n")
		}
	}
	if b.Len() == 0 {
		return m.styles.Placeholder.Render("Ask something about this image.")
	}
	return m.safeRenderMarkdown(b.String())
}

// safeRenderMarkdown renders markdown with panic recovery.
func (m *Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}
