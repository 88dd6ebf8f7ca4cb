package commons

import (
	"strings"

	"golang.org/x/net/html"
)

// plainText reduces an HTML fragment to its visible text. Attribution
// fields in extmetadata ship as markup (typically a link to the author's
// user page); only the text matters here.
func plainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	// Collapse runs of whitespace left by markup boundaries
	return strings.Join(strings.Fields(b.String()), " ")
}
