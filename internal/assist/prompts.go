package assist

import (
	"fmt"
	"strings"
)

// Transcript roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatTurn is one entry in the running conversation about an image.
type ChatTurn struct {
	Role string
	Text string
}

// StoryPrompt builds the genre story prompt for an image title.
func StoryPrompt(title string, genre Genre) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short %s story of 150-250 words inspired by the attached image, titled %q.", genre.Tag, title)
	if genre.Hint != "" {
		fmt.Fprintf(&b, " Lean into %s.", genre.Hint)
	}
	b.WriteString(" Open with an evocative title on its own line.")
	return b.String()
}

// AnalysisPrompt builds the fixed image analysis prompt.
func AnalysisPrompt(title string) string {
	return fmt.Sprintf("Describe the attached image, titled %q: the subject, composition, lighting, and any historical or cultural context the title suggests. Keep it under 200 words.", title)
}

// ChatPrompt builds the conversational prompt from the transcript so far
// plus the user's latest message.
func ChatPrompt(title string, transcript []ChatTurn, userText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are discussing the attached image, titled %q, with the user. Answer the user's latest message, grounded in what the image shows.\n", title)
	if len(transcript) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, t := range transcript {
			if t.Role == RoleUser {
				fmt.Fprintf(&b, "User: %s\n", t.Text)
			} else {
				fmt.Fprintf(&b, "Assistant: %s\n", t.Text)
			}
		}
	}
	fmt.Fprintf(&b, "\nUser: %s", userText)
	return b.String()
}
