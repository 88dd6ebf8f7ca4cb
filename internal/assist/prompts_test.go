package assist

import (
	"strings"
	"testing"
)

func TestStoryPrompt(t *testing.T) {
	genre := Genre{Tag: "noir", Hint: "rain and regret"}
	prompt := StoryPrompt("Cat03.jpg", genre)

	for _, want := range []string{"noir", `"Cat03.jpg"`, "Lean into rain and regret."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("StoryPrompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestStoryPrompt_NoHint(t *testing.T) {
	prompt := StoryPrompt("Cat03.jpg", Genre{Tag: "cyberpunk"})
	if !strings.Contains(prompt, "cyberpunk") {
		t.Errorf("StoryPrompt missing tag:\n%s", prompt)
	}
	if strings.Contains(prompt, "Lean into") {
		t.Errorf("StoryPrompt must omit the hint clause without a hint:\n%s", prompt)
	}
}

func TestAnalysisPrompt(t *testing.T) {
	prompt := AnalysisPrompt("Golden Gate Bridge.jpg")
	if !strings.Contains(prompt, `"Golden Gate Bridge.jpg"`) {
		t.Errorf("AnalysisPrompt missing title:\n%s", prompt)
	}
}

func TestChatPrompt_IncludesTranscriptInOrder(t *testing.T) {
	transcript := []ChatTurn{
		{Role: RoleUser, Text: "What is it?"},
		{Role: RoleModel, Text: "A cat."},
	}
	prompt := ChatPrompt("Cat03.jpg", transcript, "Is it fluffy?")

	first := strings.Index(prompt, "User: What is it?")
	second := strings.Index(prompt, "Assistant: A cat.")
	last := strings.Index(prompt, "User: Is it fluffy?")
	if first < 0 || second < 0 || last < 0 {
		t.Fatalf("ChatPrompt missing turns:\n%s", prompt)
	}
	if !(first < second && second < last) {
		t.Errorf("ChatPrompt turns out of order:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, "User: Is it fluffy?") {
		t.Errorf("ChatPrompt must end with the latest message:\n%s", prompt)
	}
}

func TestChatPrompt_EmptyTranscript(t *testing.T) {
	prompt := ChatPrompt("Cat03.jpg", nil, "Hello")
	if strings.Contains(prompt, "Conversation so far") {
		t.Errorf("ChatPrompt must omit the history header without history:\n%s", prompt)
	}
	if !strings.Contains(prompt, "User: Hello") {
		t.Errorf("ChatPrompt missing message:\n%s", prompt)
	}
}
