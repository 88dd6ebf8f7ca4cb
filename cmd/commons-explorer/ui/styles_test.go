package ui

import (
	"strings"
	"testing"
)

func TestThemeByName(t *testing.T) {
	if theme := ThemeByName("light"); theme.IsDark {
		t.Error("light must map to the light theme")
	}
	if theme := ThemeByName("dark"); !theme.IsDark {
		t.Error("dark must map to the dark theme")
	}
	if theme := ThemeByName("solarized"); !theme.IsDark {
		t.Error("Unknown names must fall back to dark")
	}
}

func TestDefaultStyles(t *testing.T) {
	styles := DefaultStyles()
	if !styles.Theme.IsDark {
		t.Error("Default styles must use the dark theme")
	}
}

func TestRenderDivider(t *testing.T) {
	styles := DefaultStyles()

	if got := styles.RenderDivider(0); got != "" {
		t.Errorf("RenderDivider(0) = %q, want empty", got)
	}
	if got := styles.RenderDivider(-3); got != "" {
		t.Errorf("RenderDivider(-3) = %q, want empty", got)
	}
	if got := styles.RenderDivider(8); strings.Count(got, "─") != 8 {
		t.Errorf("RenderDivider(8) = %q, want 8 rule characters", got)
	}
}
