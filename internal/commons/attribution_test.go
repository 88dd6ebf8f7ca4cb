package commons

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text passes through", "Ada Example", "Ada Example"},
		{"anchor stripped", `<a href="https://example.org/u">Ada Example</a>`, "Ada Example"},
		{"nested markup", `<span><a href="#">Ada</a> <b>Example</b></span>`, "Ada Example"},
		{"wikimedia artist cell", `<bdi><a href="//commons.wikimedia.org/wiki/User:Ada" title="User:Ada">Ada</a></bdi>`, "Ada"},
		{"entity decoded", "Smith &amp; Jones", "Smith & Jones"},
		{"whitespace collapsed", "  Ada \n Example  ", "Ada Example"},
		{"empty", "", ""},
		{"markup only", "<br/>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plainText(tt.in); got != tt.want {
				t.Errorf("plainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
