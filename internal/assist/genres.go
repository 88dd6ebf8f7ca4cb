package assist

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Genre is one entry in the story genre catalog. The hint flavors the
// story prompt beyond the bare tag.
type Genre struct {
	Tag  string `yaml:"tag"`
	Hint string `yaml:"hint,omitempty"`
}

// DefaultGenres returns the built-in story genre catalog.
func DefaultGenres() []Genre {
	return []Genre{
		{Tag: "noir", Hint: "rain-slick streets, long shadows, a narrator with regrets"},
		{Tag: "science fiction", Hint: "strange technology and a sense of scale"},
		{Tag: "fantasy", Hint: "old magic hiding in plain sight"},
		{Tag: "horror", Hint: "dread that builds slowly"},
		{Tag: "comedy", Hint: "dry wit and escalating misunderstandings"},
		{Tag: "romance", Hint: "a chance meeting that matters"},
		{Tag: "western", Hint: "dust, distance, and hard choices"},
		{Tag: "fairy tale", Hint: "once upon a time, with a sting in the moral"},
	}
}

// LoadGenres reads a genre catalog override from a YAML file of the form
//
//	genres:
//	  - tag: noir
//	    hint: rain and regret
//
// A missing file yields the built-in catalog. Entries without a tag are
// dropped; a file with no usable entries falls back to the built-ins.
func LoadGenres(path string) ([]Genre, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultGenres(), nil
		}
		return nil, fmt.Errorf("reading genre catalog: %w", err)
	}

	var doc struct {
		Genres []Genre `yaml:"genres"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing genre catalog: %w", err)
	}

	genres := make([]Genre, 0, len(doc.Genres))
	for _, g := range doc.Genres {
		g.Tag = strings.TrimSpace(g.Tag)
		if g.Tag == "" {
			continue
		}
		genres = append(genres, g)
	}
	if len(genres) == 0 {
		return DefaultGenres(), nil
	}
	return genres, nil
}

// FindGenre looks up a tag in the catalog. Unknown tags come back as a
// bare genre so user-supplied tags still work.
func FindGenre(catalog []Genre, tag string) Genre {
	for _, g := range catalog {
		if strings.EqualFold(g.Tag, tag) {
			return g
		}
	}
	return Genre{Tag: tag}
}
