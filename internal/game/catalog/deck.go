package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Deck composition limits enforced by the deck builder.
const (
	MinUnitCards    = 22
	MaxSpecialCards = 10
)

// Composition summarises a deck list.
type Composition struct {
	Units      int
	Specials   int
	Total      int
	TotalPower int
}

// Compose counts unit and special cards in a deck list. Unknown ids are ignored.
func Compose(ids []string) Composition {
	var c Composition
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			continue
		}
		if d.Category == CategorySpecial {
			c.Specials++
		} else {
			c.Units++
		}
		c.TotalPower += d.Power
	}
	c.Total = c.Units + c.Specials
	return c
}

// DeckError lists every composition rule a deck breaks.
type DeckError struct {
	Violations []string
}

func (e *DeckError) Error() string {
	return fmt.Sprintf("invalid deck: %v", e.Violations)
}

// ValidateDeck checks the composition limits and that every id exists.
func ValidateDeck(ids []string) error {
	var violations []string
	if _, unknown := Resolve(ids); len(unknown) > 0 {
		violations = append(violations, fmt.Sprintf("unknown card ids: %v", unknown))
	}
	c := Compose(ids)
	if c.Units < MinUnitCards {
		violations = append(violations, fmt.Sprintf("needs at least %d unit cards (has %d)", MinUnitCards, c.Units))
	}
	if c.Specials > MaxSpecialCards {
		violations = append(violations, fmt.Sprintf("at most %d special cards allowed (has %d)", MaxSpecialCards, c.Specials))
	}
	if len(violations) > 0 {
		return &DeckError{Violations: violations}
	}
	return nil
}

// PresetFile is the top-level YAML structure of a deck presets file.
type PresetFile struct {
	Decks []Preset `yaml:"decks"`
}

// Preset is a named deck list with an optional leader.
type Preset struct {
	Name   string        `yaml:"name"`
	Leader string        `yaml:"leader"`
	Cards  []PresetEntry `yaml:"cards"`
}

// PresetEntry is a card id and its number of copies.
type PresetEntry struct {
	ID    string `yaml:"id"`
	Count int    `yaml:"count"`
}

// ErrPresetNotFound is returned when a named preset does not exist.
var ErrPresetNotFound = errors.New("deck preset not found")

// LoadPresets parses a YAML deck presets file.
func LoadPresets(path string) (*PresetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePresets(data)
}

// ParsePresets parses YAML deck presets from memory.
func ParsePresets(data []byte) (*PresetFile, error) {
	var pf PresetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse deck presets: %w", err)
	}
	for _, deck := range pf.Decks {
		if deck.Leader == "" {
			continue
		}
		if _, ok := LeaderByID(deck.Leader); !ok {
			return nil, fmt.Errorf("deck %q: unknown leader %q", deck.Name, deck.Leader)
		}
	}
	return &pf, nil
}

// ByName returns the preset with the given name.
func (pf *PresetFile) ByName(name string) (Preset, error) {
	for _, deck := range pf.Decks {
		if deck.Name == name {
			return deck, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
}

// IDs expands the preset into a flat card id list.
func (p Preset) IDs() []string {
	var ids []string
	for _, entry := range p.Cards {
		for i := 0; i < entry.Count; i++ {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}
