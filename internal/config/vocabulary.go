package config

import (
	"fmt"
	"strings"
)

// StateDefinition describes one state users can switch into.
type StateDefinition struct {
	Name       string
	Label      string
	Emoji      string
	Productive bool
	Passive    bool
}

// Vocabulary is the closed set of known states. It is built once at startup
// and passed by value into the core.
type Vocabulary struct {
	States []StateDefinition
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{States: []StateDefinition{
		{Name: "study", Label: "учеба", Emoji: "📚", Productive: true},
		{Name: "work", Label: "работа", Emoji: "💼", Productive: true},
		{Name: "chill", Label: "отдых", Emoji: "🏖"},
		{Name: "sleep", Label: "сон", Emoji: "💤", Passive: true},
		{Name: "wait", Label: "ожидание", Emoji: "🕰"},
		{Name: "other", Label: "другое", Emoji: "💊"},
		{Name: "stop", Label: "не учитывать", Emoji: "⏹️"},
	}}
}

func (v Vocabulary) Validate() error {
	if len(v.States) == 0 {
		return fmt.Errorf("at least one state is required")
	}
	seen := make(map[string]struct{}, len(v.States))
	for _, s := range v.States {
		name := NormalizeStateName(s.Name)
		if name == "" {
			return fmt.Errorf("state name must not be empty")
		}
		if name != s.Name {
			return fmt.Errorf("state name %q must be lowercase without spaces", s.Name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("state %q is declared twice", name)
		}
		if s.Productive && s.Passive {
			return fmt.Errorf("state %q cannot be both productive and passive", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (v Vocabulary) Lookup(name string) (StateDefinition, bool) {
	name = NormalizeStateName(name)
	for _, s := range v.States {
		if s.Name == name {
			return s, true
		}
	}
	return StateDefinition{}, false
}

func (v Vocabulary) Names() []string {
	names := make([]string, 0, len(v.States))
	for _, s := range v.States {
		names = append(names, s.Name)
	}
	return names
}

func (v Vocabulary) ProductiveNames() []string {
	var names []string
	for _, s := range v.States {
		if s.Productive {
			names = append(names, s.Name)
		}
	}
	return names
}

func (v Vocabulary) PassiveNames() []string {
	var names []string
	for _, s := range v.States {
		if s.Passive {
			names = append(names, s.Name)
		}
	}
	return names
}

// Emoji returns the configured emoji, or a neutral marker for custom states.
func (v Vocabulary) Emoji(name string) string {
	if s, ok := v.Lookup(name); ok && s.Emoji != "" {
		return s.Emoji
	}
	return "🔸"
}

func NormalizeStateName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(name, "/")
}
