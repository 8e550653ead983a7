package config

import (
	"fmt"
	"os"

	internalconfig "github.com/utyara3/TimeTracker/internal/config"
	"gopkg.in/yaml.v3"
)

type vocabularyFile struct {
	States []stateEntry `yaml:"states"`
}

type stateEntry struct {
	Name       string `yaml:"name"`
	Label      string `yaml:"label"`
	Emoji      string `yaml:"emoji"`
	Productive bool   `yaml:"productive"`
	Passive    bool   `yaml:"passive"`
}

// LoadVocabulary reads a states YAML file such as:
//
//	states:
//	  - name: work
//	    label: работа
//	    emoji: 💼
//	    productive: true
func LoadVocabulary(path string) (internalconfig.Vocabulary, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return internalconfig.Vocabulary{}, fmt.Errorf("read states file: %w", err)
	}
	return ParseVocabulary(payload)
}

func ParseVocabulary(payload []byte) (internalconfig.Vocabulary, error) {
	var raw vocabularyFile
	if err := yaml.Unmarshal(payload, &raw); err != nil {
		return internalconfig.Vocabulary{}, fmt.Errorf("unmarshal states file: %w", err)
	}
	v := internalconfig.Vocabulary{States: make([]internalconfig.StateDefinition, 0, len(raw.States))}
	for _, s := range raw.States {
		v.States = append(v.States, internalconfig.StateDefinition{
			Name:       internalconfig.NormalizeStateName(s.Name),
			Label:      s.Label,
			Emoji:      s.Emoji,
			Productive: s.Productive,
			Passive:    s.Passive,
		})
	}
	if err := v.Validate(); err != nil {
		return internalconfig.Vocabulary{}, err
	}
	return v, nil
}
