package models

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// SetKind selects which generation workflow a spec drives.
type SetKind string

const (
	KindVocabulary    SetKind = "vocabulary"
	KindParagraph     SetKind = "paragraph"
	KindComprehensive SetKind = "comprehensive"
)

// SetSpec is a complete question-set generation specification.
type SetSpec struct {
	SpecIdentity `yaml:",inline"`
	Kind         SetKind             `yaml:"kind"`
	Context      SharedContext       `yaml:"context"`
	Config       Config              `yaml:"config"`
	Terms        []string            `yaml:"terms,omitempty"`
	Paragraphs   []int               `yaml:"paragraphs,omitempty"`
	Types        []TypeSelection     `yaml:"question_types,omitempty"`
	Comp         *ComprehensiveSpec  `yaml:"comprehensive,omitempty"`
}

type SpecIdentity struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// SharedContext is opaque pass-through data sent with every job.
type SharedContext struct {
	Division string `yaml:"division" json:"division"`
	Subject  string `yaml:"subject" json:"subject"`
	Area     string `yaml:"area,omitempty" json:"area,omitempty"`
}

// Config controls generation behavior.
type Config struct {
	ModelID     string `yaml:"model" json:"model_id"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	EngineType  string `yaml:"executor" json:"engine_type"`
	TimeoutSec  int    `yaml:"timeout_seconds,omitempty" json:"timeout_sec,omitempty"`
	MaxInFlight int    `yaml:"max_in_flight,omitempty" json:"max_in_flight,omitempty"`
}

// TypeSelection is one requested question type plus its free-form
// per-type parameters (choice count, difficulty, ...).
type TypeSelection struct {
	Type   QuestionType   `yaml:"type" json:"type"`
	Params map[string]any `yaml:"config,omitempty" json:"params,omitempty"`
}

// TypeOptions is the typed view of TypeSelection.Params.
type TypeOptions struct {
	Choices    int    `mapstructure:"choices"`
	Difficulty string `mapstructure:"difficulty"`
}

// Options decodes the free-form parameter map into TypeOptions.
// Unknown keys are ignored; absent keys keep zero values.
func (ts TypeSelection) Options() (TypeOptions, error) {
	var opts TypeOptions
	if err := mapstructure.Decode(ts.Params, &opts); err != nil {
		return TypeOptions{}, fmt.Errorf("decoding params for type %q: %w", ts.Type, err)
	}
	return opts, nil
}

// ComprehensiveSpec configures the two-stage comprehensive workflow.
type ComprehensiveSpec struct {
	BasicTypes []QuestionType `yaml:"basic_types" json:"basic_types"`
	// Supplementary enables stage 2: one dependent job per basic question.
	Supplementary bool `yaml:"supplementary,omitempty" json:"supplementary,omitempty"`
	// PerParent is how many supplementary questions each stage-2 job asks for.
	PerParent int `yaml:"per_parent,omitempty" json:"per_parent,omitempty"`
}

// LoadSetSpec loads and validates a set spec from a YAML file.
func LoadSetSpec(path string) (*SetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec SetSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Validate checks that the spec is internally consistent for its kind.
func (s *SetSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Config.ModelID == "" {
		return fmt.Errorf("config.model is required")
	}

	switch s.Kind {
	case KindVocabulary:
		if len(s.Terms) == 0 {
			return fmt.Errorf("vocabulary set requires at least one term")
		}
		if len(s.Types) == 0 {
			return fmt.Errorf("vocabulary set requires at least one question type")
		}
	case KindParagraph:
		if len(s.Paragraphs) == 0 {
			return fmt.Errorf("paragraph set requires at least one paragraph number")
		}
		if len(s.Types) == 0 {
			return fmt.Errorf("paragraph set requires at least one question type")
		}
	case KindComprehensive:
		if s.Comp == nil || len(s.Comp.BasicTypes) == 0 {
			return fmt.Errorf("comprehensive set requires comprehensive.basic_types")
		}
		if s.Comp.Supplementary && s.Comp.PerParent < 1 {
			return fmt.Errorf("comprehensive.per_parent must be at least 1 when supplementary is enabled, got %d", s.Comp.PerParent)
		}
	default:
		return fmt.Errorf("unknown set kind: %q", s.Kind)
	}

	return nil
}
