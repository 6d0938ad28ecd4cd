// Package wizard collects a set spec interactively and renders it to YAML.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/qforge/qforge/internal/models"
)

// Answers holds all fields collected during the interactive wizard.
type Answers struct {
	Name     string
	Kind     models.SetKind
	Division string
	Subject  string
	Area     string
	Model    string
	Endpoint string
	Terms    []string
	Types    []models.QuestionType

	// Comprehensive-only.
	Supplementary bool
	PerParent     int
}

const setSpecTemplate = `name: {{ .Name }}
kind: {{ .Kind }}

context:
  division: {{ .Division }}
  subject: {{ .Subject }}
{{- if .Area }}
  area: {{ .Area }}
{{- end }}

config:
  model: {{ .Model }}
{{- if .Endpoint }}
  endpoint: {{ .Endpoint }}
{{- end }}
  executor: http
{{- if .IsComprehensive }}

comprehensive:
  basic_types:
{{- range .Types }}
  - {{ . }}
{{- end }}
{{- if .Supplementary }}
  supplementary: true
  per_parent: {{ .PerParent }}
{{- end }}
{{- else }}

terms:
{{- range .Terms }}
- {{ . }}
{{- end }}

question_types:
{{- range .Types }}
- type: {{ . }}
{{- end }}
{{- end }}
`

// Run drives a huh form that collects a set spec. If initialName is
// non-empty, it pre-populates the name field.
func Run(in io.Reader, out io.Writer, initialName string) (*Answers, error) {
	var (
		name      = initialName
		kind      string
		division  string
		subject   string
		area      string
		model     string
		endpoint  string
		termsRaw  string
		types     []string
		supp      bool
		perParRaw = "2"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Set name").
				Description("A kebab-case name for the question set").
				Placeholder("unit3-vocab").
				Value(&name).
				Validate(validateName),
			huh.NewSelect[string]().
				Title("Set kind").
				Options(
					huh.NewOption("vocabulary", string(models.KindVocabulary)),
					huh.NewOption("paragraph", string(models.KindParagraph)),
					huh.NewOption("comprehensive", string(models.KindComprehensive)),
				).
				Value(&kind),
			huh.NewInput().
				Title("Division").
				Placeholder("middle-school").
				Value(&division),
			huh.NewInput().
				Title("Subject").
				Placeholder("english").
				Value(&subject),
			huh.NewInput().
				Title("Area").
				Description("Optional sub-area").
				Value(&area),
			huh.NewInput().
				Title("Model").
				Placeholder("gpt-4o").
				Value(&model).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("model is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Endpoint").
				Description("Generation backend URL (blank for default)").
				Value(&endpoint),
			huh.NewInput().
				Title("Terms").
				Description("Comma-separated terms (vocabulary sets)").
				Placeholder("ephemeral, ubiquitous").
				Value(&termsRaw),
			huh.NewMultiSelect[string]().
				Title("Question types").
				Options(
					huh.NewOption("meaning", string(models.TypeMeaning)),
					huh.NewOption("usage", string(models.TypeUsage)),
					huh.NewOption("synonym", string(models.TypeSynonym)),
					huh.NewOption("antonym", string(models.TypeAntonym)),
					huh.NewOption("topic", string(models.TypeTopic)),
					huh.NewOption("detail", string(models.TypeDetail)),
					huh.NewOption("inference", string(models.TypeInference)),
					huh.NewOption("vocab in text", string(models.TypeVocabInText)),
				).
				Value(&types),
			huh.NewConfirm().
				Title("Supplementary questions?").
				Description("Comprehensive sets only: generate follow-ups per basic question").
				Value(&supp),
			huh.NewInput().
				Title("Supplementary per question").
				Value(&perParRaw).
				Validate(func(s string) error {
					_, err := parsePositive(s)
					return err
				}),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	perParent, err := parsePositive(perParRaw)
	if err != nil {
		return nil, err
	}

	answers := &Answers{
		Name:          strings.TrimSpace(name),
		Kind:          models.SetKind(kind),
		Division:      strings.TrimSpace(division),
		Subject:       strings.TrimSpace(subject),
		Area:          strings.TrimSpace(area),
		Model:         strings.TrimSpace(model),
		Endpoint:      strings.TrimSpace(endpoint),
		Terms:         splitAndTrim(termsRaw),
		Supplementary: supp,
		PerParent:     perParent,
	}
	for _, t := range types {
		answers.Types = append(answers.Types, models.QuestionType(t))
	}
	return answers, nil
}

// IsComprehensive reports whether the answers describe a comprehensive
// set. Exposed for the YAML template.
func (a *Answers) IsComprehensive() bool {
	return a.Kind == models.KindComprehensive
}

// RenderYAML renders a set spec YAML file from the collected answers.
func RenderYAML(answers *Answers) (string, error) {
	tmpl, err := template.New("setspec").Parse(setSpecTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, answers); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// validateName requires a non-empty kebab-case identifier.
func validateName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("name is required")
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			continue
		}
		return fmt.Errorf("name must be kebab-case (lowercase letters, digits, hyphens)")
	}
	if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
		return fmt.Errorf("name must not start or end with a hyphen")
	}
	return nil
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("must be a positive number")
	}
	if n < 1 {
		return 0, fmt.Errorf("must be at least 1")
	}
	return n, nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
