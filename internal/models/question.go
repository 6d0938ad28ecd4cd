package models

// QuestionType identifies the kind of question a job generates.
type QuestionType string

const (
	TypeMeaning     QuestionType = "meaning"
	TypeUsage       QuestionType = "usage"
	TypeSynonym     QuestionType = "synonym"
	TypeAntonym     QuestionType = "antonym"
	TypeTopic       QuestionType = "topic"
	TypeDetail      QuestionType = "detail"
	TypeInference   QuestionType = "inference"
	TypeVocabInText QuestionType = "vocab_in_text"
)

// Question is one generated question. Questions are produced by the
// backend, re-identified by aggregate.RepairIDs when the backend hands
// back colliding IDs, and then owned by the caller's accepted collection.
type Question struct {
	ID          string       `json:"id"`
	GroupKey    string       `json:"groupKey"`
	Type        QuestionType `json:"type"`
	Prompt      string       `json:"prompt"`
	Choices     []string     `json:"choices,omitempty"`
	Answer      int          `json:"answer"`
	Explanation string       `json:"explanation,omitempty"`

	// Supplementary marks a stage-2 question. ParentID always references
	// the stage-1 question's ID, never a separately tracked alias.
	Supplementary bool   `json:"supplementary,omitempty"`
	ParentID      string `json:"parentId,omitempty"`
}

// CountByType tallies questions per question type.
func CountByType(questions []Question) map[QuestionType]int {
	counts := make(map[QuestionType]int)
	for _, q := range questions {
		counts[q.Type]++
	}
	return counts
}
