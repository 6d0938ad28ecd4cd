package orchestration

import (
	"fmt"
	"strconv"

	"github.com/qforge/qforge/internal/backend"
	"github.com/qforge/qforge/internal/models"
)

// BuildVocabularyJobs builds one descriptor per term × question type.
func BuildVocabularyJobs(spec *models.SetSpec) ([]JobDescriptor, error) {
	descriptors := make([]JobDescriptor, 0, len(spec.Terms)*len(spec.Types))
	for _, term := range spec.Terms {
		for _, sel := range spec.Types {
			desc, err := buildJob(spec, term, sel)
			if err != nil {
				return nil, err
			}
			descriptors = append(descriptors, desc)
		}
	}
	return descriptors, nil
}

// BuildParagraphJobs builds one descriptor per paragraph × question type.
func BuildParagraphJobs(spec *models.SetSpec) ([]JobDescriptor, error) {
	descriptors := make([]JobDescriptor, 0, len(spec.Paragraphs)*len(spec.Types))
	for _, number := range spec.Paragraphs {
		groupKey := "p" + strconv.Itoa(number)
		for _, sel := range spec.Types {
			desc, err := buildJob(spec, groupKey, sel)
			if err != nil {
				return nil, err
			}
			descriptors = append(descriptors, desc)
		}
	}
	return descriptors, nil
}

// BuildComprehensiveStage1 builds one descriptor per basic question type.
func BuildComprehensiveStage1(spec *models.SetSpec) ([]JobDescriptor, error) {
	if spec.Comp == nil {
		return nil, fmt.Errorf("set %q has no comprehensive configuration", spec.Name)
	}

	descriptors := make([]JobDescriptor, 0, len(spec.Comp.BasicTypes))
	for _, qt := range spec.Comp.BasicTypes {
		descriptors = append(descriptors, JobDescriptor{
			Key: ScriptKeyFor("basic", qt),
			Request: backend.GenerationRequest{
				SetName:  spec.Name,
				Context:  spec.Context,
				ModelID:  spec.Config.ModelID,
				GroupKey: "basic",
				Type:     qt,
			},
		})
	}
	return descriptors, nil
}

// BuildSupplementaryJobs derives stage-2 descriptors, one per basic
// question, each carrying its parent and asking for perParent questions.
func BuildSupplementaryJobs(spec *models.SetSpec, basics []models.Question, perParent int) []JobDescriptor {
	descriptors := make([]JobDescriptor, 0, len(basics))
	for _, parent := range basics {
		parent := parent
		descriptors = append(descriptors, JobDescriptor{
			Key: "supp_" + parent.ID,
			Request: backend.GenerationRequest{
				SetName:  spec.Name,
				Context:  spec.Context,
				ModelID:  spec.Config.ModelID,
				GroupKey: parent.GroupKey,
				Type:     parent.Type,
				Count:    perParent,
				Parent:   &parent,
			},
		})
	}
	return descriptors
}

// ScriptKeyFor mirrors backend.ScriptKey for descriptor keys.
func ScriptKeyFor(groupKey string, qt models.QuestionType) string {
	return backend.ScriptKey(groupKey, qt)
}

func buildJob(spec *models.SetSpec, groupKey string, sel models.TypeSelection) (JobDescriptor, error) {
	opts, err := sel.Options()
	if err != nil {
		return JobDescriptor{}, err
	}

	return JobDescriptor{
		Key: ScriptKeyFor(groupKey, sel.Type),
		Request: backend.GenerationRequest{
			SetName:  spec.Name,
			Context:  spec.Context,
			ModelID:  spec.Config.ModelID,
			GroupKey: groupKey,
			Type:     sel.Type,
			Options:  opts,
		},
	}, nil
}
