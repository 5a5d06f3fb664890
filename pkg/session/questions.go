package session

import (
	"fmt"
	"slices"

	"crucible-hq/crucible/pkg/config"
)

// Question is one single-choice validation question.
type Question struct {
	ID         string
	Prompt     string
	Options    []string
	PassOption string
}

// QuestionSet is an ordered, immutable set of validation questions.
type QuestionSet struct {
	questions []Question
	byID      map[string]int
}

// NewQuestionSet validates questions and builds a set. IDs must be unique
// and non-empty, every question needs at least two options, and PassOption
// must be one of them.
func NewQuestionSet(questions []Question) (*QuestionSet, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("question set is empty")
	}

	qs := &QuestionSet{
		questions: make([]Question, 0, len(questions)),
		byID:      make(map[string]int, len(questions)),
	}
	for i, q := range questions {
		switch {
		case q.ID == "":
			return nil, fmt.Errorf("question %d: id is required", i)
		case qs.has(q.ID):
			return nil, fmt.Errorf("question %q: duplicate id", q.ID)
		case len(q.Options) < 2:
			return nil, fmt.Errorf("question %q: at least two options are required", q.ID)
		case !slices.Contains(q.Options, q.PassOption):
			return nil, fmt.Errorf("question %q: pass option %q is not an option", q.ID, q.PassOption)
		}
		q.Options = slices.Clone(q.Options)
		qs.byID[q.ID] = len(qs.questions)
		qs.questions = append(qs.questions, q)
	}
	return qs, nil
}

// QuestionsFromConfig converts configured questions. An empty list yields
// DefaultQuestions.
func QuestionsFromConfig(cfgs []config.QuestionConfig) (*QuestionSet, error) {
	if len(cfgs) == 0 {
		return DefaultQuestions(), nil
	}
	questions := make([]Question, len(cfgs))
	for i, c := range cfgs {
		questions[i] = Question{ID: c.ID, Prompt: c.Prompt, Options: c.Options, PassOption: c.PassOption}
	}
	return NewQuestionSet(questions)
}

// DefaultQuestions returns the built-in expert validation questionnaire.
func DefaultQuestions() *QuestionSet {
	yesNo := []string{"Yes", "No"}
	qs, err := NewQuestionSet([]Question{
		{
			ID:         "detects_deference",
			Prompt:     "Does the tool correctly flag rationales that defer to a filter, threshold or policy?",
			Options:    yesNo,
			PassOption: "Yes",
		},
		{
			ID:         "clean_not_flagged",
			Prompt:     "Are rationales grounded in case-specific evidence left unflagged?",
			Options:    yesNo,
			PassOption: "Yes",
		},
		{
			ID:         "explanations_clear",
			Prompt:     "Are the matched phrases and their context clear enough to act on?",
			Options:    yesNo,
			PassOption: "Yes",
		},
		{
			ID:         "fit_for_pilot",
			Prompt:     "Would you support using the gate in a supervised pilot?",
			Options:    yesNo,
			PassOption: "Yes",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("session: invalid default questions: %v", err))
	}
	return qs
}

// Questions returns a copy of the questions in order.
func (qs *QuestionSet) Questions() []Question {
	out := make([]Question, len(qs.questions))
	for i, q := range qs.questions {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out
}

// Len returns the number of questions.
func (qs *QuestionSet) Len() int {
	return len(qs.questions)
}

// Lookup returns the question with the given id.
func (qs *QuestionSet) Lookup(id string) (Question, bool) {
	i, ok := qs.byID[id]
	if !ok {
		return Question{}, false
	}
	q := qs.questions[i]
	q.Options = slices.Clone(q.Options)
	return q, true
}

func (qs *QuestionSet) has(id string) bool {
	_, ok := qs.byID[id]
	return ok
}
