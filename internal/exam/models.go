package exam

import (
	"fmt"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
)

type Mode string

const (
	ModeSectioned Mode = "sectioned"
	ModeSingle    Mode = "single"
)

type RCOrder string

const (
	RCSequential RCOrder = "sequential" // keep passage groups together, shuffle group order
	RCRandom     RCOrder = "random"     // shuffle individual questions
)

type TypeFilter string

const (
	FilterAll      TypeFilter = "all"
	FilterSpecific TypeFilter = "specific"
)

// Config selects how an exam is assembled. The zero value is a sectioned
// exam with no shuffling and sequential reading comprehension.
type Config struct {
	ShuffleQuestions     bool              `json:"shuffle_questions"`
	ShuffleChoices       bool              `json:"shuffle_choices"`
	ExamMode             Mode              `json:"exam_mode,omitempty"`
	RCQuestionOrder      RCOrder           `json:"rc_question_order,omitempty"`
	QuestionTypeFilter   TypeFilter        `json:"question_type_filter,omitempty"`
	SelectedQuestionType bank.QuestionType `json:"selected_question_type,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.ExamMode == "" {
		c.ExamMode = ModeSectioned
	}
	if c.RCQuestionOrder == "" {
		c.RCQuestionOrder = RCSequential
	}
	if c.QuestionTypeFilter == "" {
		c.QuestionTypeFilter = FilterAll
	}
	return c
}

// validate rejects enum values outside the known sets. It expects c to
// have been through withDefaults.
func (c Config) validate() error {
	switch c.ExamMode {
	case ModeSectioned, ModeSingle:
	default:
		return fmt.Errorf("%w: exam_mode %q", ErrInvalidConfig, c.ExamMode)
	}
	switch c.RCQuestionOrder {
	case RCSequential, RCRandom:
	default:
		return fmt.Errorf("%w: rc_question_order %q", ErrInvalidConfig, c.RCQuestionOrder)
	}
	switch c.QuestionTypeFilter {
	case FilterAll, FilterSpecific:
	default:
		return fmt.Errorf("%w: question_type_filter %q", ErrInvalidConfig, c.QuestionTypeFilter)
	}
	return nil
}

// SingleType reports whether c asks for a one-type exam.
func (c Config) SingleType() bool {
	return c.ExamMode == ModeSingle || c.QuestionTypeFilter == FilterSpecific
}

// Question is a bank question placed in an exam. QuestionNumber is its
// position in this exam only.
type Question struct {
	bank.Question
	Section      int               `json:"section"`
	OriginalType bank.QuestionType `json:"original_type"`
}

// Exam is the ordered script handed to a session.
// TotalQuestions, QuestionsPerSection and Structure describe the target
// layout; len(Questions) is what was actually achieved.
type Exam struct {
	Questions           []Question                `json:"questions"`
	TotalQuestions      int                       `json:"total_questions"`
	TotalSections       int                       `json:"total_sections"`
	QuestionsPerSection int                       `json:"questions_per_section"`
	Structure           map[bank.QuestionType]int `json:"structure"`
	Shortfalls          []Shortfall               `json:"shortfalls,omitempty"`
}

// Shortfall records a section/type slot that the pools could not fill.
type Shortfall struct {
	Section int               `json:"section"`
	Type    bank.QuestionType `json:"type"`
	Want    int               `json:"want"`
	Got     int               `json:"got"`
}
