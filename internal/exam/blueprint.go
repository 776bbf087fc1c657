package exam

import "github.com/mind-engage/mindengage-examsim/internal/bank"

const (
	ExamLength     = 65
	SectionCount   = 5
	SectionLength  = 13
	singleRCPerSet = 4
)

// Quota is the per-section draw for each question type.
type Quota struct {
	Counts          map[bank.QuestionType]int
	RCMaxPerPassage int
}

var (
	regularSection = Quota{
		Counts: map[bank.QuestionType]int{
			bank.TypeAnalogy: 4, bank.TypeCompletion: 2, bank.TypeError: 2, bank.TypeRC: 5, bank.TypeOdd: 0,
		},
		RCMaxPerPassage: 5,
	}
	middleSection = Quota{
		Counts: map[bank.QuestionType]int{
			bank.TypeAnalogy: 2, bank.TypeCompletion: 2, bank.TypeError: 2, bank.TypeRC: 5, bank.TypeOdd: 2,
		},
		RCMaxPerPassage: 5,
	}
)

// Sections is the fixed layout of a sectioned exam, section 1 first.
var Sections = [SectionCount]Quota{regularSection, regularSection, middleSection, regularSection, regularSection}

// NominalStructure is the per-type total of a fully stocked sectioned exam.
func NominalStructure() map[bank.QuestionType]int {
	return map[bank.QuestionType]int{
		bank.TypeAnalogy: 18, bank.TypeCompletion: 10, bank.TypeError: 10, bank.TypeRC: 25, bank.TypeOdd: 2,
	}
}
