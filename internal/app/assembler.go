package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"interview-quiz-service/internal/domain"
)

var (
	errCorrectAnswerMismatch  = errors.New("correct answer must match exactly one option")
	errElectiveWithoutSubject = errors.New("elective question has no subsection")
)

// Assembly is the question set prepared for one attempt.
type Assembly struct {
	General []domain.PresentedQuestion
	// Pools holds the quota-limited elective block of every subject.
	Pools    map[string][]domain.PresentedQuestion
	Subjects []string
	// Provisional is the subject whose block fills the elective slice before the gate resolves.
	Provisional   string
	TotalExpected int
	Canonical     map[string]domain.Question
}

// Sequence returns the presentation order for the given elective subject. The
// general block always comes first; the specialization gate sits on the
// boundary after it, so the blocks are shuffled separately and never mixed.
func (a *Assembly) Sequence(subject string) []domain.PresentedQuestion {
	seq := make([]domain.PresentedQuestion, 0, len(a.General)+len(a.Pools[subject]))
	seq = append(seq, a.General...)
	return append(seq, a.Pools[subject]...)
}

// Assembler fetches and partitions a criteria's question bank.
type Assembler struct {
	bank     QuestionBank
	settings Settings
	validate *validator.Validate

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAssembler(bank QuestionBank, settings Settings) *Assembler {
	return &Assembler{
		bank:     bank,
		settings: settings.withDefaults(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Assemble loads active questions for the criteria and set and builds the blocks.
// subject may be empty when the specialization is not chosen yet.
func (a *Assembler) Assemble(ctx context.Context, criteriaID, setLabel, subject string) (*Assembly, error) {
	questions, err := a.bank.Questions(ctx, domain.QuestionFilter{CriteriaID: criteriaID, SetLabel: setLabel})
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	return a.build(questions, subject)
}

func (a *Assembler) build(questions []domain.Question, subject string) (*Assembly, error) {
	canonical := make(map[string]domain.Question, len(questions))
	var general []domain.Question
	electives := make(map[string][]domain.Question)

	for _, q := range questions {
		if !q.Active {
			continue
		}
		if err := a.check(q); err != nil {
			return nil, err
		}
		canonical[q.ID] = q
		if q.IsElective() {
			electives[q.Subsection] = append(electives[q.Subsection], q)
		} else {
			general = append(general, q)
		}
	}

	if len(canonical) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}
	if len(general) == 0 {
		return nil, domain.ErrInsufficientGeneralQuestions
	}

	rank := make(map[string]int, len(a.settings.SubsectionOrder))
	for i, sub := range a.settings.SubsectionOrder {
		rank[sub] = i
	}
	priority := func(sub string) int {
		if r, ok := rank[sub]; ok {
			return r
		}
		return len(rank)
	}
	sort.SliceStable(general, func(i, j int) bool {
		return priority(general[i].Subsection) < priority(general[j].Subsection)
	})
	if len(general) > a.settings.GeneralQuota {
		general = general[:a.settings.GeneralQuota]
	}

	out := &Assembly{
		General:   a.present(general),
		Pools:     make(map[string][]domain.PresentedQuestion, len(electives)),
		Canonical: canonical,
	}
	for sub, pool := range electives {
		if len(pool) > a.settings.ElectiveQuota {
			pool = pool[:a.settings.ElectiveQuota]
		}
		if len(pool) == 0 {
			continue
		}
		out.Pools[sub] = a.present(pool)
		out.Subjects = append(out.Subjects, sub)
	}
	sort.Strings(out.Subjects)

	out.TotalExpected = len(out.General)
	if len(out.Subjects) > 0 {
		out.TotalExpected += a.settings.ElectiveQuota
		out.Provisional = out.Subjects[0]
		if _, ok := out.Pools[a.settings.DefaultSubject]; ok {
			out.Provisional = a.settings.DefaultSubject
		}
		if _, ok := out.Pools[subject]; ok {
			out.Provisional = subject
		}
	}
	return out, nil
}

// check validates a record once so the rest of the session can assume well-formed data.
func (a *Assembler) check(q domain.Question) error {
	if err := a.validate.Struct(q); err != nil {
		return &domain.QuestionError{QuestionID: q.ID, Err: err}
	}
	if q.IsElective() && q.Subsection == "" {
		return &domain.QuestionError{QuestionID: q.ID, Err: errElectiveWithoutSubject}
	}
	want := NormalizeAnswer(q.CorrectAnswer)
	matches := 0
	for _, opt := range q.Options {
		if NormalizeAnswer(opt) == want {
			matches++
		}
	}
	if matches != 1 {
		return &domain.QuestionError{QuestionID: q.ID, Err: errCorrectAnswerMismatch}
	}
	return nil
}

// present converts a block, shuffling option order per question and the order
// within the block. Questions never move across blocks.
func (a *Assembler) present(block []domain.Question) []domain.PresentedQuestion {
	out := make([]domain.PresentedQuestion, len(block))
	for i, q := range block {
		options := append([]string(nil), q.Options...)
		a.shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
		out[i] = domain.PresentedQuestion{
			ID:         q.ID,
			Section:    sectionOf(q),
			Subsection: q.Subsection,
			Category:   q.Category,
			Text:       q.Text,
			Options:    options,
		}
	}
	a.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (a *Assembler) shuffle(n int, swap func(i, j int)) {
	if !a.settings.Shuffle {
		return
	}
	a.mu.Lock()
	a.rnd.Shuffle(n, swap)
	a.mu.Unlock()
}

func sectionOf(q domain.Question) domain.Section {
	if q.IsElective() {
		return domain.SectionElective
	}
	return domain.SectionGeneral
}
