package app

// ledger tracks position and collected answers. Answers are keyed by question
// id, so reshuffling options or swapping blocks never invalidates them.
type ledger struct {
	current  int
	answers  map[string]string
	answered map[string]struct{}
	visited  map[int]struct{}
}

func newLedger() ledger {
	return ledger{
		answers:  make(map[string]string),
		answered: make(map[string]struct{}),
		visited:  map[int]struct{}{0: {}},
	}
}

func (l *ledger) record(questionID, answer string) {
	l.answers[questionID] = answer
	l.answered[questionID] = struct{}{}
}

func (l *ledger) forget(questionID string) {
	delete(l.answers, questionID)
	delete(l.answered, questionID)
}

func (l *ledger) moveTo(index int) {
	l.current = index
	l.visited[index] = struct{}{}
}

func (l *ledger) isAnswered(questionID string) bool {
	_, ok := l.answered[questionID]
	return ok
}

func (l *ledger) isVisited(index int) bool {
	_, ok := l.visited[index]
	return ok
}

// progress is measured against the total fixed at assembly, never the live sequence length.
func (l *ledger) progress(totalExpected int) float64 {
	if totalExpected <= 0 {
		return 0
	}
	p := float64(len(l.answered)) / float64(totalExpected)
	if p > 1 {
		return 1
	}
	return p
}
