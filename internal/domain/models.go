package domain

import "time"

// Section is the top-level grouping of a question.
type Section string

const (
	SectionGeneral  Section = "general"
	SectionElective Section = "elective"
)

// Question is a validated multiple-choice question from the bank.
// Exactly one option must match CorrectAnswer once normalized.
type Question struct {
	ID            string   `json:"id" validate:"required"`
	CriteriaID    string   `json:"criteriaId" validate:"required"`
	SetLabel      string   `json:"setLabel"`
	Section       Section  `json:"section" validate:"omitempty,oneof=general elective"`
	Subsection    string   `json:"subsection"`
	Category      string   `json:"category"`
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"required,min=3,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
	Active        bool     `json:"active"`
}

// IsElective reports whether the question belongs to the elective section.
// An unset section counts as general.
func (q Question) IsElective() bool {
	return q.Section == SectionElective
}

// QuestionFilter narrows a question-bank read. Empty fields do not filter.
type QuestionFilter struct {
	CriteriaID string
	SetLabel   string
	Section    Section
	Subsection string
}

// Criteria is a named interview track with its own threshold and timer.
type Criteria struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PassThreshold float64 `json:"passThreshold"`
	// TimerMinutes is nil for an unlimited session.
	TimerMinutes *int `json:"timerMinutes,omitempty"`
	Active       bool `json:"active"`
}

// DriveOverride replaces the criteria timer for a scheduled drive on a given day.
type DriveOverride struct {
	CriteriaID       string    `json:"criteriaId"`
	Day              time.Time `json:"day"`
	TimeLimitMinutes int       `json:"timeLimitMinutes"`
}

// SiteSettings holds site-wide feature toggles.
type SiteSettings struct {
	ScreenshotBlocking bool `json:"screenshotBlocking"`
}

// AttemptStatus is the lifecycle state of a remote attempt.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// Attempt is one candidate's interview record.
type Attempt struct {
	ID                string        `json:"id"`
	CandidateID       string        `json:"candidateId"`
	CriteriaID        string        `json:"criteriaId"`
	SetLabel          string        `json:"setLabel"`
	Status            AttemptStatus `json:"status"`
	StartedAt         time.Time     `json:"startedAt"`
	CompletedAt       *time.Time    `json:"completedAt,omitempty"`
	Score             int           `json:"score"`
	TotalQuestions    int           `json:"totalQuestions"`
	Percentage        float64       `json:"percentage"`
	Passed            bool          `json:"passed"`
	DeviceFingerprint string        `json:"deviceFingerprint,omitempty"`
	SubmitReason      SubmitReason  `json:"submitReason,omitempty"`
}

// AnswerRecord is the persisted outcome for one presented question.
type AnswerRecord struct {
	AttemptID      string  `json:"attemptId"`
	QuestionID     string  `json:"questionId"`
	SelectedAnswer *string `json:"selectedAnswer"`
	IsCorrect      bool    `json:"isCorrect"`
}

// AttemptResult is the terminal write applied to an attempt.
type AttemptResult struct {
	Score             int          `json:"score"`
	TotalQuestions    int          `json:"totalQuestions"`
	Percentage        float64      `json:"percentage"`
	Passed            bool         `json:"passed"`
	CompletedAt       time.Time    `json:"completedAt"`
	DeviceFingerprint string       `json:"deviceFingerprint,omitempty"`
	Reason            SubmitReason `json:"reason"`
}

// SubmitReason explains why a submission happened.
type SubmitReason string

const (
	ReasonManual            SubmitReason = "manual"
	ReasonTimerExpired      SubmitReason = "timer_expired"
	ReasonProctorMaxStrikes SubmitReason = "proctor_max_strikes"
	ReasonProctorTimeout    SubmitReason = "proctor_timeout"
	ReasonProctorQuit       SubmitReason = "proctor_quit"
)

// Forced reports whether the reason bypasses the confirmation step.
func (r SubmitReason) Forced() bool {
	return r != ReasonManual
}

// ViolationKind classifies a proctoring signal.
type ViolationKind string

const (
	ViolationFullscreenExit ViolationKind = "fullscreen_exit"
	ViolationFocusLost      ViolationKind = "focus_lost"
	ViolationHidden         ViolationKind = "hidden"
	ViolationDevtools       ViolationKind = "devtools"
	ViolationScreenshot     ViolationKind = "screenshot"
)

// ProctorOutcome is what the monitor did with a violation or candidate action.
type ProctorOutcome string

const (
	OutcomeIgnored   ProctorOutcome = "ignored"
	OutcomeWarned    ProctorOutcome = "warned"
	OutcomeEscalated ProctorOutcome = "escalated"
	OutcomeResumed   ProctorOutcome = "resumed"
	OutcomeTimedOut  ProctorOutcome = "timed_out"
	OutcomeQuit      ProctorOutcome = "quit"
)

// ProctorEvent is an audit record of a proctoring decision.
type ProctorEvent struct {
	ID        string         `json:"id"`
	AttemptID string         `json:"attemptId"`
	Kind      ViolationKind  `json:"kind,omitempty"`
	Outcome   ProctorOutcome `json:"outcome"`
	Strikes   int            `json:"strikes"`
	At        time.Time      `json:"at"`
}

// ComplianceStatus is the latest client-reported presentation state.
type ComplianceStatus struct {
	Fullscreen bool `json:"fullscreen"`
	Focused    bool `json:"focused"`
	Visible    bool `json:"visible"`
}

// Violation returns the first failing condition, if any.
func (c ComplianceStatus) Violation() (ViolationKind, bool) {
	switch {
	case !c.Fullscreen:
		return ViolationFullscreenExit, true
	case !c.Visible:
		return ViolationHidden, true
	case !c.Focused:
		return ViolationFocusLost, true
	}
	return "", false
}

// KeyPress is a keyboard event forwarded by the client.
type KeyPress struct {
	Key   string `json:"key"`
	Code  string `json:"code"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
	Meta  bool   `json:"meta"`
}

// KeyVerdict tells the client how to treat a key press.
type KeyVerdict struct {
	Allowed        bool `json:"allowed"`
	ScrubClipboard bool `json:"scrubClipboard"`
	Violation      bool `json:"violation"`
}
