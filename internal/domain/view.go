package domain

import "time"

// PresentedQuestion is a question as shown to the candidate, with its own option order.
// It never carries the correct answer.
type PresentedQuestion struct {
	ID         string   `json:"id"`
	Section    Section  `json:"section"`
	Subsection string   `json:"subsection,omitempty"`
	Category   string   `json:"category,omitempty"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
}

// GateState is the position of the specialization gate.
type GateState string

const (
	GateClosed     GateState = "closed"
	GateChoosing   GateState = "choosing"
	GateConfirming GateState = "confirming"
	GateLocked     GateState = "locked"
)

// SubmissionState is the position of the submission pipeline.
type SubmissionState string

const (
	SubmissionIdle             SubmissionState = "idle"
	SubmissionConfirmRequested SubmissionState = "confirm_requested"
	SubmissionSubmitting       SubmissionState = "submitting"
	SubmissionCompleted        SubmissionState = "completed"
	SubmissionFailed           SubmissionState = "failed"
)

// NavigatorCell is one square of the question map.
type NavigatorCell struct {
	Index    int  `json:"index"`
	Answered bool `json:"answered"`
	Visited  bool `json:"visited"`
	Current  bool `json:"current"`
	Elective bool `json:"elective"`
}

// GateView describes the specialization gate.
type GateView struct {
	State          GateState `json:"state"`
	Subjects       []string  `json:"subjects,omitempty"`
	Pending        string    `json:"pending,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
}

// TimerView describes the countdown.
type TimerView struct {
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
	Expired   bool `json:"expired"`
}

// ProctorView describes the proctoring monitor.
type ProctorView struct {
	Strikes          int  `json:"strikes"`
	MaxStrikes       int  `json:"maxStrikes"`
	WarningActive    bool `json:"warningActive"`
	WarningRemaining int  `json:"warningRemaining"`
	KeyboardLocked   bool `json:"keyboardLocked"`
}

// SubmissionView describes the submission pipeline.
type SubmissionView struct {
	State      SubmissionState `json:"state"`
	Unanswered int             `json:"unanswered"`
	Reason     SubmitReason    `json:"reason,omitempty"`
	Error      string          `json:"error,omitempty"`
	Result     *AttemptResult  `json:"result,omitempty"`
}

// Restrictions are browser-side controls the client must enforce for the session.
type Restrictions struct {
	BlockContextMenu   bool `json:"blockContextMenu"`
	BlockClipboard     bool `json:"blockClipboard"`
	BlockSelection     bool `json:"blockSelection"`
	TrapBackNavigation bool `json:"trapBackNavigation"`
	ConfirmUnload      bool `json:"confirmUnload"`
	RequireFullscreen  bool `json:"requireFullscreen"`
}

// View is the full session state pushed to the client after every change.
type View struct {
	AttemptID     string              `json:"attemptId"`
	Questions     []PresentedQuestion `json:"questions"`
	GeneralCount  int                 `json:"generalCount"`
	CurrentIndex  int                 `json:"currentIndex"`
	Answers       map[string]string   `json:"answers"`
	AnsweredCount int                 `json:"answeredCount"`
	TotalExpected int                 `json:"totalExpected"`
	Progress      float64             `json:"progress"`
	Navigator     []NavigatorCell     `json:"navigator"`
	Gate          GateView            `json:"gate"`
	Timer         TimerView           `json:"timer"`
	Proctor       ProctorView         `json:"proctor"`
	Submission    SubmissionView      `json:"submission"`
	Restrictions  Restrictions        `json:"restrictions"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Snapshot is the locally persisted session state used to resume after a reload.
type Snapshot struct {
	AttemptID        string            `json:"attemptId"`
	CriteriaID       string            `json:"criteriaId"`
	SetLabel         string            `json:"setLabel"`
	Order            []SnapshotEntry   `json:"order"`
	GeneralCount     int               `json:"generalCount"`
	TotalExpected    int               `json:"totalExpected"`
	Answers          map[string]string `json:"answers"`
	Visited          []int             `json:"visited"`
	CurrentIndex     int               `json:"currentIndex"`
	Remaining        int               `json:"remaining"`
	Unlimited        bool              `json:"unlimited"`
	Strikes          int               `json:"strikes"`
	WarningActive    bool              `json:"warningActive"`
	WarningRemaining int               `json:"warningRemaining"`
	KeyboardLocked   bool              `json:"keyboardLocked"`
	Specialization   string            `json:"specialization"`
	SavedAt          time.Time         `json:"savedAt"`
}

// SnapshotEntry pins a presented question and its option order.
type SnapshotEntry struct {
	QuestionID string   `json:"questionId"`
	Options    []string `json:"options"`
}
