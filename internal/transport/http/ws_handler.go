package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"interview-quiz-service/internal/app"
	"interview-quiz-service/internal/domain"
)

type WSHandler struct {
	service        *app.QuizService
	probeThreshold time.Duration
	upgrader       websocket.Upgrader
}

// NewWSHandler builds the session socket. probeThreshold is the debugger pause
// above which the client probe counts as instrumentation.
func NewWSHandler(service *app.QuizService, probeThreshold time.Duration) *WSHandler {
	return &WSHandler{
		service:        service,
		probeThreshold: probeThreshold,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type subjectPayload struct {
	Subject string `json:"subject"`
}

type violationPayload struct {
	Kind domain.ViolationKind `json:"kind"`
}

type probePayload struct {
	PauseMillis int64 `json:"pauseMs"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

const (
	codeConfiguration = "configuration"
	codeAttempt       = "attempt"
	codeState         = "state"
	codeTransient     = "transient"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: errorCode(err), Message: err.Error()}}
}

// errorCode tells the client whether to show a full-screen message, send the
// candidate back, refresh its state or offer a retry.
func errorCode(err error) string {
	switch {
	case domain.IsConfigurationError(err):
		return codeConfiguration
	case domain.IsAttemptError(err):
		return codeAttempt
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionLocked),
		errors.Is(err, domain.ErrSpecializationRequired),
		errors.Is(err, domain.ErrSpecializationLocked),
		errors.Is(err, domain.ErrGateNotOpen),
		errors.Is(err, domain.ErrUnknownSubject),
		errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrSubmissionInFlight),
		errors.Is(err, domain.ErrAlreadySubmitted),
		errors.Is(err, domain.ErrNothingToRetry),
		errors.Is(err, domain.ErrNotConfirming),
		errors.Is(err, domain.ErrNoWarningActive):
		return codeState
	default:
		return codeTransient
	}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the session use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sc := app.SessionContext{
		AttemptID:         q.Get("attemptId"),
		CriteriaID:        q.Get("criteriaId"),
		SetLabel:          q.Get("setLabel"),
		DeviceFingerprint: q.Get("fingerprint"),
	}
	if sc.AttemptID == "" {
		http.Error(w, "missing attemptId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	compliance := app.NewComplianceTracker()
	probe := app.NewPauseProbe(h.probeThreshold)
	view, err := h.service.Open(ctx, sc, app.Probes{Compliance: compliance, Instrumentation: probe})
	if err != nil {
		log.Printf("ws: open attempt %s: %v", sc.AttemptID, err)
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	updates, cancel, err := h.service.Subscribe(ctx, sc.AttemptID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancel()
	defer h.service.Leave(context.WithoutCancel(ctx), sc.AttemptID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	send <- outboundMessage[any]{Type: "opened", Payload: view}

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws: write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.dispatch(ctx, sc.AttemptID, inbound, compliance, probe); ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch runs one inbound command. State changes reach the client through
// the subscription; only errors and key verdicts are answered directly.
func (h *WSHandler) dispatch(ctx context.Context, attemptID string, in inboundMessage, compliance *app.ComplianceTracker, probe *app.PauseProbe) (outboundMessage[any], bool) {
	var err error
	switch in.Type {
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return invalidPayload(in.Type), true
		}
		_, err = h.service.SelectAnswer(ctx, attemptID, p.QuestionID, p.Answer)
	case "next":
		_, err = h.service.Next(ctx, attemptID)
	case "previous":
		_, err = h.service.Previous(ctx, attemptID)
	case "jump":
		var p jumpPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return invalidPayload(in.Type), true
		}
		_, err = h.service.JumpTo(ctx, attemptID, p.Index)
	case "chooseSubject":
		var p subjectPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return invalidPayload(in.Type), true
		}
		_, err = h.service.ChooseSubject(ctx, attemptID, p.Subject)
	case "cancelSubject":
		_, err = h.service.CancelSubject(ctx, attemptID)
	case "confirmSubject":
		_, err = h.service.ConfirmSubject(ctx, attemptID)
	case "closeGate":
		_, err = h.service.CloseGate(ctx, attemptID)
	case "violation":
		var p violationPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.Kind == "" {
			return invalidPayload(in.Type), true
		}
		_, err = h.service.ReportViolation(ctx, attemptID, p.Kind)
	case "compliance":
		var status domain.ComplianceStatus
		if err := json.Unmarshal(in.Payload, &status); err != nil {
			return invalidPayload(in.Type), true
		}
		compliance.Update(status)
		return outboundMessage[any]{}, false
	case "probe":
		var p probePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return invalidPayload(in.Type), true
		}
		probe.Report(time.Duration(p.PauseMillis) * time.Millisecond)
		return outboundMessage[any]{}, false
	case "key":
		var key domain.KeyPress
		if err := json.Unmarshal(in.Payload, &key); err != nil {
			return invalidPayload(in.Type), true
		}
		verdict, err := h.service.HandleKey(ctx, attemptID, key)
		if err != nil {
			return errorMessage(err), true
		}
		return outboundMessage[any]{Type: "keyVerdict", Payload: verdict}, true
	case "resume":
		_, err = h.service.ResumeAfterWarning(ctx, attemptID)
	case "quit":
		_, err = h.service.QuitAndSubmit(ctx, attemptID)
	case "submit":
		_, err = h.service.RequestSubmit(ctx, attemptID)
	case "reviewUnanswered":
		_, err = h.service.ReviewUnanswered(ctx, attemptID)
	case "cancelSubmit":
		_, err = h.service.CancelSubmit(ctx, attemptID)
	case "confirmSubmit":
		_, err = h.service.ConfirmSubmit(ctx, attemptID)
	case "retry":
		_, err = h.service.RetrySubmit(ctx, attemptID)
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: codeState, Message: "unsupported message type"}}, true
	}
	if err != nil {
		return errorMessage(err), true
	}
	return outboundMessage[any]{}, false
}

func invalidPayload(kind string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: codeState, Message: "invalid " + kind + " payload"}}
}
