package bingo

import "time"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

const (
	noticeDuration  = 2 * time.Second
	summaryDuration = 4 * time.Second
)

// Notice is a user-facing message. Delivery is fire-and-forget.
type Notice struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Severity    Severity      `json:"severity"`
	Duration    time.Duration `json:"duration"`
}

type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}
