// Package notify provides desktop notifications for service state changes.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gen2brain/beeep"

	"github.com/rescale/svctray/internal/logging"
)

// Severity selects how prominently a notification is shown.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// String returns the config spelling of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "none"
	}
}

// ParseSeverity parses none, info, warning or error (case-insensitive).
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return SeverityNone, nil
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityNone, fmt.Errorf("unknown severity %q (want none, info, warning or error)", s)
}

// Policy controls which command outcomes produce notifications.
// Watcher notifications ignore the policy.
type Policy int

const (
	PolicyNever Policy = iota
	PolicyOnError
	PolicyAlways
)

// String returns the config spelling of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyOnError:
		return "onerror"
	case PolicyAlways:
		return "always"
	default:
		return "never"
	}
}

// ParsePolicy parses never, onerror or always (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "never":
		return PolicyNever, nil
	case "onerror", "on-error", "error":
		return PolicyOnError, nil
	case "always":
		return PolicyAlways, nil
	}
	return PolicyNever, fmt.Errorf("unknown notification policy %q (want never, onerror or always)", s)
}

// NotifySuccess reports whether successful commands are announced.
func (p Policy) NotifySuccess() bool { return p == PolicyAlways }

// NotifyError reports whether failed commands are announced.
func (p Policy) NotifyError() bool { return p == PolicyOnError || p == PolicyAlways }

// Message is one notification.
type Message struct {
	Title    string
	Body     string
	Severity Severity
}

// Sink delivers notifications. Delivery is fire-and-forget.
type Sink interface {
	Notify(m Message)
}

// Started builds the notification for a service that reached Running.
func Started(label string, sev Severity) Message {
	return Message{
		Title:    "Service started",
		Body:     fmt.Sprintf("%s is now running.", truncate(label, 60)),
		Severity: sev,
	}
}

// Stopped builds the notification for a service that reached Stopped.
func Stopped(label string, sev Severity) Message {
	return Message{
		Title:    "Service stopped",
		Body:     fmt.Sprintf("%s has stopped.", truncate(label, 60)),
		Severity: sev,
	}
}

// Failed builds the notification for a failed start or stop.
func Failed(label, action string, err error, sev Severity) Message {
	return Message{
		Title:    fmt.Sprintf("Could not %s service", action),
		Body:     fmt.Sprintf("%s:\n%s", truncate(label, 40), truncate(err.Error(), 120)),
		Severity: sev,
	}
}

// Desktop shows notifications through the platform notification center.
type Desktop struct {
	logger  *logging.Logger
	appName string
	mu      sync.Mutex
	sent    int
}

// NewDesktop creates a desktop sink. appName prefixes every title.
func NewDesktop(appName string, logger *logging.Logger) *Desktop {
	return &Desktop{logger: logger, appName: appName}
}

// Notify shows m. SeverityNone suppresses the notification; warnings and
// errors use beeep.Alert, which is more prominent on some platforms.
func (d *Desktop) Notify(m Message) {
	if m.Severity == SeverityNone {
		return
	}

	title := m.Title
	if d.appName != "" {
		title = d.appName + ": " + m.Title
	}

	var err error
	if m.Severity >= SeverityWarning {
		if err = beeep.Alert(title, m.Body, ""); err != nil {
			// Fall back to regular notify
			err = beeep.Notify(title, m.Body, "")
		}
	} else {
		err = beeep.Notify(title, m.Body, "")
	}
	if err != nil {
		d.logger.Warn().Err(err).Str("title", m.Title).Msg("Failed to send notification")
		return
	}

	d.mu.Lock()
	d.sent++
	d.mu.Unlock()
}

// Sent returns how many notifications were delivered.
func (d *Desktop) Sent() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent
}

// truncate shortens a string to at most maxLen bytes, adding "..." if
// truncated. The cut never splits a multi-byte character.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
