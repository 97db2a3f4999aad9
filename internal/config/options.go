// Package config provides configuration management for svctray.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rescale/svctray/internal/notify"
	"github.com/rescale/svctray/internal/service"
	"github.com/rescale/svctray/internal/snapshot"
)

// ManageMode controls whether service entries can be toggled from the menu.
type ManageMode int

const (
	ModeNever ManageMode = iota
	ModeReadonly
	ModeManage
)

func (m ManageMode) String() string {
	switch m {
	case ModeReadonly:
		return "readonly"
	case ModeManage:
		return "manage"
	default:
		return "never"
	}
}

// ParseManageMode parses never, readonly or manage (case-insensitive).
func ParseManageMode(s string) (ManageMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "never":
		return ModeNever, nil
	case "readonly", "read-only":
		return ModeReadonly, nil
	case "manage":
		return ModeManage, nil
	}
	return ModeNever, fmt.Errorf("unknown manage mode %q (want never, readonly or manage)", s)
}

// NameDisplay selects which service field labels a menu entry.
type NameDisplay int

const (
	ShowDisplayName NameDisplay = iota
	ShowName
)

func (n NameDisplay) String() string {
	if n == ShowName {
		return "name"
	}
	return "displayname"
}

// ParseNameDisplay parses displayname or name (case-insensitive).
func ParseNameDisplay(s string) (NameDisplay, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "displayname", "display-name", "display":
		return ShowDisplayName, nil
	case "name":
		return ShowName, nil
	}
	return ShowDisplayName, fmt.Errorf("unknown name display %q (want displayname or name)", s)
}

// Options is the validated configuration. An Options value is never mutated
// after Build returns it; a reload produces a new value.
type Options struct {
	// DisplayNamePattern and NamePattern select services. A nil pattern
	// matches nothing.
	DisplayNamePattern *regexp.Regexp
	NamePattern        *regexp.Regexp

	Mode ManageMode
	Show NameDisplay

	Notify          notify.Policy
	StartedSeverity notify.Severity
	StoppedSeverity notify.Severity
	ErrorSeverity   notify.Severity

	// WatchInterval and ReclaimInterval are zero when disabled.
	WatchInterval   time.Duration
	ReclaimInterval time.Duration

	// CommandTimeout bounds the wait for a service to settle after start/stop.
	CommandTimeout time.Duration

	IconPath           string
	ServiceManagerPath string
	LogFile            string

	// Source is the config file the options were read from, if any.
	Source string
}

// Filter returns the service filter described by the options.
func (o *Options) Filter() snapshot.Filter {
	return snapshot.Filter{DisplayName: o.DisplayNamePattern, Name: o.NamePattern}
}

// Label returns the menu label for r.
func (o *Options) Label(r service.Record) string {
	if o.Show == ShowName || r.DisplayName == "" {
		return r.Name
	}
	return r.DisplayName
}

// Watching reports whether the watcher loop is enabled.
func (o *Options) Watching() bool {
	return o.WatchInterval > 0
}

// Validation errors
var (
	ErrNoFilter = errors.New("at least one of name or display-name must be set")
	ErrInterval = errors.New("interval out of range")
)

// ConfigError describes an invalid configuration value. It is fatal at startup.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
