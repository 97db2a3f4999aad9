package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rescale/svctray/internal/constants"
	"github.com/rescale/svctray/internal/notify"
	"github.com/rescale/svctray/internal/pathutil"
)

// Field describes one configuration key. The same table drives command-line
// flags, the ini file and validation.
type Field struct {
	// Key is the flag name and the ini key.
	Key string

	// Section is the ini section holding the key.
	Section string

	// Default is applied when neither the file nor a flag sets the key.
	Default string

	Usage string

	apply func(o *Options, v string) error
}

// Fields lists every configuration key in file order.
var Fields = []Field{
	{Key: "name", Section: "filter", Usage: "regular expression matched against service names", apply: applyPattern(func(o *Options) **regexp.Regexp { return &o.NamePattern })},
	{Key: "display-name", Section: "filter", Usage: "regular expression matched against service display names", apply: applyPattern(func(o *Options) **regexp.Regexp { return &o.DisplayNamePattern })},

	{Key: "manage", Section: "menu", Default: "manage", Usage: "menu management mode: never, readonly or manage", apply: func(o *Options, v string) (err error) {
		o.Mode, err = ParseManageMode(v)
		return err
	}},
	{Key: "show", Section: "menu", Default: "displayname", Usage: "label entries by displayname or name", apply: func(o *Options, v string) (err error) {
		o.Show, err = ParseNameDisplay(v)
		return err
	}},

	{Key: "notify", Section: "notify", Default: "onerror", Usage: "command notifications: never, onerror or always", apply: func(o *Options, v string) (err error) {
		o.Notify, err = notify.ParsePolicy(v)
		return err
	}},
	{Key: "started-icon", Section: "notify", Default: "info", Usage: "severity of started notifications: none, info, warning or error", apply: applySeverity(func(o *Options) *notify.Severity { return &o.StartedSeverity })},
	{Key: "stopped-icon", Section: "notify", Default: "warning", Usage: "severity of stopped notifications: none, info, warning or error", apply: applySeverity(func(o *Options) *notify.Severity { return &o.StoppedSeverity })},
	{Key: "error-icon", Section: "notify", Default: "error", Usage: "severity of failure notifications: none, info, warning or error", apply: applySeverity(func(o *Options) *notify.Severity { return &o.ErrorSeverity })},

	{Key: "watch", Section: "watch", Default: "0", Usage: "watch interval in milliseconds (0 disables, minimum 5000)", apply: applyInterval(constants.MinWatchInterval, func(o *Options) *time.Duration { return &o.WatchInterval })},
	{Key: "gc", Section: "watch", Default: "0", Usage: "memory reclamation interval in milliseconds (0 disables, minimum 60000)", apply: applyInterval(constants.MinReclaimInterval, func(o *Options) *time.Duration { return &o.ReclaimInterval })},
	{Key: "timeout", Section: "watch", Default: strconv.Itoa(int(constants.DefaultCommandTimeout / time.Second)), Usage: "seconds to wait for a service to start or stop", apply: applyTimeout},

	{Key: "icon", Section: "paths", Usage: "tray icon file (PNG or ICO); built-in icon when empty", apply: applyPath(func(o *Options) *string { return &o.IconPath })},
	{Key: "service-manager", Section: "paths", Default: defaultServiceManager(), Usage: "program opened by the service manager menu entry", apply: func(o *Options, v string) error {
		o.ServiceManagerPath = v
		return nil
	}},
	{Key: "log-file", Section: "paths", Usage: "append logs to this file instead of stderr", apply: applyPath(func(o *Options) *string { return &o.LogFile })},
}

// Lookup returns the field for key.
func Lookup(key string) (Field, bool) {
	for _, f := range Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Build validates values and returns the resulting options. Keys missing from
// values take their default.
func Build(values map[string]string) (*Options, error) {
	o := &Options{}
	for _, f := range Fields {
		v, ok := values[f.Key]
		if !ok {
			v = f.Default
		}
		v = strings.TrimSpace(v)
		if err := f.apply(o, v); err != nil {
			return nil, &ConfigError{Field: f.Key, Value: v, Err: err}
		}
	}

	if o.NamePattern == nil && o.DisplayNamePattern == nil {
		return nil, &ConfigError{Field: "filter", Err: ErrNoFilter}
	}
	return o, nil
}

// Defaults returns the default value of every field.
func Defaults() map[string]string {
	values := make(map[string]string, len(Fields))
	for _, f := range Fields {
		values[f.Key] = f.Default
	}
	return values
}

func applyPattern(target func(o *Options) **regexp.Regexp) func(*Options, string) error {
	return func(o *Options, v string) error {
		if v == "" {
			*target(o) = nil
			return nil
		}
		re, err := regexp.Compile(v)
		if err != nil {
			return err
		}
		*target(o) = re
		return nil
	}
}

func applySeverity(target func(o *Options) *notify.Severity) func(*Options, string) error {
	return func(o *Options, v string) (err error) {
		*target(o), err = notify.ParseSeverity(v)
		return err
	}
}

// applyInterval parses milliseconds; zero disables, anything else must reach min.
func applyInterval(min time.Duration, target func(o *Options) *time.Duration) func(*Options, string) error {
	return func(o *Options, v string) error {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("not a number of milliseconds")
		}
		d := time.Duration(ms) * time.Millisecond
		if ms != 0 && (ms < 0 || d < min) {
			return fmt.Errorf("%w: must be 0 or at least %d", ErrInterval, min.Milliseconds())
		}
		*target(o) = d
		return nil
	}
}

// applyPath stores v as an absolute path with ~ expanded.
func applyPath(target func(o *Options) *string) func(*Options, string) error {
	return func(o *Options, v string) (err error) {
		*target(o), err = pathutil.ResolveAbsolutePath(v)
		return err
	}
}

func applyTimeout(o *Options, v string) error {
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("not a number of seconds")
	}
	d := time.Duration(secs) * time.Second
	if d < constants.MinCommandTimeout || d > constants.MaxCommandTimeout {
		return fmt.Errorf("%w: must be between %d and %d seconds", ErrInterval,
			int(constants.MinCommandTimeout/time.Second), int(constants.MaxCommandTimeout/time.Second))
	}
	o.CommandTimeout = d
	return nil
}
