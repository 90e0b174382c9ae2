package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Error logs err under "error". A nil err gives an empty Attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors logs the non-nil errs as a group under "errors", keyed by position.
func Errors(errs ...error) slog.Attr {
	var group []slog.Attr
	for i, err := range errs {
		if err == nil {
			continue
		}
		group = append(group, slog.Any(strconv.Itoa(i), err))
	}
	if group == nil {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(group...)}
}

func nonEmpty(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}

// State is the state a transition targets or a hook belongs to.
func State(name string) slog.Attr { return nonEmpty("state", name) }

// FromState is the state a transition leaves.
func FromState(name string) slog.Attr { return nonEmpty("from", name) }

// Target is the reference a transition was requested with, before lookup.
func Target(ref string) slog.Attr { return slog.String("target", ref) }

func TransitionID(id string) slog.Attr { return nonEmpty("transition_id", id) }

func RouterID(id string) slog.Attr { return slog.String("router_id", id) }

// Redirects counts the not-found rounds a transition went through.
func Redirects(n int) slog.Attr { return slog.Int("redirects", n) }

func Elapsed(d time.Duration) slog.Attr { return slog.Duration("elapsed", d) }

func Component(name string) slog.Attr { return slog.String("component", name) }

// Event is a router event name such as stateChangeStart.
func Event(name string) slog.Attr { return slog.String("event", name) }
