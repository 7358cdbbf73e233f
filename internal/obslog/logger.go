// Package obslog builds per-component zerolog loggers, tuned by
// BROKER_DEBUG_* environment variables (spec.md §6 "CLI/environment"),
// following onflow-flow-go's log.With().Str("component", name).Logger()
// convention (e.g. engine/collection/pusher/engine.go).
package obslog

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// levelEnv selects the global log level; unset or unrecognized values fall
// back to info.
const levelEnv = "BROKER_DEBUG_LOG"

// componentsEnv is a comma-separated allow-list of component names. When
// set, components not on the list log at warn regardless of levelEnv.
const componentsEnv = "BROKER_DEBUG_COMPONENTS"

// base is the process-wide root logger; components derive from it via With.
var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func init() {
	base = base.Level(parseLevel(os.Getenv(levelEnv)))
}

func parseLevel(v string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "", "info":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

func allowedComponents() map[string]bool {
	raw := os.Getenv(componentsEnv)
	if raw == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			out[name] = true
		}
	}
	return out
}

// Component returns a logger scoped to name. If BROKER_DEBUG_COMPONENTS is
// set and does not list name, the component is pinned to warn level
// regardless of BROKER_DEBUG_LOG, so routine traffic from uninteresting
// subsystems does not drown out the ones under investigation.
func Component(name string) zerolog.Logger {
	l := base.With().Str("component", name).Logger()
	if allow := allowedComponents(); allow != nil && !allow[name] {
		l = l.Level(zerolog.WarnLevel)
	}
	return l
}

// SetOutput redirects where every future Component logger writes; tests use
// this to capture output.
func SetOutput(w zerolog.ConsoleWriter) {
	base = base.Output(w)
}
