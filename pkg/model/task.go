package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// IdleSentinel is the stored value of a task whose timer was never started.
const IdleSentinel = "00"

const (
	runningLayout = time.RFC3339Nano
	// Zone-less ISO timestamps written by older task lists; read as local time.
	legacyLayout = "2006-01-02T15:04:05"
)

var ErrMalformedState = errors.New("malformed task state")

// Largest elapsed value, in seconds, that fits a time.Duration.
const maxElapsedSeconds = float64(math.MaxInt64) / float64(time.Second)

// Kind tags which variant a State holds.
type Kind int

const (
	Idle Kind = iota
	Running
	Stopped
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// State is one of Idle, Running{StartedAt} or Stopped{Elapsed}.
// Only the field matching Kind is meaningful.
type State struct {
	Kind      Kind
	StartedAt time.Time
	Elapsed   time.Duration
}

func IdleState() State {
	return State{Kind: Idle}
}

func RunningState(startedAt time.Time) State {
	return State{Kind: Running, StartedAt: startedAt}
}

// StoppedState records elapsed time. Negative values are stored as zero.
func StoppedState(elapsed time.Duration) State {
	return State{Kind: Stopped, Elapsed: max(elapsed, 0)}
}

// String returns the stored form of the state.
func (s State) String() string {
	switch s.Kind {
	case Running:
		return s.StartedAt.Format(runningLayout)
	case Stopped:
		return strconv.FormatFloat(s.Elapsed.Seconds(), 'f', -1, 64)
	default:
		return IdleSentinel
	}
}

// ElapsedAt returns the tracked time as of now. Idle tasks report zero, as
// do running tasks whose start lies after now.
func (s State) ElapsedAt(now time.Time) time.Duration {
	switch s.Kind {
	case Running:
		return max(now.Sub(s.StartedAt), 0)
	case Stopped:
		return s.Elapsed
	}
	return 0
}

// ParseState decodes a stored state value.
func ParseState(raw string) (State, error) {
	raw = strings.TrimSpace(raw)
	if raw == IdleSentinel {
		return IdleState(), nil
	}

	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 || secs >= maxElapsedSeconds {
			return State{}, fmt.Errorf("%w: elapsed seconds %q", ErrMalformedState, raw)
		}
		return StoppedState(time.Duration(secs * float64(time.Second))), nil
	}

	if t, err := time.Parse(runningLayout, raw); err == nil {
		return RunningState(t), nil
	}
	if t, err := time.ParseInLocation(legacyLayout, raw, time.Local); err == nil {
		return RunningState(t), nil
	}

	return State{}, fmt.Errorf("%w: %q", ErrMalformedState, raw)
}

// Task represents a single tracked task record.
type Task struct {
	Name  string
	State State
}

// Seconds formats a duration the way elapsed times are reported to the user.
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
