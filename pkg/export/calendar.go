package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/tasktimer/pkg/model"
	"github.com/harrisonrobin/tasktimer/pkg/store"
)

// PrivatePropertyKey is the extended property that links an event back to its task.
const PrivatePropertyKey = "tasktimer_id"

var taskNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tasktimer"))

// TaskID returns a stable id for a task name.
func TaskID(name string) string {
	return uuid.NewSHA1(taskNamespace, []byte(name)).String()
}

// ConvertTaskToCalendarEvent maps a tracked task onto a calendar event as of now.
// Idle tasks have no time span and yield nil.
func ConvertTaskToCalendarEvent(task model.Task, now time.Time, palette *Palette) (*calendar.Event, error) {
	var start, end time.Time
	prefix := ""

	switch task.State.Kind {
	case model.Running:
		// In progress: from the start until now.
		prefix = "‣"
		start = task.State.StartedAt
		end = now
	case model.Stopped:
		// Only the duration is kept, so the session is placed to end now.
		prefix = "✓"
		end = now
		start = end.Add(-task.State.Elapsed)
	case model.Idle:
		return nil, nil
	default:
		return nil, fmt.Errorf("could not convert task %q in state %s", task.Name, task.State.Kind)
	}

	id := TaskID(task.Name)
	elapsed := task.State.ElapsedAt(now)

	var desc strings.Builder
	fmt.Fprintf(&desc, "Status: %s\n", task.State.Kind)
	fmt.Fprintf(&desc, "ID: %s\n", id)
	desc.WriteString("\nAccounting:\n")
	fmt.Fprintf(&desc, "• spent: %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(&desc, "• seconds: %s\n", model.Seconds(elapsed))

	event := &calendar.Event{
		Summary: fmt.Sprintf("%s %s", prefix, task.Name),
		ColorId: palette.ColorID(task.Name),
		Start: &calendar.EventDateTime{
			DateTime: start.UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: end.UTC().Format(time.RFC3339),
		},
		Description: desc.String(),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				PrivatePropertyKey: id,
			},
		},
	}
	return event, nil
}

func renderCalendar(snap store.Snapshot) ([]byte, error) {
	palette := NewPalette()
	events := make([]*calendar.Event, 0, len(snap.Tasks))
	for _, task := range snap.Tasks {
		event, err := ConvertTaskToCalendarEvent(task, snap.TakenAt, palette)
		if err != nil {
			return nil, err
		}
		if event != nil {
			events = append(events, event)
		}
	}
	return json.MarshalIndent(events, "", "  ")
}
