package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/tasktimer/pkg/model"
	"github.com/harrisonrobin/tasktimer/pkg/store"
)

var takenAt = time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)

func testSnapshot() store.Snapshot {
	return store.Snapshot{
		Raw: []byte("idle,00\nwriting,2025-04-02T11:30:00Z\nreading,90\n"),
		Tasks: []model.Task{
			{Name: "idle", State: model.IdleState()},
			{Name: "writing", State: model.RunningState(takenAt.Add(-30 * time.Minute))},
			{Name: "reading", State: model.StoppedState(90 * time.Second)},
		},
		TakenAt: takenAt,
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, PDF, f)
	assert.Equal(t, "export.pdf", f.FileName())
	assert.Equal(t, "export_calendar.json", Calendar.FileName())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestRenderCSVIsVerbatim(t *testing.T) {
	snap := testSnapshot()
	data, err := Render(CSV, snap)
	require.NoError(t, err)
	assert.Equal(t, string(snap.Raw), string(data))
}

func TestRenderJSON(t *testing.T) {
	data, err := Render(JSON, testSnapshot())
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 3)

	assert.Equal(t, "idle", got[0]["state"])
	assert.NotContains(t, got[0], "started_at")
	assert.Equal(t, "running", got[1]["state"])
	assert.Equal(t, "2025-04-02T11:30:00Z", got[1]["started_at"])
	assert.Equal(t, 1800.0, got[1]["elapsed_seconds"])
	assert.Equal(t, 90.0, got[2]["elapsed_seconds"])
}

func TestRenderPDF(t *testing.T) {
	data, err := Render(PDF, testSnapshot())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"), "expected a PDF header")
}

func TestRenderCalendarSkipsIdle(t *testing.T) {
	data, err := Render(Calendar, testSnapshot())
	require.NoError(t, err)

	var events []*calendar.Event
	require.NoError(t, json.Unmarshal(data, &events))
	require.Len(t, events, 2)
	assert.Equal(t, "‣ writing", events[0].Summary)
	assert.Equal(t, "✓ reading", events[1].Summary)
	assert.NotEqual(t, events[0].ColorId, events[1].ColorId)
}

func TestConvertTaskToCalendarEvent(t *testing.T) {
	task := model.Task{Name: "reading", State: model.StoppedState(90 * time.Second)}

	event, err := ConvertTaskToCalendarEvent(task, takenAt, NewPalette())
	require.NoError(t, err)
	require.NotNil(t, event)

	require.NotNil(t, event.ExtendedProperties)
	assert.Equal(t, TaskID("reading"), event.ExtendedProperties.Private[PrivatePropertyKey])
	assert.Equal(t, "2025-04-02T11:58:30Z", event.Start.DateTime)
	assert.Equal(t, "2025-04-02T12:00:00Z", event.End.DateTime)
	assert.Contains(t, event.Description, "Accounting:")
	assert.Contains(t, event.Description, "• seconds: 90.000")

	idle, err := ConvertTaskToCalendarEvent(model.Task{Name: "idle"}, takenAt, NewPalette())
	require.NoError(t, err)
	assert.Nil(t, idle)
}

func TestTaskIDIsStable(t *testing.T) {
	assert.Equal(t, TaskID("writing"), TaskID("writing"))
	assert.NotEqual(t, TaskID("writing"), TaskID("Writing"))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.csv")
	snap := testSnapshot()

	require.NoError(t, WriteFile(CSV, snap, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, snap.Raw, data)
}
