package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/harrisonrobin/tasktimer/pkg/fileutil"
	"github.com/harrisonrobin/tasktimer/pkg/model"
	"github.com/harrisonrobin/tasktimer/pkg/store"
)

type Format string

const (
	CSV      Format = "csv"
	JSON     Format = "json"
	PDF      Format = "pdf"
	Calendar Format = "calendar"
)

var Formats = []Format{CSV, JSON, PDF, Calendar}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// FileName is the default output file for a format.
func (f Format) FileName() string {
	switch f {
	case Calendar:
		return "export_calendar.json"
	default:
		return "export." + string(f)
	}
}

// Render produces the export document for a snapshot.
func Render(format Format, snap store.Snapshot) ([]byte, error) {
	switch format {
	case CSV:
		// The export is an exact copy of the task list.
		return bytes.Clone(snap.Raw), nil
	case JSON:
		return renderJSON(snap)
	case PDF:
		return renderPDF(snap)
	case Calendar:
		return renderCalendar(snap)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// WriteFile renders snap and atomically writes it to path.
func WriteFile(format Format, snap store.Snapshot, path string) error {
	data, err := Render(format, snap)
	if err != nil {
		return fmt.Errorf("failed to render %s export: %w", format, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", store.ErrIO, path, err)
	}
	return nil
}

type jsonTask struct {
	Name           string     `json:"name"`
	State          string     `json:"state"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	ElapsedSeconds float64    `json:"elapsed_seconds"`
}

func renderJSON(snap store.Snapshot) ([]byte, error) {
	tasks := make([]jsonTask, 0, len(snap.Tasks))
	for _, task := range snap.Tasks {
		jt := jsonTask{
			Name:           task.Name,
			State:          task.State.Kind.String(),
			ElapsedSeconds: task.State.ElapsedAt(snap.TakenAt).Seconds(),
		}
		if task.State.Kind == model.Running {
			started := task.State.StartedAt
			jt.StartedAt = &started
		}
		tasks = append(tasks, jt)
	}
	return json.MarshalIndent(tasks, "", "  ")
}

func renderPDF(snap store.Snapshot) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task Time Report")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, "Generated "+snap.TakenAt.Format(time.RFC1123))
	pdf.Ln(10)

	widths := []float64{90, 30, 40}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"Task", "State", "Elapsed (s)"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	// Core fonts are cp1252; translate task names from UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 10)
	var total time.Duration
	for _, task := range snap.Tasks {
		elapsed := task.State.ElapsedAt(snap.TakenAt)
		total += elapsed
		pdf.CellFormat(widths[0], 6, tr(task.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, task.State.Kind.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, model.Seconds(elapsed), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(widths[0]+widths[1], 7, fmt.Sprintf("Total (%d tasks)", len(snap.Tasks)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[2], 7, model.Seconds(total), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
