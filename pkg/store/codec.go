package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/harrisonrobin/tasktimer/pkg/model"
)

// record is one line of the backing file. raw keeps the state exactly as it
// was read so List can report it untouched.
type record struct {
	task model.Task
	raw  string
}

func newRecord(task model.Task) record {
	return record{task: task, raw: task.State.String()}
}

func decode(r io.Reader) ([]record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var records []record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
		}
		line, _ := reader.FieldPos(0)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected 2 fields, got %d", ErrCorruptRecord, line, len(fields))
		}
		state, err := model.ParseState(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCorruptRecord, line, err)
		}
		records = append(records, record{
			task: model.Task{Name: fields[0], State: state},
			raw:  fields[1],
		})
	}
	return records, nil
}

func encode(records []record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, rec := range records {
		if err := w.Write([]string{rec.task.Name, rec.raw}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
