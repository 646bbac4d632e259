package store

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/harrisonrobin/tasktimer/pkg/fileutil"
	"github.com/harrisonrobin/tasktimer/pkg/model"
)

const filePerm = 0o644

// Store is the task list backed by a single CSV file. Every operation loads
// the file, works on the in-memory copy and, if anything changed, writes the
// whole file back before returning.
type Store struct {
	Path string

	records []record
	index   map[string]int
	dirty   bool

	now    func() time.Time
	logger *slog.Logger
	create bool
}

type Option func(*Store)

// WithClock replaces time.Now for start/stop/elapsed calculations.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithCreate makes Open create an empty backing file when none exists.
func WithCreate(create bool) Option {
	return func(s *Store) { s.create = create }
}

// Entry is one line of List output.
type Entry struct {
	Task    model.Task
	Elapsed time.Duration
	Raw     string
}

// Snapshot is the store content at one point in time, for exporters.
type Snapshot struct {
	Raw     []byte
	Tasks   []model.Task
	TakenAt time.Time
}

// Open checks that the backing file exists and returns a Store for it.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		Path:   path,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		if !s.create {
			return nil, fmt.Errorf("%w: %s", ErrStoreMissing, path)
		}
		if err := fileutil.WriteFileAtomic(path, nil, filePerm); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", ErrIO, path, err)
		}
		s.logger.Info("created task store", "path", path)
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrIO, s.Path, err)
	}
	return s.loadBytes(data)
}

func (s *Store) loadBytes(data []byte) error {
	records, err := decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", s.Path, err)
	}

	s.records = records
	s.index = make(map[string]int, len(records))
	for i, rec := range records {
		// First match wins when a hand-edited file repeats a name.
		if _, exists := s.index[rec.task.Name]; !exists {
			s.index[rec.task.Name] = i
		}
	}
	s.dirty = false
	s.logger.Debug("loaded task store", "path", s.Path, "records", len(records))
	return nil
}

func (s *Store) save() error {
	if !s.dirty {
		return nil
	}
	data, err := encode(s.records)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrIO, s.Path, err)
	}
	if err := fileutil.WriteFileAtomic(s.Path, data, filePerm); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, s.Path, err)
	}
	s.dirty = false
	s.logger.Debug("saved task store", "path", s.Path, "records", len(s.records))
	return nil
}

// appendRecord adds one line to the end of the backing file without
// rewriting the existing records.
func (s *Store) appendRecord(rec record) error {
	data, err := encode([]record{rec})
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrIO, s.Path, err)
	}

	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_APPEND, filePerm)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, s.Path, err)
	}
	defer f.Close()

	// Hand-edited files may lack the final line break.
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrIO, s.Path, err)
	}
	if size := info.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			return fmt.Errorf("%w: read %s: %w", ErrIO, s.Path, err)
		}
		if last[0] != '\n' {
			data = append([]byte{'\n'}, data...)
		}
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("%w: append %s: %w", ErrIO, s.Path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, s.Path, err)
	}
	s.logger.Debug("appended task record", "path", s.Path, "task", rec.task.Name)
	return nil
}

func (s *Store) lookup(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("%w: name %q contains a line break", ErrInvalidName, name)
	}
	return nil
}

// Create adds an idle task. It fails with ErrTaskAlreadyExists when the name
// is taken.
func (s *Store) Create(name string) (model.Task, error) {
	if err := validateName(name); err != nil {
		return model.Task{}, err
	}
	if err := s.load(); err != nil {
		return model.Task{}, err
	}
	if _, ok := s.lookup(name); ok {
		return model.Task{}, fmt.Errorf("%w: %q", ErrTaskAlreadyExists, name)
	}

	task := model.Task{Name: name, State: model.IdleState()}
	rec := newRecord(task)
	if err := s.appendRecord(rec); err != nil {
		return model.Task{}, err
	}
	s.index[name] = len(s.records)
	s.records = append(s.records, rec)
	return task, nil
}

// Start moves an idle task to running as of now.
func (s *Store) Start(name string) (model.Task, error) {
	if err := s.load(); err != nil {
		return model.Task{}, err
	}
	i, ok := s.lookup(name)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, name)
	}
	task := s.records[i].task
	if task.State.Kind != model.Idle {
		return task, fmt.Errorf("%w: %q is already %s", ErrInvalidState, name, task.State.Kind)
	}

	task.State = model.RunningState(s.now())
	s.records[i] = newRecord(task)
	s.dirty = true
	if err := s.save(); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Stop ends a running task and records the elapsed time. Tasks that are not
// running are left alone and reported with ErrInvalidState.
func (s *Store) Stop(name string) (model.Task, time.Duration, error) {
	if err := s.load(); err != nil {
		return model.Task{}, 0, err
	}
	i, ok := s.lookup(name)
	if !ok {
		return model.Task{}, 0, fmt.Errorf("%w: %q", ErrTaskNotFound, name)
	}
	task := s.records[i].task
	if task.State.Kind != model.Running {
		return task, 0, fmt.Errorf("%w: %q is %s, not running", ErrInvalidState, name, task.State.Kind)
	}

	elapsed := task.State.ElapsedAt(s.now())
	task.State = model.StoppedState(elapsed)
	s.records[i] = newRecord(task)
	s.dirty = true
	if err := s.save(); err != nil {
		return model.Task{}, 0, err
	}
	return task, elapsed, nil
}

// Reset returns a task to idle whatever its state.
func (s *Store) Reset(name string) (model.Task, error) {
	if err := s.load(); err != nil {
		return model.Task{}, err
	}
	i, ok := s.lookup(name)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, name)
	}
	task := s.records[i].task
	if task.State.Kind == model.Idle {
		return task, nil
	}

	task.State = model.IdleState()
	s.records[i] = newRecord(task)
	s.dirty = true
	if err := s.save(); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// TimeOf reports the tracked time of a task without changing it.
func (s *Store) TimeOf(name string) (model.Task, time.Duration, error) {
	if err := s.load(); err != nil {
		return model.Task{}, 0, err
	}
	i, ok := s.lookup(name)
	if !ok {
		return model.Task{}, 0, fmt.Errorf("%w: %q", ErrTaskNotFound, name)
	}
	task := s.records[i].task
	return task, task.State.ElapsedAt(s.now()), nil
}

// Delete removes every record named name. Deleting an unknown task is not an
// error; the returned bool reports whether anything was removed.
func (s *Store) Delete(name string) (bool, error) {
	if err := s.load(); err != nil {
		return false, err
	}
	if _, ok := s.lookup(name); !ok {
		return false, nil
	}

	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.task.Name != name {
			kept = append(kept, rec)
		}
	}
	s.records = kept
	delete(s.index, name)
	s.dirty = true
	if err := s.save(); err != nil {
		return false, err
	}
	return true, nil
}

// List returns every record in file order.
func (s *Store) List() ([]Entry, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	now := s.now()
	entries := make([]Entry, 0, len(s.records))
	for _, rec := range s.records {
		entries = append(entries, Entry{
			Task:    rec.task,
			Elapsed: rec.task.State.ElapsedAt(now),
			Raw:     rec.raw,
		})
	}
	return entries, nil
}

// Snapshot reads the backing file once and returns both its bytes and the
// parsed tasks.
func (s *Store) Snapshot() (Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: read %s: %w", ErrIO, s.Path, err)
	}
	if err := s.loadBytes(data); err != nil {
		return Snapshot{}, err
	}
	tasks := make([]model.Task, 0, len(s.records))
	for _, rec := range s.records {
		tasks = append(tasks, rec.task)
	}
	return Snapshot{Raw: data, Tasks: tasks, TakenAt: s.now()}, nil
}

// Export copies the backing file to w byte for byte.
func (s *Store) Export(w io.Writer) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	if _, err := w.Write(snap.Raw); err != nil {
		return fmt.Errorf("%w: export: %w", ErrIO, err)
	}
	return nil
}
