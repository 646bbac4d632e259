package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrisonrobin/tasktimer/pkg/export"
	"github.com/harrisonrobin/tasktimer/pkg/model"
	"github.com/harrisonrobin/tasktimer/pkg/store"
)

var ErrUnrecognizedCommand = errors.New("unrecognized command")

const (
	greeting       = "How may I help? Type '--help' for a list of commands and 'exit' to leave application:"
	unknownMessage = "Sorry, command does not exist. Use '--help' for a list of commands."
	namePrompt     = "Name of task?"
	timeLayout     = "2006-01-02 15:04:05"
)

type command struct {
	name      string
	help      string
	needsName bool
	run       func(d *Dispatcher, name string) error
}

var commands = []command{
	{name: "create", help: "Create a new task.", needsName: true, run: (*Dispatcher).create},
	{name: "start", help: "Start tracking time for a task.", needsName: true, run: (*Dispatcher).start},
	{name: "stop", help: "Stop a task and show time spent.", needsName: true, run: (*Dispatcher).stop},
	{name: "time_of", help: "Show time spent on a specific task.", needsName: true, run: (*Dispatcher).timeOf},
	{name: "delete", help: "Delete a task.", needsName: true, run: (*Dispatcher).delete},
	{name: "reset", help: "Set a task back to idle so it can be started again.", needsName: true, run: (*Dispatcher).reset},
	{name: "list_tasks", help: "List all tasks and their time spent.", run: (*Dispatcher).list},
	{name: "export_csv", help: "Export tasks to a CSV file.", run: exportAs(export.CSV)},
	{name: "export_json", help: "Export tasks to a JSON file.", run: exportAs(export.JSON)},
	{name: "export_pdf", help: "Export a PDF time report.", run: exportAs(export.PDF)},
	{name: "export_calendar", help: "Export tracked time as Google Calendar events.", run: exportAs(export.Calendar)},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// Dispatcher maps command words onto store operations and writes the
// results for the user.
type Dispatcher struct {
	Store     *store.Store
	Out       io.Writer
	Prompter  Prompter
	ExportDir string
	Logger    *slog.Logger
	Now       func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d *Dispatcher) printf(format string, args ...any) {
	fmt.Fprintf(d.Out, "\n"+format+"\n", args...)
}

// Run is the interactive loop. It returns nil on 'exit' or end of input.
func (d *Dispatcher) Run() error {
	fmt.Fprintf(d.Out, "\n%s\n", greeting)
	for {
		line, err := d.Prompter.Prompt("")
		if errors.Is(err, io.EOF) {
			d.printf("Goodbye!")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read command: %w", err)
		}

		word := strings.ToLower(strings.TrimSpace(line))
		switch word {
		case "":
			continue
		case "exit":
			d.printf("Goodbye!")
			return nil
		}

		if err := d.Dispatch(word); err != nil {
			if errors.Is(err, io.EOF) {
				d.printf("Goodbye!")
				return nil
			}
			d.printf("%s", Describe(err))
			d.logger().Info("command failed", "command", word, "error", err)
		}
	}
}

// Dispatch runs one command word, prompting for a task name when the
// command needs one.
func (d *Dispatcher) Dispatch(word string) error {
	if word == "--help" {
		d.help()
		return nil
	}
	cmd, ok := lookupCommand(word)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnrecognizedCommand, word)
	}

	var name string
	if cmd.needsName {
		var err error
		name, err = d.Prompter.Prompt(namePrompt)
		if err != nil {
			return err
		}
	}
	return d.Execute(word, name)
}

// Execute runs a command with an already known task name.
func (d *Dispatcher) Execute(word, name string) error {
	cmd, ok := lookupCommand(word)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnrecognizedCommand, word)
	}
	return cmd.run(d, name)
}

func (d *Dispatcher) help() {
	var b strings.Builder
	b.WriteString("Available Commands:\n-------------------\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "%-16s - %s\n", c.name, c.help)
	}
	fmt.Fprintf(&b, "%-16s - %s\n", "exit", "Quit the application.")
	d.printf("%s", b.String())
}

func (d *Dispatcher) create(name string) error {
	if _, err := d.Store.Create(name); err != nil {
		return err
	}
	d.printf("Task %q created %s.", name, d.now().Format(timeLayout))
	return nil
}

func (d *Dispatcher) start(name string) error {
	task, err := d.Store.Start(name)
	if err != nil {
		return err
	}
	d.printf("Task %q started %s.", name, task.State.StartedAt.Format(timeLayout))
	return nil
}

func (d *Dispatcher) stop(name string) error {
	_, elapsed, err := d.Store.Stop(name)
	if err != nil {
		return err
	}
	d.printf("Total time of task %q was: %s seconds (%s) on %s.",
		name, model.Seconds(elapsed), elapsed.Round(time.Second), d.now().Format(timeLayout))
	return nil
}

func (d *Dispatcher) timeOf(name string) error {
	task, elapsed, err := d.Store.TimeOf(name)
	if err != nil {
		return err
	}
	d.printf("Time of task %q so far is: %s seconds (%s).", name, model.Seconds(elapsed), task.State.Kind)
	return nil
}

func (d *Dispatcher) delete(name string) error {
	removed, err := d.Store.Delete(name)
	if err != nil {
		return err
	}
	if !removed {
		d.printf("Task %q does not exist, nothing deleted.", name)
		return nil
	}
	d.printf("Task %q deleted %s.", name, d.now().Format(timeLayout))
	return nil
}

func (d *Dispatcher) reset(name string) error {
	if _, err := d.Store.Reset(name); err != nil {
		return err
	}
	d.printf("Task %q reset.", name)
	return nil
}

func (d *Dispatcher) list(string) error {
	entries, err := d.Store.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		d.printf("No tasks.")
		return nil
	}
	for _, e := range entries {
		spent := model.IdleSentinel
		if e.Task.State.Kind != model.Idle {
			spent = model.Seconds(e.Elapsed)
		}
		d.printf("Task: %s\tTime spent on task: %s\t\tState: %s (%s)", e.Task.Name, spent, e.Task.State.Kind, e.Raw)
	}
	return nil
}

func exportAs(format export.Format) func(*Dispatcher, string) error {
	return func(d *Dispatcher, _ string) error {
		path := filepath.Join(d.ExportDir, format.FileName())
		return d.exportTo(format, path)
	}
}

func (d *Dispatcher) exportTo(format export.Format, path string) error {
	snap, err := d.Store.Snapshot()
	if err != nil {
		return err
	}
	if err := export.WriteFile(format, snap, path); err != nil {
		return err
	}
	d.printf("Exported file at:\t%s", path)
	return nil
}

// Describe turns an operation error into the message shown to the user.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrUnrecognizedCommand):
		return unknownMessage
	case errors.Is(err, store.ErrTaskAlreadyExists):
		return "Already exists."
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task does not exist."
	case errors.Is(err, store.ErrInvalidState):
		return "Cannot do that now: " + err.Error() + "."
	case errors.Is(err, store.ErrInvalidName):
		return "Invalid task name: " + err.Error() + "."
	case errors.Is(err, store.ErrStoreMissing):
		return "Task list not found: " + err.Error() + ". Create it or set create_store: true in the config."
	case errors.Is(err, store.ErrCorruptRecord):
		return "Task list is damaged: " + err.Error() + "."
	case errors.Is(err, store.ErrIO):
		return "Could not access the task list: " + err.Error() + "."
	}
	return "Error: " + err.Error()
}
