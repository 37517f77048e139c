package review

import (
	"context"
	"errors"
	"fmt"

	"creotrail/validator/pkg/store"
)

// NoContext is shown for arguments without context lines.
const NoContext = "No context found."

// ErrDone is returned when classifying after the last command.
var ErrDone = errors.New("all commands reviewed")

// Marker records decisions. *client.Client satisfies it.
type Marker interface {
	Mark(ctx context.Context, userID, commandID int64, text string, c store.Classification) error
	UpdateLastProcessed(ctx context.Context, userID, lastCmdID int64) error
}

// Command is a corpus command with its arguments in corpus order.
type Command struct {
	ID        int64
	Arguments []store.CorpusRow
}

// GroupByCommand groups corpus rows by command id, keeping the order in
// which each command first appears.
func GroupByCommand(rows []store.CorpusRow) []Command {
	index := make(map[int64]int)
	var commands []Command
	for _, row := range rows {
		i, ok := index[row.CommandID]
		if !ok {
			i = len(commands)
			index[row.CommandID] = i
			commands = append(commands, Command{ID: row.CommandID})
		}
		commands[i].Arguments = append(commands[i].Arguments, row)
	}
	return commands
}

// View is what the dashboard shows for the current position.
type View struct {
	// Index is the zero-based position of the command; Total the number
	// of commands.
	Index int
	Total int

	CommandID     int64
	ArgumentIndex int
	ArgumentCount int
	CommandLine   string
	Context       string
}

// Session walks a validator through the corpus one command at a time.
// It is not safe for concurrent use.
type Session struct {
	userID   int64
	marker   Marker
	commands []Command
	index    int
	argIndex map[int64]int
}

// NewSession starts a session at position start, normally the user's
// last_processed_cmd_id. Out-of-range starts are clamped; a start past the
// last command yields a finished session.
func NewSession(userID int64, rows []store.CorpusRow, start int64, marker Marker) *Session {
	commands := GroupByCommand(rows)
	index := int(min(max(start, 0), int64(len(commands))))
	return &Session{
		userID:   userID,
		marker:   marker,
		commands: commands,
		index:    index,
		argIndex: make(map[int64]int),
	}
}

// Done reports whether every command has been reviewed.
func (s *Session) Done() bool {
	return s.index >= len(s.commands)
}

// Index returns the current position.
func (s *Session) Index() int { return s.index }

// Len returns the number of commands.
func (s *Session) Len() int { return len(s.commands) }

// Current returns the view of the current command. ok is false once the
// session is done.
func (s *Session) Current() (v View, ok bool) {
	if s.Done() {
		return View{Index: s.index, Total: len(s.commands)}, false
	}

	cmd := s.commands[s.index]
	sub := s.argIndex[cmd.ID]
	if sub >= len(cmd.Arguments) {
		sub = 0
	}
	arg := cmd.Arguments[sub]

	ctxLines := arg.ContextLines
	if ctxLines == "" {
		ctxLines = NoContext
	}

	return View{
		Index:         s.index,
		Total:         len(s.commands),
		CommandID:     cmd.ID,
		ArgumentIndex: sub,
		ArgumentCount: len(cmd.Arguments),
		CommandLine:   arg.FullCommandLine,
		Context:       ctxLines,
	}, true
}

// NextContext cycles to the next argument of the current command.
func (s *Session) NextContext() {
	if s.Done() {
		return
	}
	cmd := s.commands[s.index]
	s.argIndex[cmd.ID] = (s.argIndex[cmd.ID] + 1) % len(cmd.Arguments)
}

// Next moves to the following command without classifying, stopping at the
// last one.
func (s *Session) Next() {
	if len(s.commands) == 0 || s.Done() {
		return
	}
	s.moveTo(min(len(s.commands)-1, s.index+1))
}

// Prev moves to the previous command, stopping at the first one. From a
// finished session it returns to the last command.
func (s *Session) Prev() {
	if len(s.commands) == 0 {
		return
	}
	s.moveTo(max(0, min(s.index, len(s.commands))-1))
}

func (s *Session) moveTo(i int) {
	s.index = i
	s.argIndex[s.commands[i].ID] = 0
}

// MarkDynamic classifies the current command as dynamic and advances.
func (s *Session) MarkDynamic(ctx context.Context) error {
	return s.mark(ctx, store.Dynamic)
}

// MarkStatic classifies the current command as static and advances.
func (s *Session) MarkStatic(ctx context.Context) error {
	return s.mark(ctx, store.Static)
}

// mark records the decision for the selected argument's command line, then
// stores index+1 as the resume position. The session advances once the
// decision is recorded, even if saving the position fails.
func (s *Session) mark(ctx context.Context, c store.Classification) error {
	v, ok := s.Current()
	if !ok {
		return ErrDone
	}

	if err := s.marker.Mark(ctx, s.userID, v.CommandID, v.CommandLine, c); err != nil {
		return fmt.Errorf("mark command %d %s: %w", v.CommandID, c, err)
	}
	s.index++

	if err := s.marker.UpdateLastProcessed(ctx, s.userID, int64(s.index)); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}
