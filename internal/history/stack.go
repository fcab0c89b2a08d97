// Package history keeps the undo/redo stack of editor commands.
package history

// Command is a reversible edit. Do must be safe to call again after Undo.
type Command interface {
	ID() string
	Name() string
	Do()
	Undo()
	Entry() Entry
}

// Stack is a bounded undo/redo stack.
type Stack struct {
	done   []Command
	undone []Command
	limit  int

	listeners []func(Event)
}

// Event reports a stack change to listeners.
type Event struct {
	Action  string // "push", "undo" or "redo"
	Command Command
}

// NewStack returns a stack that keeps at most limit commands. A limit of
// zero or less keeps everything.
func NewStack(limit int) *Stack {
	return &Stack{limit: limit}
}

// OnChange registers fn to run after every push, undo and redo.
func (s *Stack) OnChange(fn func(Event)) {
	s.listeners = append(s.listeners, fn)
}

// Push executes c and records it, dropping any redo history.
func (s *Stack) Push(c Command) {
	c.Do()
	s.done = append(s.done, c)
	s.undone = nil
	if s.limit > 0 && len(s.done) > s.limit {
		s.done = append(s.done[:0], s.done[len(s.done)-s.limit:]...)
	}
	s.emit("push", c)
}

func (s *Stack) Undo() bool {
	if len(s.done) == 0 {
		return false
	}
	c := s.done[len(s.done)-1]
	s.done = s.done[:len(s.done)-1]
	c.Undo()
	s.undone = append(s.undone, c)
	s.emit("undo", c)
	return true
}

func (s *Stack) Redo() bool {
	if len(s.undone) == 0 {
		return false
	}
	c := s.undone[len(s.undone)-1]
	s.undone = s.undone[:len(s.undone)-1]
	c.Do()
	s.done = append(s.done, c)
	s.emit("redo", c)
	return true
}

func (s *Stack) CanUndo() bool { return len(s.done) > 0 }
func (s *Stack) CanRedo() bool { return len(s.undone) > 0 }

// Len returns the number of undoable commands.
func (s *Stack) Len() int { return len(s.done) }

// UndoName returns the name of the command Undo would revert.
func (s *Stack) UndoName() string {
	if len(s.done) == 0 {
		return ""
	}
	return s.done[len(s.done)-1].Name()
}

func (s *Stack) Clear() {
	s.done = nil
	s.undone = nil
}

func (s *Stack) emit(action string, c Command) {
	for _, fn := range s.listeners {
		fn(Event{Action: action, Command: c})
	}
}
