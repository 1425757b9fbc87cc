package task

import (
	"fmt"

	"github.com/flame-hpc/flame2/pkg/board"
)

// Op is a message-board task's operation.
type Op int

const (
	OpSync Op = iota
	OpClear
)

func (op Op) String() string {
	if op == OpSync {
		return "SYNC"
	}
	return "CLEAR"
}

// BoardTask dispatches Sync or Clear on a named board.
type BoardTask struct {
	name      string
	kind      Kind
	boardName string
	op        Op
	boards    *board.Manager
}

// NewBoardTask creates a message-board task.
func NewBoardTask(name string, kind Kind, boardName string, op Op, boards *board.Manager) *BoardTask {
	return &BoardTask{name: name, kind: kind, boardName: boardName, op: op, boards: boards}
}

func (t *BoardTask) Name() string       { return t.name }
func (t *BoardTask) Kind() Kind         { return t.kind }
func (t *BoardTask) BoardName() string  { return t.boardName }
func (t *BoardTask) Operation() Op      { return t.op }

// Run dispatches the configured operation on the named board.
func (t *BoardTask) Run() error {
	h, err := t.boards.Handle(t.boardName)
	if err != nil {
		return fmt.Errorf("board task %s: %w", t.name, err)
	}
	switch t.op {
	case OpSync:
		h.Sync()
	case OpClear:
		h.Clear()
	}
	return nil
}
