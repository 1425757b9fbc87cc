package task

import (
	"github.com/flame-hpc/flame2/pkg/board"
	"github.com/flame-hpc/flame2/pkg/ferrors"
	"github.com/flame-hpc/flame2/pkg/memory"
)

// messageClient is the per-task-execution proxy: given a board name it
// hands back a writer (if granted for post) or a fresh iterator (if
// granted for read), caching the writer across rows of a single Run.
type messageClient struct {
	task    *AgentTask
	boards  *board.Manager
	writers map[string]any
}

func (c *messageClient) canPost(name string) bool {
	_, ok := c.task.postMsgs[name]
	return ok
}

func (c *messageClient) canRead(name string) bool {
	_, ok := c.task.readMsgs[name]
	return ok
}

func writerFor[T any](c *messageClient, name string) (*board.Writer[T], error) {
	if cached, ok := c.writers[name]; ok {
		w, ok := cached.(*board.Writer[T])
		if !ok {
			return nil, ferrors.New(ferrors.ErrTypeMismatch, "board %q: cached writer has a different message type", name)
		}
		return w, nil
	}
	b, err := board.Get[T](c.boards, name)
	if err != nil {
		return nil, err
	}
	w := b.NewWriter()
	c.writers[name] = w
	return w, nil
}

// Context is the object passed into a TransitionFunc: an accessor bound
// to one agent row and one task's message client. It is the
// in-function user-API facade (spec §4.5).
type Context struct {
	it     *memory.Iterator
	client *messageClient
}

// GetMem fetches the current row's value of name as T. Access outside
// the task's readable set raises access-denied; a type tag mismatch
// raises type-mismatch.
func GetMem[T any](ctx *Context, name string) (T, error) {
	return memory.GetVar[T](ctx.it, name)
}

// SetMem assigns the current row's value of name. Access outside the
// task's writable set raises access-denied; a type tag mismatch raises
// type-mismatch.
func SetMem[T any](ctx *Context, name string, value T) error {
	return memory.SetVar[T](ctx.it, name, value)
}

// PostMessage routes msg to the task's cached writer for boardName.
// boardName must be in the task's post set, else access-denied.
func PostMessage[T any](ctx *Context, boardName string, msg T) error {
	if !ctx.client.canPost(boardName) {
		return ferrors.New(ferrors.ErrAccessDenied, "board %q is not in this task's post set", boardName)
	}
	w, err := writerFor[T](ctx.client, boardName)
	if err != nil {
		return err
	}
	return w.Post(msg)
}

// GetMessageIterator returns a fresh snapshot iterator over boardName's
// current live messages. boardName must be in the task's read set,
// else access-denied.
func GetMessageIterator[T any](ctx *Context, boardName string) (*board.Iterator[T], error) {
	if !ctx.client.canRead(boardName) {
		return nil, ferrors.New(ferrors.ErrAccessDenied, "board %q is not in this task's read set", boardName)
	}
	b, err := board.Get[T](ctx.client.boards, boardName)
	if err != nil {
		return nil, err
	}
	return b.NewIterator(), nil
}
