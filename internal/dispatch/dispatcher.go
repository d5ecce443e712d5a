// Package dispatch maps tool names onto filesystem operations.
//
// The dispatcher owns the fixed tool table, validates arguments, routes to
// the handler and renders its outcome. It is the single place where handler
// failures are classified: every error it returns is a *toolerr.Error.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"fsgate/internal/logging"
	"fsgate/internal/operations"
	"fsgate/internal/toolerr"
	"fsgate/internal/validation"
)

// Handlers is the set of operations the dispatcher routes to.
// *operations.Operations implements it.
type Handlers interface {
	Read(ctx context.Context, path string) (*operations.FileContent, error)
	Write(ctx context.Context, path, content string) (*operations.Acknowledgement, error)
	List(ctx context.Context, path string) (*operations.Listing, error)
	Mkdir(ctx context.Context, path string) (*operations.Acknowledgement, error)
	Delete(ctx context.Context, path string) (*operations.Acknowledgement, error)
	Stat(ctx context.Context, path string) (*operations.FileMetadata, error)
}

var _ Handlers = (*operations.Operations)(nil)

// ContentBlock is one piece of rendered output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is a successful tool outcome: rendered text plus the typed value.
type Result struct {
	Tool    string         `json:"tool"`
	Content []ContentBlock `json:"content"`
	Data    any            `json:"data,omitempty"`
}

// Text joins all text blocks.
func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

type runFunc func(ctx context.Context, h Handlers, args map[string]string) (*Result, error)

type entry struct {
	tool Tool
	run  runFunc
}

// Dispatcher is stateless apart from its immutable table and is safe for
// concurrent use.
type Dispatcher struct {
	handlers Handlers
	tools    []Tool
	byName   map[string]*entry
	logger   *logging.AppLogger
}

// New builds a dispatcher over h.
func New(h Handlers, logger *logging.AppLogger) *Dispatcher {
	if logger == nil {
		logger = logging.GetDefault()
	}

	runs := map[string]runFunc{
		operations.OpRead: func(ctx context.Context, h Handlers, a map[string]string) (*Result, error) {
			return render(h.Read(ctx, a["path"]))(renderRead)
		},
		operations.OpWrite: func(ctx context.Context, h Handlers, a map[string]string) (*Result, error) {
			return render(h.Write(ctx, a["path"], a["content"]))(renderWrite)
		},
		operations.OpList: func(ctx context.Context, h Handlers, a map[string]string) (*Result, error) {
			return render(h.List(ctx, a["path"]))(renderList)
		},
		operations.OpMkdir: func(ctx context.Context, h Handlers, a map[string]string) (*Result, error) {
			return render(h.Mkdir(ctx, a["path"]))(renderMkdir)
		},
		operations.OpDelete: func(ctx context.Context, h Handlers, a map[string]string) (*Result, error) {
			return render(h.Delete(ctx, a["path"]))(renderDelete)
		},
		operations.OpStat: func(ctx context.Context, h Handlers, a map[string]string) (*Result, error) {
			return render(h.Stat(ctx, a["path"]))(renderStat)
		},
	}

	d := &Dispatcher{
		handlers: h,
		tools:    make([]Tool, len(toolTable)),
		byName:   make(map[string]*entry, 2*len(toolTable)),
		logger:   logger,
	}
	copy(d.tools, toolTable)
	for _, t := range d.tools {
		e := &entry{tool: t, run: runs[t.Operation]}
		d.byName[t.Name] = e
		d.byName[t.Operation] = e
	}
	return d
}

// render pairs a handler outcome with its text form. A nil outcome with a
// nil error is treated as a handler bug.
func render[T any](out *T, err error) func(func(*T) string) (*Result, error) {
	return func(text func(*T) string) (*Result, error) {
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, toolerr.New(toolerr.Internal, "", "", "handler returned no result")
		}
		return &Result{
			Content: []ContentBlock{{Type: "text", Text: text(out)}},
			Data:    out,
		}, nil
	}
}

// Tools returns the tool table in declaration order.
func (d *Dispatcher) Tools() []Tool {
	out := make([]Tool, len(d.tools))
	copy(out, d.tools)
	return out
}

// Lookup finds a tool by protocol name or operation alias.
func (d *Dispatcher) Lookup(name string) (Tool, bool) {
	e, ok := d.byName[name]
	if !ok {
		return Tool{}, false
	}
	return e.tool, true
}

// Dispatch validates args for the named tool, runs its handler and renders
// the outcome. Unknown names fail with UnknownOperation before anything else
// happens; missing or mistyped arguments fail with InvalidArgument before the
// handler runs.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (res *Result, err error) {
	e, ok := d.byName[name]
	if !ok {
		return nil, toolerr.Newf(toolerr.UnknownOperation, name, "", "unknown tool: %s", name)
	}
	op := e.tool.Operation

	values, verr := validation.ValidateArguments(args, e.tool.ParamNames())
	if verr != nil {
		return nil, toolerr.Wrap(toolerr.InvalidArgument, op, "", verr)
	}
	path := values["path"]

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Handler panicked", "tool", e.tool.Name, "panic", r, "stack", string(debug.Stack()))
			res = nil
			err = toolerr.New(toolerr.Internal, op, path, fmt.Sprintf("internal error: %v", r))
		}
	}()

	res, err = e.run(ctx, d.handlers, values)
	if err != nil {
		return nil, toolerr.Classify(op, path, err)
	}
	res.Tool = e.tool.Name
	return res, nil
}
