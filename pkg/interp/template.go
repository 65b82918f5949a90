// Package interp renders condtag templates written as text with ${ expr }
// placeholders. Expressions are Starlark; the directive vocabulary (_if,
// _else, _switch, ...) is predeclared, and zero-argument lambdas become
// deferred fragments.
package interp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neurodesk/condtag/pkg/condtag"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var fileOptions = &syntax.FileOptions{Set: true}

// Template is a parsed template. It is immutable and safe for concurrent
// use.
type Template struct {
	Name   string
	Logger *slog.Logger

	texts []string
	exprs []Expr
}

// Parse lexes src and checks the syntax of every placeholder expression.
func Parse(name, src string) (*Template, error) {
	l := newLexer(name, src)
	if err := l.lex(); err != nil {
		return nil, err
	}
	for _, e := range l.exprs {
		if _, err := fileOptions.ParseExpr(name, e.program(), 0); err != nil {
			return nil, &PosError{Name: name, Line: e.Line, Col: e.Col, Err: err}
		}
	}
	return &Template{Name: name, texts: l.texts, exprs: l.exprs}, nil
}

// Check reports the first lexical or syntax error in src.
func Check(name, src string) error {
	_, err := Parse(name, src)
	return err
}

// Texts returns the literal text around the placeholders. There is always
// one more text than there are expressions.
func (t *Template) Texts() []string { return t.texts }

// Exprs returns the placeholder expressions in source order.
func (t *Template) Exprs() []Expr { return t.exprs }

func (t *Template) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

// Fragments evaluates every placeholder against vars and returns the
// interleaved fragment sequence.
func (t *Template) Fragments(vars map[string]any) ([]any, error) {
	r, err := t.newRun(vars)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(t.exprs))
	thread := r.thread("placeholders")
	for i, e := range t.exprs {
		v, err := starlark.EvalOptions(fileOptions, thread, t.Name, e.program(), r.globals)
		if err != nil {
			return nil, &PosError{Name: t.Name, Line: e.Line, Col: e.Col, Err: err}
		}
		values[i] = r.fragment(v)
	}
	return condtag.Interleave(t.texts, values), nil
}

// Render evaluates the template and renders it synchronously.
func (t *Template) Render(vars map[string]any) (string, error) {
	items, err := t.Fragments(vars)
	if err != nil {
		return "", err
	}
	out, err := condtag.NewRenderer(t.logger()).Render(items...)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", t.Name, err)
	}
	return out, nil
}

// RenderAsync is like Render but runs the surviving lambdas concurrently.
func (t *Template) RenderAsync(ctx context.Context, vars map[string]any) (string, error) {
	items, err := t.Fragments(vars)
	if err != nil {
		return "", err
	}
	out, err := condtag.NewRenderer(t.logger()).RenderAsync(ctx, items...)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", t.Name, err)
	}
	return out, nil
}

// run is the evaluation state of one render: the frozen globals shared by
// every placeholder and lambda.
type run struct {
	name    string
	log     *slog.Logger
	globals starlark.StringDict
}

func (t *Template) newRun(vars map[string]any) (*run, error) {
	user := make(starlark.StringDict, len(vars))
	for k, v := range vars {
		sv, err := toStarlark(v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", k, err)
		}
		user[k] = sv
	}

	globals := builtins(user)
	for k, v := range user {
		if _, reserved := globals[k]; reserved {
			return nil, fmt.Errorf("variable %q shadows a builtin", k)
		}
		globals[k] = v
	}
	globals.Freeze()
	return &run{name: t.Name, log: t.logger(), globals: globals}, nil
}

// thread returns a new Starlark thread; threads are not safe for
// concurrent use, so every lambda call gets its own.
func (r *run) thread(purpose string) *starlark.Thread {
	return &starlark.Thread{
		Name: r.name + ":" + purpose,
		Print: func(_ *starlark.Thread, msg string) {
			r.log.Info("template print", "template", r.name, "output", msg)
		},
	}
}
