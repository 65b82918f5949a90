package interp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/neurodesk/condtag/pkg/condtag"
)

func parse(t *testing.T, src string) *Template {
	t.Helper()
	tpl, err := Parse("test", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	tpl.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return tpl
}

func TestTemplateRender(t *testing.T) {
	tests := []struct {
		name string
		src  string
		vars map[string]any
		want string
	}{
		{
			name: "variables",
			src:  "Hello ${name}, you are ${age + 1}!",
			vars: map[string]any{"name": "Ada", "age": 36},
			want: "Hello Ada, you are 37!",
		},
		{
			name: "if else",
			src:  "${_if(admin)}admin${_else}guest${_endif}",
			vars: map[string]any{"admin": false},
			want: "guest",
		},
		{
			name: "truthiness",
			src:  "${_if(items)}has items${_elseif(name)}named${_else}empty${_endif}",
			vars: map[string]any{"items": []any{}, "name": "x"},
			want: "named",
		},
		{
			name: "switch",
			src:  "${_switch(n)}${_case(1)}one${_case(2, 3)}few${_default}many${_endswitch}",
			vars: map[string]any{"n": 3},
			want: "few",
		},
		{
			name: "chained case",
			src:  "${_switch(lang)._case('go')}gopher${_case('py')}snake${_endswitch}",
			vars: map[string]any{"lang": "go"},
			want: "gopher",
		},
		{
			name: "switch on list",
			src:  "${_switch(xs)._case([1, 2])}pair${_default}other${_endswitch}",
			vars: map[string]any{"xs": []any{1, 2}},
			want: "pair",
		},
		{
			name: "always",
			src:  "${_if(False)}a${_always}b${_else}c${_endif}",
			want: "bc",
		},
		{
			name: "lines left by directives are removed",
			src:  "<ul>\n${_if(show)}\n  <li>x</li>\n${_endif}\n</ul>",
			vars: map[string]any{"show": true},
			want: "<ul>\n  <li>x</li>\n</ul>",
		},
		{
			name: "hidden block on its own lines",
			src:  "<ul>\n${_if(show)}\n  <li>x</li>\n${_endif}\n</ul>",
			vars: map[string]any{"show": false},
			want: "<ul>\n</ul>",
		},
		{
			name: "none renders empty",
			src:  "[${None}]",
			want: "[]",
		},
		{
			name: "starlark values use starlark syntax",
			src:  "${[1, 'a']} ${ {'k': True} }",
			want: `[1, "a"] {"k": True}`,
		},
		{
			name: "lambda is called",
			src:  "${lambda: name.upper()}",
			vars: map[string]any{"name": "ada"},
			want: "ADA",
		},
		{
			name: "lambda in hidden branch is never called",
			src:  "${_if(False)}${lambda: 1 // 0}${_endif}ok",
			want: "ok",
		},
		{
			name: "get_var",
			src:  "${get_var('missing', 'dflt')}/${get_var('present')}",
			vars: map[string]any{"present": "here"},
			want: "dflt/here",
		},
		{
			name: "nested vars",
			src:  "${cfg['db']['port']}",
			vars: map[string]any{"cfg": map[string]any{"db": map[string]any{"port": 5432}}},
			want: "5432",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parse(t, tt.src).Render(tt.vars)
			if err != nil {
				t.Fatalf("render error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTemplateRenderAsync(t *testing.T) {
	tpl := parse(t, "${lambda: a * 2}-${_if(flag)}${lambda: b}${_endif}-${lambda: 'c'}")
	got, err := tpl.RenderAsync(context.Background(), map[string]any{"a": 21, "b": "x", "flag": true})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got != "42-x-c" {
		t.Fatalf("got %q", got)
	}
}

func TestTemplateErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		vars    map[string]any
		wantIs  error
		wantMsg string
	}{
		{
			name:    "undefined variable",
			src:     "a\n  ${nope}",
			wantMsg: "test:2:5:",
		},
		{
			name:    "evaluation error",
			src:     "${1 // 0}",
			wantMsg: "division by zero",
		},
		{
			name:   "missing if",
			src:    "${_endif}",
			wantIs: condtag.ErrMissingIf,
		},
		{
			name:    "lambda error",
			src:     "${lambda: fail('boom')}",
			wantMsg: "boom",
		},
		{
			name:    "lambda returning directive",
			src:     "${lambda: _else}",
			wantMsg: "directives must appear directly",
		},
		{
			name:    "variable shadows builtin",
			src:     "x",
			vars:    map[string]any{"_if": 1},
			wantMsg: "shadows a builtin",
		},
		{
			name:    "unsupported variable",
			src:     "x",
			vars:    map[string]any{"ch": make(chan int)},
			wantMsg: "unsupported variable type",
		},
		{
			name:    "wrong arity",
			src:     "${_if()}",
			wantMsg: "_if",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.src).Render(tt.vars)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Fatalf("want %v, got %v", tt.wantIs, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := Check("ok", "a ${x + 1} ${_if(y)}b${_endif}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Check("bad", "line\n${x +}")
	var pe *PosError
	if !errors.As(err, &pe) {
		t.Fatalf("want *PosError, got %v", err)
	}
	if pe.Line != 2 || pe.Col != 3 {
		t.Fatalf("position %d:%d, want 2:3", pe.Line, pe.Col)
	}
	if err := Check("bad", "${"); !errors.Is(err, ErrUnterminatedPlaceholder) {
		t.Fatalf("want ErrUnterminatedPlaceholder, got %v", err)
	}
}

func TestTemplatePrintIsLogged(t *testing.T) {
	var buf bytes.Buffer
	tpl := parse(t, "${lambda: print('hi') or 'x'}")
	tpl.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	got, err := tpl.Render(nil)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got != "x" {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(buf.String(), "output=hi") {
		t.Fatalf("print not logged: %s", buf.String())
	}
}

func TestFragments(t *testing.T) {
	items, err := parse(t, "a${_if(True)}b${n}c").Fragments(map[string]any{"n": 2})
	if err != nil {
		t.Fatalf("fragments error: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("got %d items", len(items))
	}
	if d, ok := condtag.AsDirective(items[1]); !ok || d.Kind() != condtag.KindIf || !d.Cond() {
		t.Fatalf("items[1] = %v", items[1])
	}
	if items[3] != int64(2) {
		t.Fatalf("items[3] = %#v", items[3])
	}
}
