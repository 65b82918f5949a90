package interp

import (
	"context"
	"fmt"
	"sort"

	"go.starlark.net/starlark"
)

// toStarlark converts a Go value, as decoded from YAML or given on the
// command line, to a Starlark value.
func toStarlark(v any) (starlark.Value, error) {
	switch t := v.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return t, nil
	case string:
		return starlark.String(t), nil
	case bool:
		return starlark.Bool(t), nil
	case int:
		return starlark.MakeInt(t), nil
	case int64:
		return starlark.MakeInt64(t), nil
	case uint64:
		return starlark.MakeUint64(t), nil
	case float64:
		return starlark.Float(t), nil
	case []string:
		items := make([]starlark.Value, len(t))
		for i, s := range t {
			items[i] = starlark.String(s)
		}
		return starlark.NewList(items), nil
	case []any:
		items := make([]starlark.Value, len(t))
		for i, item := range t {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = sv
		}
		return starlark.NewList(items), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dict := starlark.NewDict(len(t))
		for _, k := range keys {
			sv, err := toStarlark(t[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported variable type %T", v)
	}
}

// toGo converts a Starlark value to plain Go data so that switch and case
// values compare structurally.
func toGo(v starlark.Value) any {
	switch t := v.(type) {
	case nil, starlark.NoneType:
		return nil
	case starlark.String:
		return string(t)
	case starlark.Bool:
		return bool(t)
	case starlark.Int:
		if i, ok := t.Int64(); ok {
			return i
		}
		return t.String()
	case starlark.Float:
		return float64(t)
	case *starlark.List:
		out := make([]any, t.Len())
		for i := range out {
			out[i] = toGo(t.Index(i))
		}
		return out
	case starlark.Tuple:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = toGo(item)
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, t.Len())
		for _, item := range t.Items() {
			key := item[0].String()
			if s, ok := item[0].(starlark.String); ok {
				key = string(s)
			}
			out[key] = toGo(item[1])
		}
		return out
	default:
		return v.String()
	}
}

// fragment converts the result of a placeholder into a value for the
// fragment sequence. Directives and deferred lambdas keep their meaning;
// scalars become Go values; anything else renders through its Starlark
// String method.
func (r *run) fragment(v starlark.Value) any {
	switch t := v.(type) {
	case *directiveValue:
		return t.d
	case *starlark.Function:
		if isDeferrable(t) {
			return r.deferred(t)
		}
		return t.String()
	case starlark.NoneType:
		return nil
	case starlark.String:
		return string(t)
	case starlark.Bool, starlark.Int, starlark.Float:
		return toGo(t)
	default:
		return v
	}
}

// isDeferrable reports whether fn is an anonymous function without
// parameters. Named functions are rendered, not called.
func isDeferrable(fn *starlark.Function) bool {
	return fn.Name() == "lambda" && fn.NumParams() == 0 && !fn.HasVarargs() && !fn.HasKwargs()
}

// deferred wraps a lambda so that the renderer can call it once it knows
// the lambda's fragment survives filtering. Each call gets its own thread.
func (r *run) deferred(fn *starlark.Function) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		thread := r.thread("lambda")
		stop := context.AfterFunc(ctx, func() { thread.Cancel(context.Cause(ctx).Error()) })
		defer stop()

		v, err := starlark.Call(thread, fn, nil, nil)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(*directiveValue); ok {
			return nil, fmt.Errorf("lambda returned directive %s; directives must appear directly in a placeholder", v)
		}
		if s, ok := v.(starlark.String); ok {
			return string(s), nil
		}
		if v == starlark.None {
			return nil, nil
		}
		return v.String(), nil
	}
}
