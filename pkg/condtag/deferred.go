package condtag

import (
	"context"
	"fmt"
	"reflect"

	"golang.org/x/sync/errgroup"
)

// Promise is a value that is still being computed. Deferred fragments may
// return one; RenderAsync awaits it, Render rejects it.
type Promise interface {
	Await(ctx context.Context) (any, error)
}

type future struct {
	done chan struct{}
	val  any
	err  error
}

// NewPromise runs fn on its own goroutine and returns a Promise for its
// result.
func NewPromise(ctx context.Context, fn func(context.Context) (any, error)) Promise {
	f := &future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("promise: panic recovered: %v", r)
			}
		}()
		f.val, f.err = fn(ctx)
	}()
	return f
}

func (f *future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// deferred wraps a callable fragment that survived filtering. It is only
// invoked after the whole sequence has been filtered.
type deferred struct {
	index int
	fn    func(context.Context) (any, error)
}

var errorType = reflect.TypeFor[error]()

// asDeferred recognizes zero-argument callables. Common signatures are
// matched directly and the rest go through reflectDeferred.
func asDeferred(index int, v any) (deferred, bool) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Func && rv.IsNil() {
		return deferred{}, false
	}
	var fn func(context.Context) (any, error)
	switch t := v.(type) {
	case func() any:
		fn = func(context.Context) (any, error) { return t(), nil }
	case func() string:
		fn = func(context.Context) (any, error) { return t(), nil }
	case func() (any, error):
		fn = func(context.Context) (any, error) { return t() }
	case func() (string, error):
		fn = func(context.Context) (any, error) { return t() }
	case func() Promise:
		fn = func(context.Context) (any, error) { return t(), nil }
	case func(context.Context) (any, error):
		fn = t
	default:
		if fn = reflectDeferred(v); fn == nil {
			return deferred{}, false
		}
	}
	return deferred{index: index, fn: fn}, true
}

// reflectDeferred adapts func(), func() T, func() error and func() (T, E)
// where E implements error. It returns nil for anything else.
func reflectDeferred(v any) func(context.Context) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return nil
	}
	t := rv.Type()
	if t.NumIn() != 0 {
		return nil
	}
	switch {
	case t.NumOut() == 0:
		return func(context.Context) (any, error) {
			rv.Call(nil)
			return nil, nil
		}
	case t.NumOut() == 1 && t.Out(0) == errorType:
		return func(context.Context) (any, error) {
			return nil, asError(rv.Call(nil)[0])
		}
	case t.NumOut() == 1:
		return func(context.Context) (any, error) {
			return rv.Call(nil)[0].Interface(), nil
		}
	case t.NumOut() == 2 && t.Out(1).Implements(errorType):
		return func(context.Context) (any, error) {
			out := rv.Call(nil)
			if err := asError(out[1]); err != nil {
				return nil, err
			}
			return out[0].Interface(), nil
		}
	}
	return nil
}

// asError treats a nil interface or nil pointer result as no error.
func asError(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	err, _ := v.Interface().(error)
	return err
}

func (d deferred) call(ctx context.Context) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			val, err = nil, recoverError(d.index, r)
		}
	}()
	val, err = d.fn(ctx)
	if err != nil {
		return nil, fmt.Errorf("fragment %d: %w", d.index, err)
	}
	return val, nil
}

// resolveSync invokes deferred fragments in order.
func resolveSync(items []any) ([]string, error) {
	out := make([]string, len(items))
	for i, item := range items {
		d, ok := item.(deferred)
		if !ok {
			out[i] = stringify(item)
			continue
		}
		v, err := d.call(context.Background())
		if err != nil {
			return nil, err
		}
		if _, pending := v.(Promise); pending {
			return nil, fmt.Errorf("fragment %d: %w (maybe there is an async function in an expression? use RenderAsync)", d.index, ErrPendingAsync)
		}
		out[i] = stringify(v)
	}
	return out, nil
}

// resolveAsync invokes all deferred fragments concurrently and awaits any
// promises they return. The first failure cancels the rest.
func resolveAsync(ctx context.Context, items []any) ([]string, error) {
	out := make([]string, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		d, ok := item.(deferred)
		if !ok {
			out[i] = stringify(item)
			continue
		}
		g.Go(func() error {
			v, err := d.call(gctx)
			if err != nil {
				return err
			}
			if p, ok := v.(Promise); ok {
				if v, err = p.Await(gctx); err != nil {
					return fmt.Errorf("fragment %d: %w", d.index, err)
				}
			}
			out[i] = stringify(v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
