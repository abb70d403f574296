package statemachine

import (
	"context"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
)

// Handler implements one action for one state. It receives the machine it
// was dispatched from, followed by the arguments given to Invoke.
type Handler func(ctx context.Context, m *Machine, args ...any) (any, error)

// Delegate is the object bound to a state. It may handle any subset of the
// machine's actions; an action it does not handle is ignored on dispatch.
type Delegate interface {
	Handler(action string) (Handler, bool)
}

// Handlers is a Delegate backed by a map from action name to handler.
type Handlers map[string]Handler

func (h Handlers) Handler(action string) (Handler, bool) {
	fn, ok := h[action]

	return fn, ok && fn != nil
}

// Empty is a Delegate that handles nothing.
var Empty Delegate = Handlers{} //nolint:gochecknoglobals

type methodDelegate struct {
	target   any
	handlers map[string]Handler
}

func (d *methodDelegate) Handler(action string) (Handler, bool) {
	fn, ok := d.handlers[methodKey(action)]

	return fn, ok
}

// Unwrap returns the value FromMethods was built from.
func (d *methodDelegate) Unwrap() any {
	return d.target
}

var handlerType = reflect.TypeFor[func(context.Context, *Machine, ...any) (any, error)]() //nolint:gochecknoglobals

// FromMethods adapts a value whose exported methods are handlers. A method
// handles an action when its name matches the action name ignoring case,
// '_' and '-' (so Pass handles "pass" and TurnOn handles "turn_on"), and
// its signature is that of a Handler. Other methods are ignored. A value
// that already implements Delegate is returned unchanged.
func FromMethods(v any) Delegate {
	if d, ok := v.(Delegate); ok {
		return d
	}

	delegate := &methodDelegate{
		target:   v,
		handlers: make(map[string]Handler),
	}

	if v == nil {
		return delegate
	}

	val := reflect.ValueOf(v)
	typ := val.Type()

	for i := range typ.NumMethod() {
		method := typ.Method(i)
		if !method.IsExported() {
			continue
		}

		bound := val.Method(i)
		if bound.Type() != handlerType {
			continue
		}

		fn, ok := bound.Interface().(func(context.Context, *Machine, ...any) (any, error))
		if !ok {
			continue
		}

		delegate.handlers[methodKey(method.Name)] = fn
	}

	return delegate
}

var foldCase = cases.Fold() //nolint:gochecknoglobals

func methodKey(name string) string {
	name = strings.NewReplacer("_", "", "-", "").Replace(name)

	return foldCase.String(name)
}
