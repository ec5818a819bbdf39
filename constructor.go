package ioc

import (
	"log/slog"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Constructor is a function that builds a service.
//
// The *Constructor pointer is the constructor's identity: dependencies are
// recorded against it with [Registry.RecordDependency] or [Registry.Constructor].
type Constructor struct {
	name string
	fn   reflect.Value
}

// NewConstructor wraps fn, which must be a function returning Service or (Service, error).
//
// Parameters are filled with explicit arguments first, then injected services.
// Variadic functions are supported; the trailing arguments become the variadic elements.
func NewConstructor(fn any) (*Constructor, error) {
	if fn == nil {
		return nil, errors.Wrap(ErrInvalidConstructor, "function is nil")
	}

	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return nil, errors.Wrapf(ErrInvalidConstructor, "%T is not a function", fn)
	}

	switch {
	case fnType.NumOut() == 1 && fnType.Out(0) != typeError:
	case fnType.NumOut() == 2 && fnType.Out(1) == typeError:
	default:
		return nil, errors.Wrapf(ErrInvalidConstructor, "%s: function must return Service or (Service, error)", fnType)
	}

	fnVal := reflect.ValueOf(fn)
	if fnVal.IsNil() {
		return nil, errors.Wrapf(ErrInvalidConstructor, "%s is nil", fnType)
	}

	return &Constructor{
		name: funcName(fnVal),
		fn:   fnVal,
	}, nil
}

// String returns the function name.
func (c *Constructor) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.name
}

// NumIn returns the number of declared parameters.
func (c *Constructor) NumIn() int {
	return c.fn.Type().NumIn()
}

// call invokes the function. Missing trailing parameters get zero values and
// surplus arguments of a non-variadic function are dropped.
func (c *Constructor) call(args []any) (any, error) {
	fnType := c.fn.Type()
	numIn := fnType.NumIn()
	variadic := fnType.IsVariadic()

	fixed := numIn
	if variadic {
		fixed = numIn - 1
	}

	if len(args) < fixed {
		args = append(slices.Clip(args), make([]any, fixed-len(args))...)
	} else if !variadic && len(args) > numIn {
		args = args[:numIn]
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var paramType reflect.Type
		if i < fixed {
			paramType = fnType.In(i)
		} else {
			paramType = fnType.In(numIn - 1).Elem()
		}

		val := safeReflectValue(paramType, arg)
		if !val.Type().AssignableTo(paramType) {
			return nil, errors.Errorf("argument %d: %s is not assignable to %s", i, val.Type(), paramType)
		}
		in[i] = val
	}

	out := c.fn.Call(in)

	val := out[0].Interface()

	var err error
	if len(out) == 2 {
		err, _ = out[1].Interface().(error)
	}

	return val, err
}

func funcName(fn reflect.Value) string {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return fn.Type().String()
	}

	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// LogValue implements [slog.LogValuer].
func (c *Constructor) LogValue() slog.Value {
	return slog.StringValue(c.String())
}
