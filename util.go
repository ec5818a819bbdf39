package ioc

import (
	"reflect"

	"github.com/sectrean/ioc-kit/internal/errors"
)

var typeError = reflect.TypeFor[error]()

func safeReflectValue(t reflect.Type, val any) reflect.Value {
	if val == nil {
		return reflect.Zero(t)
	}

	return reflect.ValueOf(val)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// fitArgs pads args with nils or truncates it to exactly n elements.
func fitArgs(args []any, n int) []any {
	if len(args) >= n {
		return args[:n:n]
	}

	fitted := make([]any, n)
	copy(fitted, args)
	return fitted
}

// Apply functional options and join any errors together.
func applyOptions[O any](opts []O, f func(O) error) error {
	var errs errors.MultiError

	for _, o := range opts {
		errs = errs.Append(f(o))
	}

	return errs.Join()
}
