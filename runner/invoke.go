package runner

import (
	"reflect"

	"github.com/flamesh/flame"
)

// resolveTarget locates the callable named req.Method on execObj, or
// execObj itself when req.Method is empty (§4.6 step 3). Returns
// CodeInvalidArgument when the target does not exist or is not callable.
func resolveTarget(execObj any, method string) (reflect.Value, *flame.Error) {
	v := reflect.ValueOf(execObj)
	if method == "" {
		if v.Kind() != reflect.Func {
			return reflect.Value{}, flame.Errorf(flame.CodeInvalidArgument, "execution object is not callable")
		}
		return v, nil
	}
	m := v.MethodByName(method)
	if !m.IsValid() {
		return reflect.Value{}, flame.Errorf(flame.CodeInvalidArgument, "method %q not found on execution object", method)
	}
	return m, nil
}

// callMethod invokes target with args positionally, returning the single
// logical result value. Methods may additionally return a trailing error,
// which callMethod returns unchanged as its error; the generic runner
// Service wraps it as an internal error (mirroring how the instance harness
// turns user-code exceptions into failed tasks, §4.4).
func callMethod(target reflect.Value, args []any) (any, error) {
	fnType := target.Type()
	if fnType.NumIn() != len(args) && !fnType.IsVariadic() {
		return nil, flame.Errorf(flame.CodeInvalidArgument, "method expects %d arguments, got %d", fnType.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		in[i] = argValue(a, fnType, i)
	}

	out := target.Call(in)
	return splitResult(out)
}

// argValue converts a decoded argument to the reflect.Value a method
// parameter expects, falling back to the argument's natural type when the
// method is variadic or the parameter index is out of range.
func argValue(a any, fnType reflect.Type, i int) reflect.Value {
	if a == nil {
		if i < fnType.NumIn() {
			return reflect.Zero(fnType.In(i))
		}
		return reflect.ValueOf(a)
	}
	v := reflect.ValueOf(a)
	if i >= fnType.NumIn() {
		return v
	}
	want := fnType.In(i)
	if v.Type().ConvertibleTo(want) {
		return v.Convert(want)
	}
	return v
}

// splitResult normalizes a reflect.Call result into (value, error): zero
// results yield (nil, nil); one result that is an error yields (nil, err);
// one plain result yields (result, nil); two results are treated as
// (value, error) in that order, the convention Go methods use.
func splitResult(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if err, ok := out[0].Interface().(error); ok {
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		var err error
		if e, ok := out[len(out)-1].Interface().(error); ok {
			err = e
		}
		if err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	}
}
