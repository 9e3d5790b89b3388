package jsbridge

import (
	"github.com/dop251/goja"
)

// optString reads call's i-th argument as a string, defaulting to ""
// when the argument was not supplied — call.Argument(i).String() would
// otherwise render a missing argument as the literal string
// "undefined", which every optional-string parameter (a prefix, an
// empty-means-generate-an-id session name) must not see.
func optString(call goja.FunctionCall, i int) string {
	v := call.Argument(i)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

// fromJS converts a goja.Value into the map[string]any/[]any/JSON-like
// shape component.Input/Output and every global method already use —
// goja.Value.Export already does the structural conversion (JS object
// -> map[string]interface{}, array -> []interface{}, number -> int64 or
// float64), so fromJS only needs to guard against nil/undefined.
func fromJS(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

// namedInputFromJS converts a script-supplied object argument into the
// map[string]any every global method's input parameter expects.
func namedInputFromJS(v goja.Value) map[string]any {
	exported := fromJS(v)
	m, ok := exported.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// asFloat normalizes the handful of numeric shapes goja's Export can
// produce (int64 for integer literals, float64 for anything else) into
// a single float64, the shape every *FromMap converter reads.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// throw panics with a catchable JS exception carrying err's message,
// the goja idiom a native function uses to report failure (mirrored
// from the teacher's reference engine wrapping every failure as a Go
// error before it crosses back into the caller).
func throw(vm *goja.Runtime, err error) {
	panic(vm.NewGoError(err))
}
