package luabridge

import (
	lua "github.com/yuin/gopher-lua"
)

// toLua converts a Go value (string, bool, any numeric type, nil,
// map[string]any, []any, or nested combinations thereof — the same
// shape component.Input/Output and JSON produce) into the matching Lua
// value, the ↔ half of spec.md 4.7's "native associative tables ↔
// JSON-like maps" / "native arrays ↔ ordered lists" requirement.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case string:
		return lua.LString(val)
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case map[string]any:
		t := L.NewTable()
		for k, v := range val {
			t.RawSetString(k, toLua(L, v))
		}
		return t
	case []any:
		t := L.NewTable()
		for i, v := range val {
			t.RawSetInt(i+1, toLua(L, v))
		}
		return t
	case []string:
		t := L.NewTable()
		for i, v := range val {
			t.RawSetInt(i+1, lua.LString(v))
		}
		return t
	case map[string]string:
		t := L.NewTable()
		for k, v := range val {
			t.RawSetString(k, lua.LString(v))
		}
		return t
	default:
		// Falls back to a string rendering rather than silently
		// dropping unrecognized Go types (e.g. a struct returned
		// directly by a global method).
		return lua.LString(toDisplayString(val))
	}
}

// fromLua is toLua's inverse, used when a script passes a table/value
// into a global method.
func fromLua(v lua.LValue) any {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case *lua.LTable:
		return fromLuaTable(val)
	default:
		return v.String()
	}
}

// fromLuaTable distinguishes an array-shaped table (contiguous integer
// keys from 1) from a map-shaped one, since Lua uses the same table
// type for both and component.Input.Ordered/Named need to tell them
// apart.
func fromLuaTable(t *lua.LTable) any {
	n := t.Len()
	if n > 0 && n == countKeys(t) {
		out := make([]any, n)
		for i := 1; i <= n; i++ {
			out[i-1] = fromLua(t.RawGetInt(i))
		}
		return out
	}
	out := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		out[k.String()] = fromLua(v)
	})
	return out
}

func countKeys(t *lua.LTable) int {
	n := 0
	t.ForEach(func(lua.LValue, lua.LValue) { n++ })
	return n
}

func toDisplayString(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	if e, ok := v.(error); ok {
		return e.Error()
	}
	return "<go value>"
}

// namedInputFromTable converts a Lua table argument into the
// map[string]any every global method's input parameter expects.
func namedInputFromTable(t *lua.LTable) map[string]any {
	if t == nil {
		return nil
	}
	v, ok := fromLuaTable(t).(map[string]any)
	if !ok {
		return nil
	}
	return v
}

// pushResultOrError pushes a converted result, then an error string (or
// nil), following the Lua convention of trailing-error returns so
// scripts write `local v, err = tool.invoke(...)`.
func pushResultOrError(L *lua.LState, result any, err error) int {
	L.Push(toLua(L, result))
	if err != nil {
		L.Push(lua.LString(err.Error()))
	} else {
		L.Push(lua.LNil)
	}
	return 2
}
