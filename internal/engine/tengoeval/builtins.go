package tengoeval

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
)

// addBuiltinFunctions injects print and println. Both stream through the
// callbacks of the running Eval.
func (e *Engine) addBuiltinFunctions(script *tengo.Script) {
	_ = script.Add("println", &tengo.UserFunction{
		Name: "println",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			e.cb.EmitPrint(joinObjects(args) + "\n")
			return tengo.UndefinedValue, nil
		},
	})

	_ = script.Add("print", &tengo.UserFunction{
		Name: "print",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			e.cb.EmitPrint(joinObjects(args))
			return tengo.UndefinedValue, nil
		},
	})
}

func joinObjects(args []tengo.Object) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(objectToString(arg))
	}
	return b.String()
}

// objectToString converts a Tengo object to its printed form.
func objectToString(obj tengo.Object) string {
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return fmt.Sprintf("%d", v.Value)
	case *tengo.Float:
		return fmt.Sprintf("%g", v.Value)
	case *tengo.Bool:
		if !v.IsFalsy() {
			return "true"
		}
		return "false"
	case *tengo.Undefined:
		return "undefined"
	default:
		return obj.String()
	}
}

// maxCarryDepth bounds the walk over nested containers.
const maxCarryDepth = 32

// holdsCompiledCode reports whether obj is or contains a compiled
// function. Those refer to the constants of the program that created them
// and cannot be carried into another compilation.
func holdsCompiledCode(obj tengo.Object, depth int) bool {
	if depth > maxCarryDepth {
		return true
	}
	switch v := obj.(type) {
	case *tengo.CompiledFunction:
		return true
	case *tengo.Array:
		return anyCompiled(v.Value, depth)
	case *tengo.ImmutableArray:
		return anyCompiled(v.Value, depth)
	case *tengo.Map:
		for _, item := range v.Value {
			if holdsCompiledCode(item, depth+1) {
				return true
			}
		}
	case *tengo.ImmutableMap:
		for _, item := range v.Value {
			if holdsCompiledCode(item, depth+1) {
				return true
			}
		}
	}
	return false
}

func anyCompiled(objs []tengo.Object, depth int) bool {
	for _, o := range objs {
		if holdsCompiledCode(o, depth+1) {
			return true
		}
	}
	return false
}
