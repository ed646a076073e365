package plume

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/feather-lang/plume/core"
)

// asInt converts o to int64, shimmering if needed.
func asInt(o *Obj) (int64, error) {
	if o == nil {
		return 0, nil
	}
	if c, ok := o.intrep.(IntoInt); ok {
		if v, ok := c.IntoInt(); ok {
			return v, nil
		}
	}
	s := strings.TrimSpace(o.String())
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("expected integer but got %q", o.String())
	}
	o.intrep = IntType(v)
	return v, nil
}

// asDouble converts o to float64, shimmering if needed.
func asDouble(o *Obj) (float64, error) {
	if o == nil {
		return 0, nil
	}
	if c, ok := o.intrep.(IntoDouble); ok {
		if v, ok := c.IntoDouble(); ok {
			return v, nil
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(o.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("expected floating-point number but got %q", o.String())
	}
	o.intrep = DoubleType(v)
	return v, nil
}

// asBool converts o to a boolean using TCL boolean rules.
func asBool(o *Obj) (bool, error) {
	if o == nil {
		return false, nil
	}
	if c, ok := o.intrep.(IntoBool); ok {
		if v, ok := c.IntoBool(); ok {
			return v, nil
		}
	}
	if v, err := asInt(o); err == nil {
		return v != 0, nil
	}
	if v, err := asDouble(o); err == nil {
		return v != 0, nil
	}
	switch strings.ToLower(o.String()) {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("expected boolean but got %q", o.String())
}

// toTclString converts a Go value to a TCL string representation.
func toTclString(v any) string {
	if v == nil {
		return "{}"
	}
	switch val := v.(type) {
	case string:
		return quote(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case []string:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = quote(s)
		}
		return strings.Join(parts, " ")
	case *Obj:
		if val == nil {
			return "{}"
		}
		return quote(val.String())
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			parts := make([]string, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				parts[i] = toTclString(rv.Index(i).Interface())
			}
			return strings.Join(parts, " ")
		case reflect.Map:
			var parts []string
			iter := rv.MapRange()
			for iter.Next() {
				parts = append(parts, toTclString(iter.Key().Interface()))
				parts = append(parts, toTclString(iter.Value().Interface()))
			}
			return strings.Join(parts, " ")
		default:
			return quote(fmt.Sprintf("%v", v))
		}
	}
}

// quote adds braces around a string if it contains special characters.
func quote(s string) string {
	if s == "" {
		return "{}"
	}
	if strings.ContainsAny(s, " \t\n{}\"\\$[];") {
		return "{" + s + "}"
	}
	return s
}

// wrapFunc wraps a Go function as a core command with automatic argument
// conversion.
func wrapFunc(i *Interp, fn any) core.CommandFunc {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()

	if fnType.Kind() != reflect.Func {
		panic(fmt.Sprintf("Register: expected function, got %T", fn))
	}

	return func(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
		numIn := fnType.NumIn()
		isVariadic := fnType.IsVariadic()

		if isVariadic {
			if len(args) < numIn-1 {
				return in.Errorf("wrong # args: expected at least %d, got %d", numIn-1, len(args))
			}
		} else if len(args) != numIn {
			return in.Errorf("wrong # args: expected %d, got %d", numIn, len(args))
		}

		callArgs := make([]reflect.Value, len(args))
		for j := 0; j < len(args); j++ {
			var paramType reflect.Type
			if isVariadic && j >= numIn-1 {
				paramType = fnType.In(numIn - 1).Elem()
			} else {
				paramType = fnType.In(j)
			}
			converted, err := i.convertArg(args[j], paramType)
			if err != nil {
				return in.Errorf("argument %d: %v", j+1, err)
			}
			callArgs[j] = converted
		}

		results := fnVal.Call(callArgs)
		return i.processResults(in, results, fnType)
	}
}

// convertArg converts a value handle to a Go value of the target type.
func (i *Interp) convertArg(arg core.Obj, targetType reflect.Type) (reflect.Value, error) {
	o := i.objForHandle(arg)
	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(o.String()), nil

	case reflect.Int:
		v, err := o.Int()
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(int(v)), nil

	case reflect.Int64:
		v, err := o.Int()
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v), nil

	case reflect.Float64:
		v, err := o.Double()
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v), nil

	case reflect.Bool:
		v, err := o.Bool()
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v), nil

	case reflect.Slice:
		items, err := o.List()
		if err != nil {
			return reflect.Value{}, err
		}
		if targetType.Elem().Kind() == reflect.String {
			slice := make([]string, len(items))
			for j, item := range items {
				slice[j] = item.String()
			}
			return reflect.ValueOf(slice), nil
		}
		slice := reflect.MakeSlice(targetType, len(items), len(items))
		for j, item := range items {
			converted, err := i.convertObj(item, targetType.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %v", j, err)
			}
			slice.Index(j).Set(converted)
		}
		return slice, nil

	case reflect.Interface:
		if targetType.NumMethod() == 0 {
			return reflect.ValueOf(o.String()), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot convert to interface %v", targetType)

	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type: %v", targetType)
	}
}

// convertObj converts a *Obj to a Go value of the target type.
func (i *Interp) convertObj(o *Obj, targetType reflect.Type) (reflect.Value, error) {
	return i.convertArg(i.handleFor(o), targetType)
}

// processResults converts a function's return values into the result.
func (i *Interp) processResults(in *core.Interp, results []reflect.Value, fnType reflect.Type) core.Result {
	// A trailing error return fails the command.
	if fnType.NumOut() > 0 && fnType.Out(fnType.NumOut()-1).Implements(reflect.TypeOf((*error)(nil)).Elem()) {
		last := results[len(results)-1]
		if !last.IsNil() {
			return in.Errorf("%s", last.Interface().(error).Error())
		}
		results = results[:len(results)-1]
	}
	if len(results) == 0 {
		in.SetResultString("")
		return core.ResultOK
	}
	return i.convertResult(in, results[0])
}

// convertResult converts a Go return value into the interpreter result.
func (i *Interp) convertResult(in *core.Interp, result reflect.Value) core.Result {
	if !result.IsValid() {
		in.SetResultString("")
		return core.ResultOK
	}
	switch result.Kind() {
	case reflect.String:
		in.SetResultString(result.String())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		in.SetResult(i.handleFor(i.Int(result.Int())))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		in.SetResult(i.handleFor(i.Int(int64(result.Uint()))))

	case reflect.Float32, reflect.Float64:
		in.SetResult(i.handleFor(i.Double(result.Float())))

	case reflect.Bool:
		in.SetResult(i.handleFor(i.Bool(result.Bool())))

	case reflect.Slice, reflect.Array:
		items := make([]*Obj, result.Len())
		for j := 0; j < result.Len(); j++ {
			items[j] = i.anyToObj(result.Index(j).Interface())
		}
		in.SetResult(i.handleFor(i.List(items...)))

	case reflect.Map:
		d := &DictType{Items: make(map[string]*Obj)}
		iter := result.MapRange()
		for iter.Next() {
			d.Set(fmt.Sprintf("%v", iter.Key().Interface()), i.anyToObj(iter.Value().Interface()))
		}
		in.SetResult(i.handleFor(&Obj{intrep: d, interp: i}))

	case reflect.Ptr, reflect.Interface:
		if result.IsNil() {
			in.SetResultString("")
			return core.ResultOK
		}
		in.SetResultString(fmt.Sprintf("%v", result.Interface()))

	default:
		in.SetResultString(fmt.Sprintf("%v", result.Interface()))
	}
	return core.ResultOK
}
