package fieldval

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/robertkrimen/otto"
)

// TypeMapper declares the signature of the function to add a custom
// type mapping.  The string returned is a JavaScript fragment that
// creates an object somewhat equivalent to the Go value, such as the
// built in mapping of time.Time to a js Date:
//
//	new Date(1500000000000)
//
// This can be done for any type, using an exemplar of the type as the
// incoming interface{} parameter.
type TypeMapper func(interface{}) string

// TimeMapper is the default mapper from time.Time -> js Date.
var TimeMapper = func(i interface{}) string {
	t := i.(time.Time)
	ms := t.UnixNano() / 1000000 // need ms for js
	return fmt.Sprintf("new Date(%d)", ms)
}

// The Evaluator builds validators out of JavaScript functions and
// regular expressions.  Script validators share a single otto VM,
// which is not safe for concurrent use, so every call into it is
// serialized.  Compiled functions and patterns are memoized by source.
type Evaluator struct {
	mu      sync.Mutex
	vm      *otto.Otto
	scripts map[string]otto.Value
	regexps map[string]*regexp.Regexp
	mapping map[reflect.Type]internalTypeMapper
}

// The internalTypeMapper takes an instance of a function of the public
// type TypeMapper, and does the final step of creating an otto.Object
// that represents the JavaScript instantiation code in the input function.
type internalTypeMapper func(interface{}) (*otto.Object, error)

// NewEvaluator returns an evaluator with the time.Time mapping installed.
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		vm:      otto.New(),
		scripts: make(map[string]otto.Value),
		regexps: make(map[string]*regexp.Regexp),
		mapping: make(map[reflect.Type]internalTypeMapper),
	}
	e.AddTypeMapping(reflect.TypeOf(time.Time{}), TimeMapper)
	return e
}

// AddTypeMapping declares how values of type t are presented to
// scripts.  The mapping function is explained in the TypeMapper type
// declaration (above).
func (e *Evaluator) AddTypeMapping(t reflect.Type, f TypeMapper) {
	tmf := func(i interface{}) (*otto.Object, error) {
		obj, err := e.vm.Object(f(i))
		if err != nil {
			return nil, fmt.Errorf(
				"custom object creation error for %v: %s",
				reflect.TypeOf(i), err)
		}
		return obj, nil
	}
	e.mu.Lock()
	e.mapping[t] = tmf
	e.mu.Unlock()
}

// Script compiles source, a JavaScript function expression taking the
// value and returning an object of the form {isValid, errorMessage}.
// The function runs with this bound to the supplied receiver (which
// may be nil).  A bare boolean return is accepted as isValid.
//
//	function (value) {
//	  if (!value || value.length < 5)
//	    return {isValid: false, errorMessage: 'Password must be of 5 character'};
//	  return {isValid: true};
//	}
//
// A script that throws, or returns something else, yields an invalid
// Result carrying the problem as its message.
func (e *Evaluator) Script(source string, this interface{}) (Validator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, ok := e.scripts[source]
	if !ok {
		var err error
		fn, err = e.vm.Run("(" + source + ")")
		if err != nil {
			return nil, fmt.Errorf("compile script: %w", err)
		}
		if !fn.IsFunction() {
			return nil, fmt.Errorf("script does not evaluate to a function")
		}
		e.scripts[source] = fn
	}

	var recv otto.Value
	if this == nil {
		recv = otto.NullValue()
	} else {
		v, err := e.vm.ToValue(this)
		if err != nil {
			return nil, fmt.Errorf("script receiver: %w", err)
		}
		recv = v
	}

	return ValidatorFunc(func(value any) Result {
		return e.call(fn, recv, value)
	}), nil
}

func (e *Evaluator) call(fn, recv otto.Value, value any) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	arg := interface{}(value)
	if f, ok := e.mapping[reflect.TypeOf(value)]; ok {
		obj, err := f(value)
		if err != nil {
			return Invalid(err.Error())
		}
		arg = obj
	}

	out, err := fn.Call(recv, arg)
	if err != nil {
		return Invalid(err.Error())
	}
	return toResult(out)
}

// toResult reads {isValid, errorMessage} from a script's return value.
func toResult(v otto.Value) Result {
	if v.IsBoolean() {
		b, _ := v.ToBoolean()
		return Result{IsValid: b}
	}
	if !v.IsObject() {
		return Invalid(fmt.Sprintf("validator returned %q, object expected", v.String()))
	}

	obj := v.Object()
	var r Result
	if iv, err := obj.Get("isValid"); err == nil {
		r.IsValid, _ = iv.ToBoolean()
	}
	if msg, err := obj.Get("errorMessage"); err == nil && msg.IsDefined() && !msg.IsNull() {
		r.ErrorMessage, _ = msg.ToString()
	}
	return r
}

// Pattern returns a validator that passes when the string form of the
// value matches expr, and fails with message otherwise.  A nil value
// is matched as the empty string.
func (e *Evaluator) Pattern(expr, message string) (Validator, error) {
	e.mu.Lock()
	rexp, ok := e.regexps[expr]
	if !ok {
		var err error
		rexp, err = regexp.Compile(expr)
		if err != nil {
			e.mu.Unlock()
			return nil, fmt.Errorf("compile pattern: %w", err)
		}
		e.regexps[expr] = rexp
	}
	e.mu.Unlock()

	return ValidatorFunc(func(value any) Result {
		if rexp.MatchString(iToStr(value)) {
			return Valid()
		}
		return Invalid(message)
	}), nil
}

// For regexps, use a reasonable string value if we can determine one
// for the type, otherwise use the default "fmt" string conversion.
func iToStr(i interface{}) string {
	switch v := i.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(i).Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(i).Uint(), 10)
	default:
		return fmt.Sprint(i)
	}
}
