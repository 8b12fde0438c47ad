package fieldval

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passwordScript = `function (value) {
  if (!value || value.length < 5)
    return {isValid: false, errorMessage: 'Password must be of 5 character'};
  return {isValid: true};
}`

func TestScriptValidator(t *testing.T) {
	e := NewEvaluator()
	v, err := e.Script(passwordScript, nil)
	require.NoError(t, err)

	assert.Equal(t, Invalid("Password must be of 5 character"), v.Validate("pass"))
	assert.Equal(t, Valid(), v.Validate("passw"))
	assert.Equal(t, Invalid("Password must be of 5 character"), v.Validate(nil))
}

func TestScriptReceiver(t *testing.T) {
	e := NewEvaluator()
	v, err := e.Script(`function (value) {
  return {isValid: value.length >= this.min, errorMessage: this.message};
}`, map[string]interface{}{"min": 3, "message": "Too short"})
	require.NoError(t, err)

	assert.Equal(t, Invalid("Too short"), v.Validate("ab"))
	assert.Equal(t, Result{IsValid: true, ErrorMessage: "Too short"}, v.Validate("abc"))
}

func TestScriptBooleanReturn(t *testing.T) {
	e := NewEvaluator()
	v, err := e.Script(`function (value) { return value > 5; }`, nil)
	require.NoError(t, err)
	assert.True(t, v.Validate(7).IsValid)
	assert.False(t, v.Validate(2).IsValid)
}

func TestScriptFailures(t *testing.T) {
	e := NewEvaluator()

	_, err := e.Script(`function (value) {`, nil)
	assert.Error(t, err)

	_, err = e.Script(`42`, nil)
	assert.EqualError(t, err, "script does not evaluate to a function")

	v, err := e.Script(`function (value) { throw new Error('kaput'); }`, nil)
	require.NoError(t, err)
	r := v.Validate("x")
	assert.False(t, r.IsValid)
	assert.Contains(t, r.ErrorMessage, "kaput")

	v, err = e.Script(`function (value) { return 'yes'; }`, nil)
	require.NoError(t, err)
	r = v.Validate("x")
	assert.False(t, r.IsValid)
	assert.Contains(t, r.ErrorMessage, "object expected")
}

func TestScriptTimeMapping(t *testing.T) {
	e := NewEvaluator()
	v, err := e.Script(`function (value) {
  return {isValid: value.getFullYear() >= 2000, errorMessage: 'Too old'};
}`, nil)
	require.NoError(t, err)

	assert.True(t, v.Validate(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)).IsValid)
	assert.False(t, v.Validate(time.Date(1999, 5, 1, 0, 0, 0, 0, time.UTC)).IsValid)
}

type span struct {
	lo, hi int
}

func TestScriptCustomTypeMapping(t *testing.T) {
	e := NewEvaluator()
	e.AddTypeMapping(reflect.TypeOf(span{}), func(i interface{}) string {
		s := i.(span)
		return fmt.Sprintf("new Object({lo: %d, hi: %d})", s.lo, s.hi)
	})
	v, err := e.Script(`function (value) { return value.lo < value.hi; }`, nil)
	require.NoError(t, err)

	assert.True(t, v.Validate(span{1, 2}).IsValid)
	assert.False(t, v.Validate(span{3, 2}).IsValid)
}

func TestScriptMatchesAdapter(t *testing.T) {
	e := NewEvaluator()
	v, err := e.Script(passwordScript, nil)
	require.NoError(t, err)

	reg := NewRegistry()
	reg.MustRegister("password", v)

	errs := NewErrorMap()
	adapter := syncAdapter("password", reg.Get("password").Sync, errs)
	adapter(nil, "pass", Dirty)

	got, _ := errs.Get("password")
	assert.Equal(t, reg.Get("password").Sync.Validate("pass"), got)
}

type zipCode string

func (z zipCode) String() string { return strings.ToUpper(string(z)) }

func TestPatternValidator(t *testing.T) {
	e := NewEvaluator()
	v, err := e.Pattern(`^[0-9]{5}$`, "Zip code must be 5 digits")
	require.NoError(t, err)

	tests := []struct {
		value interface{}
		valid bool
	}{
		{"78701", true},
		{"7870", false},
		{78701, true},
		{uint16(12345), true},
		{nil, false},
		{true, false},
	}
	for _, tt := range tests {
		r := v.Validate(tt.value)
		if r.IsValid != tt.valid {
			t.Fatalf("value %v: got %v, want valid=%t", tt.value, r, tt.valid)
		}
		if !r.IsValid && r.ErrorMessage != "Zip code must be 5 digits" {
			t.Fatalf("unexpected message: %q", r.ErrorMessage)
		}
	}

	upper, err := e.Pattern(`^[A-Z]+$`, "upper")
	require.NoError(t, err)
	assert.True(t, upper.Validate(zipCode("abc")).IsValid)

	_, err = e.Pattern(`(`, "broken")
	assert.Error(t, err)
}
