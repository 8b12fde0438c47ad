package fieldval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Definition declares a validator in a YAML document, either as a
// JavaScript function or as a regular expression:
//
//	validators:
//	  - name: password
//	    script: |
//	      function (value) {
//	        if (!value || value.length < 5)
//	          return {isValid: false, errorMessage: 'Password must be of 5 character'};
//	        return {isValid: true};
//	      }
//	  - name: zip
//	    pattern: '^[0-9]{5}$'
//	    message: Zip code must be 5 digits
//	    async: true
type Definition struct {
	Name     string         `yaml:"name"`
	Script   string         `yaml:"script,omitempty"`
	Pattern  string         `yaml:"pattern,omitempty"`
	Message  string         `yaml:"message,omitempty"`
	Context  map[string]any `yaml:"context,omitempty"`
	Async    bool           `yaml:"async,omitempty"`
	Override bool           `yaml:"override,omitempty"`
}

type definitionsDoc struct {
	Validators []Definition `yaml:"validators"`
}

// LoadDefinitions decodes a definitions document.  Each entry needs a
// name and exactly one of script and pattern.
func LoadDefinitions(r io.Reader) ([]Definition, error) {
	var doc definitionsDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode definitions: %w", err)
	}

	for i, d := range doc.Validators {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("definition %d: name is required", i)
		}
		if (d.Script == "") == (d.Pattern == "") {
			return nil, fmt.Errorf("definition %q: exactly one of script or pattern is required", d.Name)
		}
	}
	return doc.Validators, nil
}

// LoadDefinitionsFile reads definitions from the named file.
func LoadDefinitionsFile(path string) ([]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadDefinitions(f)
}

// RegisterDefinitions compiles each definition with eval and registers
// it with reg.  Asynchronous definitions run the compiled validator on
// its own goroutine.  The first failure stops the process and is returned.
func RegisterDefinitions(reg *Registry, eval *Evaluator, defs []Definition) error {
	for _, d := range defs {
		v, err := d.compile(eval)
		if err != nil {
			return fmt.Errorf("definition %q: %w", d.Name, err)
		}

		var opts []RegisterOption
		if d.Override {
			opts = append(opts, WithOverride())
		}
		if d.Async {
			err = reg.RegisterAsync(d.Name, goAsync(v), opts...)
		} else {
			err = reg.Register(d.Name, v, opts...)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (d Definition) compile(eval *Evaluator) (Validator, error) {
	if d.Script != "" {
		var this interface{}
		if d.Context != nil {
			this = d.Context
		}
		return eval.Script(d.Script, this)
	}
	return eval.Pattern(d.Pattern, d.Message)
}

// goAsync runs a synchronous validator through Go.
func goAsync(v Validator) AsyncValidator {
	return AsyncValidatorFunc(func(ctx context.Context, value any) *Future {
		return Go(ctx, func(context.Context) (Result, error) {
			return v.Validate(value), nil
		})
	})
}
