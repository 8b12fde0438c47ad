/*
Package fieldval validates form fields through named, registered
validators.

Application code registers validator implementations by name with a
Registry, once, at its composition root.  A Binder then attaches a
comma separated list of those names to a Control: each name is looked
up, wrapped in an adapter and installed in the control's synchronous
or asynchronous pipeline, according to how the validator was
registered.  Names the registry does not know are logged and skipped.

Every time the control's value changes the pipeline runs.  Synchronous
validators run first, in declared order, and the first failure ends
the run.  Asynchronous validators start only when all synchronous ones
passed; each returns a Future, and a rejected future fails the field
whatever its Result says.  Every adapter records its Result in the
control's ErrorMap under the validator's name, but only while the
control is dirty; on a pristine control the entry is cleared so that
nothing stale is displayed.

Validators may be written in Go, as Validator or AsyncValidator
implementations, or declared in YAML as JavaScript functions (run on
the embedded otto engine, https://github.com/robertkrimen/otto) or as
regular expressions.  Struct fields can carry the list of names in a
"validate" tag and be bound as a Form in one call.

The render subpackage turns an ErrorMap into markup using templates
kept in a small template store.
*/
package fieldval
