// Package parameters implements workflow parameter specifications: named,
// optionally-defaulted, type-coerced options that a workflow declares and
// that are consolidated against the arguments supplied at run time.
package parameters

import (
	"fmt"

	"github.com/spf13/cast"
)

// Type tags the coercion applied to a parameter's value.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeFloat
	TypeBool
)

// Option describes a single named parameter.
type Option struct {
	Name    string
	Default any // nil means the option is required
	Type    Type
	Help    string
}

// HasDefault reports whether the option has a default value, i.e. whether
// it is optional.
func (o Option) HasDefault() bool {
	return o.Default != nil
}

// coerce converts raw to the option's declared type using the same
// permissive coercion rules as the rest of the ecosystem's cast library.
func (o Option) coerce(raw any) (any, error) {
	switch o.Type {
	case TypeInt:
		return cast.ToIntE(raw)
	case TypeFloat:
		return cast.ToFloat64E(raw)
	case TypeBool:
		return cast.ToBoolE(raw)
	default:
		return cast.ToStringE(raw)
	}
}

// List is an ordered collection of parameter specifications for a
// workflow.
type List struct {
	options []Option
}

// NewList creates a parameter list from the given options.
func NewList(options ...Option) *List {
	return &List{options: options}
}

// Extend appends every option from other to this list, matching the
// source's `Parameters.extend` which merges parameter lists collected from
// multiple module-level declarations.
func (l *List) Extend(other *List) {
	if other == nil {
		return
	}
	l.options = append(l.options, other.options...)
}

// Options returns the list's parameter specifications.
func (l *List) Options() []Option {
	return l.options
}

// CheckMissing returns the names of every required option (one with no
// default) that is absent from args.
func (l *List) CheckMissing(args map[string]any) []string {
	var missing []string
	for _, opt := range l.options {
		if opt.HasDefault() {
			continue
		}
		if _, ok := args[opt.Name]; !ok {
			missing = append(missing, opt.Name)
		}
	}
	return missing
}

// Consolidate returns a coerced map combining args with each option's
// default for any name args does not supply. Required options absent from
// args are simply omitted from the result — callers are expected to have
// called CheckMissing first if validation is desired.
func (l *List) Consolidate(args map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(l.options))
	for _, opt := range l.options {
		raw, provided := args[opt.Name]
		if !provided {
			if !opt.HasDefault() {
				continue
			}
			raw = opt.Default
		}
		coerced, err := opt.coerce(raw)
		if err != nil {
			return nil, fmt.Errorf("parameters: cannot coerce %q: %w", opt.Name, err)
		}
		result[opt.Name] = coerced
	}
	return result, nil
}
