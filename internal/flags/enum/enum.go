// Package enum provides a flag accepting one of a fixed set of values.
package enum

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

type value struct {
	options []string
	value   string
}

func (v *value) String() string { return v.value }

func (v *value) Set(s string) error {
	if !slices.Contains(v.options, s) {
		return fmt.Errorf("must be one of %s", strings.Join(v.options, ", "))
	}
	v.value = s
	return nil
}

func (v *value) Type() string { return "enum" }

// Var defines an enum flag. The first option is the default.
func Var(f *pflag.FlagSet, name string, options []string, usage string) {
	VarP(f, name, "", options, usage)
}

// VarP is like Var, but accepts a shorthand letter.
func VarP(f *pflag.FlagSet, name, shorthand string, options []string, usage string) {
	f.VarP(&value{options: options, value: options[0]}, name, shorthand,
		fmt.Sprintf("%s (one of %s)", usage, strings.Join(options, ", ")))
}

// Get returns the value of an enum flag.
func Get(f *pflag.FlagSet, name string) (string, error) {
	flag := f.Lookup(name)
	if flag == nil {
		return "", fmt.Errorf("flag %q is not defined", name)
	}
	v, ok := flag.Value.(*value)
	if !ok {
		return "", fmt.Errorf("flag %q is not an enum flag", name)
	}
	return v.value, nil
}
