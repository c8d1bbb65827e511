package bindings

import (
	"fmt"
	"slices"
)

// Object is a bound symbol whose attributes can be inspected.
type Object interface {
	// HasAttr reports whether the object has the named attribute.
	HasAttr(name string) (bool, error)

	// Dir lists the attribute names of the object.
	Dir() ([]string, error)
}

// Environment resolves qualified class names such as "QgsFoo" or
// "QgsFoo::Bar" to bound objects.
type Environment interface {
	Lookup(name string) (Object, error)
}

// Resolve looks name up in env and never fails loudly: errors and panics
// raised by the environment both mean the symbol is absent.
func Resolve(env Environment, name string) (obj Object, ok bool) {
	defer func() {
		if recover() != nil {
			obj, ok = nil, false
		}
	}()

	obj, err := env.Lookup(name)
	if err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// HasMember checks whether obj exposes member, trying HasAttr first and
// Dir second. An error is returned only when both checks failed to run;
// a clean "no" from either is not an error.
func HasMember(obj Object, member string) (bool, error) {
	found, attrErr := safeHasAttr(obj, member)
	if attrErr == nil && found {
		return true, nil
	}

	names, dirErr := safeDir(obj)
	if dirErr != nil {
		if attrErr != nil {
			return false, fmt.Errorf("attribute check failed: %w; dir failed: %w", attrErr, dirErr)
		}
		return false, nil
	}
	return slices.Contains(names, member), nil
}

func safeHasAttr(obj Object, name string) (found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = false, fmt.Errorf("panic in HasAttr(%q): %v", name, r)
		}
	}()
	return obj.HasAttr(name)
}

func safeDir(obj Object) (names []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			names, err = nil, fmt.Errorf("panic in Dir: %v", r)
		}
	}()
	return obj.Dir()
}
