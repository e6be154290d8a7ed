package newton

import (
	"fmt"
	"sort"
)

var increments = map[string]func() Increment{
	"classical":       func() Increment { return Classical{} },
	"damped":          func() Increment { return Damped{} },
	"sign-preserving": func() Increment { return SignPreserving{} },
}

// IncrementByName resolves a registered increment method.
func IncrementByName(name string) (Increment, error) {
	fn, ok := increments[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownIncrement, name, Increments())
	}
	return fn(), nil
}

// Increments lists the registered increment names in sorted order.
func Increments() []string {
	names := make([]string, 0, len(increments))
	for name := range increments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
