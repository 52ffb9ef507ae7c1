// Package domain holds building blocks shared by the bounded contexts.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSchemaMismatch is returned when a payload does not match the agreed
// wire schema. Callers treat it as an operation failure, never as data.
var ErrSchemaMismatch = errors.New("response does not match schema")

// MissingFields returns an ErrSchemaMismatch naming the absent fields of
// entity, or nil when nothing is missing.
func MissingFields(entity string, fields map[string]bool) error {
	var missing []string
	for name, present := range fields {
		if !present {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s missing %s", ErrSchemaMismatch, entity, strings.Join(missing, ", "))
}

// SchemaError wraps a decoding failure as a schema mismatch. Errors that
// already are mismatches pass through unchanged.
func SchemaError(entity string, err error) error {
	if errors.Is(err, ErrSchemaMismatch) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, entity, err)
}
