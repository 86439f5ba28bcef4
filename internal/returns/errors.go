package returns

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidPolicy = errors.New("invalid partial policy")
)

// MissingColumnError reports every required column absent from the input.
type MissingColumnError struct {
	Columns []string
}

// Error implements the error interface
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// Is matches ErrMissingColumn
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// InvalidPolicyError reports a partial policy outside the recognised set.
type InvalidPolicyError struct {
	Policy string
}

// Error implements the error interface
func (e *InvalidPolicyError) Error() string {
	names := make([]string, len(Policies))
	for i, p := range Policies {
		names[i] = "'" + string(p) + "'"
	}
	return fmt.Sprintf("partial policy %q is not one of %s", e.Policy, strings.Join(names, ", "))
}

// Is matches ErrInvalidPolicy
func (e *InvalidPolicyError) Is(target error) bool {
	return target == ErrInvalidPolicy
}

// CheckColumns returns a MissingColumnError naming every entry of required that
// is not in columns. Column names are compared after cleaning.
func CheckColumns(columns []string, required ...string) error {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[cleanColumn(c)] = struct{}{}
	}
	var missing []string
	for _, r := range required {
		if _, ok := present[cleanColumn(r)]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Columns: missing}
	}
	return nil
}
