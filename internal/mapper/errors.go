package mapper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/omfgitsmark/mtgsqlive/internal/mtgjson"
)

// ErrInvalidRecord is returned for records missing a required field.
var ErrInvalidRecord = errors.New("invalid record")

// UnknownFieldError rejects a record carrying fields the schema does not
// model. It is only returned in strict mode.
type UnknownFieldError struct {
	Kind   mtgjson.Kind
	Ref    string
	Fields []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s %s has unknown fields: %s", e.Kind, e.Ref, strings.Join(e.Fields, ", "))
}
