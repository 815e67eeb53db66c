package sqlbase

import (
	"strconv"
	"strings"
)

// Dialect captures the differences between the SQL engines the repositories run on.
type Dialect struct {
	// Name identifies the engine in logs.
	Name string

	// NumberedPlaceholders rewrites "?" into "$1", "$2", ... before execution.
	NumberedPlaceholders bool

	// IsUniqueViolation reports whether err was raised by a unique constraint.
	IsUniqueViolation func(err error) bool
}

// Rebind converts a query written with "?" placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if !d.NumberedPlaceholders {
		return query
	}

	var (
		builder strings.Builder
		n       int
	)

	builder.Grow(len(query) + 8)

	for _, r := range query {
		if r != '?' {
			builder.WriteRune(r)

			continue
		}

		n++

		builder.WriteByte('$')
		builder.WriteString(strconv.Itoa(n))
	}

	return builder.String()
}

func (d Dialect) uniqueViolation(err error) bool {
	return err != nil && d.IsUniqueViolation != nil && d.IsUniqueViolation(err)
}
