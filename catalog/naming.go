package catalog

import (
	"strings"

	"github.com/gertd/go-pluralize"
)

var p = pluralize.NewClient()

func init() {
	p.AddIrregularRule("data", "data")
	p.AddSingularRule("*data", "data") // e.g. customer_health_data, we do NOT want it to become customer_health_datum.
}

// Singular returns the singular form of the given string.
func Singular(s string) string {
	return p.Singular(s)
}

// DefaultTriggerName returns the name given to a trigger which was declared without one,
// e.g. customers and EventInsert gives customer_on_insert.
func DefaultTriggerName(tableName string, event EventType) string {
	return SnakeCase(Singular(tableName)) + "_on_" + strings.ToLower(event.String())
}

// SnakeCase converts a given string to a friendly snake case, e.g.
// - userId to user_id
// - ID     to id
// - BlogPosts to blog_posts
func SnakeCase(camel string) string {
	var (
		b            strings.Builder
		prevWasUpper bool
	)

	for i, c := range camel {
		if isUppercase(c) {
			if b.Len() > 0 && !prevWasUpper { // not the first and the previous was not uppercased too (e.g "ID").
				b.WriteRune('_')
			} else { // check for XxxAPIKey, it should be written as xxx_api_key.
				next := i + 1
				if next > 1 && len(camel)-1 > next {
					if !isUppercase(rune(camel[next])) {
						b.WriteRune('_')
					}
				}
			}

			b.WriteRune(c - 'A' + 'a')
			prevWasUpper = true
		} else {
			b.WriteRune(c)
			prevWasUpper = false
		}
	}

	return b.String()
}

func isUppercase(c rune) bool {
	return 'A' <= c && c <= 'Z'
}
