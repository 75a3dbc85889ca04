// Package sqlguard provides textual safety checks and identifier rewriting
// for model-generated SQL. It deliberately avoids parsing: the rewrite is a
// fixed sequence of regex stages, isolated behind a narrow interface so a
// real parser can replace it later without touching callers.
package sqlguard

import "strings"

// destructiveVerbs is the denylist of mutating SQL verbs. Matched as plain
// substrings against the upper-cased query text; a verb inside a string
// literal or comment still rejects the query (acceptable false positive).
var destructiveVerbs = []string{
	"INSERT",
	"UPSERT",
	"DROP",
	"DELETE",
	"ALTER",
	"CREATE",
	"GRANT",
	"REVOKE",
	"REINDEX",
}

// IsDangerous reports whether the SQL text contains any denylisted mutating
// verb, in any case combination. This is a defense-in-depth heuristic on top
// of a read-only connection, not a guarantee.
func IsDangerous(sql string) bool {
	upper := strings.ToUpper(sql)
	for _, verb := range destructiveVerbs {
		if strings.Contains(upper, verb) {
			return true
		}
	}
	return false
}
