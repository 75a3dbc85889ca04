package sqlguard

import (
	"regexp"
	"strings"
)

// sqlKeywords are tokens left unquoted by QuoteIdentifiers. Matched
// case-insensitively.
var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true,
	"not": true, "in": true, "as": true, "on": true, "join": true,
	"left": true, "right": true, "inner": true, "outer": true, "full": true,
	"cross": true, "group": true, "by": true, "order": true, "asc": true,
	"desc": true, "limit": true, "offset": true, "having": true,
	"distinct": true, "case": true, "when": true, "then": true, "else": true,
	"end": true, "null": true, "is": true, "like": true, "ilike": true,
	"between": true, "union": true, "all": true, "any": true, "exists": true,
	"true": true, "false": true, "interval": true, "over": true,
	"partition": true, "with": true, "using": true, "filter": true,
	"current_date": true, "current_timestamp": true, "nulls": true,
	"first": true, "last": true,
}

// sqlFunctions are function names left unquoted by QuoteIdentifiers.
// Matched case-insensitively.
var sqlFunctions = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"round": true, "abs": true, "coalesce": true, "nullif": true,
	"lower": true, "upper": true, "length": true, "concat": true,
	"substring": true, "trim": true, "now": true, "date": true,
	"extract": true, "date_trunc": true, "date_part": true,
	"to_char": true, "to_date": true, "to_number": true, "cast": true,
	"rank": true, "dense_rank": true, "row_number": true, "ntile": true,
	"lag": true, "lead": true, "greatest": true, "least": true,
	"string_agg": true, "array_agg": true, "percentile_cont": true,
	"stddev": true, "variance": true,
}

var (
	bareTokenRe    = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	wildcardSpanRe = regexp.MustCompile(`%[^%']*%`)
	singleQuotedRe = regexp.MustCompile(`'[^']*'`)
)

// QuoteIdentifiers rewrites model-generated SQL so that every bare
// identifier is double-quoted, matching the evidence store's case-sensitive
// mixed-case view and column names. Keywords, function names, numeric
// literals and the contents of string literals are left untouched.
//
// The rewrite runs in a fixed stage order:
//  1. quote every bare alphanumeric/underscore token not in the keyword or
//     function sets
//  2. collapse quote-adjacency artifacts produced by naive token quoting
//  3. strip quotes inserted inside %...% LIKE-wildcard spans
//  4. strip quotes inserted inside remaining single-quoted literals
//
// The transform is best-effort text manipulation, not a parse. A literal
// that happens to contain a table-name-like token can still be mangled in
// ambiguous cases.
func QuoteIdentifiers(sql string) string {
	// Stage 1: force-quote bare identifiers. An index-based pass so the
	// byte preceding each token can be inspected: a token glued to a digit
	// is the tail of a numeric literal (1e5), not an identifier.
	var b strings.Builder
	b.Grow(len(sql) + len(sql)/4)
	prev := 0
	for _, loc := range bareTokenRe.FindAllStringIndex(sql, -1) {
		b.WriteString(sql[prev:loc[0]])
		tok := sql[loc[0]:loc[1]]
		low := strings.ToLower(tok)
		glued := loc[0] > 0 && sql[loc[0]-1] >= '0' && sql[loc[0]-1] <= '9'
		if glued || sqlKeywords[low] || sqlFunctions[low] {
			b.WriteString(tok)
		} else {
			b.WriteString(`"` + tok + `"`)
		}
		prev = loc[1]
	}
	b.WriteString(sql[prev:])
	out := b.String()

	// Stage 2: naive quoting doubles quotes on already-quoted identifiers
	// ("Ticker" -> ""Ticker"") and wraps single-token literals
	// ('abc' -> '"abc"'). Collapse both artifact shapes.
	out = strings.ReplaceAll(out, `""`, `"`)
	out = strings.ReplaceAll(out, `'"`, `'`)
	out = strings.ReplaceAll(out, `"'`, `'`)

	// Stage 3: unquote inside %...% wildcard spans.
	out = wildcardSpanRe.ReplaceAllStringFunc(out, func(span string) string {
		return strings.ReplaceAll(span, `"`, "")
	})

	// Stage 4: unquote inside remaining single-quoted literals.
	out = singleQuotedRe.ReplaceAllStringFunc(out, func(lit string) string {
		return strings.ReplaceAll(lit, `"`, "")
	})

	return out
}
