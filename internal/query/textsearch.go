package query

import (
	"log/slog"
	"strings"

	shlex "github.com/anmitsu/go-shlex"
)

// SanitizeTextQuery rewrites a free-text query into full-text-search-safe
// form. An odd number of double quotes gets a closing quote appended, the
// query is tokenized shell-style honoring quoted spans, and every token
// containing a colon is wrapped in quotes so the search engine treats
// key:value as an exact phrase instead of splitting on the colon.
//
// If tokenization still fails after balancing, the original input is
// returned unchanged; sanitization degrades, it never blocks the request.
func SanitizeTextQuery(q string) string {
	const quote = `"`
	balanced := q
	if strings.Count(balanced, quote)%2 == 1 {
		balanced += quote // add missing closing quote
	}

	tokens, err := shlex.Split(balanced, false)
	if err != nil {
		slog.Debug("error parsing text query", "query", q)
		return q
	}

	for i, token := range tokens {
		tokens[i] = quoteIfKVPair(token)
	}
	return strings.Join(tokens, " ")
}

func quoteIfKVPair(token string) string {
	if strings.Contains(token, ":") {
		return `"` + token + `"`
	}
	return token
}
