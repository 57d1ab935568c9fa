package database

import "strings"

// LikeEscapeClause must follow every LIKE built from EscapeLike
const LikeEscapeClause = ` ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards in user input
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern returns a lower-cased, escaped substring pattern
func ContainsPattern(s string) string {
	return "%" + EscapeLike(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// PrefixPattern returns an escaped prefix pattern
func PrefixPattern(s string) string {
	return EscapeLike(s) + "%"
}
