package gourmet

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// ErrEmptyInput is returned when the query holds nothing but whitespace.
var ErrEmptyInput = errors.New("query text is empty")

// ParseQuery splits free text into a location term and a category term.
func ParseQuery(text string) (Query, error) {
	normalized := normalizeQuery(text)
	if normalized == "" {
		return Query{}, ErrEmptyInput
	}

	var q Query
	if idx := strings.Index(normalized, ","); idx >= 0 {
		q.Location = strings.TrimSpace(normalized[:idx])
		q.Category = joinParts(strings.Split(normalized[idx+1:], ","))
		if q.Location == "" {
			// ", sushi" style input: nothing before the comma, split the remainder instead.
			q = splitOnWhitespace(q.Category)
			if q.Location == "" {
				return Query{}, ErrEmptyInput
			}
			return q, nil
		}
	} else {
		q = splitOnWhitespace(normalized)
	}
	if q.Category == "" {
		q.Category = DefaultCategory
	}
	return q, nil
}

func splitOnWhitespace(text string) Query {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Query{Category: DefaultCategory}
	}
	q := Query{Location: fields[0], Category: strings.Join(fields[1:], " ")}
	if q.Category == "" {
		q.Category = DefaultCategory
	}
	return q
}

// normalizeQuery folds full-width forms, maps the ideographic comma and
// collapses whitespace runs.
func normalizeQuery(text string) string {
	folded := width.Fold.String(text)
	folded = strings.ReplaceAll(folded, "、", ",")
	folded = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

func joinParts(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if clean := strings.TrimSpace(part); clean != "" {
			out = append(out, clean)
		}
	}
	return strings.Join(out, " ")
}

// GeocodeAddress annotates a location term so the geocoder prefers Japanese stations.
func GeocodeAddress(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	if hasJapaneseScript(location) {
		if strings.HasSuffix(location, "駅") {
			return location
		}
		return location + "駅"
	}
	if strings.HasSuffix(strings.ToLower(location), "station") {
		return location + ", Japan"
	}
	return location + " Station, Japan"
}

func hasJapaneseScript(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}
