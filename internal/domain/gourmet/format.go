package gourmet

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const mapsSearchURL = "https://www.google.com/maps/search/?api=1"

// Fixed reply texts.
const (
	FallbackInsight     = "A neighborhood spot worth a visit when you are in the area."
	MsgLocationNotFound = "Sorry, I couldn't locate that station. Could you try again with a clearer station or area name, for example \"Shinjuku ramen\"?"
	MsgUpstreamFailure  = "Sorry, something went wrong while looking that up. Please try again in a moment."
	replyClosing        = "Enjoy your meal! Send me another station and craving any time."
)

// MsgNoResults is the soft reply used when the search returns no venues.
func MsgNoResults(q Query) string {
	return fmt.Sprintf("Sorry, I couldn't find any %s around %s. Try a different craving or a neighboring station!", q.Category, q.Location)
}

// MapURL links to the venue on the map search endpoint. The place id form
// resolves to the exact venue; the free text form is best effort.
func MapURL(c Candidate, location string) string {
	name := strings.TrimSpace(c.Name)
	if id := strings.TrimSpace(c.ID); id != "" {
		if name == "" {
			name = location
		}
		return mapsSearchURL + "&query=" + url.QueryEscape(name) + "&query_place_id=" + url.QueryEscape(id)
	}
	locality := strings.TrimSpace(c.Address)
	if locality == "" {
		locality = strings.TrimSpace(location)
	}
	return mapsSearchURL + "&query=" + url.QueryEscape(strings.TrimSpace(name+" "+locality))
}

// ReviewPhrase renders the review count: exact below threshold, "N+" at or
// above it, vague when unknown. A known count of zero says so.
func ReviewPhrase(count *int, threshold int) string {
	if count == nil || *count < 0 {
		return "a few reviews"
	}
	n := *count
	if n == 0 {
		return "no reviews yet"
	}
	if threshold <= 0 {
		threshold = DefaultReviewCountThreshold
	}
	if n < threshold {
		if n == 1 {
			return "1 review"
		}
		return strconv.Itoa(n) + " reviews"
	}
	return strconv.Itoa(roundDown(n)) + "+ reviews"
}

// roundDown keeps the leading digit of n and zeroes the rest, so 47 -> 40 and 1234 -> 1000.
func roundDown(n int) int {
	unit := 1
	for n/unit >= 10 {
		unit *= 10
	}
	if unit == 1 {
		return n
	}
	return n / unit * unit
}

// AccessText describes how far the venue is from the searched location.
func AccessText(origin Coordinate, dest *Coordinate, location string, metersPerMinute float64, maxMinutes int) string {
	if dest == nil {
		return "Near " + location
	}
	minutes := WalkMinutes(origin, *dest, metersPerMinute, maxMinutes)
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("About %d %s on foot from %s", minutes, unit, location)
}

// RenderReply assembles the chat reply. It is a pure function of its inputs.
func RenderReply(q Query, entries []EnrichedEntry, reviewThreshold int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are my %s picks around %s!\n", q.Category, q.Location)
	for i, entry := range entries {
		b.WriteString("\n")
		writeEntry(&b, i+1, entry, reviewThreshold)
	}
	b.WriteString("\n")
	b.WriteString(replyClosing)
	return b.String()
}

func writeEntry(b *strings.Builder, index int, entry EnrichedEntry, reviewThreshold int) {
	c := entry.Candidate
	name := strings.TrimSpace(c.Name)
	if entry.Romanized != "" && entry.Romanized != name {
		name = fmt.Sprintf("%s (%s)", name, entry.Romanized)
	}
	fmt.Fprintf(b, "%d. %s\n", index, name)
	if c.Rating != nil {
		fmt.Fprintf(b, "   ★%s from %s\n", strconv.FormatFloat(*c.Rating, 'f', 1, 64), ReviewPhrase(c.RatingCount, reviewThreshold))
	} else {
		fmt.Fprintf(b, "   Not yet rated, %s\n", ReviewPhrase(c.RatingCount, reviewThreshold))
	}
	insight := strings.TrimSpace(entry.Insight)
	if insight == "" {
		insight = FallbackInsight
	}
	fmt.Fprintf(b, "   %s\n", insight)
	fmt.Fprintf(b, "   %s\n", entry.Access)
	fmt.Fprintf(b, "   %s\n", entry.MapURL)
}
