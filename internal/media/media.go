// Package media models recommendation results and the presentation rules
// applied to them before they reach the screen.
package media

import (
	"bytes"
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ItemID identifies a catalog entry. The service emits integer or UUID
// identifiers; both are kept as their decimal or textual form.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("item id: %w", err)
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// Rating is a score out of ten. The catalog stores it as a number, a
// numeric string, or nothing at all.
type Rating struct {
	Value float64
	Valid bool
}

func (r *Rating) UnmarshalJSON(data []byte) error {
	*r = Rating{}
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("rating: %w", err)
		}
		if v, ok := parseLeadingFloat(s); ok {
			*r = Rating{Value: v, Valid: true}
		}
		return nil
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("rating: %w", err)
		}
		*r = Rating{Value: v, Valid: true}
		return nil
	}
}

func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// parseLeadingFloat reads the numeric prefix of s, so "7.5/10" is 7.5.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit, seenDot := false, false
	for i, c := range s {
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
			end = i + 1
		case c == '.' && !seenDot:
			seenDot = true
		case (c == '-' || c == '+') && i == 0:
		default:
			goto done
		}
	}
done:
	if !seenDigit {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MediaItem is one recommendation card.
type MediaItem struct {
	ID          ItemID  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"type,omitempty"`
	Rating      Rating  `json:"rating"`
	Image       string  `json:"image,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// DefaultMatch is shown when the service did not score an item.
const DefaultMatch = 85

// MatchPercent is the similarity score as shown on the card.
func (m MediaItem) MatchPercent() int {
	if m.Score == 0 {
		return DefaultMatch
	}
	return int(m.Score)
}

// TypeLabel is the upper-cased media type, MOVIE when unknown.
func (m MediaItem) TypeLabel() string {
	if m.Type == "" {
		return "MOVIE"
	}
	return strings.ToUpper(m.Type)
}

// TypeClass buckets the type for styling: movie, tv, anime or doc.
func (m MediaItem) TypeClass() string {
	t := m.TypeLabel()
	class := "movie"
	if strings.Contains(t, "TV") {
		class = "tv"
	}
	if strings.Contains(t, "ANIME") {
		class = "anime"
	}
	if strings.Contains(t, "DOC") {
		class = "doc"
	}
	return class
}

// RatingLabel formats a known rating with one decimal, or returns "".
func (m MediaItem) RatingLabel() string {
	if !m.Rating.Valid {
		return ""
	}
	return fmt.Sprintf("★ %.1f", m.Rating.Value)
}

// Summary is the description or a placeholder.
func (m MediaItem) Summary() string {
	if m.Description == "" {
		return "No data."
	}
	return m.Description
}

// ImageURL returns a resized proxy URL for the poster, or a placeholder
// carrying the title when the poster is missing.
func (m MediaItem) ImageURL() string {
	if len(m.Image) > 5 && !strings.Contains(m.Image, "null") {
		return "https://wsrv.nl/?url=" + url.QueryEscape(m.Image) + "&w=400&output=webp"
	}
	return "https://placehold.co/300x450/111/FFF?text=" + url.PathEscape(m.Title)
}

// Filter narrows results by media type.
type Filter string

const (
	FilterAll   Filter = "ALL"
	FilterMovie Filter = "MOVIE"
	FilterTV    Filter = "TV"
	FilterAnime Filter = "ANIME"
	FilterDoc   Filter = "DOC"
)

// Filters lists the filters in display order.
var Filters = []Filter{FilterAll, FilterMovie, FilterTV, FilterAnime, FilterDoc}

// Match reports whether item passes the filter.
func (f Filter) Match(item MediaItem) bool {
	if f == FilterAll || f == "" {
		return true
	}
	return strings.Contains(strings.ToUpper(item.Type), string(f))
}

// Next cycles to the following filter.
func (f Filter) Next() Filter {
	for i, x := range Filters {
		if x == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// SortOrder is either the service's relevance order or rating.
type SortOrder string

const (
	SortRelevance SortOrder = "RELEVANCE"
	SortRating    SortOrder = "RATING"
)

func (s SortOrder) Toggle() SortOrder {
	if s == SortRating {
		return SortRelevance
	}
	return SortRating
}

// Apply filters and orders a copy of items. Rating order is descending and
// stable; unknown ratings count as zero.
func Apply(items []MediaItem, filter Filter, order SortOrder) []MediaItem {
	out := make([]MediaItem, 0, len(items))
	for _, it := range items {
		if filter.Match(it) {
			out = append(out, it)
		}
	}
	if order == SortRating {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Rating.Value > out[j].Rating.Value
		})
	}
	return out
}

// randomQueries seed the "surprise me" search.
var randomQueries = []string{"Cyberpunk Anime", "80s Horror", "Deep Space Sci-Fi", "Noir Mystery"}

// RandomQuery picks one of the canned queries.
func RandomQuery(rng *rand.Rand) string {
	return randomQueries[rng.Intn(len(randomQueries))]
}
