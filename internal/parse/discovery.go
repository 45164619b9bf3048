package parse

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/community-roots/internal/model"
)

// RecordDelimiter separates park records in a discovery response.
const RecordDelimiter = "---"

const (
	DefaultLocation    = "Location unavailable"
	DefaultDescription = "A local park."
)

// Source is a grounding reference returned alongside a discovery response.
type Source struct {
	Title string
	URI   string
}

var (
	nameRe        = regexp.MustCompile(`Name:[ \t]*(.+)`)
	addressRe     = regexp.MustCompile(`Address:[ \t]*(.+)`)
	descriptionRe = regexp.MustCompile(`Description:[ \t]*(.+)`)
	latRe         = regexp.MustCompile(`Lat:[ \t]*([0-9.-]+)`)
	lngRe         = regexp.MustCompile(`Lng:[ \t]*([0-9.-]+)`)
)

// Parks parses a "---"-delimited list of labeled records into parks with
// empty task lists. Missing fields fall back to fixed defaults; the name
// falls back to "Park N" where N is the 1-based record position. When a
// grounding source mentions a park by name, its URI becomes the map link.
func Parks(text string, sources []Source, batch time.Time) []model.Park {
	stamp := batch.UnixMilli()

	var parks []model.Park
	for _, rec := range splitRecords(text) {
		i := len(parks)
		name := field(nameRe, rec, fmt.Sprintf("Park %d", i+1))
		parks = append(parks, model.Park{
			ID:          fmt.Sprintf("found-%d-%d", stamp, i),
			Name:        name,
			Location:    field(addressRe, rec, DefaultLocation),
			Description: field(descriptionRe, rec, DefaultDescription),
			Tasks:       []model.Task{},
			MapURL:      MapLink(name, sources),
			Lat:         coordinate(latRe, rec),
			Lng:         coordinate(lngRe, rec),
		})
	}
	if parks == nil {
		return []model.Park{}
	}
	return parks
}

func splitRecords(text string) []string {
	var out []string
	for _, rec := range strings.Split(text, RecordDelimiter) {
		if rec = strings.TrimSpace(rec); rec != "" {
			out = append(out, rec)
		}
	}
	return out
}

func field(re *regexp.Regexp, rec, fallback string) string {
	m := re.FindStringSubmatch(rec)
	if m == nil {
		return fallback
	}
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}
	return fallback
}

func coordinate(re *regexp.Regexp, rec string) *float64 {
	m := re.FindStringSubmatch(rec)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &f
}

// MapLink returns the URI of the first source whose title contains name, or
// whose URI contains the URI-component encoding of name. The match is a
// case-sensitive substring test, so a short name can match a source meant
// for a longer one.
func MapLink(name string, sources []Source) string {
	encoded := EncodeURIComponent(name)
	for _, s := range sources {
		if strings.Contains(s.Title, name) || strings.Contains(s.URI, encoded) {
			return s.URI
		}
	}
	return ""
}

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent percent-encodes s the way browsers encode a URI
// component: everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is escaped.
func EncodeURIComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
