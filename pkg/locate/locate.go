// Package locate selects the newest report artifact from a remote listing.
//
// Strategies are pure functions over a slice of entry names. They never touch
// the network; the caller supplies a listing and gets back a single reference
// or ErrNoMatch.
package locate

import (
	"errors"
	"regexp"
	"sort"
	"time"
)

// ErrNoMatch indicates no listing entry matches the active naming convention.
var ErrNoMatch = errors.New("no artifact matches the naming convention")

// Ref is a remote name plus the timestamp derived from it.
type Ref struct {
	// Name is the listing entry exactly as the server reported it.
	Name string

	// Timestamp is parsed from the name. Sub-second precision is not modeled.
	Timestamp time.Time
}

// Strategy selects the single newest qualifying reference from a listing.
//
// Among entries that parse to an identical timestamp, selection is stable in
// the original listing order. That is deterministic for a fixed listing but
// carries no guarantee across servers that reorder their listings.
type Strategy interface {
	Select(listing []string) (Ref, error)
}

// DatedFolder matches entries named exactly YYYY-MM-DD and selects the
// maximum calendar date. It does not look inside the folder; resolving the
// files within is the transport's job.
type DatedFolder struct{}

var datedFolderPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const dateLayout = "2006-01-02"

// Select implements Strategy.
func (DatedFolder) Select(listing []string) (Ref, error) {
	refs := parseAll(listing, datedFolderPattern, dateLayout)
	return newest(refs)
}

// TimestampedFile matches entries of the form
//
//	<prefix>YYYY-MM-DD-HH-mm.pdf
//
// and selects the maximum date-time. An empty listing is an empty match set,
// not a fault.
type TimestampedFile struct {
	// Prefix is the fixed filename prefix before the timestamp (may be empty).
	Prefix string
}

const dateTimeLayout = "2006-01-02-15-04"

// Select implements Strategy.
func (s TimestampedFile) Select(listing []string) (Ref, error) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(s.Prefix) + `(\d{4}-\d{2}-\d{2}-\d{2}-\d{2})\.pdf$`)
	refs := parseAll(listing, pattern, dateTimeLayout)
	return newest(refs)
}

// parseAll filters listing entries through pattern and parses the embedded
// timestamp. Entries that match the pattern but fail calendar validation
// (e.g. month 13) are skipped, not reported.
func parseAll(listing []string, pattern *regexp.Regexp, layout string) []Ref {
	var refs []Ref
	for _, name := range listing {
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		stamp := m[0]
		if len(m) > 1 {
			stamp = m[1]
		}
		ts, err := time.Parse(layout, stamp)
		if err != nil {
			continue
		}
		refs = append(refs, Ref{Name: name, Timestamp: ts})
	}
	return refs
}

// newest sorts descending by timestamp (stable, so listing order breaks ties)
// and returns the first element.
func newest(refs []Ref) (Ref, error) {
	if len(refs) == 0 {
		return Ref{}, ErrNoMatch
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Timestamp.After(refs[j].Timestamp)
	})
	return refs[0], nil
}
