package tle

import "time"

// ISSCatalogNumber is the NORAD catalog number of the International Space
// Station (ZARYA).
const ISSCatalogNumber = 25544

// Entry is one satellite's two-line element set.
type Entry struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// Snapshot pairs an Entry with provenance, so consumers can judge staleness.
type Snapshot struct {
	Entry     Entry
	Source    string
	FetchedAt time.Time
}
