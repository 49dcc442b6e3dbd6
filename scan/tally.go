package scan

// pageTally accumulates counters for the page currently being scanned.
// It is reset at every <page> open tag and read once at </page>.
type pageTally struct {
	id        int64
	title     string
	namespace int64
	revisions int64
	bytes     int64
	maxRevLen int64

	// qualifies is decided once per page at the <ns> line and never
	// re-evaluated: true when the namespace filter is disabled or the page
	// sits in the main namespace. Revisions and byte lengths only count
	// while it is true.
	qualifies bool
}

func (p *pageTally) reset() {
	*p = pageTally{}
}

// addRevision counts one <revision> open tag.
func (p *pageTally) addRevision() {
	if !p.qualifies {
		return
	}
	p.revisions++
}

// addByteLen folds one <text bytes="N"…> observation into the totals.
func (p *pageTally) addByteLen(n int64) {
	if !p.qualifies {
		return
	}
	p.bytes += n
	if n > p.maxRevLen {
		p.maxRevLen = n
	}
}

// batchTally aggregates page tallies across a fixed window of consecutive
// pages. The window advances on every page seen, qualifying or not, matching
// the page-boundary cadence of the stream; only qualifying pages contribute
// counters. Revision and byte totals sum across the window, maxRevLen is the
// maximum over it.
type batchTally struct {
	pagesSeen  int64
	firstID    int64
	firstTitle string
	haveFirst  bool
	revisions  int64
	bytes      int64
	maxRevLen  int64
}

// notePage folds a finalized page into the window. The first page seen
// anchors the window's id and title so an emitted batch record still points
// somewhere useful in the stream.
func (b *batchTally) notePage(p *pageTally) {
	if !b.haveFirst {
		b.firstID = p.id
		b.firstTitle = p.title
		b.haveFirst = true
	}
	b.pagesSeen++
	if !p.qualifies {
		return
	}
	b.revisions += p.revisions
	b.bytes += p.bytes
	if p.maxRevLen > b.maxRevLen {
		b.maxRevLen = p.maxRevLen
	}
}

// full reports whether the window has reached the configured size.
func (b *batchTally) full(size int64) bool {
	return b.pagesSeen >= size
}

func (b *batchTally) reset() {
	*b = batchTally{}
}
