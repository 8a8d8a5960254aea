package store

import "sort"

// Store is the bounded, append-only ordered collection of records. It is
// exclusively owned by one engine instance; a second display surface gets
// its own store, since flags and heights are per-surface state.
type Store struct {
	records  []*Record
	groups   map[int]*Group
	maxLines int
	nextSeq  uint64

	totalHeight int
}

// New creates a store that evicts from the head beyond maxLines records
func New(maxLines int) *Store {
	if maxLines < 1 {
		maxLines = 1
	}
	return &Store{
		records:  make([]*Record, 0, 256),
		groups:   make(map[int]*Group),
		maxLines: maxLines,
	}
}

// Len returns the number of live records
func (s *Store) Len() int {
	return len(s.records)
}

// At returns the record at position i, nil if out of range
func (s *Store) At(i int) *Record {
	if i < 0 || i >= len(s.records) {
		return nil
	}
	return s.records[i]
}

// Records returns the live records in sequence order. The slice is shared;
// callers must not reorder it.
func (s *Store) Records() []*Record {
	return s.records
}

// Last returns the most recently appended record, nil if empty
func (s *Store) Last() *Record {
	if len(s.records) == 0 {
		return nil
	}
	return s.records[len(s.records)-1]
}

// Append assigns the next sequence number and adds the record at the tail.
// The caller runs EvictOverflow afterwards; append itself never fails.
func (s *Store) Append(r *Record) {
	s.nextSeq++
	r.Seq = s.nextSeq
	s.records = append(s.records, r)
}

// BySeq returns the record with the given sequence number, nil if it has
// been evicted or never existed.
func (s *Store) BySeq(seq uint64) *Record {
	i := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].Seq >= seq
	})
	if i < len(s.records) && s.records[i].Seq == seq {
		return s.records[i]
	}
	return nil
}

// AddGroup registers a stack group
func (s *Store) AddGroup(g *Group) {
	s.groups[g.ID] = g
}

// Group returns the group with the given id, nil if unknown or evicted
func (s *Store) Group(id int) *Group {
	if id == NoGroup {
		return nil
	}
	return s.groups[id]
}

// EvictOverflow removes oldest records until the store fits maxLines,
// decrementing totalHeight by each evicted record's current height. Groups
// whose header is evicted are dropped; their surviving frames degrade to
// plain visible rows. Returns the evicted records, oldest first.
func (s *Store) EvictOverflow() []*Record {
	over := len(s.records) - s.maxLines
	if over <= 0 {
		return nil
	}

	evicted := s.records[:over]
	for _, r := range evicted {
		s.totalHeight -= r.Height
		if r.Kind == KindStackHeader {
			delete(s.groups, r.GroupID)
		}
	}
	s.records = append(s.records[:0:0], s.records[over:]...)
	return evicted
}

// DropTail removes the newest n records, used when a just-closed stack
// group turns out to duplicate the previous one. Heights are subtracted
// and any group headed within the dropped span is forgotten.
func (s *Store) DropTail(n int) {
	if n <= 0 {
		return
	}
	if n > len(s.records) {
		n = len(s.records)
	}

	cut := len(s.records) - n
	for _, r := range s.records[cut:] {
		s.totalHeight -= r.Height
		if r.Kind == KindStackHeader {
			delete(s.groups, r.GroupID)
		}
	}
	s.records = s.records[:cut]
}

// TotalHeight returns the cached sum of record heights
func (s *Store) TotalHeight() int {
	return s.totalHeight
}

// SetTotalHeight replaces the cached sum; only the height engine calls this
func (s *Store) SetTotalHeight(h int) {
	s.totalHeight = h
}

// AddHeight adjusts the cached sum when a single record's height changes
func (s *Store) AddHeight(delta int) {
	s.totalHeight += delta
}

// MaxLines returns the eviction threshold
func (s *Store) MaxLines() int {
	return s.maxLines
}
