package database

// SeenSet holds the entry hashes already processed for one feed.
type SeenSet map[string]struct{}

func NewSeenSet(hashes ...string) SeenSet {
	set := make(SeenSet, len(hashes))
	for _, hash := range hashes {
		set.Add(hash)
	}
	return set
}

func (s SeenSet) Has(hash string) bool {
	_, ok := s[hash]
	return ok
}

func (s SeenSet) Add(hash string) {
	s[hash] = struct{}{}
}

func (s SeenSet) Len() int {
	return len(s)
}
