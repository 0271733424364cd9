package plagiarism

// Occurrence locates a selected fingerprint in one document
type Occurrence struct {
	Doc      int
	Position int
}

// GII (Global Inverted Index) maps hash → occurrences across all documents
type GII map[Hash][]Occurrence

// BuildGII aggregates the fingerprints of every document. Documents are
// visited in handle order, so each bucket lists occurrences by document.
func BuildGII(docs []*Document) GII {
	total := 0
	for _, doc := range docs {
		total += len(doc.Fingerprints)
	}

	gii := make(GII, total)
	for _, doc := range docs {
		for _, fp := range doc.Fingerprints {
			gii[fp.Hash] = append(gii[fp.Hash], Occurrence{Doc: doc.Handle, Position: fp.Position})
		}
	}

	return gii
}

// Lookup returns every occurrence of the hash
func (g GII) Lookup(h Hash) []Occurrence {
	return g[h]
}

// Shared returns the number of distinct hashes seen in at least two documents
func (g GII) Shared() int {
	shared := 0
	for _, occurrences := range g {
		first := occurrences[0].Doc
		for _, occ := range occurrences[1:] {
			if occ.Doc != first {
				shared++
				break
			}
		}
	}
	return shared
}
