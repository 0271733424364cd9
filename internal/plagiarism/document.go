package plagiarism

// Source is a named raw text handed to the detector
type Source struct {
	ID   string
	Text string
}

// Document holds the derived state of one source. Handle is the dense index
// used by every internal structure; ID is only used at the boundaries.
type Document struct {
	Handle       int
	ID           string
	Normalized   []rune
	Lines        LineTable
	Fingerprints []Fingerprint
}

// DocumentStats summarizes one fingerprinted document for reports
type DocumentStats struct {
	ID               string `json:"id"`
	NormalizedLength int    `json:"normalizedLength"`
	Lines            int    `json:"lines"`
	Fingerprints     int    `json:"fingerprints"`
}

func (d *Document) Stats() DocumentStats {
	return DocumentStats{
		ID:               d.ID,
		NormalizedLength: len(d.Normalized),
		Lines:            len(d.Lines),
		Fingerprints:     len(d.Fingerprints),
	}
}
