package plagiarism

// Winnow selects fingerprints from a hash sequence using windows of w
// consecutive hashes. Each window contributes its minimum hash; among equal
// minima the rightmost wins. A fingerprint is emitted whenever the window
// minimum moves to a new position, so the result is ordered by position.
//
// Any run of at least w hashes shared by two documents yields at least one
// common fingerprint. When w exceeds the sequence length the whole sequence
// is a single window.
func Winnow(hashes []Hash, w int) []Fingerprint {
	if len(hashes) == 0 || w <= 0 {
		return []Fingerprint{}
	}

	firstEmit := w - 1
	if firstEmit >= len(hashes) {
		firstEmit = len(hashes) - 1
	}

	window := newDeque(min(w, len(hashes)))
	selected := make([]Fingerprint, 0, 2*len(hashes)/(w+1)+1)
	last := -1

	for i, h := range hashes {
		// evict the candidate that slid out of [i-w+1, i]
		if front, ok := window.Front(); ok && front.Position <= i-w {
			window.PopFront()
		}

		// equal hashes are evicted too, which keeps the rightmost minimum in front
		for {
			back, ok := window.Back()
			if !ok || h > back.Hash {
				break
			}
			window.PopBack()
		}
		window.PushBack(Fingerprint{Hash: h, Position: i})

		if i < firstEmit {
			continue
		}
		front, _ := window.Front()
		if front.Position != last {
			selected = append(selected, front)
			last = front.Position
		}
	}

	return selected
}
