package wire

import "github.com/helixml/streamctl/internal/netio"

// Resync scans forward in r's buffer for the 8-byte sync sequence,
// positions just past it, then returns. Implements spec.md §4.3 /
// §9's "bounded-time byte search over the live ring buffer" note:
// bytes are never discarded before checking whether they could start
// the sequence, and while the buffer is fully consumed without a
// match it is compacted and refilled from the underlying source.
func Resync(r *netio.Reader) error {
	const seqLen = 8

	for {
		if err := r.Ensure(seqLen); err != nil {
			return err
		}

		matchLen := r.Len()
		maxStart := matchLen - seqLen
		for start := 0; start <= maxStart; start++ {
			if matchAt(r, start, seqLen) {
				r.Discard(start + seqLen)
				r.Compact()
				return nil
			}
		}

		// No match in what's buffered: the only bytes we can safely
		// discard are those that cannot possibly be a match prefix for
		// data not yet read, i.e. everything up to maxStart. Keep the
		// last seqLen-1 bytes in case they are a prefix of a sequence
		// split across the next refill.
		keepFrom := maxStart + 1
		if keepFrom > 0 {
			r.Discard(keepFrom)
		}
		r.Compact()
	}
}

func matchAt(r *netio.Reader, off, n int) bool {
	want := syncSequence[:]
	got := r.Peek(off, n)
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
