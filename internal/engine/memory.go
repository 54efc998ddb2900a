package engine

// BufferRef references caller-owned input memory as an ordered list of
// fragments. Fragments are never copied at append time; the caller must keep
// them valid and unmodified until the inference completes.
type BufferRef struct {
	fragments [][]byte
	total     uint64
}

// AddBuffer appends one fragment. Fragments are consumed in append order.
func (b *BufferRef) AddBuffer(data []byte) {
	b.fragments = append(b.fragments, data)
	b.total += uint64(len(data))
}

// TotalByteSize returns the combined length of all fragments.
func (b *BufferRef) TotalByteSize() uint64 { return b.total }

// Fragments returns the fragment list in append order.
func (b *BufferRef) Fragments() [][]byte { return b.fragments }

// Contents returns the logical concatenation of all fragments. With a single
// fragment this is a view into the caller's memory; otherwise the fragments
// are assembled into a new buffer.
func (b *BufferRef) Contents() []byte {
	if len(b.fragments) == 1 {
		return b.fragments[0]
	}
	out := make([]byte, 0, b.total)
	for _, f := range b.fragments {
		out = append(out, f...)
	}
	return out
}
