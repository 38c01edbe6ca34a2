package calc

// Entry pairs a fully expanded equation string with its computed
// result string.
type Entry struct {
	Equation string
	Result   string
}

// history retains entries newest first, evicting the oldest once the
// limit is reached.
type history struct {
	entries []Entry
	limit   int
}

func (h *history) push(e Entry) {
	h.entries = append([]Entry{e}, h.entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
}

func (h *history) clear() {
	h.entries = nil
}

// snapshot returns a copy so callers cannot mutate retained state.
func (h *history) snapshot() []Entry {
	if len(h.entries) == 0 {
		return nil
	}
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}
