package domain

// AdviceMemory is a bounded FIFO of recently used reply fingerprints,
// most-recent-last. It exists only to keep the agent from handing out
// near-identical advice across different posts.
type AdviceMemory struct {
	entries  []string
	capacity int
}

const DefaultAdviceCapacity = 50

func NewAdviceMemory(capacity int) *AdviceMemory {
	if capacity <= 0 {
		capacity = DefaultAdviceCapacity
	}
	return &AdviceMemory{capacity: capacity}
}

// RestoreAdviceMemory rebuilds a memory from persisted entries, keeping only
// the newest capacity entries.
func RestoreAdviceMemory(entries []string, capacity int) *AdviceMemory {
	m := NewAdviceMemory(capacity)
	for _, e := range entries {
		m.Remember(e)
	}
	return m
}

func (m *AdviceMemory) Contains(fingerprint string) bool {
	for _, e := range m.entries {
		if e == fingerprint {
			return true
		}
	}
	return false
}

// Remember appends a fingerprint, evicting the oldest entry once the
// capacity is exceeded. Remembering a known fingerprint is a no-op.
func (m *AdviceMemory) Remember(fingerprint string) {
	if fingerprint == "" || m.Contains(fingerprint) {
		return
	}
	m.entries = append(m.entries, fingerprint)
	if len(m.entries) > m.capacity {
		m.entries = m.entries[len(m.entries)-m.capacity:]
	}
}

func (m *AdviceMemory) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the fingerprints, oldest first.
func (m *AdviceMemory) Entries() []string {
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}
