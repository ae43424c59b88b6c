package ratelimit

import "time"

// SetClockForTest replaces the store's time source.
func (s *MemoryStore) SetClockForTest(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

var ParseTakeReply = parseTakeReply
