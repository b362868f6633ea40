package link

import "sync"

// CommLog records the traffic of a session.
type CommLog struct {
	// Limit caps each accumulator to the most recent bytes, 0 is unlimited.
	Limit int

	lock         sync.RWMutex
	sent         []byte
	received     []byte
	lastSent     []byte
	lastReceived []byte
}

// RecordSent appends sent bytes.
func (l *CommLog) RecordSent(b []byte) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.sent = l.appendCapped(l.sent, b)
	l.lastSent = append([]byte(nil), b...)
}

// RecordReceived appends received bytes. payload becomes the last
// received value.
func (l *CommLog) RecordReceived(raw, payload []byte) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.received = l.appendCapped(l.received, raw)
	l.lastReceived = append([]byte(nil), payload...)
}

// Sent returns everything sent.
func (l *CommLog) Sent() []byte {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return append([]byte(nil), l.sent...)
}

// Received returns everything received.
func (l *CommLog) Received() []byte {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return append([]byte(nil), l.received...)
}

// LastSent returns the last sent frame.
func (l *CommLog) LastSent() []byte {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return append([]byte(nil), l.lastSent...)
}

// LastReceived returns the payload of the last received frame.
func (l *CommLog) LastReceived() []byte {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return append([]byte(nil), l.lastReceived...)
}

func (l *CommLog) appendCapped(dst, b []byte) []byte {
	dst = append(dst, b...)
	if l.Limit > 0 && len(dst) > l.Limit {
		dst = append([]byte(nil), dst[len(dst)-l.Limit:]...)
	}
	return dst
}
