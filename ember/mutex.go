package ember

import "time"

// timedMutex is a channel-backed mutex supporting a bounded-wait acquire,
// used for SelectClients's "don't wait forever for the dispatcher" budget
// (spec.md's 2x-period mutex timeout). sync.Mutex has no timed Lock.
type timedMutex chan struct{}

func newTimedMutex() timedMutex {
	m := make(timedMutex, 1)
	m <- struct{}{}
	return m
}

func (m timedMutex) Lock() {
	<-m
}

func (m timedMutex) Unlock() {
	m <- struct{}{}
}

// TryLockTimeout attempts to acquire the lock within d, returning false if
// it timed out.
func (m timedMutex) TryLockTimeout(d time.Duration) bool {
	select {
	case <-m:
		return true
	case <-time.After(d):
		return false
	}
}
