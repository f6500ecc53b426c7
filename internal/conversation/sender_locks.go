package conversation

import "sync"

// senderLocks hands out one mutex per sender, dropping it once no request
// holds or waits on it.
type senderLocks struct {
	mu    sync.Mutex
	locks map[string]*senderLock
}

type senderLock struct {
	mu   sync.Mutex
	refs int
}

func newSenderLocks() *senderLocks {
	return &senderLocks{locks: make(map[string]*senderLock)}
}

// Lock blocks until the sender's lock is held and returns its release func.
func (l *senderLocks) Lock(sender string) func() {
	l.mu.Lock()
	lk, ok := l.locks[sender]
	if !ok {
		lk = &senderLock{}
		l.locks[sender] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, sender)
		}
		l.mu.Unlock()
	}
}

func (l *senderLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
