package subscription

import (
	"sync"
)

// ActionLock serializes mutating actions per user. A second action
// attempted while one is pending is rejected, never queued, since the
// server state it would act on is not yet known.
type ActionLock struct {
	inFlight sync.Map
}

func NewActionLock() *ActionLock {
	return &ActionLock{}
}

// TryAcquire marks an action as in flight for the user. It returns
// false if another action already holds the lock.
func (l *ActionLock) TryAcquire(userID string) bool {
	_, loaded := l.inFlight.LoadOrStore(userID, struct{}{})
	return !loaded
}

// Release clears the in-flight flag for the user
func (l *ActionLock) Release(userID string) {
	l.inFlight.Delete(userID)
}

// Locked reports whether an action is currently in flight for the user
func (l *ActionLock) Locked(userID string) bool {
	_, ok := l.inFlight.Load(userID)
	return ok
}
