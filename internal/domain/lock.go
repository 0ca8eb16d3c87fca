package domain

import (
	"strconv"
	"sync"

	"github.com/puzpuzpuz/xsync"
)

// RaffleLocker serializes the writers of one raffle inside this process. Every state change is also
// a conditional update, so writers in other processes cannot double-apply.
type RaffleLocker struct {
	locks *xsync.MapOf[string, *sync.Mutex]
}

func NewRaffleLocker() *RaffleLocker {
	return &RaffleLocker{locks: xsync.NewMapOf[*sync.Mutex]()}
}

func (l *RaffleLocker) Lock(raffleID uint64) func() {
	mutex, _ := l.locks.LoadOrStore(strconv.FormatUint(raffleID, 10), &sync.Mutex{})
	mutex.Lock()
	return mutex.Unlock
}
