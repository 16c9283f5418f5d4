// Package walletlock serializes mutations of the same wallet across goroutines.
package walletlock

import "sync"

// Manager hands out one mutex per login.
type Manager struct {
	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

// NewManager creates an empty lock manager.
func NewManager() *Manager {
	return &Manager{locks: make(map[string]*sync.Mutex)}
}

func (m *Manager) get(login string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[login]
	if !ok {
		l = &sync.Mutex{}
		m.locks[login] = l
	}
	return l
}

// Lock blocks until the wallet of login is exclusively held and returns its unlock func.
func (m *Manager) Lock(login string) func() {
	l := m.get(login)
	l.Lock()
	return l.Unlock
}

// LockPair locks two wallets in lexicographic login order so opposite
// transfers cannot deadlock. Equal logins take a single lock.
func (m *Manager) LockPair(a, b string) func() {
	if a == b {
		return m.Lock(a)
	}
	if b < a {
		a, b = b, a
	}
	unlockA := m.Lock(a)
	unlockB := m.Lock(b)
	return func() {
		unlockB()
		unlockA()
	}
}
