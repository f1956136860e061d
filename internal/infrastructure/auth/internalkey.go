package auth

import (
	"crypto/subtle"
	"sync"
)

// InternalKeyHolder holds the shared secret that node agents present on
// internal endpoints. The key is loaded from config at startup and can be
// rotated at runtime through the admin settings API; in-flight requests keep
// validating against whichever key they read.
type InternalKeyHolder struct {
	mu  sync.RWMutex
	key string
}

func NewInternalKeyHolder(key string) *InternalKeyHolder {
	return &InternalKeyHolder{key: key}
}

// Get returns the current key.
func (h *InternalKeyHolder) Get() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.key
}

// Set replaces the key.
func (h *InternalKeyHolder) Set(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.key = key
}

// Matches compares the presented token against the current key in constant
// time. An empty configured key matches nothing.
func (h *InternalKeyHolder) Matches(token string) bool {
	h.mu.RLock()
	key := h.key
	h.mu.RUnlock()

	if key == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1
}
