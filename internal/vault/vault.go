// Package vault holds the reversible mapping between placeholder tokens and
// the original sensitive values they replaced during inbound scanning.
package vault

import (
	"fmt"
	"strings"
	"sync"
)

// Vault maps placeholder tokens to the original values they stand for.
// It is scoped to one gateway instance (one logical session) and is safe
// for concurrent use.
type Vault struct {
	mu sync.Mutex

	// placeholder -> original
	entries map[string]string
	// entityType+"\x00"+original -> placeholder, so repeated values get a
	// stable placeholder within one session.
	reserved map[string]string
	counter  int
}

// New creates an empty vault.
func New() *Vault {
	return &Vault{
		entries:  make(map[string]string),
		reserved: make(map[string]string),
	}
}

// Reserve returns a placeholder for the given original value. Reserving the
// same (entityType, original) pair again returns the same placeholder, so a
// value that appears several times stays coherent across a long response.
// source is the text being redacted: a candidate placeholder that already
// occurs in it literally is skipped, so a message that happens to contain
// placeholder-shaped text can never be conflated with a real redaction.
func (v *Vault) Reserve(entityType, original, source string) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	key := entityKey(entityType, original)
	if ph, ok := v.reserved[key]; ok {
		return ph
	}

	var ph string
	for {
		v.counter++
		ph = fmt.Sprintf("[REDACTED_%s_%d]", normalizeEntityType(entityType), v.counter)
		if _, taken := v.entries[ph]; taken {
			continue
		}
		if !strings.Contains(source, ph) {
			break
		}
	}

	v.entries[ph] = original
	v.reserved[key] = ph
	return ph
}

// Resolve returns the original value for a placeholder. The second return is
// false when the placeholder was never reserved in this vault.
func (v *Vault) Resolve(placeholder string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	original, ok := v.entries[placeholder]
	return original, ok
}

// Clear drops every entry. Meant for explicit session boundaries.
func (v *Vault) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.entries = make(map[string]string)
	v.reserved = make(map[string]string)
	v.counter = 0
}

// Len reports the number of live entries.
func (v *Vault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return len(v.entries)
}

func entityKey(entityType, original string) string {
	return normalizeEntityType(entityType) + "\x00" + original
}

func normalizeEntityType(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		t = "VALUE"
	}
	return strings.ToUpper(strings.ReplaceAll(t, " ", "_"))
}
