// Package vault holds delivered credentials in process memory for the
// lifetime of the tool server. Secrets are exposed to tool executions in
// exactly two ways: inline placeholder substitution immediately before a
// command reaches the shell, and environment variable projection into
// spawned subprocesses. The vault is never serialized, logged, or
// written to disk; file content keeps placeholder tokens intact.
package vault

import (
	"regexp"
	"sort"
	"sync"
)

// placeholderPattern matches <credential:NAME> tokens embedded in
// command strings.
var placeholderPattern = regexp.MustCompile(`<credential:([A-Za-z0-9_.-]+)>`)

// namePattern is the name charset placeholderPattern can reference. It
// also keeps names usable as environment variable keys.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidName reports whether a credential name can be referenced by a
// placeholder token. Delivery of a name that fails this check is
// rejected up front, since the stored secret would be unreachable.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Vault is an in-memory name-to-secret mapping. It is constructed once
// at startup and passed into the dispatcher; there is no package-level
// instance. Writes happen only while a credential delivery message is
// being handled; concurrent executions read through an RWMutex.
type Vault struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// New returns an empty vault.
func New() *Vault {
	return &Vault{secrets: make(map[string]string)}
}

// Put stores or replaces a credential.
func (v *Vault) Put(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.secrets[name] = value
}

// Get returns the secret for name, if present.
func (v *Vault) Get(name string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	value, ok := v.secrets[name]
	return value, ok
}

// Delete removes a credential.
func (v *Vault) Delete(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.secrets, name)
}

// Names returns the stored credential names in sorted order. Names are
// safe to log; values never are.
func (v *Vault) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.secrets))
	for name := range v.secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolvePlaceholders replaces every <credential:NAME> token whose name
// is stored with its secret value. Unknown names are left verbatim so
// the command fails naturally and diagnosably instead of aborting the
// whole request.
func (v *Vault) ResolvePlaceholders(s string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		if value, ok := v.secrets[name]; ok {
			return value
		}
		return token
	})
}

// Environ returns one NAME=value entry per stored credential, for
// injection into a subprocess environment. Entries are sorted by name so
// the constructed environment is deterministic.
func (v *Vault) Environ() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.secrets))
	for name := range v.secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	env := make([]string, 0, len(names))
	for _, name := range names {
		env = append(env, name+"="+v.secrets[name])
	}
	return env
}
