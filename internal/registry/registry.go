// Package registry is the process-wide catalog of model backend factories.
//
// Registration is decoupled from construction and loading: capability queries
// read the static descriptor registered with each factory and never touch disk
// or memory.
package registry

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"modelhub/internal/backend"
)

// Plugin is what a backend contributes to the registry: its factory plus the
// static descriptor used for capability queries.
type Plugin struct {
	Descriptor backend.Descriptor
	New        backend.Factory
}

type entry struct {
	plugin Plugin
	fnPtr  uintptr
}

// Registry maps canonical names and aliases to plugins. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	aliases map[string]string // alias -> canonical
	log     zerolog.Logger
}

// New returns an empty registry.
func New(log zerolog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]entry),
		aliases: make(map[string]string),
		log:     log,
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry. Plugins are added to it by an
// explicit call during startup (see plugins.RegisterBuiltins), never by init.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = New(zerolog.Nop()) })
	return defaultReg
}

// SetLogger replaces the logger used for non-fatal registry warnings.
func (r *Registry) SetLogger(l zerolog.Logger) {
	r.mu.Lock()
	r.log = l
	r.mu.Unlock()
}

// Register adds p under name (or a name derived from the plugin when empty)
// and under each alias. Registering the same plugin twice under one name is a
// no-op; a different plugin under a taken name fails with a *DuplicateError.
// Two plugins are the same when their factory code and descriptor both match,
// since factories built by one constructor share a code pointer.
// Alias collisions with another target are logged and skipped.
func (r *Registry) Register(p Plugin, name string, aliases ...string) error {
	if p.New == nil {
		return fmt.Errorf("register %q: nil factory", name)
	}
	if name == "" {
		name = deriveName(p)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("register: cannot derive a name for plugin")
	}
	ptr := reflect.ValueOf(p.New).Pointer()

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[name]; ok {
		if existing.fnPtr != ptr || !reflect.DeepEqual(existing.plugin.Descriptor, p.Descriptor) {
			return &DuplicateError{Name: name}
		}
	} else {
		r.entries[name] = entry{plugin: p, fnPtr: ptr}
		r.log.Debug().Str("model", name).Msg("registry event=register")
	}
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" || a == name {
			continue
		}
		if target, ok := r.aliases[a]; ok && target != name {
			r.log.Warn().Str("alias", a).Str("target", target).Str("model", name).Msg("registry event=alias_collision")
			continue
		}
		if _, ok := r.entries[a]; ok {
			r.log.Warn().Str("alias", a).Str("model", name).Msg("registry event=alias_shadows_name")
			continue
		}
		r.aliases[a] = name
	}
	return nil
}

// Unregister removes the canonical entry resolved from nameOrAlias and every
// alias pointing at it. Absent names are ignored.
func (r *Registry) Unregister(nameOrAlias string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := r.canonicalLocked(nameOrAlias)
	if _, ok := r.entries[name]; !ok {
		return
	}
	delete(r.entries, name)
	for a, target := range r.aliases {
		if target == name {
			delete(r.aliases, a)
		}
	}
	r.log.Debug().Str("model", name).Msg("registry event=unregister")
}

// Canonical resolves an alias to its canonical name. Unknown inputs are
// returned unchanged.
func (r *Registry) Canonical(nameOrAlias string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canonicalLocked(nameOrAlias)
}

func (r *Registry) canonicalLocked(nameOrAlias string) string {
	if target, ok := r.aliases[nameOrAlias]; ok {
		return target
	}
	return nameOrAlias
}

// Resolve returns the plugin registered under nameOrAlias.
func (r *Registry) Resolve(nameOrAlias string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[r.canonicalLocked(nameOrAlias)]
	if !ok {
		return Plugin{}, &NotFoundError{Name: nameOrAlias}
	}
	return e.plugin, nil
}

// Has reports whether nameOrAlias resolves to a registered plugin.
func (r *Registry) Has(nameOrAlias string) bool {
	_, err := r.Resolve(nameOrAlias)
	return err == nil
}

// Create resolves nameOrAlias and constructs (but does not initialize) a backend.
func (r *Registry) Create(nameOrAlias string, cfg backend.Config) (backend.Backend, error) {
	p, err := r.Resolve(nameOrAlias)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = backend.Config{}
	}
	b, err := p.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", r.Canonical(nameOrAlias), err)
	}
	return b, nil
}

// Describe returns the static descriptor for nameOrAlias. Plugins registered
// without one are constructed with an empty config to read it.
func (r *Registry) Describe(nameOrAlias string) (backend.Descriptor, error) {
	p, err := r.Resolve(nameOrAlias)
	if err != nil {
		return backend.Descriptor{}, err
	}
	return describe(p)
}

// ListNames returns canonical names in sorted order.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.entries))
	for n := range r.entries {
		out = append(out, n)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// ListAliases returns a copy of the alias -> canonical mapping.
func (r *Registry) ListAliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.aliases))
	for a, n := range r.aliases {
		out[a] = n
	}
	return out
}

// AliasesOf returns the sorted aliases pointing at canonical name.
func (r *Registry) AliasesOf(name string) []string {
	r.mu.RLock()
	var out []string
	for a, n := range r.aliases {
		if n == name {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

func describe(p Plugin) (d backend.Descriptor, err error) {
	if !p.Descriptor.IsZero() {
		return p.Descriptor, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("capability query panicked: %v", rec)
		}
	}()
	b, err := p.New(backend.Config{})
	if err != nil {
		return backend.Descriptor{}, err
	}
	return backend.Descriptor{Metadata: b.Metadata(), Capabilities: b.Capabilities()}, nil
}

// deriveName prefers the descriptor name, falling back to the factory's
// package name (e.g. "modelhub/internal/backend/echo.New" -> "echo").
func deriveName(p Plugin) string {
	if n := strings.TrimSpace(p.Descriptor.Metadata.Name); n != "" {
		return n
	}
	fn := runtime.FuncForPC(reflect.ValueOf(p.New).Pointer())
	if fn == nil {
		return ""
	}
	full := fn.Name()
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.Index(full, "."); i >= 0 {
		full = full[:i]
	}
	return strings.ToLower(full)
}
