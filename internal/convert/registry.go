package convert

import (
	"sort"
	"strings"
	"sync"
)

// Registry is an insertion-ordered converter dispatch table. Registration is
// additive for the process lifetime; overlapping formats are legal and the
// first registered match wins.
type Registry struct {
	mu         sync.RWMutex
	converters []Converter
	allowed    map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a converter. No de-duplication is performed.
func (r *Registry) Register(c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters = append(r.converters, c)
}

// Restrict limits dispatch to the given formats regardless of what the
// registered converters support. An empty list clears the restriction.
func (r *Registry) Restrict(formats []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(formats) == 0 {
		r.allowed = nil
		return
	}
	r.allowed = make(map[string]struct{}, len(formats))
	for _, f := range formats {
		r.allowed[strings.ToLower(strings.TrimPrefix(f, "."))] = struct{}{}
	}
}

// allows assumes the lock is held.
func (r *Registry) allows(ext string) bool {
	if r.allowed == nil {
		return true
	}
	_, ok := r.allowed[ext]
	return ok
}

// ConverterFor returns the first registered converter that can handle path,
// or nil when none matches or the format is not allowed.
func (r *Registry) ConverterFor(path string) Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.allows(extOf(path)) {
		return nil
	}
	for _, c := range r.converters {
		if c.CanConvert(path) {
			return c
		}
	}
	return nil
}

// ConvertersForFormat returns every converter supporting ext, in
// registration order. The extension may carry a leading dot and any case.
func (r *Registry) ConvertersForFormat(ext string) []Converter {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.allows(ext) {
		return nil
	}
	var out []Converter
	for _, c := range r.converters {
		for _, f := range c.SupportedFormats() {
			if f == ext {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// SupportedFormats returns the sorted, deduplicated union of all registered
// converters' formats.
func (r *Registry) SupportedFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, c := range r.converters {
		for _, f := range c.SupportedFormats() {
			if r.allows(f) {
				seen[f] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered converters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.converters)
}
