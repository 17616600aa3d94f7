// Package plugin implements the Asset Reader plugin registry:
// extension-keyed factories the I/O Manager consults to turn a
// media path into a avio.Reader, without either side knowing about
// concrete decoder packages.
package plugin

import (
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/timelineio/tlplay/internal/avio"
)

// Capability is a bitmask describing what kinds of media a plugin can read,
// used to filter GetExtensions results (e.g. "give me only audio-capable
// extensions").
type Capability uint8

const (
	CapabilityVideo Capability = 1 << iota
	CapabilityAudio
)

// entry is one registered plugin: the extensions it claims, its
// capabilities, and the factory that builds a Reader for a path with that
// extension.
type entry struct {
	name         string
	extensions   []string
	capabilities Capability
	factory      avio.Factory
	readerType   reflect.Type
}

// Plugin is the read-only metadata GetPlugin/GetPluginByType return: enough
// for a caller to identify which plugin would serve a path, without
// exposing its factory.
type Plugin struct {
	Name         string
	Extensions   []string
	Capabilities Capability
}

func (e *entry) toPlugin() Plugin {
	return Plugin{Name: e.name, Extensions: e.extensions, Capabilities: e.capabilities}
}

// Registry maps file extensions to Reader factories. The zero value is
// usable; construct with NewRegistry for clarity at call sites.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry // extension -> entry
	byName  map[string]*entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		byName:  make(map[string]*entry),
	}
}

// Register adds a plugin under name, claiming the given extensions
// (lower-cased, with or without a leading dot). The first registered plugin
// that claims an extension wins; a later Register call for an extension
// already claimed by an earlier one is a no-op for that extension, so
// registration order decides ties rather than last-write-wins.
func (r *Registry) Register(name string, extensions []string, capabilities Capability, factory avio.Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]*entry)
	}
	if r.byName == nil {
		r.byName = make(map[string]*entry)
	}

	e := &entry{name: name, capabilities: capabilities, factory: factory}
	for _, ext := range extensions {
		ext = normalizeExt(ext)
		if _, claimed := r.entries[ext]; claimed {
			continue
		}
		e.extensions = append(e.extensions, ext)
		r.entries[ext] = e
	}
	r.byName[name] = e
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// GetPlugins returns the names of every registered plugin, sorted for
// deterministic diagnostics output.
func (r *Registry) GetPlugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetExtensions returns every extension registered under at least one of
// the given capability bits. Passing 0 returns every registered extension.
func (r *Registry) GetExtensions(mask Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exts []string
	for ext, e := range r.entries {
		if mask == 0 || e.capabilities&mask != 0 {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// factoryFor looks up the factory registered for path's extension.
func (r *Registry) factoryFor(path string) (avio.Factory, error) {
	ext := normalizeExt(filepath.Ext(path))
	r.mu.RLock()
	e, ok := r.entries[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("plugin: no reader registered for extension %q (path %s)", ext, path)
	}
	return e.factory, nil
}

// Read opens path with the registered plugin for its extension.
func (r *Registry) Read(path string, opts avio.Options) (avio.Reader, error) {
	factory, err := r.factoryFor(path)
	if err != nil {
		return nil, err
	}
	return factory(path, opts)
}

// GetPlugin returns the plugin registered for path's extension, the same
// selection Read uses, but without opening a Reader. A path with no
// recognized extension (including "") returns ok == false.
func (r *Registry) GetPlugin(path string) (Plugin, bool) {
	ext := normalizeExt(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[ext]
	if !ok {
		return Plugin{}, false
	}
	return e.toPlugin(), true
}

// RegisterTyped registers a plugin exactly like Register, additionally
// recording sample's concrete type so GetPluginByType can look this plugin
// up by its Reader implementation. sample is used only for its static
// type and is never called — pass a typed nil, e.g. (*ffmpegio.Reader)(nil).
func (r *Registry) RegisterTyped(name string, extensions []string, capabilities Capability, factory avio.Factory, sample avio.Reader) {
	r.Register(name, extensions, capabilities, factory)
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byName[name]; ok {
		e.readerType = reflect.TypeOf(sample)
	}
}

// GetPluginByType returns the plugin registered (via RegisterTyped) whose
// Reader implementation is concrete type T — the Go rendition of the
// original's get_plugin_by_type<T>(), used to look a plugin up by
// implementation rather than by extension.
func GetPluginByType[T avio.Reader](r *Registry) (Plugin, bool) {
	want := reflect.TypeOf((*T)(nil)).Elem()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.byName {
		if e.readerType == want {
			return e.toPlugin(), true
		}
	}
	return Plugin{}, false
}
