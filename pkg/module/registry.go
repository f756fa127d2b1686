package module

import "fmt"

// Registry maps a module type name (as named in config under each tool's
// "module" field) to the Constructor that builds it. It replaces the
// source's dynamic-import-by-string dispatch (the Python runtime importing
// a module file named after the string) with an explicit, compile-time-safe
// table built by init() registration — the same built-in-catalog pattern
// used for module tool/resource names elsewhere in the pipeline.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// global is the process-wide registry built-in modules register themselves
// into from their package's init().
var global = NewRegistry()

// Register adds name to the global registry. Called from init() by built-in
// module packages; panics on a duplicate name since that can only indicate
// a programming error discovered at process startup, not a runtime
// condition callers should recover from.
func Register(name string, ctor Constructor) {
	if err := global.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Global returns the process-wide Registry built-in modules register into.
func Global() *Registry {
	return global
}

// Register adds name to the registry, failing if name is already present.
func (r *Registry) Register(name string, ctor Constructor) error {
	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("module: registry already has a constructor for %q", name)
	}
	r.constructors[name] = ctor
	return nil
}

// Build constructs the module named name (config's "module" field) with the
// given tool id and parameters.
func (r *Registry) Build(name, moduleID string, params map[string]any) (Module, error) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("module: no constructor registered for %q", name)
	}
	return ctor(moduleID, params)
}

// Names returns every registered module type name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	return names
}
