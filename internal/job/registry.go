package job

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ahmethakanbesel/jobmanager/internal/validation"
)

// WorkFunc performs a job. It receives the validated input fields as
// positional arguments in schema order.
type WorkFunc func(ctx context.Context, args ...any) (map[string]any, error)

// Descriptor ties a job type to its input schema and work function. The type
// name doubles as the HTTP route prefix.
type Descriptor struct {
	Type   string
	Schema validation.Schema
	Work   WorkFunc
}

// Args extracts the positional work arguments from validated input.
func (d Descriptor) Args(input map[string]any) []any {
	args := make([]any, len(d.Schema))
	for i, f := range d.Schema {
		args[i] = input[f.Name]
	}
	return args
}

// Registry holds the descriptors of every known job type.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Descriptor)}
}

// Register adds d. Registering the same type twice or a descriptor without a
// work function panics; registration happens once at startup.
func (r *Registry) Register(d Descriptor) {
	if d.Type == "" || d.Work == nil {
		panic("job: descriptor needs a type and a work function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.types[d.Type]; dup {
		panic(fmt.Sprintf("job: type %q registered twice", d.Type))
	}
	r.types[d.Type] = d
}

func (r *Registry) Get(jobType string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[jobType]
	return d, ok
}

// Types returns registered type names sorted alphabetically.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
