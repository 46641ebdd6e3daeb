package component

import (
	"fmt"
	"sort"

	"github.com/zjrosen/nodekit/internal/domain/types"
)

// Typekit is a named bundle of types. Typelist holds the types the typekit
// defines; the interface typelist is the subset exported for node interfaces.
type Typekit struct {
	loader            Loader
	name              string
	registry          *types.Registry
	typelist          map[string]struct{}
	interfaceTypelist map[string]struct{}
}

// NewTypekit creates an empty typekit with its own registry.
func NewTypekit(loader Loader, name string) *Typekit {
	return NewTypekitWithRegistry(loader, name, types.NewRegistry(), nil, nil)
}

// NewTypekitWithRegistry creates a typekit over an existing registry. Every
// interface type is also recorded in the typelist.
func NewTypekitWithRegistry(loader Loader, name string, registry *types.Registry, typelist, interfaceTypelist []string) *Typekit {
	tk := &Typekit{
		loader:            loader,
		name:              name,
		registry:          registry,
		typelist:          make(map[string]struct{}, len(typelist)),
		interfaceTypelist: make(map[string]struct{}, len(interfaceTypelist)),
	}
	for _, n := range typelist {
		tk.typelist[n] = struct{}{}
	}
	for _, n := range interfaceTypelist {
		tk.typelist[n] = struct{}{}
		tk.interfaceTypelist[n] = struct{}{}
	}
	return tk
}

// Name returns the typekit name.
func (tk *Typekit) Name() string { return tk.name }

// Loader returns the loader the typekit was created for.
func (tk *Typekit) Loader() Loader { return tk.loader }

// Registry returns the typekit's own type registry.
func (tk *Typekit) Registry() *types.Registry { return tk.registry }

// Typelist returns the sorted names of the types defined by the typekit.
func (tk *Typekit) Typelist() []string { return sortedSet(tk.typelist) }

// InterfaceTypelist returns the sorted names of the exported types.
func (tk *Typekit) InterfaceTypelist() []string { return sortedSet(tk.interfaceTypelist) }

// RegisterType records name as defined by the typekit.
func (tk *Typekit) RegisterType(name string) {
	tk.typelist[name] = struct{}{}
}

// RegisterInterfaceType records name as defined and exported by the typekit.
func (tk *Typekit) RegisterInterfaceType(name string) {
	tk.RegisterType(name)
	tk.interfaceTypelist[name] = struct{}{}
}

// ResolveType looks name up in the typekit registry.
func (tk *Typekit) ResolveType(name string) (*types.Type, error) {
	t, err := tk.registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTypeNotFound, err)
	}
	return t, nil
}

// Include reports whether the typekit defines the type. Unknown names yield false.
func (tk *Typekit) Include(name string) bool {
	t, err := tk.registry.Get(name)
	if err != nil {
		return false
	}
	_, ok := tk.typelist[t.Name]
	return ok
}

// InterfaceType reports whether the typekit exports the type. Unknown names yield false.
func (tk *Typekit) InterfaceType(name string) bool {
	t, err := tk.registry.Get(name)
	if err != nil {
		return false
	}
	_, ok := tk.interfaceTypelist[t.Name]
	return ok
}

// DefinesArrayOf reports whether the typekit defines an array of the type.
func (tk *Typekit) DefinesArrayOf(name string) bool {
	elem, err := tk.registry.Get(name)
	if err != nil {
		return false
	}
	for n := range tk.typelist {
		t, err := tk.registry.Get(n)
		if err == nil && t.Is(types.CategoryArray) && t.Element.Equal(elem) {
			return true
		}
	}
	return false
}

// Create builds a type through the registry factory for def.Category and
// records it as defined by the typekit.
func (tk *Typekit) Create(def types.Definition) (*types.Type, error) {
	t, err := tk.registry.Create(def)
	if err != nil {
		return nil, err
	}
	tk.RegisterType(t.Name)
	return t, nil
}

// CreateInterface is Create for types exported to node interfaces.
func (tk *Typekit) CreateInterface(def types.Definition) (*types.Type, error) {
	t, err := tk.registry.Create(def)
	if err != nil {
		return nil, err
	}
	tk.RegisterInterfaceType(t.Name)
	return t, nil
}

func (tk *Typekit) String() string {
	return fmt.Sprintf("#<Typekit: %s>", tk.name)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
