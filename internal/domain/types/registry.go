package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Registry errors
var (
	ErrNotFound          = errors.New("type not found")
	ErrConflict          = errors.New("conflicting type definition")
	ErrUnknownCategory   = errors.New("unknown type category")
	ErrInvalidDefinition = errors.New("invalid type definition")
)

// FieldDefinition describes a compound field by type name.
type FieldDefinition struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required"`
}

// Definition is the category-independent input of Registry.Create.
// Only the fields relevant to Category are read.
type Definition struct {
	Category  Category
	Name      string
	Size      int
	Numeric   NumericKind
	Element   string
	Length    int
	Fields    []FieldDefinition
	Values    []EnumValue
	Container string
}

type factory func(r *Registry, def Definition) (*Type, error)

// factories is the closed set of supported categories.
var factories = map[Category]factory{
	CategoryNull:      createNull,
	CategoryNumeric:   createNumeric,
	CategoryArray:     createArray,
	CategoryCompound:  createCompound,
	CategoryEnum:      createEnum,
	CategoryOpaque:    createOpaque,
	CategoryContainer: createContainer,
}

// Entry is one name of a registry, either canonical or an alias.
type Entry struct {
	Name  string
	Type  *Type
	Alias bool
}

// Registry holds types by name.
type Registry struct {
	types   map[string]*Type
	order   []string
	aliases map[string]string
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		types:   make(map[string]*Type),
		aliases: make(map[string]string),
	}
}

// Len returns the number of canonical types.
func (r *Registry) Len() int {
	return len(r.order)
}

// Get returns the type registered under name, following aliases.
func (r *Registry) Get(name string) (*Type, error) {
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// Has reports whether name (or an alias of that name) is known.
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Add registers an already built type. Adding a type equal to an existing one is a no-op.
func (r *Registry) Add(t *Type) error {
	if t == nil || !validName(t.Name) {
		return fmt.Errorf("%w: invalid type name %q", ErrInvalidDefinition, t.String())
	}
	if existing, ok := r.types[t.Name]; ok {
		if !existing.Equal(t) {
			return fmt.Errorf("%w: %s", ErrConflict, t.Name)
		}
		return nil
	}
	if _, ok := r.aliases[t.Name]; ok {
		return fmt.Errorf("%w: %s is already an alias", ErrConflict, t.Name)
	}
	r.types[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Alias makes name resolve to target.
func (r *Registry) Alias(name, target string) error {
	t, err := r.Get(target)
	if err != nil {
		return err
	}
	if !validName(name) {
		return fmt.Errorf("%w: invalid alias name %q", ErrInvalidDefinition, name)
	}
	if _, ok := r.types[name]; ok {
		return fmt.Errorf("%w: %s is already a type", ErrConflict, name)
	}
	if existing, ok := r.aliases[name]; ok && existing != t.Name {
		return fmt.Errorf("%w: alias %s already points to %s", ErrConflict, name, existing)
	}
	r.aliases[name] = t.Name
	return nil
}

// Each returns the registry entries in registration order. Aliases follow the
// canonical names when withAliases is set.
func (r *Registry) Each(withAliases bool) []Entry {
	entries := make([]Entry, 0, len(r.order)+len(r.aliases))
	for _, name := range r.order {
		entries = append(entries, Entry{Name: name, Type: r.types[name]})
	}
	if !withAliases {
		return entries
	}
	for _, name := range sortedKeys(r.aliases) {
		entries = append(entries, Entry{Name: name, Type: r.types[r.aliases[name]], Alias: true})
	}
	return entries
}

// Merge adds every type and alias of other. Nothing is changed when other
// defines a name differently than r does.
func (r *Registry) Merge(other *Registry) error {
	if other == nil || other == r {
		return nil
	}
	for _, name := range other.order {
		if existing, ok := r.types[name]; ok && !existing.Equal(other.types[name]) {
			return fmt.Errorf("%w: %s", ErrConflict, name)
		}
		if _, ok := r.aliases[name]; ok {
			return fmt.Errorf("%w: %s is an alias", ErrConflict, name)
		}
	}
	for alias, target := range other.aliases {
		if existing, ok := r.aliases[alias]; ok && existing != target {
			return fmt.Errorf("%w: alias %s", ErrConflict, alias)
		}
		if _, ok := r.types[alias]; ok {
			return fmt.Errorf("%w: alias %s is a type", ErrConflict, alias)
		}
	}

	for _, name := range other.order {
		if _, ok := r.types[name]; ok {
			continue
		}
		r.types[name] = other.types[name]
		r.order = append(r.order, name)
	}
	for alias, target := range other.aliases {
		r.aliases[alias] = target
	}
	return nil
}

// Minimal returns a registry containing the named type, everything it depends
// on and the aliases pointing to any of them.
func (r *Registry) Minimal(name string) (*Registry, error) {
	root, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	sub := NewRegistry()
	var visit func(t *Type)
	visit = func(t *Type) {
		if _, ok := sub.types[t.Name]; ok {
			return
		}
		for _, dep := range t.Dependencies() {
			visit(dep)
		}
		sub.types[t.Name] = t
		sub.order = append(sub.order, t.Name)
	}
	visit(root)

	for alias, target := range r.aliases {
		if _, ok := sub.types[target]; ok {
			sub.aliases[alias] = target
		}
	}
	return sub, nil
}

// Create builds a type through the factory registered for def.Category and adds it.
func (r *Registry) Create(def Definition) (*Type, error) {
	build, ok := factories[def.Category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, def.Category)
	}
	t, err := build(r, def)
	if err != nil {
		return nil, err
	}
	if err := r.Add(t); err != nil {
		return nil, err
	}
	return r.types[t.Name], nil
}

// CreateNull creates a type with no value.
func (r *Registry) CreateNull(name string) (*Type, error) {
	return r.Create(Definition{Category: CategoryNull, Name: name})
}

// CreateNumeric creates a numeric type of the given byte size.
func (r *Registry) CreateNumeric(name string, size int, kind NumericKind) (*Type, error) {
	return r.Create(Definition{Category: CategoryNumeric, Name: name, Size: size, Numeric: kind})
}

// CreateArray creates a fixed-length array of element.
func (r *Registry) CreateArray(element string, length int) (*Type, error) {
	return r.Create(Definition{Category: CategoryArray, Element: element, Length: length})
}

// CreateCompound creates a compound type with the given fields.
func (r *Registry) CreateCompound(name string, fields ...FieldDefinition) (*Type, error) {
	return r.Create(Definition{Category: CategoryCompound, Name: name, Fields: fields})
}

// CreateEnum creates an enum type.
func (r *Registry) CreateEnum(name string, values ...EnumValue) (*Type, error) {
	return r.Create(Definition{Category: CategoryEnum, Name: name, Values: values})
}

// CreateOpaque creates a type whose structure is unknown to the registry.
func (r *Registry) CreateOpaque(name string, size int) (*Type, error) {
	return r.Create(Definition{Category: CategoryOpaque, Name: name, Size: size})
}

// CreateContainer creates a variable-length container of element.
func (r *Registry) CreateContainer(kind, element string) (*Type, error) {
	return r.Create(Definition{Category: CategoryContainer, Container: kind, Element: element})
}

func createNull(_ *Registry, def Definition) (*Type, error) {
	return &Type{Name: def.Name, Category: CategoryNull}, nil
}

func createNumeric(_ *Registry, def Definition) (*Type, error) {
	if def.Size <= 0 {
		return nil, fmt.Errorf("%w: numeric %s needs a positive size", ErrInvalidDefinition, def.Name)
	}
	kind := def.Numeric
	switch kind {
	case "":
		kind = Signed
	case Signed, Unsigned:
	case Float:
		if def.Size != 4 && def.Size != 8 {
			return nil, fmt.Errorf("%w: float %s must be 4 or 8 bytes", ErrInvalidDefinition, def.Name)
		}
	default:
		return nil, fmt.Errorf("%w: numeric kind %q", ErrInvalidDefinition, kind)
	}
	return &Type{Name: def.Name, Category: CategoryNumeric, Size: def.Size, Numeric: kind}, nil
}

func createArray(r *Registry, def Definition) (*Type, error) {
	if def.Length <= 0 {
		return nil, fmt.Errorf("%w: array length must be positive", ErrInvalidDefinition)
	}
	elem, err := r.Get(def.Element)
	if err != nil {
		return nil, err
	}
	name := def.Name
	if name == "" {
		name = ArrayName(elem.Name, def.Length)
	}
	return &Type{
		Name:     name,
		Category: CategoryArray,
		Size:     elem.Size * def.Length,
		Element:  elem,
		Length:   def.Length,
	}, nil
}

func createCompound(r *Registry, def Definition) (*Type, error) {
	seen := make(map[string]bool, len(def.Fields))
	fields := make([]Field, 0, len(def.Fields))
	size := 0
	for _, f := range def.Fields {
		if f.Name == "" || seen[f.Name] {
			return nil, fmt.Errorf("%w: %s has an empty or duplicate field %q", ErrInvalidDefinition, def.Name, f.Name)
		}
		seen[f.Name] = true
		ft, err := r.Get(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s of %s: %w", f.Name, def.Name, err)
		}
		size += ft.Size
		fields = append(fields, Field{Name: f.Name, Type: ft})
	}
	return &Type{Name: def.Name, Category: CategoryCompound, Size: size, Fields: fields}, nil
}

func createEnum(_ *Registry, def Definition) (*Type, error) {
	if len(def.Values) == 0 {
		return nil, fmt.Errorf("%w: enum %s has no values", ErrInvalidDefinition, def.Name)
	}
	seen := make(map[string]bool, len(def.Values))
	for _, v := range def.Values {
		if v.Symbol == "" || seen[v.Symbol] {
			return nil, fmt.Errorf("%w: enum %s has an empty or duplicate symbol %q", ErrInvalidDefinition, def.Name, v.Symbol)
		}
		seen[v.Symbol] = true
	}
	values := append([]EnumValue(nil), def.Values...)
	return &Type{Name: def.Name, Category: CategoryEnum, Size: 4, Values: values}, nil
}

func createOpaque(_ *Registry, def Definition) (*Type, error) {
	return &Type{Name: def.Name, Category: CategoryOpaque, Size: def.Size}, nil
}

func createContainer(r *Registry, def Definition) (*Type, error) {
	if !validName(def.Container) {
		return nil, fmt.Errorf("%w: invalid container kind %q", ErrInvalidDefinition, def.Container)
	}
	elem, err := r.Get(def.Element)
	if err != nil {
		return nil, err
	}
	name := def.Name
	if name == "" {
		name = ContainerName(def.Container, elem.Name)
	}
	return &Type{Name: name, Category: CategoryContainer, Element: elem, Container: def.Container}, nil
}

// validName reports whether name is an absolute registry name.
func validName(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, "/")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
