package types

import (
	"fmt"
	"strings"
)

// Category identifies the kind of a Type.
type Category int

const (
	CategoryNull      Category = iota // no value, used for "void"
	CategoryNumeric                   // integers and floating point values
	CategoryArray                     // fixed-length sequence of one element type
	CategoryCompound                  // ordered named fields
	CategoryEnum                      // symbolic integer values
	CategoryOpaque                    // externally defined, size only
	CategoryContainer                 // variable-length collection of one element type
)

var categoryNames = map[Category]string{
	CategoryNull:      "null",
	CategoryNumeric:   "numeric",
	CategoryArray:     "array",
	CategoryCompound:  "compound",
	CategoryEnum:      "enum",
	CategoryOpaque:    "opaque",
	CategoryContainer: "container",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Categories returns every supported category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryNull,
		CategoryNumeric,
		CategoryArray,
		CategoryCompound,
		CategoryEnum,
		CategoryOpaque,
		CategoryContainer,
	}
}

// ParseCategory maps a category name ("numeric", "compound", ...) to its Category.
func ParseCategory(name string) (Category, error) {
	for c, n := range categoryNames {
		if n == strings.ToLower(name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// NumericKind refines numeric types.
type NumericKind string

const (
	Signed   NumericKind = "sint"
	Unsigned NumericKind = "uint"
	Float    NumericKind = "float"
)

// Field is one member of a compound type.
type Field struct {
	Name string
	Type *Type
}

// EnumValue is one symbol of an enum type.
type EnumValue struct {
	Symbol string `yaml:"symbol"`
	Value  int64  `yaml:"value"`
}

// Type is a named data type.
type Type struct {
	Name      string
	Category  Category
	Size      int
	Numeric   NumericKind
	Element   *Type // array and container element
	Length    int   // array length
	Fields    []Field
	Values    []EnumValue
	Container string // container kind, e.g. "/std/vector"
}

// Is reports whether the type belongs to category c.
func (t *Type) Is(c Category) bool {
	return t != nil && t.Category == c
}

// Equal reports whether two types have the same name and the same structure.
// Nested types are compared by name.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	if t.Name != o.Name || t.Category != o.Category || t.Size != o.Size ||
		t.Numeric != o.Numeric || t.Length != o.Length || t.Container != o.Container {
		return false
	}
	if typeName(t.Element) != typeName(o.Element) {
		return false
	}
	if len(t.Fields) != len(o.Fields) || len(t.Values) != len(o.Values) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i].Name != o.Fields[i].Name || typeName(t.Fields[i].Type) != typeName(o.Fields[i].Type) {
			return false
		}
	}
	for i := range t.Values {
		if t.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

// Dependencies returns the types this type directly refers to.
func (t *Type) Dependencies() []*Type {
	var deps []*Type
	if t.Element != nil {
		deps = append(deps, t.Element)
	}
	for _, f := range t.Fields {
		if f.Type != nil {
			deps = append(deps, f.Type)
		}
	}
	return deps
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

func typeName(t *Type) string {
	if t == nil {
		return ""
	}
	return t.Name
}

// ArrayName returns the registry name of an array of length elements.
func ArrayName(element string, length int) string {
	return fmt.Sprintf("%s[%d]", element, length)
}

// ContainerName returns the registry name of a container of elements.
func ContainerName(kind, element string) string {
	return fmt.Sprintf("%s<%s>", kind, element)
}
