package component

import "fmt"

// Kind enumerates the interface object categories of a node model.
type Kind int

const (
	KindAttribute Kind = iota
	KindProperty
	KindOperation
	KindInputPort
	KindOutputPort
	KindDynamicInputPort
	KindDynamicOutputPort

	kindCount
)

var kindNames = [kindCount]string{
	"attribute",
	"property",
	"operation",
	"input port",
	"output port",
	"dynamic input port",
	"dynamic output port",
}

func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds returns every interface object category.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// InterfaceObject is a named element of a node model's interface.
type InterfaceObject interface {
	Name() string
	Node() *NodeModel
	Kind() Kind
	Doc() string
	SetDoc(doc string)

	// rebind returns a copy of the object owned by node under name.
	rebind(node *NodeModel, name string) InterfaceObject
}

// objectSet is an insertion-ordered name→object map.
type objectSet struct {
	names  []string
	byName map[string]InterfaceObject
}

func (s *objectSet) get(name string) (InterfaceObject, bool) {
	obj, ok := s.byName[name]
	return obj, ok
}

func (s *objectSet) put(obj InterfaceObject) {
	if s.byName == nil {
		s.byName = make(map[string]InterfaceObject)
	}
	if _, ok := s.byName[obj.Name()]; !ok {
		s.names = append(s.names, obj.Name())
	}
	s.byName[obj.Name()] = obj
}

func (s *objectSet) values() []InterfaceObject {
	out := make([]InterfaceObject, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.byName[n])
	}
	return out
}

// lookup walks the ancestor chain of m without promoting anything.
func (m *NodeModel) lookup(k Kind, name string) (InterfaceObject, bool) {
	for cur := m; cur != nil; cur = cur.supermodel {
		if obj, ok := cur.objects[k].get(name); ok {
			return obj, true
		}
	}
	return nil, false
}

// find returns the object named name, promoting it into m when it is
// inherited. Later calls return the promoted copy.
func (m *NodeModel) find(k Kind, name string) InterfaceObject {
	if obj, ok := m.objects[k].get(name); ok {
		return obj
	}
	if m.supermodel == nil {
		return nil
	}
	inherited, ok := m.supermodel.lookup(k, name)
	if !ok {
		return nil
	}
	promoted := inherited.rebind(m, inherited.Name())
	m.objects[k].put(promoted)
	return promoted
}

// each enumerates base-to-derived. A name declared again further down the
// chain keeps its first position but yields the most derived object.
func (m *NodeModel) each(k Kind) []InterfaceObject {
	var chain []*NodeModel
	for cur := m; cur != nil; cur = cur.supermodel {
		chain = append(chain, cur)
	}

	var names []string
	byName := make(map[string]InterfaceObject)
	for i := len(chain) - 1; i >= 0; i-- {
		set := &chain[i].objects[k]
		for _, n := range set.names {
			if _, seen := byName[n]; !seen {
				names = append(names, n)
			}
			byName[n] = set.byName[n]
		}
	}

	out := make([]InterfaceObject, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out
}

func findAs[T InterfaceObject](m *NodeModel, k Kind, name string) T {
	var zero T
	obj := m.find(k, name)
	if obj == nil {
		return zero
	}
	return obj.(T)
}

func castAll[T InterfaceObject](objs []InterfaceObject) []T {
	out := make([]T, 0, len(objs))
	for _, obj := range objs {
		out = append(out, obj.(T))
	}
	return out
}
