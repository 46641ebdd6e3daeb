package component

import (
	"fmt"
	"regexp"

	"github.com/zjrosen/nodekit/internal/domain/types"
)

var operationNamePattern = regexp.MustCompile(`^\w+$`)

// Argument is one operation argument.
type Argument struct {
	Name string
	Type *types.Type
	Doc  string
}

// Operation is a callable entry point of a node.
type Operation struct {
	object
	arguments      []Argument
	returnType     *types.Type
	returnDoc      string
	inCallerThread bool
	hidden         bool
}

var _ InterfaceObject = (*Operation)(nil)

// Kind returns KindOperation.
func (o *Operation) Kind() Kind { return KindOperation }

// Argument appends an argument whose type must be an interface type.
func (o *Operation) Argument(name, typeName, doc string) error {
	if !operationNamePattern.MatchString(name) {
		return fmt.Errorf("%w: argument name %q of %s is not an identifier", ErrInvalidArgument, name, o.name)
	}
	for _, a := range o.arguments {
		if a.Name == name {
			return fmt.Errorf("%w: %s already has an argument named %s", ErrInvalidArgument, o.name, name)
		}
	}
	typ, err := o.node.resolveInterfaceType(typeName)
	if err != nil {
		return err
	}
	o.arguments = append(o.arguments, Argument{Name: name, Type: typ, Doc: doc})
	return nil
}

// Arguments returns the declared arguments in order.
func (o *Operation) Arguments() []Argument {
	return append([]Argument(nil), o.arguments...)
}

// Returns declares the return type.
func (o *Operation) Returns(typeName, doc string) error {
	typ, err := o.node.resolveInterfaceType(typeName)
	if err != nil {
		return err
	}
	o.returnType, o.returnDoc = typ, doc
	return nil
}

// ReturnsNothing clears the return type.
func (o *Operation) ReturnsNothing() {
	o.returnType, o.returnDoc = nil, ""
}

// ReturnType returns the return type, nil for operations returning nothing.
func (o *Operation) ReturnType() *types.Type { return o.returnType }

// ReturnDoc documents the return value.
func (o *Operation) ReturnDoc() string { return o.returnDoc }

// HasReturnValue reports whether a return type was declared.
func (o *Operation) HasReturnValue() bool { return o.returnType != nil }

// SetInCallerThread selects whether the operation runs in the caller's thread
// instead of the node's own.
func (o *Operation) SetInCallerThread(v bool) { o.inCallerThread = v }

// InCallerThread reports whether the operation runs in the caller's thread.
func (o *Operation) InCallerThread() bool { return o.inCallerThread }

// SetHidden hides the operation from generated interfaces.
func (o *Operation) SetHidden(v bool) { o.hidden = v }

// Hidden reports whether the operation is hidden.
func (o *Operation) Hidden() bool { return o.hidden }

func (o *Operation) rebind(node *NodeModel, name string) InterfaceObject {
	dup := *o
	dup.node, dup.name = node, name
	dup.arguments = append([]Argument(nil), o.arguments...)
	return &dup
}
