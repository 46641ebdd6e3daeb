package component

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/nodekit/internal/domain/types"
)

// Lookup errors. Every XNotFound wraps ErrNotFound and every AmbiguousX wraps
// ErrAmbiguousName, so callers can match either the kind or the family.
var (
	ErrNotFound                  = errors.New("not found")
	ErrProjectNotFound           = fmt.Errorf("project %w", ErrNotFound)
	ErrTypekitNotFound           = fmt.Errorf("typekit %w", ErrNotFound)
	ErrTypeNotFound              = fmt.Errorf("type %w", ErrNotFound)
	ErrNodeModelNotFound         = fmt.Errorf("node model %w", ErrNotFound)
	ErrDeploymentModelNotFound   = fmt.Errorf("deployment model %w", ErrNotFound)
	ErrDeployedNodeModelNotFound = fmt.Errorf("deployed node %w", ErrNotFound)
	ErrDefinitionTypekitNotFound = fmt.Errorf("definition typekit %w", ErrNotFound)

	ErrAmbiguousName           = errors.New("ambiguous name")
	ErrAmbiguousProjectName    = fmt.Errorf("%w for project", ErrAmbiguousName)
	ErrAmbiguousNodeModelName  = fmt.Errorf("%w for node model", ErrAmbiguousName)
	ErrAmbiguousDeploymentName = fmt.Errorf("%w for deployment", ErrAmbiguousName)
	ErrAmbiguousDeployedNode   = fmt.Errorf("%w for deployed node", ErrAmbiguousName)
)

// Model construction and registration errors.
var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrInternal          = errors.New("internal error")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrDuplicateLoader   = fmt.Errorf("%w: loader already added", ErrInvalidArgument)
	ErrModel             = errors.New("model error")
	ErrIncompatibility   = fmt.Errorf("%w: incompatible declarations", ErrModel)
	ErrNotInterfaceType  = errors.New("not an interface type")
)

// NotInterfaceTypeError reports a type that resolves but that no typekit
// exports for use in node interfaces.
type NotInterfaceTypeError struct {
	Type *types.Type
	// Typekits lists the typekits whose registry knows the type.
	Typekits []*Typekit
}

func (e *NotInterfaceTypeError) Error() string {
	if len(e.Typekits) == 0 {
		return fmt.Sprintf("%s: %s is not exported by any typekit", ErrNotInterfaceType, e.Type)
	}
	names := make([]string, 0, len(e.Typekits))
	for _, tk := range e.Typekits {
		names = append(names, tk.Name())
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s is known to %s but none of them export it",
		ErrNotInterfaceType, e.Type, strings.Join(names, ", "))
}

// Is makes errors.Is(err, ErrNotInterfaceType) match.
func (e *NotInterfaceTypeError) Is(target error) bool {
	return target == ErrNotInterfaceType
}
