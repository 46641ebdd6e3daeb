package modelfile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/domain/types"
	"github.com/zjrosen/nodekit/internal/log"
)

// ParseTypekit evaluates the registry and typelist documents of a typekit.
func (p *Parser) ParseTypekit(loader component.Loader, text TypekitText) (*component.Typekit, error) {
	var list TypelistDef
	if err := p.decodeYAML(text.Typelist, text.Origin+TypelistSuffix, &list); err != nil {
		return nil, err
	}
	var reg RegistryDef
	if len(text.Registry) > 0 {
		if err := p.decodeYAML(text.Registry, text.Origin+RegistrySuffix, &reg); err != nil {
			return nil, err
		}
	}

	registry, err := BuildRegistry(reg)
	if err != nil {
		return nil, fmt.Errorf("typekit %s: %w", list.Name, err)
	}
	for _, n := range append(list.Typelist, list.InterfaceTypelist...) {
		if !registry.Has(n) {
			return nil, fmt.Errorf("%w: typekit %s lists %s, which its registry does not define",
				types.ErrInvalidDefinition, list.Name, n)
		}
	}

	tk := component.NewTypekitWithRegistry(loader, list.Name, registry, list.Typelist, list.InterfaceTypelist)
	log.Debug(log.CatTypekit, "parsed typekit", "typekit", list.Name, "types", registry.Len(), "exported", len(list.InterfaceTypelist))
	return tk, nil
}

// BuildRegistry creates the types of a registry document. Types may be listed
// in any order: definitions whose dependencies are still missing are retried
// until no further progress is made.
func BuildRegistry(def RegistryDef) (*types.Registry, error) {
	registry := types.NewRegistry()

	pending := make([]types.Definition, 0, len(def.Types))
	for _, td := range def.Types {
		d, err := td.Definition()
		if err != nil {
			return nil, err
		}
		pending = append(pending, d)
	}

	for len(pending) > 0 {
		var retry []types.Definition
		var firstErr error
		for _, d := range pending {
			if _, err := registry.Create(d); err != nil {
				if !errors.Is(err, types.ErrNotFound) {
					return nil, err
				}
				retry = append(retry, d)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		if len(retry) == len(pending) {
			return nil, firstErr
		}
		pending = retry
	}

	aliases := make([]string, 0, len(def.Aliases))
	for name := range def.Aliases {
		aliases = append(aliases, name)
	}
	sort.Strings(aliases)
	for _, name := range aliases {
		if err := registry.Alias(name, def.Aliases[name]); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Definition converts the document form of a type to a registry definition.
func (td TypeDef) Definition() (types.Definition, error) {
	category, err := types.ParseCategory(td.Category)
	if err != nil {
		return types.Definition{}, err
	}
	d := types.Definition{
		Category:  category,
		Name:      td.Name,
		Size:      td.Size,
		Numeric:   types.NumericKind(td.Numeric),
		Element:   td.Element,
		Length:    td.Length,
		Container: td.Container,
	}
	for _, f := range td.Fields {
		d.Fields = append(d.Fields, types.FieldDefinition{Name: f.Name, Type: f.Type})
	}
	for _, v := range td.Values {
		d.Values = append(d.Values, types.EnumValue{Symbol: v.Symbol, Value: v.Value})
	}
	return d, nil
}
