package component

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Property: whatever chain of submodels is built and whatever is looked up
// through the leaf, objects owned by ancestors are never modified.
func TestInheritance_PromotionNeverMutatesAncestors(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		depth := rapid.IntRange(1, 5).Draw(rt, "depth")
		loader := newStubLoader(t)
		project := NewProject(loader, "prop")

		var chain []*NodeModel
		var declared []*OutputPort
		parent := RootNodeModel()
		for i := 0; i < depth; i++ {
			m, err := project.Node(fmt.Sprintf("prop::M%d", i), Supermodel(parent))
			require.NoError(rt, err)
			port, err := m.OutputPort(fmt.Sprintf("p%d", i), "/double")
			require.NoError(rt, err)
			port.SetDoc(fmt.Sprintf("declared on %d", i))
			chain = append(chain, m)
			declared = append(declared, port)
			parent = m
		}

		leaf := chain[len(chain)-1]
		lookups := rapid.SliceOfN(rapid.IntRange(0, depth-1), 1, 10).Draw(rt, "lookups")
		for _, i := range lookups {
			p := leaf.FindOutputPort(fmt.Sprintf("p%d", i))
			require.NotNil(rt, p)
			require.Same(rt, leaf, p.Node())
			p.SetDoc("changed through the leaf")
		}

		for i, port := range declared {
			require.Same(rt, chain[i], port.Node())
			if i < depth-1 {
				require.Equal(rt, fmt.Sprintf("declared on %d", i), port.Doc())
			}
		}
		require.Len(rt, leaf.OutputPorts(), depth)
	})
}

// Property: a name declared anywhere in the chain is rejected by every
// declaring operation of every descendant.
func TestInheritance_NamesAreUniqueAcrossTheChain(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[a-z]{3,10}`).Draw(rt, "name")
		kind := rapid.SampledFrom(Kinds()).Draw(rt, "kind")

		project := NewProject(newStubLoader(t), "prop")
		base, err := project.Node("prop::Base")
		require.NoError(rt, err)
		require.NoError(rt, declare(base, kind, name))

		sub, err := project.Node("prop::Sub", Supermodel(base))
		require.NoError(rt, err)
		for _, k := range Kinds() {
			require.ErrorIs(rt, declare(sub, k, name), ErrInvalidArgument)
		}
	})
}

func declare(m *NodeModel, k Kind, name string) error {
	var err error
	switch k {
	case KindAttribute:
		_, err = m.Attribute(name, "/double")
	case KindProperty:
		_, err = m.Property(name, "/double")
	case KindOperation:
		_, err = m.Operation(name)
	case KindInputPort:
		_, err = m.InputPort(name, "/double")
	case KindOutputPort:
		_, err = m.OutputPort(name, "/double")
	case KindDynamicInputPort:
		_, err = m.DynamicInputPort(name, nil, "")
	case KindDynamicOutputPort:
		_, err = m.DynamicOutputPort(name, nil, "")
	}
	return err
}
