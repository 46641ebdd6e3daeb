package modelfile_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodekit/internal/domain/types"
	"github.com/zjrosen/nodekit/internal/modelfile"
)

func newFile(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

func TestParseTypekit(t *testing.T) {
	l := newLoader(t, modelFS())

	tk, err := l.TypekitModelFromName("base")
	require.NoError(t, err)
	require.True(t, tk.Include("/Pose"))
	require.True(t, tk.InterfaceType("/float64"), "aliases resolve to their target")
	require.False(t, tk.InterfaceType("/internal_handle"))
	require.True(t, tk.DefinesArrayOf("/double"))

	pose, err := l.ResolveType("/Pose")
	require.NoError(t, err)
	require.Equal(t, 16, pose.Size)

	mode, err := l.ResolveInterfaceType("/Mode")
	require.NoError(t, err)
	require.Len(t, mode.Values, 2)
}

func TestParseTypekit_Errors(t *testing.T) {
	tests := []struct {
		name     string
		registry string
		typelist string
		wantErr  error
	}{
		{
			name:     "listed type missing from registry",
			registry: "types:\n  - {category: numeric, name: /double, size: 8, numeric: float}\n",
			typelist: "name: broken\ntypelist: [/double, /missing]\n",
			wantErr:  types.ErrInvalidDefinition,
		},
		{
			name:     "unresolvable field type",
			registry: "types:\n  - category: compound\n    name: /P\n    fields: [{name: x, type: /nowhere}]\n",
			typelist: "name: broken\ntypelist: [/P]\n",
			wantErr:  types.ErrNotFound,
		},
		{
			name:     "unknown numeric kind",
			registry: "types:\n  - {category: numeric, name: /q, size: 8, numeric: quad}\n",
			typelist: "name: broken\n",
			wantErr:  modelfile.ErrParse,
		},
		{
			name:     "unknown category",
			registry: "types:\n  - {category: blob, name: /b}\n",
			typelist: "name: broken\n",
			wantErr:  types.ErrUnknownCategory,
		},
		{
			name:     "alias to nothing",
			registry: "aliases:\n  /a: /b\n",
			typelist: "name: broken\n",
			wantErr:  types.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := modelFS()
			fsys["typekits/broken.registry.yml"] = newFile(tt.registry)
			fsys["typekits/broken.typelist.yml"] = newFile(tt.typelist)
			l := newLoader(t, fsys)

			_, err := l.TypekitModelFromName("broken")
			require.ErrorIs(t, err, tt.wantErr)
			require.False(t, l.HasLoadedTypekit("broken"))
		})
	}
}

func TestBuildRegistry_AnyOrder(t *testing.T) {
	r, err := modelfile.BuildRegistry(modelfile.RegistryDef{
		Types: []modelfile.TypeDef{
			{Category: "container", Container: "/std/vector", Element: "/Outer"},
			{Category: "compound", Name: "/Outer", Fields: []modelfile.FieldDef{{Name: "inner", Type: "/Inner"}}},
			{Category: "compound", Name: "/Inner", Fields: []modelfile.FieldDef{{Name: "v", Type: "/int8_t"}}},
			{Category: "numeric", Name: "/int8_t", Size: 1},
		},
	})
	require.NoError(t, err)
	require.True(t, r.Has("/Outer"))
	require.True(t, r.Has(types.ContainerName("/std/vector", "/Outer")))
}
