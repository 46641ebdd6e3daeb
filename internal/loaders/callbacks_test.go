package loaders

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/pubsub"
)

func TestCallbacks_InitialEvents(t *testing.T) {
	b, _ := newTestBase(t)
	_, err := b.ProjectModelFromName("lib")
	require.NoError(t, err)

	var replayed, fresh []string
	b.OnProjectLoad(func(p *component.Project) { replayed = append(replayed, p.Name()) })
	b.OnProjectLoad(func(p *component.Project) { fresh = append(fresh, p.Name()) }, WithoutInitialEvents())

	_, err = b.ProjectModelFromName("app")
	require.NoError(t, err)
	require.Equal(t, []string{"lib", "app"}, replayed)
	require.Equal(t, []string{"app"}, fresh)
}

func TestCallbacks_Typekits(t *testing.T) {
	b, _ := newTestBase(t)
	var loaded []string
	id := b.OnTypekitLoad(func(tk *component.Typekit) { loaded = append(loaded, tk.Name()) })

	_, err := b.TypekitModelFromName("base")
	require.NoError(t, err)
	require.True(t, b.RemoveTypekitLoadCallback(id))
	require.False(t, b.RemoveTypekitLoadCallback(id))

	_, err = b.TypekitModelFromName("extra")
	require.NoError(t, err)
	require.Equal(t, []string{"base"}, loaded)
}

func TestCallbacks_Removal(t *testing.T) {
	b, _ := newTestBase(t)
	var calls int
	id := b.OnProjectLoad(func(*component.Project) { calls++ })
	require.True(t, b.RemoveProjectLoadCallback(id))

	_, err := b.ProjectModelFromName("lib")
	require.NoError(t, err)
	require.Zero(t, calls)
	require.False(t, b.RemoveProjectLoadCallback("unknown"))
}

func TestCallbacks_LoadsFromCallbacksAreQueued(t *testing.T) {
	b, _ := newTestBase(t)

	var order []string
	depth, maxDepth := 0, 0
	b.OnProjectLoad(func(p *component.Project) {
		depth++
		maxDepth = max(maxDepth, depth)
		defer func() { depth-- }()

		order = append(order, p.Name())
		if p.Name() == "lib" {
			_, err := b.ProjectModelFromName("other")
			require.NoError(t, err)
			order = append(order, "after other")
		}
	})

	_, err := b.ProjectModelFromName("app")
	require.NoError(t, err)
	require.Equal(t, []string{"lib", "after other", "other", "app"}, order)
	require.Equal(t, 1, maxDepth)
}

func TestCallbacks_FireOnRootOnly(t *testing.T) {
	agg, err := NewAggregate()
	require.NoError(t, err)
	child, err := NewBase(WithSource(newCountingSource(modelFS())), WithRoot(agg))
	require.NoError(t, err)

	var onRoot, onChild []string
	agg.OnProjectLoad(func(p *component.Project) { onRoot = append(onRoot, p.Name()) })
	child.OnProjectLoad(func(p *component.Project) { onChild = append(onChild, p.Name()) })

	_, err = agg.ProjectModelFromName("app")
	require.NoError(t, err)
	require.Equal(t, []string{"lib", "app"}, onRoot)
	require.Empty(t, onChild)
}

func TestBase_MetricsAndEvents(t *testing.T) {
	reg := metrics.NewRegistry()
	broker := pubsub.NewBrokerWithBuffer[ModelEvent](16)
	defer broker.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx)

	b, _ := newTestBase(t, WithMetrics(reg), WithEvents(broker))
	_, err := b.ProjectModelFromName("lib")
	require.NoError(t, err)
	_, err = b.ProjectModelFromName("lib")
	require.NoError(t, err)

	counter := func(vec interface {
		Write(*dto.Metric) error
	}) float64 {
		var m dto.Metric
		require.NoError(t, vec.Write(&m))
		return m.GetCounter().GetValue()
	}
	require.Equal(t, 1.0, counter(reg.LookupsTotal.WithLabelValues("project", metrics.ResultLoaded)))
	require.Equal(t, 1.0, counter(reg.LookupsTotal.WithLabelValues("project", metrics.ResultHit)))
	require.Equal(t, 1.0, counter(reg.RegistrationsTotal.WithLabelValues("typekit")))
	require.Equal(t, 1.0, counter(reg.RegistrationsTotal.WithLabelValues("node_model")))

	var got []ModelEvent
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case e := <-events:
			require.Equal(t, pubsub.LoadedEvent, e.Type)
			got = append(got, e.Payload)
		case <-timeout:
			t.Fatalf("received %d events", len(got))
		}
	}
	require.Equal(t, ModelEvent{Kind: "typekit", Name: "base", Loader: "test"}, got[0])
	require.Equal(t, ModelEvent{Kind: "project", Name: "lib", Loader: "test"}, got[1])
}
