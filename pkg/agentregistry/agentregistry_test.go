package agentregistry

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/config"
)

type stubAgent struct {
	class string
}

func (s *stubAgent) Execute(context.Context, agentcontract.Input, agentcontract.Context) agentcontract.Result {
	return agentcontract.Result{Status: agentcontract.StatusCompleted}
}

func init() {
	RegisterFactory("stub.DataExtractor", func(args BuildArgs) (agentcontract.Agent, error) {
		return &stubAgent{class: args.Descriptor.LoadableClassName}, nil
	})
	RegisterFactory("stub.Counting", func(args BuildArgs) (agentcontract.Agent, error) {
		countingFactoryCalls.Add(1)
		return &stubAgent{class: args.Descriptor.LoadableClassName}, nil
	})
}

var countingFactoryCalls atomic.Int64

func TestLookupByTaskType_ResolvesFirstMatch(t *testing.T) {
	r := New([]config.AgentConfig{
		{AgentID: "extractor", LoadableClassName: "stub.DataExtractor", SupportedTaskTypes: []string{"extract_data"}},
	})

	factory, descriptor, err := r.LookupByTaskType("extract_data")
	require.NoError(t, err)
	require.Equal(t, "extractor", descriptor.AgentID)
	instance, err := factory(BuildArgs{Descriptor: descriptor})
	require.NoError(t, err)
	require.IsType(t, &stubAgent{}, instance)
}

func TestLookupByTaskType_NoMatch(t *testing.T) {
	r := New([]config.AgentConfig{
		{AgentID: "extractor", LoadableClassName: "stub.DataExtractor", SupportedTaskTypes: []string{"extract_data"}},
	})

	_, _, err := r.LookupByTaskType("unknown_task")
	require.Error(t, err)
}

func TestLookupByTaskType_UnregisteredClassIsNotFatal(t *testing.T) {
	r := New([]config.AgentConfig{
		{AgentID: "ghost", LoadableClassName: "stub.DoesNotExist", SupportedTaskTypes: []string{"ghost_task"}},
	})

	_, _, err := r.LookupByTaskType("ghost_task")
	require.Error(t, err)

	// A second lookup for the same failed class should still return a
	// (cached) error rather than panic or hang.
	_, _, err = r.LookupByTaskType("ghost_task")
	require.Error(t, err)
}

func TestResolve_CachesSuccessfulResolution(t *testing.T) {
	countingFactoryCalls.Store(0)
	r := New([]config.AgentConfig{
		{AgentID: "counter", LoadableClassName: "stub.Counting", SupportedTaskTypes: []string{"count_task"}},
	})

	factory, descriptor, err := r.LookupByTaskType("count_task")
	require.NoError(t, err)
	_, _, err = r.LookupByTaskType("count_task")
	require.NoError(t, err)
	require.Contains(t, r.resolved, "stub.Counting")

	// Resolution caches the factory without calling it, so the one
	// construction below is the only factory call.
	_, err = factory(BuildArgs{Descriptor: descriptor})
	require.NoError(t, err)
	require.EqualValues(t, 1, countingFactoryCalls.Load())
}

func TestDiscover_FiltersByCapabilityAndTaskType(t *testing.T) {
	r := New([]config.AgentConfig{
		{AgentID: "a", LoadableClassName: "stub.DataExtractor", SupportedTaskTypes: []string{"extract_data"}, Capabilities: []string{"spreadsheet"}},
		{AgentID: "b", LoadableClassName: "stub.DataExtractor", SupportedTaskTypes: []string{"take_notes"}, Capabilities: []string{"notes"}},
	})

	found := r.Discover([]string{"spreadsheet"}, nil)
	require.Len(t, found, 1)
	require.Equal(t, "a", found[0].AgentID)

	found = r.Discover(nil, []string{"take_notes"})
	require.Len(t, found, 1)
	require.Equal(t, "b", found[0].AgentID)

	found = r.Discover([]string{"nonexistent"}, nil)
	require.Empty(t, found)
}

func TestLoad_ReadsDescriptorsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.json")
	const data = `[{"agent_id":"extractor","loadable_class_name":"stub.DataExtractor","supported_task_types":["extract_data"]}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	r, err := Load(path)
	require.NoError(t, err)

	factory, descriptor, err := r.LookupByTaskType("extract_data")
	require.NoError(t, err)
	instance, err := factory(BuildArgs{Descriptor: descriptor})
	require.NoError(t, err)
	require.IsType(t, &stubAgent{}, instance)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
