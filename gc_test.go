package nanohs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGC_PinnedClosureSurvivesCollection(t *testing.T) {
	cfg := NewConfig()
	cfg.SetInt("gc.initial_threshold", 0)
	gc := NewGC(cfg)

	root := gc.NewClosure(ClosurePrim)
	gc.PinClosure(root)
	gc.UnuseClosure(root) // NewClosure marks it USED; drop that so PINNED is the only root

	orphan := gc.NewClosure(ClosurePrim)
	gc.UnuseClosure(orphan)

	gc.Collect()

	assert.True(t, gc.LiveClosure(root))
	assert.False(t, gc.LiveClosure(orphan), "a closure with no root reaching it must be swept")
}

func TestGC_ReachableGraphSurvives(t *testing.T) {
	gc := NewGC(nil)

	field := gc.NewClosure(ClosurePrim)
	gc.UnuseClosure(field)

	root := gc.NewClosure(ClosureConstr)
	root.Fields = []*Closure{field}
	gc.PinClosure(root)
	gc.UnuseClosure(root)

	gc.Collect()

	assert.True(t, gc.LiveClosure(root))
	assert.True(t, gc.LiveClosure(field), "a closure reachable only through a pinned root's fields must survive")
}

func TestGC_EntryReachableThroughThunkSurvives(t *testing.T) {
	gc := NewGC(nil)

	entry := gc.NewEntry(EntryPrim)
	gc.UnuseEntry(entry)

	root := gc.NewClosure(ClosureThunk)
	root.Entry = entry
	gc.PinClosure(root)
	gc.UnuseClosure(root)

	gc.Collect()

	assert.True(t, gc.LiveEntry(entry))
}

func TestGC_UnreachableEntryIsSwept(t *testing.T) {
	gc := NewGC(nil)
	entry := gc.NewEntry(EntryPrim)
	gc.UnuseEntry(entry)

	gc.Collect()

	assert.False(t, gc.LiveEntry(entry))
}

func TestGC_AllocationTriggersCollectionPastThreshold(t *testing.T) {
	cfg := NewConfig()
	cfg.SetInt("gc.initial_threshold", 2)
	cfg.SetInt("gc.threshold_multiplier", 2)
	gc := NewGC(cfg)

	garbage1 := gc.NewClosure(ClosurePrim)
	gc.UnuseClosure(garbage1)
	garbage2 := gc.NewClosure(ClosurePrim)
	gc.UnuseClosure(garbage2)

	require.True(t, gc.LiveClosure(garbage1))

	// initial_threshold=2, multiplier=2: once the live count exceeds 4,
	// the next allocation collects first.
	gc.NewClosure(ClosurePrim)
	gc.NewClosure(ClosurePrim)
	gc.NewClosure(ClosurePrim)
	gc.NewClosure(ClosurePrim) // this allocation should trigger a collection

	assert.False(t, gc.LiveClosure(garbage1), "unreferenced closures should have been swept by the threshold-triggered collection")
}

func TestGC_DeadObjectStaysDistinguishableAfterSweep(t *testing.T) {
	gc := NewGC(nil)
	c := gc.NewClosure(ClosurePrim)
	gc.UnuseClosure(c)

	gc.Collect()

	assert.False(t, gc.LiveClosure(c))
	// A second collection must not panic on an object it no longer tracks.
	gc.Collect()
	assert.False(t, gc.LiveClosure(c))
}
