package mutate

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"loon-cli/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2025, 12, 21, 9, 30, 0, 0, time.UTC)

func testReducer(t *testing.T) *Reducer {
	t.Helper()
	n := 0
	return NewReducer(
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		}),
	)
}

func msg(content string, src model.Source) model.Message {
	return model.Message{Content: content, Source: src, Timestamp: testNow.Add(-time.Hour)}
}

// seeded returns a state over the tree
//
//	root
//	  p1
//	    a
//	      a1
//	    b
//	    c
func seeded(t *testing.T, r *Reducer) State {
	t.Helper()
	st := NewState(model.DefaultConfig(), testNow)
	st = r.Apply(st, LoadNodes{Root: "root", Nodes: []model.Node{
		{ID: "root", Message: msg("welcome", model.SourceSystem), Children: []string{"p1"}},
		{ID: "p1", Parent: "root", Message: msg("question", model.SourceHuman), Children: []string{"a", "b", "c"}},
		{ID: "a", Parent: "p1", Message: msg("answer a", model.SourceModel), Children: []string{"a1"}},
		{ID: "a1", Parent: "a", Message: msg("follow-up", model.SourceHuman), Children: []string{}},
		{ID: "b", Parent: "p1", Message: msg("answer b", model.SourceModel), Children: []string{}},
		{ID: "c", Parent: "p1", Message: msg("answer c", model.SourceModel), Children: []string{}},
	}})
	require.Equal(t, 6, st.Loom.Len())
	return st
}

func children(t *testing.T, st State, id string) []string {
	t.Helper()
	n, ok := st.Loom.Node(id)
	require.True(t, ok, "node %s missing", id)
	return n.Children
}

func TestScenario_CreateThenDeleteChild(t *testing.T) {
	r := testReducer(t)
	st := NewState(model.DefaultConfig(), testNow)
	st = r.Apply(st, LoadNodes{Root: "root", Nodes: []model.Node{
		{ID: "root", Message: msg("welcome", model.SourceSystem), Children: []string{"p1"}},
		{ID: "p1", Parent: "root", Message: msg("hi", model.SourceHuman), Children: []string{}},
	}})

	st = r.Apply(st, CreateChildNode{ParentID: "p1"})
	require.Equal(t, []string{"gen-1"}, children(t, st, "p1"))
	require.True(t, st.View.Expanded.Has("p1"))
	require.Equal(t, model.Focus{Surface: model.FocusTree, Node: "gen-1"}, st.View.Focus)

	x, _ := st.Loom.Node("gen-1")
	require.Equal(t, model.SourceHuman, x.Message.Source)
	require.Empty(t, x.Message.Content)
	require.Equal(t, "p1", x.Parent)

	st = r.Apply(st, DeleteNode{ID: "gen-1"})
	require.Empty(t, children(t, st, "p1"))
	require.False(t, st.Loom.Has("gen-1"))
	require.Equal(t, model.Focus{Surface: model.FocusTree, Node: "p1"}, st.View.Focus)
}

func TestNavigateSibling_CircularWrapsAndDescends(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)
	st.View.CurrentPath = []string{"root", "p1", "c"}

	got := r.Apply(st, NavigateSibling{Direction: SiblingNext, NodeID: "c"})
	// a is first child of p1; its first-child chain continues to a1.
	require.Equal(t, []string{"root", "p1", "a", "a1"}, got.View.CurrentPath)
	require.Equal(t, "a", got.View.Focus.Node)

	got = r.Apply(got, NavigateSibling{Direction: SiblingPrev, NodeID: "a"})
	require.Equal(t, []string{"root", "p1", "c"}, got.View.CurrentPath)
	require.Equal(t, "c", got.View.Focus.Node)
}

func TestNavigateSibling_ClampsWithoutCircular(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)
	st = r.Apply(st, SetCircularSiblings{Enabled: false})
	st.View.CurrentPath = []string{"root", "p1", "c"}

	got := r.Apply(st, NavigateSibling{Direction: SiblingNext, NodeID: "c"})
	require.Equal(t, []string{"root", "p1", "c"}, got.View.CurrentPath)
	require.Equal(t, "c", got.View.Focus.Node)

	got = r.Apply(got, NavigateSibling{Direction: SiblingPrev, NodeID: "c"})
	got = r.Apply(got, NavigateSibling{Direction: SiblingPrev, NodeID: "b"})
	got = r.Apply(got, NavigateSibling{Direction: SiblingPrev, NodeID: "a"})
	require.Equal(t, []string{"root", "p1", "a", "a1"}, got.View.CurrentPath)
}

func TestNavigateSibling_OffPathRebuildsFromAncestors(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)
	require.Equal(t, []string{"root"}, st.View.CurrentPath)

	got := r.Apply(st, NavigateSibling{Direction: SiblingNext, NodeID: "b"})
	require.Equal(t, []string{"root", "p1", "c"}, got.View.CurrentPath)
}

func TestNavigateSibling_NoOps(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)

	for _, a := range []Action{
		NavigateSibling{Direction: SiblingNext, NodeID: "root"},
		NavigateSibling{Direction: SiblingNext, NodeID: "nope"},
	} {
		got := r.Apply(st, a)
		require.Equal(t, st.View.CurrentPath, got.View.CurrentPath)
		require.Equal(t, st.View.Focus, got.View.Focus)
		require.True(t, got.Loom.SameAs(st.Loom))
	}
}

func TestNavigateVertical(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)

	st = r.Apply(st, NavigateVertical{Direction: VerticalUp})
	require.Equal(t, []string{"root"}, st.View.CurrentPath, "cannot pop the root")

	for range 4 {
		st = r.Apply(st, NavigateVertical{Direction: VerticalDown})
	}
	require.Equal(t, []string{"root", "p1", "a", "a1"}, st.View.CurrentPath)
	require.Equal(t, "a1", st.View.Focus.Node)

	st = r.Apply(st, NavigateVertical{Direction: VerticalUp})
	require.Equal(t, []string{"root", "p1", "a"}, st.View.CurrentPath)
}

func TestEditNode_LeafInPlace(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)

	got := r.Apply(st, EditNode{ID: "b", Content: "better b"})
	b, _ := got.Loom.Node("b")
	require.Equal(t, "better b", b.Message.Content)
	require.True(t, b.IsEdited)
	require.Equal(t, testNow, b.Message.Timestamp)
	require.Equal(t, []string{"a", "b", "c"}, children(t, got, "p1"))

	old, _ := st.Loom.Node("b")
	require.Equal(t, "answer b", old.Message.Content, "input state must not change")
}

func TestEditNode_ForksNonLeaf(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)
	st.View.CurrentPath = []string{"root", "p1", "a", "a1"}
	before := len(children(t, st, "p1"))

	got := r.Apply(st, EditNode{ID: "a", Content: "rewritten a"})

	require.Equal(t, before+1, len(children(t, got, "p1")))
	require.Equal(t, []string{"a", "gen-1", "b", "c"}, children(t, got, "p1"))

	orig, _ := got.Loom.Node("a")
	require.Equal(t, "answer a", orig.Message.Content)
	require.Equal(t, []string{"a1"}, orig.Children)
	require.False(t, orig.IsEdited)

	fork, _ := got.Loom.Node("gen-1")
	require.Equal(t, "rewritten a", fork.Message.Content)
	require.Equal(t, model.SourceModel, fork.Message.Source)
	require.Empty(t, fork.Children)
	require.True(t, fork.IsEdited)
	require.Equal(t, "p1", fork.Parent)

	require.Equal(t, []string{"root", "p1", "gen-1"}, got.View.CurrentPath)
	require.Equal(t, "gen-1", got.View.Focus.Node)
	require.NoError(t, got.Loom.Validate())

	require.Equal(t, []string{"a", "b", "c"}, children(t, st, "p1"), "input state must not change")
}

func TestEditNode_RootWithChildrenIsNoOp(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)
	got := r.Apply(st, EditNode{ID: "root", Content: "x"})
	require.True(t, got.Loom.SameAs(st.Loom))
}

func TestDeleteNode_Refusals(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)

	for _, id := range []string{"root", "a", "ghost"} {
		got := r.Apply(st, DeleteNode{ID: id})
		require.True(t, got.Loom.SameAs(st.Loom), "delete %s should be a no-op", id)
	}
}

func TestDeleteNode_CleansViewReferences(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)
	st.View.CurrentPath = []string{"root", "p1", "a", "a1"}
	st = r.Apply(st, SetNodeExpanded{ID: "a1", Expanded: true})
	st = r.Apply(st, EnterEditMode{ID: "a1"})

	got := r.Apply(st, DeleteNode{ID: "a1"})
	require.Equal(t, []string{"root", "p1", "a"}, got.View.CurrentPath)
	require.False(t, got.View.Expanded.Has("a1"))
	require.Empty(t, got.View.Editing)
	require.Equal(t, "a", got.View.Focus.Node)
	require.NoError(t, got.Loom.Validate())
}

func TestPlaceholder_RoundTrip(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)
	before := len(children(t, st, "b"))

	st = r.Apply(st, AddPlaceholderNode{ParentID: "b", NodeID: "ph-1"})
	require.True(t, st.IsPending("ph-1"))
	require.True(t, st.View.Expanded.Has("b"))
	ph, _ := st.Loom.Node("ph-1")
	require.True(t, ph.Message.IsPlaceholder())
	require.Equal(t, model.SourceModel, ph.Message.Source)

	dup := r.Apply(st, AddPlaceholderNode{ParentID: "b", NodeID: "ph-1"})
	require.True(t, dup.Loom.SameAs(st.Loom), "duplicate id must not insert twice")

	st = r.Apply(st, ReplacePlaceholderNode{NodeID: "ph-1", Content: "generated"})
	require.False(t, st.IsPending("ph-1"))
	require.Equal(t, before+1, len(children(t, st, "b")))
	require.Equal(t, []string{"ph-1"}, children(t, st, "b"))

	ph, _ = st.Loom.Node("ph-1")
	require.Equal(t, "generated", ph.Message.Content)
	require.False(t, ph.Message.IsPlaceholder())
	require.False(t, ph.Message.IsError())
	require.Equal(t, "b", ph.Parent)

	again := r.Apply(st, ReplacePlaceholderNode{NodeID: "ph-1", Content: "late"})
	require.True(t, again.Loom.SameAs(st.Loom), "non-pending nodes are not replaced")
}

func TestPlaceholder_NotEditableWhileGenerating(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)
	st = r.Apply(st, AddPlaceholderNode{ParentID: "b", NodeID: "ph-1"})

	edited := r.Apply(st, EditNode{ID: "ph-1", Content: "my own text"})
	require.True(t, edited.Loom.SameAs(st.Loom), "pending nodes are not edited")

	opened := r.Apply(st, EnterEditMode{ID: "ph-1"})
	require.Empty(t, opened.View.Editing)

	st = r.Apply(edited, ReplacePlaceholderNode{NodeID: "ph-1", Content: "model reply"})
	ph, _ := st.Loom.Node("ph-1")
	require.Equal(t, "model reply", ph.Message.Content)
	require.False(t, ph.IsEdited)

	st = r.Apply(st, EditNode{ID: "ph-1", Content: "my own text"})
	ph, _ = st.Loom.Node("ph-1")
	require.Equal(t, "my own text", ph.Message.Content)
	require.True(t, ph.IsEdited, "resolved nodes edit normally")
}

func TestPlaceholder_OutOfOrderAndErrors(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)
	for i := 1; i <= 3; i++ {
		st = r.Apply(st, AddPlaceholderNode{ParentID: "c", NodeID: fmt.Sprintf("ph-%d", i)})
	}
	require.Equal(t, 3, st.Pending.Len())

	st = r.Apply(st, ReplacePlaceholderNode{NodeID: "ph-3", Content: "third"})
	st = r.Apply(st, ReplacePlaceholderNode{NodeID: "ph-1", Content: "error: boom", IsError: true})
	st = r.Apply(st, ReplacePlaceholderNode{NodeID: "ph-2", Content: "second"})

	require.Equal(t, []string{"ph-1", "ph-2", "ph-3"}, children(t, st, "c"))
	require.Equal(t, 0, st.Pending.Len())
	failed, _ := st.Loom.Node("ph-1")
	require.True(t, failed.Message.IsError())
	require.Equal(t, "error: boom", failed.Message.Content)
}

func TestFocus_CommandRemembersTreeNode(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)

	st = r.Apply(st, FocusNode{ID: "b"})
	st = r.Apply(st, FocusCommand{})
	require.Equal(t, model.Focus{Surface: model.FocusCommand, Node: "b"}, st.View.Focus)

	st = r.Apply(st, FocusTree{})
	require.Equal(t, model.Focus{Surface: model.FocusTree, Node: "b"}, st.View.Focus)

	got := r.Apply(st, FocusNode{ID: "ghost"})
	require.Equal(t, st.View.Focus, got.View.Focus)

	got = r.Apply(st, SetFocus{Focus: model.Focus{Surface: "sidebar"}})
	require.Equal(t, st.View.Focus, got.View.Focus)
}

func TestToggles_AreIdempotentInPairs(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)

	exp := r.Apply(r.Apply(st, SetNodeExpanded{ID: "a", Expanded: true}), SetNodeExpanded{ID: "a", Expanded: false})
	require.True(t, exp.View.Expanded.Equal(st.View.Expanded))

	vt := r.Apply(r.Apply(st, SetViewType{ViewType: st.View.ViewType.Toggle()}), SetViewType{ViewType: st.View.ViewType})
	require.Equal(t, st.View.ViewType, vt.View.ViewType)

	th := r.Apply(r.Apply(st, ToggleTheme{}), ToggleTheme{})
	require.Equal(t, st.View.Theme, th.View.Theme)

	bad := r.Apply(st, SetViewType{ViewType: "grid"})
	require.Equal(t, st.View.ViewType, bad.View.ViewType)
}

func TestLoadViewState_RepairsReferences(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)

	got := r.Apply(st, LoadViewState{View: model.ViewState{
		ViewType:    "forest",
		Theme:       "neon",
		Expanded:    model.NewIDSet("root", "ghost", "p1"),
		CurrentPath: []string{"root", "p1", "b", "ghost"},
		Focus:       model.Focus{Surface: model.FocusCommand, Node: "gone"},
		Editing:     "b",
	}})
	require.Equal(t, model.ViewOutline, got.View.ViewType)
	require.Equal(t, model.ThemeDark, got.View.Theme)
	require.Equal(t, []string{"p1", "root"}, got.View.Expanded.Items())
	require.Equal(t, []string{"root", "p1", "b"}, got.View.CurrentPath)
	require.Equal(t, model.Focus{Surface: model.FocusCommand, Node: "root"}, got.View.Focus)
	require.Empty(t, got.View.Editing)
}

func TestLoadNodes_RejectsInconsistentTreeAndRebuildsPending(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)

	bad := r.Apply(st, LoadNodes{Root: "root", Nodes: []model.Node{
		{ID: "root", Children: []string{"x"}},
	}})
	require.True(t, bad.Loom.SameAs(st.Loom))

	got := r.Apply(st, LoadNodes{Root: "root", Nodes: []model.Node{
		{ID: "root", Children: []string{"ph"}},
		{ID: "ph", Parent: "root", Message: model.Message{Source: model.SourceModel, Metadata: map[string]any{model.MetaPlaceholder: true}}},
	}})
	require.Equal(t, []string{"ph"}, got.Pending.Items())
}

func TestConfigActions(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)

	got := r.Apply(st, SetAPIKey{Service: "openrouter", Key: "sk-1"})
	require.Equal(t, "sk-1", got.Config.APIKey("openrouter"))
	require.Empty(t, st.Config.APIKey("openrouter"), "config maps are copied")

	got = r.Apply(got, RemoveAPIKey{Service: "openrouter"})
	require.Empty(t, got.Config.APIKey("openrouter"))

	same := r.Apply(got, SetAPIKey{Service: " ", Key: "x"})
	require.Empty(t, same.Config.APIKeys)
}

func TestApply_UnknownActionIsNoOp(t *testing.T) {
	r := testReducer(t)
	st := seeded(t, r)
	got := r.Apply(st, nil)
	require.True(t, got.Loom.SameAs(st.Loom))
}

// TestInvariants_RandomActionSequences drives the reducer with random actions
// and checks the tree and pending-set invariants after every step, plus that
// the previous snapshot is never modified.
func TestInvariants_RandomActionSequences(t *testing.T) {
	r := testReducer(t)
	rng := rand.New(rand.NewPCG(7, 11))

	for run := range 20 {
		st := seeded(t, r)
		phN := 0
		for step := range 150 {
			ids := st.Loom.Nodes()
			pick := func() string { return ids[rng.IntN(len(ids))].ID }
			var a Action
			switch rng.IntN(9) {
			case 0:
				a = CreateChildNode{ParentID: pick()}
			case 1:
				a = DeleteNode{ID: pick()}
			case 2:
				a = EditNode{ID: pick(), Content: fmt.Sprintf("edit %d", step)}
			case 3:
				phN++
				a = AddPlaceholderNode{ParentID: pick(), NodeID: fmt.Sprintf("ph-%d-%d", run, phN)}
			case 4:
				pending := st.Pending.Items()
				if len(pending) == 0 {
					continue
				}
				a = ReplacePlaceholderNode{NodeID: pending[rng.IntN(len(pending))], Content: "done", IsError: rng.IntN(2) == 0}
			case 5:
				a = NavigateSibling{Direction: SiblingDirection(rng.IntN(2)), NodeID: pick()}
			case 6:
				a = NavigateVertical{Direction: VerticalDirection(rng.IntN(2))}
			case 7:
				a = SetNodeExpanded{ID: pick(), Expanded: rng.IntN(2) == 0}
			default:
				a = FocusNode{ID: pick()}
			}

			snapshot := st.Loom.Nodes()
			next := r.Apply(st, a)

			if diff := cmp.Diff(snapshot, st.Loom.Nodes()); diff != "" {
				t.Fatalf("run %d step %d: %s mutated its input (-before +after):\n%s", run, step, Name(a), diff)
			}
			require.NoError(t, next.Loom.Validate(), "run %d step %d after %s", run, step, Name(a))
			for _, n := range next.Loom.Nodes() {
				require.Equal(t, n.Message.IsPlaceholder(), next.Pending.Has(n.ID), "pending mismatch for %s", n.ID)
				require.False(t, next.Pending.Has(n.ID) && n.IsEdited, "pending node %s was edited", n.ID)
			}
			for i := 1; i < len(next.View.CurrentPath); i++ {
				n, ok := next.Loom.Node(next.View.CurrentPath[i])
				require.True(t, ok)
				require.Equal(t, next.View.CurrentPath[i-1], n.Parent)
			}
			st = next
		}
	}
}
