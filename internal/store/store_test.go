package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"loon-cli/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sampleLoom(t *testing.T) model.Loom {
	t.Helper()
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	l, err := model.LoomFromNodes("root", []model.Node{
		{ID: "root", Message: model.Message{Content: "welcome", Source: model.SourceSystem, Timestamp: ts}, Children: []string{"q"}},
		{ID: "q", Parent: "root", Message: model.Message{Content: "why?", Source: model.SourceHuman, Timestamp: ts}, Children: []string{"b", "a"}, IsEdited: true},
		{ID: "a", Parent: "q", Message: model.Message{Content: "because", Source: model.SourceModel, Timestamp: ts}, Children: []string{}},
		{ID: "b", Parent: "q", Message: model.Message{Source: model.SourceModel, Timestamp: ts, Metadata: map[string]any{model.MetaPlaceholder: true}}, Children: []string{}},
	})
	require.NoError(t, err)
	return l
}

func TestNodes_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	_, _, ok, err := s.LoadNodes(ctx)
	require.NoError(t, err)
	require.False(t, ok, "fresh store has nothing persisted")

	l := sampleLoom(t)
	require.NoError(t, s.SaveNodes(ctx, l))

	root, nodes, ok, err := s.LoadNodes(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "root", root)

	got, err := model.LoomFromNodes(root, nodes)
	require.NoError(t, err)
	if diff := cmp.Diff(l.Nodes(), got.Nodes()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	b, _ := got.Node("b")
	require.True(t, b.Message.IsPlaceholder())
	q, _ := got.Node("q")
	require.Equal(t, []string{"b", "a"}, q.Children, "child order survives")
}

func TestNodes_SaveReplacesPreviousRows(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	require.NoError(t, s.SaveNodes(ctx, sampleLoom(t)))

	small := model.NewLoom(model.Node{ID: "root", Children: []string{}})
	require.NoError(t, s.SaveNodes(ctx, small))

	_, nodes, ok, err := s.LoadNodes(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, nodes, 1)
}

func TestViewState_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	v, ok, err := s.LoadViewState(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, v)

	want := model.ViewState{
		ViewType:    model.ViewPath,
		Theme:       model.ThemeLight,
		Expanded:    model.NewIDSet("root", "q"),
		CurrentPath: []string{"root", "q", "a"},
		Focus:       model.Focus{Surface: model.FocusTree, Node: "a"},
		Editing:     "a",
	}
	require.NoError(t, s.SaveViewState(ctx, want))

	got, ok, err := s.LoadViewState(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want.ViewType, got.ViewType)
	require.Equal(t, want.Theme, got.Theme)
	require.Equal(t, want.CurrentPath, got.CurrentPath)
	require.Equal(t, want.Focus, got.Focus)
	require.Equal(t, []string{"q", "root"}, got.Expanded.Items())
	require.Empty(t, got.Editing, "editing is not persisted")
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	require.NoError(t, s.SaveNodes(ctx, sampleLoom(t)))
	require.NoError(t, s.SaveViewState(ctx, model.ViewState{ViewType: model.ViewOutline}))

	require.NoError(t, s.Reset(ctx))

	_, _, ok, err := s.LoadNodes(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = s.LoadViewState(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("LOON_DIR", "/tmp/loon-data")
	dir, err := DefaultDir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/loon-data", dir)

	t.Setenv("LOON_DIR", "")
	t.Setenv("LOON_CONFIG_DIR", "/tmp/loon-config")
	dir, err = DefaultDir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/loon-config", dir)
}

func TestEnsureRejectsEmptyDir(t *testing.T) {
	require.Error(t, Store{}.Ensure())
	require.Error(t, Store{}.SaveNodes(context.Background(), sampleLoom(t)))
}

func TestStoreCreatesSQLiteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := Store{Dir: dir}
	require.NoError(t, s.SaveViewState(context.Background(), model.ViewState{}))
	_, err := os.Stat(filepath.Join(dir, "loon.sqlite"))
	require.NoError(t, err)
}
