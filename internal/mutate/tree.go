package mutate

import (
	"maps"
	"slices"

	"loon-cli/internal/model"

	"go.uber.org/zap"
)

// editNode rewrites a leaf in place. A node with children is never rewritten:
// the new content goes into a fresh sibling right after it, so the existing
// branch stays intact. Pending placeholders belong to their completion and
// are not editable until it resolves.
func (r *Reducer) editNode(st State, a EditNode) State {
	n, ok := st.Loom.Node(a.ID)
	if !ok {
		return r.missing(st, a, "node", a.ID)
	}
	if st.IsPending(a.ID) {
		return r.refuse(st, a, "node is still generating", zap.String("node", a.ID))
	}
	now := r.now()

	if !n.HasChildren() {
		n.Message.Content = a.Content
		n.Message.Timestamp = now
		n.Message.Metadata = withoutFlags(n.Message.Metadata, model.MetaError)
		n.IsEdited = true
		st.Loom = st.Loom.With(n)
		if st.View.Editing == a.ID {
			st.View.Editing = ""
		}
		return st
	}

	if n.IsRoot() {
		return r.refuse(st, a, "root has children and no parent to fork under", zap.String("node", a.ID))
	}
	parent, ok := st.Loom.Node(n.Parent)
	if !ok {
		return r.missing(st, a, "parent", n.Parent)
	}
	idx := parent.ChildIndex(n.ID)
	if idx < 0 {
		return r.refuse(st, a, "node not listed under its parent", zap.String("node", a.ID))
	}
	forkID := r.newID()
	if st.Loom.Has(forkID) {
		return r.refuse(st, a, "generated id already in use", zap.String("id", forkID))
	}

	fork := model.Node{
		ID: forkID,
		Message: model.Message{
			Content:   a.Content,
			Source:    n.Message.Source,
			Timestamp: now,
			Metadata:  withoutFlags(n.Message.Metadata, model.MetaPlaceholder, model.MetaError),
		},
		Parent:   n.Parent,
		Children: []string{},
		IsEdited: true,
	}
	parent.Children = slices.Insert(slices.Clone(parent.Children), idx+1, forkID)
	st.Loom = st.Loom.With(fork).With(parent)

	if i := st.View.PathIndex(n.ID); i >= 0 {
		st.View.CurrentPath = append(slices.Clone(st.View.CurrentPath[:i]), forkID)
	}
	st.View.Focus = model.Focus{Surface: model.FocusTree, Node: forkID}
	if st.View.Editing == a.ID {
		st.View.Editing = ""
	}
	return st
}

func (r *Reducer) createChildNode(st State, a CreateChildNode) State {
	parent, ok := st.Loom.Node(a.ParentID)
	if !ok {
		return r.missing(st, a, "parent", a.ParentID)
	}
	id := r.newID()
	if st.Loom.Has(id) {
		return r.refuse(st, a, "generated id already in use", zap.String("id", id))
	}
	child := model.Node{
		ID: id,
		Message: model.Message{
			Source:    model.SourceHuman,
			Timestamp: r.now(),
		},
		Parent:   parent.ID,
		Children: []string{},
	}
	parent.Children = append(slices.Clone(parent.Children), id)
	st.Loom = st.Loom.With(child).With(parent)

	if last, ok := st.View.LastInPath(); ok && last == parent.ID {
		st.View.CurrentPath = append(slices.Clone(st.View.CurrentPath), id)
	}
	st.View.Expanded = st.View.Expanded.Add(parent.ID)
	st.View.Focus = model.Focus{Surface: model.FocusTree, Node: id}
	return st
}

// deleteNode removes exactly one leaf. Nodes with children are refused so a
// deletion can never strand descendants.
func (r *Reducer) deleteNode(st State, a DeleteNode) State {
	n, ok := st.Loom.Node(a.ID)
	if !ok {
		return r.missing(st, a, "node", a.ID)
	}
	if n.IsRoot() {
		return r.refuse(st, a, "the root cannot be deleted")
	}
	if n.HasChildren() {
		return r.refuse(st, a, "node has children", zap.String("node", a.ID), zap.Int("children", len(n.Children)))
	}
	parent, ok := st.Loom.Node(n.Parent)
	if !ok {
		return r.missing(st, a, "parent", n.Parent)
	}
	parent.Children = slices.DeleteFunc(slices.Clone(parent.Children), func(id string) bool { return id == a.ID })
	st.Loom = st.Loom.Without(a.ID).With(parent)

	st.Pending = st.Pending.Remove(a.ID)
	st.View.Expanded = st.View.Expanded.Remove(a.ID)
	if i := st.View.PathIndex(a.ID); i > 0 {
		st.View.CurrentPath = slices.Clone(st.View.CurrentPath[:i])
	}
	if st.View.Editing == a.ID {
		st.View.Editing = ""
	}
	st.View.Focus = model.Focus{Surface: model.FocusTree, Node: parent.ID}
	return st
}

func (r *Reducer) addPlaceholder(st State, a AddPlaceholderNode) State {
	parent, ok := st.Loom.Node(a.ParentID)
	if !ok {
		return r.missing(st, a, "parent", a.ParentID)
	}
	if a.NodeID == "" {
		return r.refuse(st, a, "placeholder id is empty")
	}
	if st.Loom.Has(a.NodeID) {
		return r.refuse(st, a, "placeholder id already in use", zap.String("node", a.NodeID))
	}
	placeholder := model.Node{
		ID: a.NodeID,
		Message: model.Message{
			Source:    model.SourceModel,
			Timestamp: r.now(),
			Metadata:  map[string]any{model.MetaPlaceholder: true},
		},
		Parent:   parent.ID,
		Children: []string{},
	}
	parent.Children = append(slices.Clone(parent.Children), a.NodeID)
	st.Loom = st.Loom.With(placeholder).With(parent)
	st.Pending = st.Pending.Add(a.NodeID)
	st.View.Expanded = st.View.Expanded.Add(parent.ID)
	return st
}

// replacePlaceholder fills in a pending node. Only content and metadata
// change; id, parent and sibling position stay as they were at insertion.
func (r *Reducer) replacePlaceholder(st State, a ReplacePlaceholderNode) State {
	n, ok := st.Loom.Node(a.NodeID)
	if !ok {
		return r.missing(st, a, "node", a.NodeID)
	}
	if !st.Pending.Has(a.NodeID) {
		return r.refuse(st, a, "node is not pending", zap.String("node", a.NodeID))
	}
	var meta map[string]any
	if a.IsError {
		meta = map[string]any{model.MetaError: true}
	}
	n.Message = model.Message{
		Content:   a.Content,
		Source:    model.SourceModel,
		Timestamp: r.now(),
		Metadata:  meta,
	}
	st.Loom = st.Loom.With(n)
	st.Pending = st.Pending.Remove(a.NodeID)
	return st
}

func withoutFlags(meta map[string]any, keys ...string) map[string]any {
	if len(meta) == 0 {
		return meta
	}
	drop := false
	for _, k := range keys {
		if _, ok := meta[k]; ok {
			drop = true
			break
		}
	}
	if !drop {
		return meta
	}
	out := maps.Clone(meta)
	for _, k := range keys {
		delete(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
