package mutate

import (
	"strings"
	"time"

	"loon-cli/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reducer applies actions to states. It holds only injected collaborators
// (logger, clock, id source); Apply never changes the Reducer or its input.
type Reducer struct {
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*Reducer)

func WithLogger(l *zap.Logger) Option {
	return func(r *Reducer) {
		if l != nil {
			r.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Reducer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides how ids for created and forked nodes are minted.
func WithIDGenerator(f func() string) Option {
	return func(r *Reducer) {
		if f != nil {
			r.newID = f
		}
	}
}

func NewReducer(opts ...Option) *Reducer {
	r := &Reducer{
		log:   zap.NewNop(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: NewNodeID,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewNodeID returns a fresh random node id.
func NewNodeID() string { return uuid.NewString() }

// Apply returns the state that results from applying a to st. When the
// action's preconditions do not hold it returns st unchanged and logs why.
func (r *Reducer) Apply(st State, a Action) State {
	switch a := a.(type) {
	case LoadNodes:
		return r.loadNodes(st, a)
	case LoadViewState:
		return r.loadViewState(st, a)
	case SetFocus:
		return r.setFocus(st, a)
	case FocusNode:
		return r.setFocus(st, SetFocus{Focus: model.Focus{Surface: model.FocusTree, Node: a.ID}})
	case FocusCommand:
		return r.setFocus(st, SetFocus{Focus: model.Focus{Surface: model.FocusCommand}})
	case FocusTree:
		return r.setFocus(st, SetFocus{Focus: model.Focus{Surface: model.FocusTree}})
	case NavigateSibling:
		return r.navigateSibling(st, a)
	case NavigateVertical:
		return r.navigateVertical(st, a)
	case SetNodeExpanded:
		return r.setNodeExpanded(st, a)
	case EditNode:
		return r.editNode(st, a)
	case CreateChildNode:
		return r.createChildNode(st, a)
	case DeleteNode:
		return r.deleteNode(st, a)
	case AddPlaceholderNode:
		return r.addPlaceholder(st, a)
	case ReplacePlaceholderNode:
		return r.replacePlaceholder(st, a)
	case SetViewType:
		return r.setViewType(st, a)
	case ToggleTheme:
		st.View.Theme = st.View.Theme.Toggle()
		return st
	case EnterEditMode:
		return r.enterEditMode(st, a)
	case ExitEditMode:
		st.View.Editing = ""
		return st
	case SetAPIKey:
		return r.setAPIKey(st, a)
	case RemoveAPIKey:
		return r.removeAPIKey(st, a)
	case SetCircularSiblings:
		cfg := st.Config.Clone()
		cfg.Navigation.CircularSiblings = a.Enabled
		st.Config = cfg
		return st
	default:
		r.log.Warn("ignoring unknown action", zap.String("action", Name(a)))
		return st
	}
}

// ApplyAll folds actions over st in order.
func (r *Reducer) ApplyAll(st State, actions ...Action) State {
	for _, a := range actions {
		st = r.Apply(st, a)
	}
	return st
}

func (r *Reducer) refuse(st State, a Action, reason string, fields ...zap.Field) State {
	fields = append([]zap.Field{zap.String("action", Name(a)), zap.String("reason", reason)}, fields...)
	r.log.Debug("action left state unchanged", fields...)
	return st
}

func (r *Reducer) missing(st State, a Action, kind, id string) State {
	return r.refuse(st, a, "unknown "+kind, zap.Error(NotFoundError{Kind: kind, ID: id}))
}

func (r *Reducer) loadNodes(st State, a LoadNodes) State {
	l, err := model.LoomFromNodes(strings.TrimSpace(a.Root), a.Nodes)
	if err != nil {
		r.log.Error("refusing to load inconsistent tree", zap.Error(err), zap.Int("nodes", len(a.Nodes)))
		return st
	}
	pending := model.IDSet{}
	for _, n := range l.Nodes() {
		if n.Message.IsPlaceholder() {
			pending = pending.Add(n.ID)
		}
	}
	st.Loom = l
	st.Pending = pending
	st.View = repairView(l, st.View)
	return st
}

func (r *Reducer) loadViewState(st State, a LoadViewState) State {
	v := a.View
	vt, ok := model.ParseViewType(string(v.ViewType))
	if !ok {
		vt = model.ViewOutline
	}
	v.ViewType = vt
	if v.Theme != model.ThemeLight {
		v.Theme = model.ThemeDark
	}
	if v.Focus.Surface != model.FocusCommand {
		v.Focus.Surface = model.FocusTree
	}
	v.Editing = ""
	st.View = repairView(st.Loom, v)
	return st
}

// repairView drops view references the tree cannot satisfy: expanded ids
// that are gone, path elements from the first broken parent->child link on,
// and an indicated node that no longer exists.
func repairView(l model.Loom, v model.ViewState) model.ViewState {
	v.Expanded = v.Expanded.Filter(l.Has)

	path := make([]string, 0, len(v.CurrentPath))
	for i, id := range v.CurrentPath {
		n, ok := l.Node(id)
		if !ok {
			break
		}
		if i == 0 {
			if id != l.Root {
				break
			}
		} else if n.Parent != path[i-1] {
			break
		}
		path = append(path, id)
	}
	if len(path) == 0 {
		path = []string{l.Root}
	}
	v.CurrentPath = path

	if !l.Has(v.Focus.Node) {
		v.Focus.Node = l.Root
	}
	if v.Editing != "" && !l.Has(v.Editing) {
		v.Editing = ""
	}
	return v
}

func (r *Reducer) setFocus(st State, a SetFocus) State {
	f := a.Focus
	switch f.Surface {
	case model.FocusCommand:
		if f.Node == "" || !st.Loom.Has(f.Node) {
			f.Node = st.View.Focus.Node
		}
	case model.FocusTree:
		if f.Node == "" {
			f.Node = st.Indicated()
		}
		if !st.Loom.Has(f.Node) {
			return r.missing(st, a, "node", f.Node)
		}
	default:
		return r.refuse(st, a, "unknown focus surface", zap.String("surface", string(f.Surface)))
	}
	st.View.Focus = f
	return st
}

func (r *Reducer) setNodeExpanded(st State, a SetNodeExpanded) State {
	if !st.Loom.Has(a.ID) {
		return r.missing(st, a, "node", a.ID)
	}
	st.View.Expanded = st.View.Expanded.Set(a.ID, a.Expanded)
	return st
}

func (r *Reducer) setViewType(st State, a SetViewType) State {
	vt, ok := model.ParseViewType(string(a.ViewType))
	if !ok {
		return r.refuse(st, a, "unknown view type", zap.String("viewType", string(a.ViewType)))
	}
	st.View.ViewType = vt
	return st
}

func (r *Reducer) enterEditMode(st State, a EnterEditMode) State {
	if !st.Loom.Has(a.ID) {
		return r.missing(st, a, "node", a.ID)
	}
	if st.IsPending(a.ID) {
		return r.refuse(st, a, "node is still generating", zap.String("node", a.ID))
	}
	st.View.Editing = a.ID
	st.View.Focus = model.Focus{Surface: model.FocusTree, Node: a.ID}
	return st
}

func (r *Reducer) setAPIKey(st State, a SetAPIKey) State {
	service := strings.TrimSpace(a.Service)
	key := strings.TrimSpace(a.Key)
	if service == "" || key == "" {
		return r.refuse(st, a, "service and key are required")
	}
	cfg := st.Config.Clone()
	cfg.APIKeys[service] = key
	st.Config = cfg
	return st
}

func (r *Reducer) removeAPIKey(st State, a RemoveAPIKey) State {
	service := strings.TrimSpace(a.Service)
	if _, ok := st.Config.APIKeys[service]; !ok {
		return r.refuse(st, a, "no key stored", zap.String("service", service))
	}
	cfg := st.Config.Clone()
	delete(cfg.APIKeys, service)
	st.Config = cfg
	return st
}
