// Package session owns the live application state: it feeds actions through
// the reducer, persists what changed, and turns commands into completion jobs.
package session

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"loon-cli/internal/command"
	"loon-cli/internal/model"
	"loon-cli/internal/mutate"
	"loon-cli/internal/request"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	persistTimeout = 5 * time.Second
	maxInFlight    = 8
	interruptedMsg = "error: interrupted before a reply arrived"
)

// Persister is the storage the session writes through to. store.Store
// implements it.
type Persister interface {
	SaveNodes(ctx context.Context, l model.Loom) error
	LoadNodes(ctx context.Context) (root string, nodes []model.Node, ok bool, err error)
	SaveViewState(ctx context.Context, v model.ViewState) error
	LoadViewState(ctx context.Context) (*model.ViewState, bool, error)
}

type Options struct {
	Config    model.Config
	Persister Persister
	Completer request.Completer
	Logger    *zap.Logger

	// SaveConfig is called when an action changed API keys or navigation settings.
	SaveConfig func(model.Config) error

	Now   func() time.Time
	NewID func() string
}

type Session struct {
	mu      sync.Mutex
	state   mutate.State
	reducer *mutate.Reducer

	persist    Persister
	saveConfig func(model.Config) error
	completer  request.Completer
	newID      func() string
	log        *zap.Logger
}

// Open builds a session from persisted state. Placeholders left over from an
// earlier run can no longer be answered, so they are turned into error nodes.
func Open(ctx context.Context, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := opts.NewID
	if newID == nil {
		newID = mutate.NewNodeID
	}
	if opts.Completer == nil {
		opts.Completer = request.NewClient(request.WithLogger(log))
	}

	s := &Session{
		reducer: mutate.NewReducer(
			mutate.WithLogger(log.Named("reducer")),
			mutate.WithClock(now),
			mutate.WithIDGenerator(newID),
		),
		persist:    opts.Persister,
		saveConfig: opts.SaveConfig,
		completer:  opts.Completer,
		newID:      newID,
		log:        log,
	}
	s.state = mutate.NewState(opts.Config, now())

	if s.persist == nil {
		return s, nil
	}
	root, nodes, ok, err := s.persist.LoadNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	if ok {
		fresh := s.state.Loom
		s.state = s.reducer.Apply(s.state, mutate.LoadNodes{Root: root, Nodes: nodes})
		if s.state.Loom.SameAs(fresh) {
			return nil, fmt.Errorf("load tree: %d persisted nodes do not form a valid tree", len(nodes))
		}
	}
	v, ok, err := s.persist.LoadViewState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load view state: %w", err)
	}
	if ok {
		s.state = s.reducer.Apply(s.state, mutate.LoadViewState{View: *v})
	}

	stale := s.state.Pending.Items()
	if len(stale) > 0 {
		log.Info("resolving placeholders from a previous run", zap.Int("count", len(stale)))
		actions := make([]mutate.Action, 0, len(stale))
		for _, id := range stale {
			actions = append(actions, mutate.ReplacePlaceholderNode{NodeID: id, Content: interruptedMsg, IsError: true})
		}
		s.Dispatch(actions...)
	}
	return s, nil
}

// State returns the current snapshot. Snapshots are immutable and safe to
// keep after later dispatches.
func (s *Session) State() mutate.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Completer() request.Completer { return s.completer }

// Dispatch applies actions in order and writes through whatever they changed.
// Write failures are logged; the in-memory state stays authoritative.
func (s *Session) Dispatch(actions ...mutate.Action) mutate.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	next := prev
	for _, a := range actions {
		next = s.reducer.Apply(next, a)
		s.log.Debug("dispatched", zap.String("action", mutate.Name(a)))
	}
	s.state = next
	s.persistChanges(prev, next)
	return next
}

func (s *Session) persistChanges(prev, next mutate.State) {
	if s.persist != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if !next.Loom.SameAs(prev.Loom) {
			if err := s.persist.SaveNodes(ctx, next.Loom); err != nil {
				s.log.Error("saving tree failed", zap.Error(err))
			}
		}
		if viewChanged(prev.View, next.View) {
			if err := s.persist.SaveViewState(ctx, next.View); err != nil {
				s.log.Error("saving view state failed", zap.Error(err))
			}
		}
	}
	if s.saveConfig != nil && configChanged(prev.Config, next.Config) {
		if err := s.saveConfig(next.Config); err != nil {
			s.log.Error("saving config failed", zap.Error(err))
		}
	}
}

func viewChanged(a, b model.ViewState) bool {
	return a.ViewType != b.ViewType ||
		a.Theme != b.Theme ||
		a.Focus != b.Focus ||
		!a.Expanded.SameAs(b.Expanded) ||
		!slices.Equal(a.CurrentPath, b.CurrentPath)
}

func configChanged(a, b model.Config) bool {
	return a.Navigation != b.Navigation || !maps.Equal(a.APIKeys, b.APIKeys)
}

// RunCommand parses and executes a command-bar input, dispatching its
// immediate actions. The returned plan's jobs still have to be run.
func (s *Session) RunCommand(input string) (command.Plan, error) {
	cmd, err := command.Parse(input)
	if err != nil {
		return command.Plan{}, err
	}
	plan, err := command.Execute(cmd, s.State(), s.newID)
	if err != nil {
		return command.Plan{}, err
	}
	s.Dispatch(plan.Actions...)
	return plan, nil
}

// RequestCompletions plans count completions from card name under parentID,
// regardless of where the cursor is.
func (s *Session) RequestCompletions(parentID, card string, count int) (command.Plan, error) {
	st := s.State()
	if !st.Loom.Has(parentID) {
		return command.Plan{}, mutate.NotFoundError{Kind: "node", ID: parentID}
	}
	st.View.ViewType = model.ViewOutline
	st.View.Focus.Node = parentID
	plan, err := command.Execute(command.ModelCall{Model: card, Count: count}, st, s.newID)
	if err != nil {
		return command.Plan{}, err
	}
	s.Dispatch(plan.Actions...)
	return plan, nil
}

// Resolve fills in the placeholder a finished job was reserved for.
func (s *Session) Resolve(res request.Result) mutate.State {
	if res.Err != nil {
		s.log.Warn("completion failed", zap.String("node", res.NodeID), zap.Error(res.Err))
		return s.Dispatch(mutate.ReplacePlaceholderNode{NodeID: res.NodeID, Content: "error: " + res.Err.Error(), IsError: true})
	}
	return s.Dispatch(mutate.ReplacePlaceholderNode{NodeID: res.NodeID, Content: res.Content})
}

// RunJobs runs jobs concurrently and resolves each result on the calling
// goroutine as it arrives. It returns once every job has been resolved.
func (s *Session) RunJobs(ctx context.Context, jobs []request.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	results := make(chan request.Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)

	go func() {
		for _, j := range jobs {
			g.Go(func() error {
				results <- j.Run(gctx, s.completer)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	var failed int
	for res := range results {
		if res.Err != nil {
			failed++
		}
		s.Resolve(res)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d completions failed", failed, len(jobs))
	}
	return nil
}
