package command

import (
	"errors"
	"fmt"

	"loon-cli/internal/mutate"
	"loon-cli/internal/request"
)

var (
	ErrUnknownModel = errors.New("unknown model")
	ErrTargetBusy   = errors.New("node is still waiting for a completion")
)

// Plan is what a command turns into: actions to dispatch now and completion
// jobs whose results arrive later.
type Plan struct {
	Actions []mutate.Action
	Jobs    []request.Job
}

// Execute maps cmd onto actions against st. newID mints placeholder ids.
func Execute(cmd Command, st mutate.State, newID func() string) (Plan, error) {
	switch c := cmd.(type) {
	case ViewToggle:
		return Plan{Actions: []mutate.Action{mutate.SetViewType{ViewType: st.View.ViewType.Toggle()}}}, nil
	case ThemeToggle:
		return Plan{Actions: []mutate.Action{mutate.ToggleTheme{}}}, nil
	case KeyAdd:
		return Plan{Actions: []mutate.Action{mutate.SetAPIKey{Service: c.Service, Key: c.Key}}}, nil
	case KeyRemove:
		return Plan{Actions: []mutate.Action{mutate.RemoveAPIKey{Service: c.Service}}}, nil
	case CircularSiblings:
		return Plan{Actions: []mutate.Action{mutate.SetCircularSiblings{Enabled: c.Enabled}}}, nil
	case ModelCall:
		return modelCall(c, st, newID)
	case nil:
		return Plan{}, errors.New("no command")
	default:
		return Plan{}, fmt.Errorf("unsupported command %q", cmd.commandName())
	}
}

func modelCall(c ModelCall, st mutate.State, newID func() string) (Plan, error) {
	card, ok := st.Config.Card(c.Model)
	if !ok {
		return Plan{}, fmt.Errorf("%w %q", ErrUnknownModel, c.Model)
	}
	target := st.Target()
	if st.IsPending(target) {
		return Plan{}, fmt.Errorf("%w: %s", ErrTargetBusy, target)
	}
	convo := st.Loom.Context(target)
	if len(convo) == 0 {
		return Plan{}, fmt.Errorf("node %s is not reachable from the root", target)
	}
	key := st.Config.APIKey(card.KeyService())

	count := st.Config.ClampCount(c.Count)
	plan := Plan{
		Actions: make([]mutate.Action, 0, count),
		Jobs:    make([]request.Job, 0, count),
	}
	for range count {
		id := newID()
		plan.Actions = append(plan.Actions, mutate.AddPlaceholderNode{ParentID: target, NodeID: id})
		plan.Jobs = append(plan.Jobs, request.Job{
			ParentID: target,
			NodeID:   id,
			Context:  convo,
			Card:     card,
			APIKey:   key,
		})
	}
	return plan, nil
}
