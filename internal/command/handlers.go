package command

import (
	"errors"
	"fmt"

	"nuncle.ai/internal/protocol"
	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/observe"
)

func exact(a args, n int) error {
	if a.len() != n {
		return errArgCount
	}
	return nil
}

func runSpawn(d *Dispatcher, _ Sender, a args) (Reply, error) {
	switch a.len() {
	case 0:
		return fromResult(d.agent.SpawnDefault()), nil
	case 3:
		p, err := a.vec(0)
		if err != nil {
			return Reply{}, err
		}
		return fromResult(d.agent.Spawn(p)), nil
	}
	return Reply{}, errArgCount
}

func runDespawn(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 0); err != nil {
		return Reply{}, err
	}
	return fromResult(d.agent.Despawn()), nil
}

func runStatus(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 0); err != nil {
		return Reply{}, err
	}
	return Reply{Code: agent.OK, Text: observe.JSON(d.rep.Status())}, nil
}

func runObserve(d *Dispatcher, _ Sender, a args) (Reply, error) {
	switch {
	case a.len() == 0:
		return Reply{Code: agent.OK, Text: observe.JSON(d.rep.Observe())}, nil
	case a.len() == 1 && a.word(0) == "inventory":
		return Reply{Code: agent.OK, Text: observe.JSON(d.rep.Inventory())}, nil
	}
	return Reply{}, errArgCount
}

func runChat(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if a.len() == 0 {
		return Reply{}, errArgCount
	}
	return fromResult(d.agent.Chat(a.rest(0))), nil
}

func runGoTo(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 3); err != nil {
		return Reply{}, err
	}
	p, err := a.vec(0)
	if err != nil {
		return Reply{}, err
	}
	return fromResult(d.agent.GoTo(p)), nil
}

func runFollow(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 1); err != nil {
		return Reply{}, err
	}
	return fromResult(d.agent.Follow(a.word(0))), nil
}

func runWander(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 0); err != nil {
		return Reply{}, err
	}
	return fromResult(d.agent.Wander()), nil
}

func runStay(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 0); err != nil {
		return Reply{}, err
	}
	return fromResult(d.agent.Stay()), nil
}

func runLook(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 3); err != nil {
		return Reply{}, err
	}
	p, err := a.vec(0)
	if err != nil {
		return Reply{}, err
	}
	return fromResult(d.agent.LookAt(p)), nil
}

func runAttack(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 1); err != nil {
		return Reply{}, err
	}
	return fromResult(d.agent.Attack(a.word(0))), nil
}

func runMine(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 3); err != nil {
		return Reply{}, err
	}
	p, err := a.block(0)
	if err != nil {
		return Reply{}, err
	}
	return fromResult(d.agent.Mine(p)), nil
}

func runPlace(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 4); err != nil {
		return Reply{}, err
	}
	p, err := a.block(0)
	if err != nil {
		return Reply{}, err
	}
	return fromResult(d.agent.Place(p, a.word(3))), nil
}

func runPickup(d *Dispatcher, _ Sender, a args) (Reply, error) {
	return fromResult(d.agent.Pickup(a.rest(0))), nil
}

func runDrop(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if a.len() == 0 {
		return Reply{}, errArgCount
	}
	return fromResult(d.agent.Drop(a.rest(0))), nil
}

func runTake(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if a.len() < 3 || a.len() > 5 {
		return Reply{}, errArgCount
	}
	p, err := a.block(0)
	if err != nil {
		return Reply{}, err
	}
	count := DefaultTransferCount
	if a.len() == 5 {
		if count, err = positive(a, 4); err != nil {
			return Reply{}, err
		}
	}
	return fromResult(d.agent.Take(p, a.word(3), count)), nil
}

func runPut(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if a.len() < 4 || a.len() > 5 {
		return Reply{}, errArgCount
	}
	p, err := a.block(0)
	if err != nil {
		return Reply{}, err
	}
	count := DefaultTransferCount
	if a.len() == 5 {
		if count, err = positive(a, 4); err != nil {
			return Reply{}, err
		}
	}
	return fromResult(d.agent.Put(p, a.word(3), count)), nil
}

func positive(a args, i int) (int, error) {
	n, err := a.int(i)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("count must be at least 1, got %d", n)
	}
	return n, nil
}

func runBoundary(d *Dispatcher, _ Sender, a args) (Reply, error) {
	switch a.word(0) {
	case "set":
		if err := exact(a, 4); err != nil {
			return Reply{}, err
		}
		x, err := a.float(1)
		if err != nil {
			return Reply{}, err
		}
		z, err := a.float(2)
		if err != nil {
			return Reply{}, err
		}
		r, err := a.float(3)
		if err != nil {
			return Reply{}, err
		}
		return fromResult(d.agent.SetBoundary(x, z, r)), nil
	case "clear":
		if err := exact(a, 1); err != nil {
			return Reply{}, err
		}
		return fromResult(d.agent.ClearBoundary()), nil
	case "info":
		if err := exact(a, 1); err != nil {
			return Reply{}, err
		}
		return Reply{Code: agent.OK, Text: d.agent.BoundaryDescription()}, nil
	}
	return Reply{}, errors.New("expected set, clear or info")
}

func runThinking(d *Dispatcher, _ Sender, a args) (Reply, error) {
	if err := exact(a, 1); err != nil {
		return Reply{}, err
	}
	switch a.word(0) {
	case "start":
		return fromResult(d.agent.SetThinking(true)), nil
	case "stop":
		return fromResult(d.agent.SetThinking(false)), nil
	}
	return Reply{}, errors.New("expected start or stop")
}

// runBrain only records the toggle; whatever drives the brain reads it from
// the event stream.
func runBrain(d *Dispatcher, s Sender, a args) (Reply, error) {
	if err := exact(a, 1); err != nil {
		return Reply{}, err
	}
	var on bool
	switch a.word(0) {
	case "on":
		on = true
	case "off":
	default:
		return Reply{}, errors.New("expected on or off")
	}
	state, verb := "OFF", "despawn and stop thinking"
	if on {
		state, verb = "ON", "spawn and start thinking"
	}
	d.log.Printf("BRAIN_%s by=%s", state, s.Name)
	return Reply{
		Code:   agent.OK,
		Text:   fmt.Sprintf("Brain toggle: %s - %s will %s", state, d.agent.Name(), verb),
		Events: []protocol.Event{{"type": "BRAIN", "on": on, "by": s.Name}},
	}, nil
}
