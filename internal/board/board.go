// Package board projects a flat task list into status lanes and applies
// drag moves optimistically, reverting a move when the server rejects it.
package board

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/frahmantamala/taktplan/internal/task"
	"github.com/frahmantamala/taktplan/pkg/logger"
)

var (
	ErrCardNotFound = errors.New("card not on board")
	ErrUnknownLane  = errors.New("unknown lane")
)

// Persister stores a status change and returns the task as the server now sees it.
type Persister interface {
	UpdateTaskStatus(ctx context.Context, id int64, status task.Status) (*task.Task, error)
}

type placement struct {
	lane  task.Status
	index int
}

// cardState tracks what the server last accepted for a card and which of its
// moves are still in flight.
type cardState struct {
	confirmed    *task.Task
	confirmedAt  placement
	confirmedGen uint64
	gen          uint64
	pending      map[uint64]task.Status
}

type Board struct {
	mu           sync.Mutex
	lanes        map[task.Status][]*task.Task
	inadmissible []*task.Task
	cards        map[int64]*cardState
	// epoch changes on every Load so moves started before it are dropped on settle
	epoch   uint64
	persist Persister
	logger  *slog.Logger
}

func New(persist Persister, lg *slog.Logger) *Board {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	b := &Board{persist: persist, logger: lg}
	b.Load(nil)
	return b
}

// Load replaces the board content. Tasks keep their input order inside a lane;
// tasks whose status is not a lane go to the inadmissible bucket.
func (b *Board) Load(tasks []*task.Task) {
	lanes := make(map[task.Status][]*task.Task, len(task.Statuses))
	for _, s := range task.Statuses {
		lanes[s] = []*task.Task{}
	}
	cards := make(map[int64]*cardState)
	var rejected []*task.Task
	for _, t := range tasks {
		if t == nil {
			continue
		}
		cp := *t
		if !cp.Status.Valid() {
			rejected = append(rejected, &cp)
			continue
		}
		cards[cp.ID] = &cardState{
			confirmed:   &cp,
			confirmedAt: placement{lane: cp.Status, index: len(lanes[cp.Status])},
			pending:     make(map[uint64]task.Status),
		}
		lanes[cp.Status] = append(lanes[cp.Status], &cp)
	}

	b.mu.Lock()
	b.lanes = lanes
	b.inadmissible = rejected
	b.cards = cards
	b.epoch++
	b.mu.Unlock()

	if len(rejected) > 0 {
		b.logger.Warn("tasks with unknown status left off the board", "count", len(rejected))
	}
}

// Lane returns a copy of the cards in lane s.
func (b *Board) Lane(s task.Status) []task.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyCards(b.lanes[s])
}

func (b *Board) Inadmissible() []task.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyCards(b.inadmissible)
}

// Snapshot returns every lane keyed by status.
func (b *Board) Snapshot() map[task.Status][]task.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[task.Status][]task.Task, len(b.lanes))
	for s, cards := range b.lanes {
		out[s] = copyCards(cards)
	}
	return out
}

// Move relocates card id to the end of lane target right away and persists the
// change in the background. When a move fails and no newer move of the card is
// still in flight, the card returns to the lane and position the server last
// confirmed for it.
func (b *Board) Move(ctx context.Context, id int64, target task.Status) (*PendingMove, error) {
	if !target.Valid() {
		return nil, ErrUnknownLane
	}

	b.mu.Lock()
	from, ok := b.locate(id)
	if !ok {
		b.mu.Unlock()
		return nil, ErrCardNotFound
	}
	if from.lane == target {
		b.mu.Unlock()
		return resolved(nil), nil
	}

	card := b.lanes[from.lane][from.index]
	b.remove(from)
	moved := *card
	moved.Status = target
	b.lanes[target] = append(b.lanes[target], &moved)

	st := b.cards[id]
	st.gen++
	gen, epoch := st.gen, b.epoch
	st.pending[gen] = target
	b.mu.Unlock()

	pm := &PendingMove{done: make(chan struct{})}
	go func() {
		defer close(pm.done)

		saved, err := b.persist.UpdateTaskStatus(ctx, id, target)
		if err != nil {
			pm.err = err
			b.settle(epoch, id, gen, nil)
			logger.From(ctx).Warn("task move rejected", "task_id", id, "from", from.lane, "to", target, "error", err)
			return
		}
		if saved == nil {
			saved = &moved
		}
		b.settle(epoch, id, gen, saved)
	}()
	return pm, nil
}

// settle records the outcome of move gen (saved is nil on failure) and puts
// the card where the board should now show it: the target of the newest move
// still in flight, or else the last confirmed placement.
func (b *Board) settle(epoch uint64, id int64, gen uint64, saved *task.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.cards[id]
	if epoch != b.epoch || !ok {
		return
	}
	target := st.pending[gen]
	delete(st.pending, gen)

	cur, ok := b.locate(id)
	if !ok {
		return
	}
	if saved != nil && gen > st.confirmedGen {
		cp := *saved
		if !cp.Status.Valid() {
			cp.Status = target
		}
		st.confirmed = &cp
		st.confirmedGen = gen
		st.confirmedAt = placement{lane: cp.Status, index: cur.index}
		if cp.Status != cur.lane {
			st.confirmedAt.index = len(b.lanes[cp.Status])
		}
	}

	var newest uint64
	for g := range st.pending {
		if g > st.confirmedGen && g > newest {
			newest = g
		}
	}
	if newest != 0 {
		lane := st.pending[newest]
		if cur.lane != lane {
			shown := *st.confirmed
			shown.Status = lane
			b.remove(cur)
			b.lanes[lane] = append(b.lanes[lane], &shown)
		}
		return
	}

	if cur.lane == st.confirmedAt.lane {
		cp := *st.confirmed
		b.lanes[cur.lane][cur.index] = &cp
		return
	}
	b.remove(cur)
	b.insert(st.confirmedAt, st.confirmed)
}

func (b *Board) insert(at placement, card *task.Task) {
	lane := b.lanes[at.lane]
	idx := at.index
	if idx > len(lane) {
		idx = len(lane)
	}
	cp := *card
	lane = append(lane, nil)
	copy(lane[idx+1:], lane[idx:])
	lane[idx] = &cp
	b.lanes[at.lane] = lane
}

func (b *Board) locate(id int64) (placement, bool) {
	for _, s := range task.Statuses {
		for i, c := range b.lanes[s] {
			if c.ID == id {
				return placement{lane: s, index: i}, true
			}
		}
	}
	return placement{}, false
}

func (b *Board) remove(p placement) {
	lane := b.lanes[p.lane]
	b.lanes[p.lane] = append(lane[:p.index:p.index], lane[p.index+1:]...)
}

func copyCards(cards []*task.Task) []task.Task {
	out := make([]task.Task, len(cards))
	for i, c := range cards {
		out[i] = *c
	}
	return out
}
