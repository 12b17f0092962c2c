package state

import (
	"crypto"
	"fmt"
	"sort"
	"sync"

	"github.com/wormholelabs-xyz/swap-layer/types"
	"github.com/wormholelabs-xyz/swap-layer/util"
)

// State is a data structure that keeps track of units and calculates the
// state root hash.
//
// State can be changed by calling the Apply function with one or more Action
// functions. The Savepoint method can be used to add a special marker to the
// state that allows all actions that are executed after the savepoint was
// established to be rolled back. In other words, a savepoint lets you roll
// back part of the state changes instead of the entire state. Calling the
// Commit method makes the changes in the latest savepoint permanent.
type State struct {
	mutex         sync.RWMutex
	hashAlgorithm crypto.Hash
	committedTree *tree

	// savepoints let all actions executed after a savepoint was established
	// be rolled back, restoring the state to what it was at that time.
	savepoints []*tree
}

func NewEmptyState(opts ...Option) *State {
	options := loadOptions(opts...)
	t := newTree()
	return &State{
		hashAlgorithm: options.hashAlgorithm,
		committedTree: t,
		savepoints:    []*tree{t.Clone()},
	}
}

func (s *State) Clone() *State {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	sp := make([]*tree, len(s.savepoints))
	for i, t := range s.savepoints {
		sp[i] = t.Clone()
	}
	return &State{
		hashAlgorithm: s.hashAlgorithm,
		committedTree: s.committedTree.Clone(),
		savepoints:    sp,
	}
}

// GetUnit returns the unit with given id. If committed is true the committed
// state is used, otherwise the latest uncommitted state.
func (s *State) GetUnit(id types.UnitID, committed bool) (*Unit, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if committed {
		return s.committedTree.Get(id)
	}
	return s.latestSavepoint().Get(id)
}

// Apply applies given actions to the state. All Action functions are executed
// together as a single atomic operation. If any of the Action functions
// returns an error all previous state changes made by any of the action
// functions will be reverted.
func (s *State) Apply(actions ...Action) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	id := s.createSavepoint()
	for _, action := range actions {
		if err := action(s.latestSavepoint()); err != nil {
			s.rollbackToSavepoint(id)
			return err
		}
	}
	s.releaseToSavepoint(id)
	return nil
}

// Commit makes the changes in the latest savepoint permanent.
func (s *State) Commit() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	sp := s.latestSavepoint()
	s.committedTree = sp.Clone()
	s.savepoints = []*tree{sp}
	return nil
}

// Revert rolls back all changes made to the state since the last commit.
func (s *State) Revert() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.savepoints = []*tree{s.committedTree.Clone()}
}

// Savepoint creates a new savepoint and returns its id. Use
// RollbackToSavepoint to roll back all changes made after calling the
// Savepoint method. Use ReleaseToSavepoint to keep all changes made to the
// state.
func (s *State) Savepoint() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.createSavepoint()
}

// RollbackToSavepoint destroys savepoints without keeping the changes in the
// state. All actions that were executed after the savepoint was established
// are rolled back, restoring the state to what it was at the time of the
// savepoint.
func (s *State) RollbackToSavepoint(id int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rollbackToSavepoint(id)
}

// ReleaseToSavepoint destroys all savepoints down to the given id, keeping
// all state changes made after it was created. If a savepoint with given id
// does not exist then this method does nothing.
func (s *State) ReleaseToSavepoint(id int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.releaseToSavepoint(id)
}

// IsCommitted returns true if the state does not contain uncommitted changes.
func (s *State) IsCommitted() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.savepoints) == 1 && s.latestSavepoint().Eq(s.committedTree)
}

// CalculateRoot computes the summary value (total balance held by units) and
// root hash over the latest uncommitted state.
func (s *State) CalculateRoot() (uint64, []byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	sp := s.latestSavepoint()
	ids := sp.sortedIDs()
	hasher := s.hashAlgorithm.New()
	var summary uint64
	for _, id := range ids {
		u, err := sp.Get(id)
		if err != nil {
			return 0, nil, err
		}
		hasher.Write(id)
		hasher.Write(u.bearer)
		if err := u.data.Write(hasher); err != nil {
			return 0, nil, fmt.Errorf("hashing unit %s data: %w", id, err)
		}
		sum, ok := util.AddUint64(summary, u.data.SummaryValueInput())
		if !ok {
			return 0, nil, fmt.Errorf("summary value overflow at unit %s", id)
		}
		summary = sum
	}
	return summary, hasher.Sum(nil), nil
}

// Traverse calls f for every unit of the latest uncommitted state, in unit id
// order. Traversal stops on the first error.
func (s *State) Traverse(f func(id types.UnitID, u *Unit) error) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	sp := s.latestSavepoint()
	for _, id := range sp.sortedIDs() {
		u, err := sp.Get(id)
		if err != nil {
			return err
		}
		if err := f(id, u); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) HashAlgorithm() crypto.Hash {
	return s.hashAlgorithm
}

func (s *State) createSavepoint() int {
	s.savepoints = append(s.savepoints, s.latestSavepoint().Clone())
	return len(s.savepoints) - 1
}

func (s *State) rollbackToSavepoint(id int) {
	c := len(s.savepoints)
	if id > c {
		return
	}
	s.savepoints = s.savepoints[0:id]
}

func (s *State) releaseToSavepoint(id int) {
	c := len(s.savepoints)
	if id > c {
		return
	}
	// the savepoint to release to replaces its parent
	s.savepoints[id-1] = s.savepoints[c-1]
	s.savepoints = s.savepoints[0:id]
}

func (s *State) latestSavepoint() *tree {
	l := len(s.savepoints)
	return s.savepoints[l-1]
}

type tree struct {
	units map[string]*Unit
}

func newTree() *tree {
	return &tree{units: map[string]*Unit{}}
}

// Clone makes a shallow copy of the unit map. Safe because actions never
// mutate stored units in place, they always replace the pointer.
func (t *tree) Clone() *tree {
	units := make(map[string]*Unit, len(t.units))
	for k, v := range t.units {
		units[k] = v
	}
	return &tree{units: units}
}

func (t *tree) Add(id types.UnitID, u *Unit) error {
	if _, ok := t.units[string(id)]; ok {
		return fmt.Errorf("unit %s already exists", id)
	}
	t.units[string(id)] = u
	return nil
}

func (t *tree) Get(id types.UnitID) (*Unit, error) {
	u, ok := t.units[string(id)]
	if !ok {
		return nil, fmt.Errorf("item %s does not exist: %w", id, ErrNotFound)
	}
	return u, nil
}

func (t *tree) Update(id types.UnitID, u *Unit) error {
	if _, ok := t.units[string(id)]; !ok {
		return fmt.Errorf("item %s does not exist: %w", id, ErrNotFound)
	}
	t.units[string(id)] = u
	return nil
}

func (t *tree) Delete(id types.UnitID) error {
	if _, ok := t.units[string(id)]; !ok {
		return fmt.Errorf("item %s does not exist: %w", id, ErrNotFound)
	}
	delete(t.units, string(id))
	return nil
}

func (t *tree) Eq(o *tree) bool {
	if len(t.units) != len(o.units) {
		return false
	}
	for k, v := range t.units {
		if o.units[k] != v {
			return false
		}
	}
	return true
}

func (t *tree) sortedIDs() []types.UnitID {
	ids := make([]types.UnitID, 0, len(t.units))
	for k := range t.units {
		ids = append(ids, types.UnitID(k))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	return ids
}
