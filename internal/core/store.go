package core

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryState struct {
	instruments   map[string]Instrument
	materials     map[string]Material
	users         map[string]User
	loans         []LoanRecord
	deletionLogs  []DeletionLog
	transitions   []StatusTransition
	materialNames []string
	vendors       []Vendor
}

func newMemoryState() memoryState {
	return memoryState{
		instruments: make(map[string]Instrument),
		materials:   make(map[string]Material),
		users:       make(map[string]User),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.instruments {
		cloned.instruments[k] = cloneInstrument(v)
	}
	for k, v := range s.materials {
		cloned.materials[k] = v
	}
	for k, v := range s.users {
		cloned.users[k] = cloneUser(v)
	}
	cloned.loans = slices.Clone(s.loans)
	cloned.deletionLogs = slices.Clone(s.deletionLogs)
	cloned.transitions = slices.Clone(s.transitions)
	cloned.materialNames = slices.Clone(s.materialNames)
	cloned.vendors = slices.Clone(s.vendors)
	return cloned
}

func cloneInstrument(i Instrument) Instrument {
	cp := i
	cp.CalibrationLogs = slices.Clone(i.CalibrationLogs)
	cp.MaintenanceLogs = slices.Clone(i.MaintenanceLogs)
	return cp
}

func cloneUser(u User) User {
	cp := u
	cp.Qualifications = slices.Clone(u.Qualifications)
	cp.TrainingLogs = slices.Clone(u.TrainingLogs)
	return cp
}

// MemoryStore holds the whole laboratory dataset in memory. Writers replace the
// state wholesale at commit; readers work on cloned snapshots.
type MemoryStore struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewMemoryStore constructs an in-memory store backed by the provided rules engine.
func NewMemoryStore(engine *RulesEngine) *MemoryStore {
	if engine == nil {
		engine = NewRulesEngine()
	}
	return &MemoryStore{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// NowFunc exposes the store clock.
func (s *MemoryStore) NowFunc() func() time.Time {
	return s.nowFn
}

// SetNowFunc replaces the store clock. A nil fn restores the wall clock.
func (s *MemoryStore) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

func newID() string {
	return uuid.NewString()
}

// Transaction represents a mutation set applied to the store state.
type Transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

// Now returns the instant the transaction started.
func (tx *Transaction) Now() time.Time { return tx.now }

// Changes returns the changes recorded so far.
func (tx *Transaction) Changes() []Change { return slices.Clone(tx.changes) }

// View exposes the uncommitted transaction state read-only.
func (tx *Transaction) View() TransactionView {
	return newTransactionView(&tx.state)
}

// TransactionView exposes a read-only snapshot of the state to rules and readers.
type TransactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return TransactionView{state: state}
}

// ListInstruments returns all instruments ordered by instrument number.
func (v TransactionView) ListInstruments() []Instrument {
	out := make([]Instrument, 0, len(v.state.instruments))
	for _, i := range v.state.instruments {
		out = append(out, cloneInstrument(i))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].InstrumentNo < out[b].InstrumentNo })
	return out
}

// ListMaterials returns all materials ordered by lot.
func (v TransactionView) ListMaterials() []Material {
	out := make([]Material, 0, len(v.state.materials))
	for _, m := range v.state.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Lot < out[b].Lot })
	return out
}

// ListUsers returns all users ordered by username.
func (v TransactionView) ListUsers() []User {
	out := make([]User, 0, len(v.state.users))
	for _, u := range v.state.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Username < out[b].Username })
	return out
}

// ListLoans returns the global loan list, newest first.
func (v TransactionView) ListLoans() []LoanRecord {
	return slices.Clone(v.state.loans)
}

// ListDeletionLogs returns the deletion log in the order entries were written.
func (v TransactionView) ListDeletionLogs() []DeletionLog {
	return slices.Clone(v.state.deletionLogs)
}

// ListTransitions returns recorded status transitions in the order they occurred.
func (v TransactionView) ListTransitions() []StatusTransition {
	return slices.Clone(v.state.transitions)
}

// ListVendors returns the vendor catalog.
func (v TransactionView) ListVendors() []Vendor {
	return slices.Clone(v.state.vendors)
}

// ListMaterialNames returns the material name catalog in insertion order.
func (v TransactionView) ListMaterialNames() []string {
	return slices.Clone(v.state.materialNames)
}

// FindInstrument retrieves an instrument by number.
func (v TransactionView) FindInstrument(no string) (Instrument, bool) {
	i, ok := v.state.instruments[no]
	if !ok {
		return Instrument{}, false
	}
	return cloneInstrument(i), true
}

// FindMaterial retrieves a material by lot.
func (v TransactionView) FindMaterial(lot string) (Material, bool) {
	m, ok := v.state.materials[lot]
	return m, ok
}

// FindUser retrieves a user by username.
func (v TransactionView) FindUser(username string) (User, bool) {
	u, ok := v.state.users[username]
	if !ok {
		return User{}, false
	}
	return cloneUser(u), true
}

// FindLoan retrieves a loan record by id.
func (v TransactionView) FindLoan(id string) (LoanRecord, bool) {
	for _, l := range v.state.loans {
		if l.ID == id {
			return l, true
		}
	}
	return LoanRecord{}, false
}

// ActiveLoan returns the open loan for an instrument, if any.
func (v TransactionView) ActiveLoan(instrumentNo string) (LoanRecord, bool) {
	for _, l := range v.state.loans {
		if l.InstrumentNo == instrumentNo && l.Active() {
			return l, true
		}
	}
	return LoanRecord{}, false
}

// LoansFor returns the loan log of one instrument, newest first.
func (v TransactionView) LoansFor(instrumentNo string) []LoanRecord {
	var out []LoanRecord
	for _, l := range v.state.loans {
		if l.InstrumentNo == instrumentNo {
			out = append(out, l)
		}
	}
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the live state only when fn succeeds and no rule blocks.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx *Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *MemoryStore) View(ctx context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *Transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// CreateInstrument stores a new instrument, rejecting a duplicate number.
func (tx *Transaction) CreateInstrument(inst Instrument) (Instrument, error) {
	if _, exists := tx.state.instruments[inst.InstrumentNo]; exists {
		return Instrument{}, DuplicateError{Entity: EntityInstrument, Key: inst.InstrumentNo}
	}
	tx.state.instruments[inst.InstrumentNo] = cloneInstrument(inst)
	tx.recordChange(Change{Entity: EntityInstrument, Action: ActionCreate, Key: inst.InstrumentNo, After: cloneInstrument(inst)})
	return cloneInstrument(inst), nil
}

// UpdateInstrument mutates an instrument using the provided mutator function.
func (tx *Transaction) UpdateInstrument(no string, mutator func(*Instrument) error) (Instrument, error) {
	current, ok := tx.state.instruments[no]
	if !ok {
		return Instrument{}, NotFoundError{Entity: EntityInstrument, Key: no}
	}
	before := cloneInstrument(current)
	current = cloneInstrument(current)
	if err := mutator(&current); err != nil {
		return Instrument{}, err
	}
	current.InstrumentNo = no
	tx.state.instruments[no] = cloneInstrument(current)
	tx.recordChange(Change{Entity: EntityInstrument, Action: ActionUpdate, Key: no, Before: before, After: cloneInstrument(current)})
	return cloneInstrument(current), nil
}

// DeleteInstrument removes an instrument from the transaction state.
func (tx *Transaction) DeleteInstrument(no string) (Instrument, error) {
	current, ok := tx.state.instruments[no]
	if !ok {
		return Instrument{}, NotFoundError{Entity: EntityInstrument, Key: no}
	}
	delete(tx.state.instruments, no)
	tx.recordChange(Change{Entity: EntityInstrument, Action: ActionDelete, Key: no, Before: cloneInstrument(current)})
	return cloneInstrument(current), nil
}

// PutMaterial creates or replaces a material by lot.
func (tx *Transaction) PutMaterial(m Material) Material {
	before, existed := tx.state.materials[m.Lot]
	tx.state.materials[m.Lot] = m
	change := Change{Entity: EntityMaterial, Action: ActionCreate, Key: m.Lot, After: m}
	if existed {
		change.Action = ActionUpdate
		change.Before = before
	}
	tx.recordChange(change)
	return m
}

// DeleteMaterial removes a material by lot.
func (tx *Transaction) DeleteMaterial(lot string) error {
	current, ok := tx.state.materials[lot]
	if !ok {
		return NotFoundError{Entity: EntityMaterial, Key: lot}
	}
	delete(tx.state.materials, lot)
	tx.recordChange(Change{Entity: EntityMaterial, Action: ActionDelete, Key: lot, Before: current})
	return nil
}

// AddMaterialName appends name to the catalog unless it is already present.
func (tx *Transaction) AddMaterialName(name string) bool {
	if name == "" || slices.Contains(tx.state.materialNames, name) {
		return false
	}
	tx.state.materialNames = append(tx.state.materialNames, name)
	return true
}

// PutVendor creates or replaces a vendor catalog entry by id.
func (tx *Transaction) PutVendor(v Vendor) {
	for i := range tx.state.vendors {
		if tx.state.vendors[i].ID == v.ID {
			tx.state.vendors[i] = v
			return
		}
	}
	tx.state.vendors = append(tx.state.vendors, v)
}

// PutUser creates or replaces a user by username.
func (tx *Transaction) PutUser(u User) User {
	before, existed := tx.state.users[u.Username]
	tx.state.users[u.Username] = cloneUser(u)
	change := Change{Entity: EntityUser, Action: ActionCreate, Key: u.Username, After: cloneUser(u)}
	if existed {
		change.Action = ActionUpdate
		change.Before = cloneUser(before)
	}
	tx.recordChange(change)
	return cloneUser(u)
}

// UpdateUser mutates a user using the provided mutator function.
func (tx *Transaction) UpdateUser(username string, mutator func(*User) error) (User, error) {
	current, ok := tx.state.users[username]
	if !ok {
		return User{}, NotFoundError{Entity: EntityUser, Key: username}
	}
	before := cloneUser(current)
	current = cloneUser(current)
	if err := mutator(&current); err != nil {
		return User{}, err
	}
	current.Username = username
	tx.state.users[username] = cloneUser(current)
	tx.recordChange(Change{Entity: EntityUser, Action: ActionUpdate, Key: username, Before: before, After: cloneUser(current)})
	return cloneUser(current), nil
}

// DeleteUser removes a user by username.
func (tx *Transaction) DeleteUser(username string) error {
	current, ok := tx.state.users[username]
	if !ok {
		return NotFoundError{Entity: EntityUser, Key: username}
	}
	delete(tx.state.users, username)
	tx.recordChange(Change{Entity: EntityUser, Action: ActionDelete, Key: username, Before: cloneUser(current)})
	return nil
}

// AppendLoan puts a new loan at the head of the global loan list.
func (tx *Transaction) AppendLoan(l LoanRecord) LoanRecord {
	if l.ID == "" {
		l.ID = newID()
	}
	tx.state.loans = slices.Insert(tx.state.loans, 0, l)
	tx.recordChange(Change{Entity: EntityLoan, Action: ActionCreate, Key: l.ID, After: l})
	return l
}

// UpdateLoan mutates a loan record in place within the global list.
func (tx *Transaction) UpdateLoan(id string, mutator func(*LoanRecord) error) (LoanRecord, error) {
	for i, current := range tx.state.loans {
		if current.ID != id {
			continue
		}
		updated := current
		if err := mutator(&updated); err != nil {
			return LoanRecord{}, err
		}
		updated.ID = id
		tx.state.loans[i] = updated
		tx.recordChange(Change{Entity: EntityLoan, Action: ActionUpdate, Key: id, Before: current, After: updated})
		return updated, nil
	}
	return LoanRecord{}, NotFoundError{Entity: EntityLoan, Key: id}
}

// AppendDeletionLog adds an entry to the end of the deletion log.
func (tx *Transaction) AppendDeletionLog(entry DeletionLog) DeletionLog {
	if entry.ID == "" {
		entry.ID = newID()
	}
	tx.state.deletionLogs = append(tx.state.deletionLogs, entry)
	tx.recordChange(Change{Entity: EntityDeletionLog, Action: ActionCreate, Key: entry.ID, After: entry})
	return entry
}

func (tx *Transaction) appendTransition(tr StatusTransition) {
	tx.state.transitions = append(tx.state.transitions, tr)
}
