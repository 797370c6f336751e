// Package testutil provides an in-memory implementation of the storage
// contracts for service and handler tests. It mirrors the transactional
// semantics of the real store: Begin clones the dataset, Commit swaps it
// back in, Rollback discards the clone.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// MemStore is an in-memory domain.Store with serialized writers.
type MemStore struct {
	mu   sync.Mutex
	data *dataset
}

type stateKey struct {
	categoryID string
	monthStart time.Time
}

type priceKey struct {
	symbol    string
	priceDate time.Time
}

type dataset struct {
	accounts        map[string]domain.Account
	details         []domain.AccountDetail
	groups          map[string]domain.CategoryGroup
	categories      map[string]domain.Category
	transactions    []domain.Transaction
	allocations     []domain.Allocation
	states          map[stateKey]domain.CategoryMonthState
	reconciliations []domain.Reconciliation
	prices          map[priceKey]domain.MarketPrice
	holdings        []domain.InvestmentHolding
}

// NewMemStore returns a store seeded the way migrations seed a fresh
// database: the system categories and the credit-card payments group.
func NewMemStore() *MemStore {
	d := &dataset{
		accounts:   make(map[string]domain.Account),
		groups:     make(map[string]domain.CategoryGroup),
		categories: make(map[string]domain.Category),
		states:     make(map[stateKey]domain.CategoryMonthState),
		prices:     make(map[priceKey]domain.MarketPrice),
	}
	d.groups[domain.GroupCreditCardPayments] = domain.CategoryGroup{
		ID:       domain.GroupCreditCardPayments,
		Name:     "Credit Card Payments",
		IsActive: true,
	}
	for _, c := range domain.SystemCategories() {
		d.categories[c.ID] = *c
	}
	return &MemStore{data: d}
}

// Begin locks the writer slot and hands out a unit of work over a clone
// of the dataset.
func (s *MemStore) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &memUnit{store: s, data: s.data.clone()}, nil
}

type memUnit struct {
	store *MemStore
	data  *dataset
	done  bool
}

func (u *memUnit) Commit() error {
	if u.done {
		return nil
	}
	u.done = true
	u.store.data = u.data
	u.store.mu.Unlock()
	return nil
}

func (u *memUnit) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	u.store.mu.Unlock()
	return nil
}

func (u *memUnit) Accounts() domain.AccountRepository               { return (*memAccounts)(u) }
func (u *memUnit) Categories() domain.CategoryRepository            { return (*memCategories)(u) }
func (u *memUnit) CategoryGroups() domain.CategoryGroupRepository   { return (*memGroups)(u) }
func (u *memUnit) Transactions() domain.TransactionRepository       { return (*memTransactions)(u) }
func (u *memUnit) Allocations() domain.AllocationRepository         { return (*memAllocations)(u) }
func (u *memUnit) MonthStates() domain.MonthStateRepository         { return (*memStates)(u) }
func (u *memUnit) Reconciliations() domain.ReconciliationRepository { return (*memRecons)(u) }
func (u *memUnit) MarketData() domain.MarketDataRepository          { return (*memMarket)(u) }

func (d *dataset) clone() *dataset {
	c := &dataset{
		accounts:        make(map[string]domain.Account, len(d.accounts)),
		details:         append([]domain.AccountDetail(nil), d.details...),
		groups:          make(map[string]domain.CategoryGroup, len(d.groups)),
		categories:      make(map[string]domain.Category, len(d.categories)),
		transactions:    append([]domain.Transaction(nil), d.transactions...),
		allocations:     append([]domain.Allocation(nil), d.allocations...),
		states:          make(map[stateKey]domain.CategoryMonthState, len(d.states)),
		reconciliations: append([]domain.Reconciliation(nil), d.reconciliations...),
		prices:          make(map[priceKey]domain.MarketPrice, len(d.prices)),
		holdings:        append([]domain.InvestmentHolding(nil), d.holdings...),
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.groups {
		c.groups[k] = v
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k, v := range d.states {
		c.states[k] = v
	}
	for k, v := range d.prices {
		c.prices[k] = v
	}
	return c
}

// recordedBefore orders versions by the monotonic (recorded_at, seq) key.
func recordedBefore(aAt time.Time, aSeq int64, bAt time.Time, bSeq int64) bool {
	if !aAt.Equal(bAt) {
		return aAt.Before(bAt)
	}
	return aSeq < bSeq
}

type memAccounts memUnit

func (r *memAccounts) Insert(a *domain.Account) error {
	r.data.accounts[a.ID] = *a
	return nil
}

func (r *memAccounts) GetByID(id string) (*domain.Account, error) {
	a, ok := r.data.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &a, nil
}

func (r *memAccounts) List(includeInactive bool) ([]*domain.Account, error) {
	out := make([]*domain.Account, 0, len(r.data.accounts))
	for _, a := range r.data.accounts {
		if !includeInactive && !a.IsActive {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAccounts) Update(a *domain.Account) error {
	current, ok := r.data.accounts[a.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	balance := current.CurrentBalanceMinor
	updated := *a
	updated.CurrentBalanceMinor = balance
	r.data.accounts[a.ID] = updated
	return nil
}

func (r *memAccounts) AddBalance(id string, deltaMinor int64) error {
	a, ok := r.data.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.CurrentBalanceMinor += deltaMinor
	r.data.accounts[id] = a
	return nil
}

func (r *memAccounts) SetBalance(id string, balanceMinor int64) error {
	a, ok := r.data.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.CurrentBalanceMinor = balanceMinor
	r.data.accounts[id] = a
	return nil
}

func (r *memAccounts) InsertDetail(d *domain.AccountDetail) error {
	r.data.details = append(r.data.details, *d)
	return nil
}

func (r *memAccounts) ActiveDetail(accountID string) (*domain.AccountDetail, error) {
	for i := len(r.data.details) - 1; i >= 0; i-- {
		d := r.data.details[i]
		if d.AccountID == accountID && d.IsActive {
			return &d, nil
		}
	}
	return nil, domain.ErrDetailNotFound
}

func (r *memAccounts) CloseDetail(detailID uuid.UUID, at time.Time) error {
	for i := range r.data.details {
		if r.data.details[i].DetailID == detailID {
			r.data.details[i].IsActive = false
			at := at
			r.data.details[i].ValidTo = &at
			return nil
		}
	}
	return domain.ErrDetailNotFound
}

func (r *memAccounts) ActiveDetailsByClass(class domain.AccountClass) ([]*domain.AccountDetail, error) {
	var out []*domain.AccountDetail
	for _, d := range r.data.details {
		if d.Class == class && d.IsActive {
			d := d
			out = append(out, &d)
		}
	}
	return out, nil
}

func (r *memAccounts) DetailsByAccount(accountID string) ([]*domain.AccountDetail, error) {
	var out []*domain.AccountDetail
	for _, d := range r.data.details {
		if d.AccountID == accountID {
			d := d
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidFrom.Before(out[j].ValidFrom) })
	return out, nil
}

type memCategories memUnit

func (r *memCategories) Insert(c *domain.Category) error {
	r.data.categories[c.ID] = *c
	return nil
}

func (r *memCategories) GetByID(id string) (*domain.Category, error) {
	c, ok := r.data.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &c, nil
}

func (r *memCategories) List(includeInactive bool) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(r.data.categories))
	for _, c := range r.data.categories {
		if !includeInactive && !c.IsActive {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memCategories) Update(c *domain.Category) error {
	if _, ok := r.data.categories[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	r.data.categories[c.ID] = *c
	return nil
}

func (r *memCategories) SoftDelete(id string) error {
	c, ok := r.data.categories[id]
	if !ok {
		return domain.ErrCategoryNotFound
	}
	c.IsActive = false
	r.data.categories[id] = c
	return nil
}

type memGroups memUnit

func (r *memGroups) Insert(g *domain.CategoryGroup) error {
	r.data.groups[g.ID] = *g
	return nil
}

func (r *memGroups) GetByID(id string) (*domain.CategoryGroup, error) {
	g, ok := r.data.groups[id]
	if !ok {
		return nil, domain.ErrCategoryGroupNotFound
	}
	return &g, nil
}

func (r *memGroups) List() ([]*domain.CategoryGroup, error) {
	out := make([]*domain.CategoryGroup, 0, len(r.data.groups))
	for _, g := range r.data.groups {
		g := g
		out = append(out, &g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memGroups) Update(g *domain.CategoryGroup) error {
	if _, ok := r.data.groups[g.ID]; !ok {
		return domain.ErrCategoryGroupNotFound
	}
	r.data.groups[g.ID] = *g
	return nil
}

type memTransactions memUnit

func (r *memTransactions) InsertVersion(t *domain.Transaction) error {
	r.data.transactions = append(r.data.transactions, *t)
	return nil
}

func (r *memTransactions) ActiveByConcept(conceptID uuid.UUID) (*domain.Transaction, error) {
	for _, t := range r.data.transactions {
		if t.ConceptID == conceptID && t.IsActive {
			t := t
			return &t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *memTransactions) Retire(versionID uuid.UUID, at time.Time) error {
	for i := range r.data.transactions {
		if r.data.transactions[i].VersionID == versionID {
			if !r.data.transactions[i].IsActive {
				return domain.ErrVersionConflict
			}
			r.data.transactions[i].IsActive = false
			at := at
			r.data.transactions[i].ValidTo = &at
			return nil
		}
	}
	return domain.ErrVersionConflict
}

func (r *memTransactions) activeRows(accountID string) []domain.Transaction {
	var out []domain.Transaction
	for _, t := range r.data.transactions {
		if t.IsActive && (accountID == "" || t.AccountID == accountID) {
			out = append(out, t)
		}
	}
	return out
}

func (r *memTransactions) ListRecent(limit int) ([]*domain.Transaction, error) {
	rows := r.activeRows("")
	sort.Slice(rows, func(i, j int) bool {
		return recordedBefore(rows[j].RecordedAt, rows[j].RecordedSeq, rows[i].RecordedAt, rows[i].RecordedSeq)
	})
	return takeTransactions(rows, limit), nil
}

func (r *memTransactions) ListByAccount(accountID string, f domain.TransactionFilters) ([]*domain.Transaction, error) {
	var rows []domain.Transaction
	for _, t := range r.activeRows(accountID) {
		if f.StartDate != nil && t.Date.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && t.Date.After(*f.EndDate) {
			continue
		}
		if f.ClearedOnly && t.Status != domain.StatusCleared {
			continue
		}
		rows = append(rows, t)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[j].Date.Before(rows[i].Date)
		}
		return recordedBefore(rows[j].RecordedAt, rows[j].RecordedSeq, rows[i].RecordedAt, rows[i].RecordedSeq)
	})
	return takeTransactions(rows, f.Limit), nil
}

func (r *memTransactions) ActiveByTransferGroup(groupID uuid.UUID) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range r.data.transactions {
		if t.IsActive && t.TransferGroupID != nil && *t.TransferGroupID == groupID {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

func (r *memTransactions) SumActive(accountID string, clearedOnly bool, onOrBefore *time.Time) (int64, error) {
	var sum int64
	for _, t := range r.activeRows(accountID) {
		if clearedOnly && t.Status != domain.StatusCleared {
			continue
		}
		if onOrBefore != nil && t.Date.After(*onOrBefore) {
			continue
		}
		sum += t.AmountMinor
	}
	return sum, nil
}

func (r *memTransactions) DailyFlows(accountID string, start, end time.Time, clearedOnly bool) ([]domain.DailyFlow, error) {
	byDay := make(map[time.Time]int64)
	for _, t := range r.activeRows(accountID) {
		if clearedOnly && t.Status != domain.StatusCleared {
			continue
		}
		day := domain.DayStart(t.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		byDay[day] += t.AmountMinor
	}
	out := make([]domain.DailyFlow, 0, len(byDay))
	for day, net := range byDay {
		out = append(out, domain.DailyFlow{Date: day, NetMinor: net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memTransactions) PendingOrRecordedAfter(accountID string, after *domain.Stamp) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range r.activeRows(accountID) {
		recordedAfter := after != nil &&
			domain.Stamp{RecordedAt: t.RecordedAt, RecordedSeq: t.RecordedSeq}.After(*after)
		if t.Status == domain.StatusPending || recordedAfter {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memTransactions) RecordedAfterDatedOnOrBefore(accountID string, after domain.Stamp, dateCutoff time.Time) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range r.activeRows(accountID) {
		stamp := domain.Stamp{RecordedAt: t.RecordedAt, RecordedSeq: t.RecordedSeq}
		if stamp.After(after) && !t.Date.After(dateCutoff) {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memTransactions) ActiveTotalsByAccount() (map[string]int64, error) {
	totals := make(map[string]int64)
	for _, t := range r.activeRows("") {
		totals[t.AccountID] += t.AmountMinor
	}
	return totals, nil
}

func (r *memTransactions) ActiveByCategoryMonth() ([]domain.CategoryMonthActivity, error) {
	type key struct {
		categoryID string
		month      time.Time
	}
	agg := make(map[key]*domain.CategoryMonthActivity)
	for _, t := range r.activeRows("") {
		k := key{t.CategoryID, domain.MonthStart(t.Date)}
		row, ok := agg[k]
		if !ok {
			row = &domain.CategoryMonthActivity{CategoryID: k.categoryID, MonthStart: k.month}
			agg[k] = row
		}
		row.ActivityMinor += t.AmountMinor
		if t.AmountMinor > 0 {
			row.InflowMinor += t.AmountMinor
		}
	}
	out := make([]domain.CategoryMonthActivity, 0, len(agg))
	for _, row := range agg {
		out = append(out, *row)
	}
	return out, nil
}

func (r *memTransactions) ActiveCreditReserveByAccountMonth() ([]domain.AccountMonthNet, error) {
	type key struct {
		accountID string
		month     time.Time
	}
	agg := make(map[key]int64)
	for _, t := range r.activeRows("") {
		a, ok := r.data.accounts[t.AccountID]
		if !ok || a.Class != domain.ClassCredit {
			continue
		}
		c, ok := r.data.categories[t.CategoryID]
		if !ok {
			continue
		}
		reserveFed := (c.IsEnvelope && !c.IsSystem) || c.ID == domain.CategoryAccountTransfer
		if !reserveFed {
			continue
		}
		agg[key{t.AccountID, domain.MonthStart(t.Date)}] += t.AmountMinor
	}
	out := make([]domain.AccountMonthNet, 0, len(agg))
	for k, net := range agg {
		out = append(out, domain.AccountMonthNet{AccountID: k.accountID, MonthStart: k.month, NetMinor: net})
	}
	return out, nil
}

func takeTransactions(rows []domain.Transaction, limit int) []*domain.Transaction {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]*domain.Transaction, len(rows))
	for i := range rows {
		t := rows[i]
		out[i] = &t
	}
	return out
}

type memAllocations memUnit

func (r *memAllocations) InsertVersion(a *domain.Allocation) error {
	r.data.allocations = append(r.data.allocations, *a)
	return nil
}

func (r *memAllocations) ActiveByConcept(conceptID uuid.UUID) (*domain.Allocation, error) {
	for _, a := range r.data.allocations {
		if a.ConceptID == conceptID && a.IsActive {
			a := a
			return &a, nil
		}
	}
	return nil, domain.ErrAllocationNotFound
}

func (r *memAllocations) Retire(versionID uuid.UUID, at time.Time) error {
	for i := range r.data.allocations {
		if r.data.allocations[i].VersionID == versionID {
			if !r.data.allocations[i].IsActive {
				return domain.ErrVersionConflict
			}
			r.data.allocations[i].IsActive = false
			at := at
			r.data.allocations[i].ValidTo = &at
			return nil
		}
	}
	return domain.ErrVersionConflict
}

func (r *memAllocations) ListByMonth(monthStart time.Time) ([]*domain.Allocation, error) {
	var out []*domain.Allocation
	for _, a := range r.data.allocations {
		if a.IsActive && a.MonthStart.Equal(monthStart) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return recordedBefore(out[i].RecordedAt, out[i].RecordedSeq, out[j].RecordedAt, out[j].RecordedSeq)
	})
	return out, nil
}

func (r *memAllocations) NetByCategoryMonth() ([]domain.CategoryMonthNet, error) {
	type key struct {
		categoryID string
		month      time.Time
	}
	agg := make(map[key]int64)
	for _, a := range r.data.allocations {
		if !a.IsActive {
			continue
		}
		agg[key{a.ToCategoryID, a.MonthStart}] += a.AmountMinor
		agg[key{a.FromCategoryID, a.MonthStart}] -= a.AmountMinor
	}
	out := make([]domain.CategoryMonthNet, 0, len(agg))
	for k, net := range agg {
		out = append(out, domain.CategoryMonthNet{CategoryID: k.categoryID, MonthStart: k.month, NetMinor: net})
	}
	return out, nil
}

type memStates memUnit

func (r *memStates) Get(categoryID string, monthStart time.Time) (*domain.CategoryMonthState, error) {
	s, ok := r.data.states[stateKey{categoryID, monthStart}]
	if !ok {
		return nil, domain.ErrMonthStateNotFound
	}
	return &s, nil
}

func (r *memStates) LatestOnOrBefore(categoryID string, monthStart time.Time) (*domain.CategoryMonthState, error) {
	var best *domain.CategoryMonthState
	for k, s := range r.data.states {
		if k.categoryID != categoryID || k.monthStart.After(monthStart) {
			continue
		}
		if best == nil || best.MonthStart.Before(k.monthStart) {
			s := s
			best = &s
		}
	}
	if best == nil {
		return nil, domain.ErrMonthStateNotFound
	}
	return best, nil
}

func (r *memStates) Insert(s *domain.CategoryMonthState) error {
	r.data.states[stateKey{s.CategoryID, s.MonthStart}] = *s
	return nil
}

func (r *memStates) Update(s *domain.CategoryMonthState) error {
	k := stateKey{s.CategoryID, s.MonthStart}
	if _, ok := r.data.states[k]; !ok {
		return domain.ErrMonthStateNotFound
	}
	r.data.states[k] = *s
	return nil
}

func (r *memStates) ListByMonth(monthStart time.Time) ([]*domain.CategoryMonthState, error) {
	var out []*domain.CategoryMonthState
	for k, s := range r.data.states {
		if k.monthStart.Equal(monthStart) {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

func (r *memStates) ListAfter(categoryID string, monthStart time.Time) ([]*domain.CategoryMonthState, error) {
	var out []*domain.CategoryMonthState
	for k, s := range r.data.states {
		if k.categoryID == categoryID && k.monthStart.After(monthStart) {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthStart.Before(out[j].MonthStart) })
	return out, nil
}

func (r *memStates) EnvelopeAvailableTotal(monthStart time.Time) (int64, error) {
	var total int64
	for id, c := range r.data.categories {
		if !c.IsEnvelope || c.IsSystem || !c.IsActive {
			continue
		}
		s, err := r.LatestOnOrBefore(id, monthStart)
		if err != nil {
			continue
		}
		total += s.AvailableMinor
	}
	return total, nil
}

func (r *memStates) Delete(categoryID string, monthStart time.Time) error {
	k := stateKey{categoryID, monthStart}
	if _, ok := r.data.states[k]; !ok {
		return domain.ErrMonthStateNotFound
	}
	delete(r.data.states, k)
	return nil
}

func (r *memStates) DeleteAll() error {
	r.data.states = make(map[stateKey]domain.CategoryMonthState)
	return nil
}

type memRecons memUnit

func (r *memRecons) Insert(rec *domain.Reconciliation) error {
	r.data.reconciliations = append(r.data.reconciliations, *rec)
	return nil
}

func (r *memRecons) Latest(accountID string) (*domain.Reconciliation, error) {
	var best *domain.Reconciliation
	for _, rec := range r.data.reconciliations {
		if rec.AccountID != accountID {
			continue
		}
		if best == nil || recordedBefore(best.CreatedAt, best.RecordedSeq, rec.CreatedAt, rec.RecordedSeq) {
			rec := rec
			best = &rec
		}
	}
	if best == nil {
		return nil, domain.ErrReconciliationNotFound
	}
	return best, nil
}

func (r *memRecons) ListByAccount(accountID string) ([]*domain.Reconciliation, error) {
	var out []*domain.Reconciliation
	for _, rec := range r.data.reconciliations {
		if rec.AccountID == accountID {
			rec := rec
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return recordedBefore(out[i].CreatedAt, out[i].RecordedSeq, out[j].CreatedAt, out[j].RecordedSeq)
	})
	return out, nil
}

type memMarket memUnit

func (r *memMarket) UpsertPrice(p *domain.MarketPrice) error {
	r.data.prices[priceKey{p.Symbol, p.PriceDate}] = *p
	return nil
}

func (r *memMarket) LatestClose(symbol string) (*domain.MarketPrice, error) {
	var best *domain.MarketPrice
	for k, p := range r.data.prices {
		if k.symbol != symbol {
			continue
		}
		if best == nil || best.PriceDate.Before(k.priceDate) {
			p := p
			best = &p
		}
	}
	if best == nil {
		return nil, domain.ErrPriceNotFound
	}
	return best, nil
}

func (r *memMarket) LatestCloseOnOrBefore(symbol string, date time.Time) (*domain.MarketPrice, error) {
	var best *domain.MarketPrice
	for k, p := range r.data.prices {
		if k.symbol != symbol || k.priceDate.After(date) {
			continue
		}
		if best == nil || best.PriceDate.Before(k.priceDate) {
			p := p
			best = &p
		}
	}
	if best == nil {
		return nil, domain.ErrPriceNotFound
	}
	return best, nil
}

func (r *memMarket) InsertHolding(h *domain.InvestmentHolding) error {
	r.data.holdings = append(r.data.holdings, *h)
	return nil
}

func (r *memMarket) CloseHolding(holdingID uuid.UUID, at time.Time) error {
	for i := range r.data.holdings {
		if r.data.holdings[i].HoldingID == holdingID {
			r.data.holdings[i].IsActive = false
			at := at
			r.data.holdings[i].ValidTo = &at
			return nil
		}
	}
	return domain.ErrVersionConflict
}

func (r *memMarket) ActiveHoldings(accountID string) ([]*domain.InvestmentHolding, error) {
	var out []*domain.InvestmentHolding
	for _, h := range r.data.holdings {
		if h.AccountID == accountID && h.IsActive {
			h := h
			out = append(out, &h)
		}
	}
	return out, nil
}

func (r *memMarket) HoldingsByAccount(accountID string) ([]*domain.InvestmentHolding, error) {
	var out []*domain.InvestmentHolding
	for _, h := range r.data.holdings {
		if h.AccountID == accountID {
			h := h
			out = append(out, &h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidFrom.Before(out[j].ValidFrom) })
	return out, nil
}
