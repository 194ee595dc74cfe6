package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/repository"
	"equipment-rental-backend/internal/utils"
)

// memStore is a transactional in-memory stand-in for postgres.Store.
// Transactions run one at a time against a copy that replaces the live data
// only on success, which gives the same all-or-nothing outcome as a rolled
// back database transaction.
type memStore struct {
	txMu sync.Mutex
	live *memData
	// failOn makes the named operation fail inside transactions.
	failOn string
}

type memData struct {
	mu         sync.Mutex
	failOn     string
	nextID     int32
	tenants    map[int32]domain.Tenant
	customers  map[int32]domain.Customer
	sites      map[int32]domain.CustomerSite
	equipment  map[int32]domain.Equipment
	bookings   map[int32]domain.Booking
	items      map[int32]domain.BookingItem
	movements  []domain.StockMovement
	costs      []domain.EquipmentCost
	activities []domain.ActivityEntry
}

var errInjected = &injectedError{}

type injectedError struct{}

func (e *injectedError) Error() string { return "injected failure" }

func newMemStore() *memStore {
	return &memStore{live: &memData{
		nextID:    1000,
		tenants:   map[int32]domain.Tenant{},
		customers: map[int32]domain.Customer{},
		sites:     map[int32]domain.CustomerSite{},
		equipment: map[int32]domain.Equipment{},
		bookings:  map[int32]domain.Booking{},
		items:     map[int32]domain.BookingItem{},
	}}
}

func (s *memStore) repos() repository.Repositories {
	return s.live.repositories()
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.live.clone()
	snapshot.failOn = s.failOn
	if err := fn(ctx, snapshot.repositories()); err != nil {
		return err
	}
	snapshot.failOn = ""
	s.live.replace(snapshot)
	return nil
}

func (d *memData) clone() *memData {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &memData{
		nextID:     d.nextID,
		tenants:    make(map[int32]domain.Tenant, len(d.tenants)),
		customers:  make(map[int32]domain.Customer, len(d.customers)),
		sites:      make(map[int32]domain.CustomerSite, len(d.sites)),
		equipment:  make(map[int32]domain.Equipment, len(d.equipment)),
		bookings:   make(map[int32]domain.Booking, len(d.bookings)),
		items:      make(map[int32]domain.BookingItem, len(d.items)),
		movements:  append([]domain.StockMovement(nil), d.movements...),
		costs:      append([]domain.EquipmentCost(nil), d.costs...),
		activities: append([]domain.ActivityEntry(nil), d.activities...),
	}
	for k, v := range d.tenants {
		c.tenants[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.sites {
		c.sites[k] = v
	}
	for k, v := range d.equipment {
		c.equipment[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v
	}
	for k, v := range d.items {
		c.items[k] = v
	}
	return c
}

func (d *memData) replace(src *memData) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID = src.nextID
	d.tenants, d.customers, d.sites = src.tenants, src.customers, src.sites
	d.equipment, d.bookings, d.items = src.equipment, src.bookings, src.items
	d.movements, d.costs, d.activities = src.movements, src.costs, src.activities
}

func (d *memData) repositories() repository.Repositories {
	return repository.Repositories{
		Tenants:    memTenants{d},
		Customers:  memCustomers{d},
		Equipment:  memEquipment{d},
		Bookings:   memBookings{d},
		Movements:  memMovements{d},
		Costs:      memCosts{d},
		Activities: memActivities{d},
	}
}

func (d *memData) id() int32 {
	d.nextID++
	return d.nextID
}

// seed helpers, used outside transactions.

func (s *memStore) addTenant(t domain.Tenant) {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	s.live.tenants[t.ID] = t
}

func (s *memStore) addCustomer(c domain.Customer) {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	s.live.customers[c.ID] = c
}

func (s *memStore) addEquipment(e domain.Equipment) {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	s.live.equipment[e.ID] = e
}

func (s *memStore) equipmentByID(id int32) domain.Equipment {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	return s.live.equipment[id]
}

func (s *memStore) movementsOf(equipmentID int32) []domain.StockMovement {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	var out []domain.StockMovement
	for _, m := range s.live.movements {
		if m.EquipmentID == equipmentID {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) allCosts() []domain.EquipmentCost {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	return append([]domain.EquipmentCost(nil), s.live.costs...)
}

type memTenants struct{ d *memData }

func (r memTenants) GetByID(ctx context.Context, id int32) (*domain.Tenant, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.tenants[id]
	if !ok {
		return nil, domain.NewNotFound("tenant", id)
	}
	return &t, nil
}

func (r memTenants) NextBookingSeq(ctx context.Context, tenantID int32) (int32, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.tenants[tenantID]
	if !ok {
		return 0, domain.NewNotFound("tenant", tenantID)
	}
	t.BookingSeq++
	r.d.tenants[tenantID] = t
	return t.BookingSeq, nil
}

type memCustomers struct{ d *memData }

func (r memCustomers) GetByID(ctx context.Context, tenantID, id int32) (*domain.Customer, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.customers[id]
	if !ok || c.TenantID != tenantID {
		return nil, domain.NewNotFound("customer", id)
	}
	return &c, nil
}

func (r memCustomers) GetSite(ctx context.Context, tenantID, customerID, siteID int32) (*domain.CustomerSite, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	s, ok := r.d.sites[siteID]
	if !ok || s.TenantID != tenantID || s.CustomerID != customerID {
		return nil, domain.NewNotFound("customer site", siteID)
	}
	return &s, nil
}

type memEquipment struct{ d *memData }

func (r memEquipment) GetByID(ctx context.Context, tenantID, id int32) (*domain.Equipment, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	e, ok := r.d.equipment[id]
	if !ok || e.TenantID != tenantID {
		return nil, domain.NewNotFound("equipment", id)
	}
	return &e, nil
}

func (r memEquipment) GetForUpdate(ctx context.Context, tenantID, id int32) (*domain.Equipment, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r memEquipment) ApplyStockDelta(ctx context.Context, tenantID, id int32, d domain.StockDelta) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.d.failOn == "ApplyStockDelta" {
		return errInjected
	}
	e, ok := r.d.equipment[id]
	if !ok || e.TenantID != tenantID {
		return domain.NewNotFound("equipment", id)
	}
	next, err := e.Stock.Apply(d)
	if err != nil {
		// mirrors the table CHECK constraints
		return err
	}
	e.Stock = next
	e.UpdatedOn = time.Now()
	r.d.equipment[id] = e
	return nil
}

func (r memEquipment) ListLowStock(ctx context.Context) ([]domain.Equipment, error) {
	return r.filter(func(e domain.Equipment) bool { return e.IsLowStock() }), nil
}

func (r memEquipment) ListUnbalanced(ctx context.Context) ([]domain.Equipment, error) {
	return r.filter(func(e domain.Equipment) bool { return !e.Stock.Balanced() }), nil
}

func (r memEquipment) filter(keep func(domain.Equipment) bool) []domain.Equipment {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []domain.Equipment
	for _, e := range r.d.equipment {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memBookings struct{ d *memData }

func (r memBookings) Create(ctx context.Context, b *domain.Booking) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	b.ID = r.d.id()
	b.CreatedOn, b.UpdatedOn = time.Now(), time.Now()
	stored := *b
	stored.Items, stored.Customer = nil, nil
	r.d.bookings[b.ID] = stored
	return nil
}

func (r memBookings) CreateItem(ctx context.Context, it *domain.BookingItem) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.d.failOn == "CreateItem" {
		return errInjected
	}
	it.ID = r.d.id()
	stored := *it
	stored.Equipment = nil
	r.d.items[it.ID] = stored
	return nil
}

func (r memBookings) GetByID(ctx context.Context, tenantID, id int32) (*domain.Booking, error) {
	r.d.mu.Lock()
	b, ok := r.d.bookings[id]
	r.d.mu.Unlock()
	if !ok || b.TenantID != tenantID {
		return nil, domain.NewNotFound("booking", id)
	}
	items, _ := r.ListItems(ctx, []int32{id})
	b.Items = items
	return &b, nil
}

func (r memBookings) GetForUpdate(ctx context.Context, tenantID, id int32) (*domain.Booking, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r memBookings) List(ctx context.Context, tenantID int32, status string) ([]domain.Booking, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := []domain.Booking{}
	for _, b := range r.d.bookings {
		if b.TenantID == tenantID && (status == "" || string(b.Status) == status) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memBookings) ListItems(ctx context.Context, bookingIDs []int32) ([]domain.BookingItem, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	want := map[int32]bool{}
	for _, id := range bookingIDs {
		want[id] = true
	}
	out := []domain.BookingItem{}
	for _, it := range r.d.items {
		if want[it.BookingID] {
			eq := r.d.equipment[it.EquipmentID]
			it.Equipment = &domain.Equipment{ID: eq.ID, Name: eq.Name, Category: eq.Category, PricePerDay: eq.PricePerDay}
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memBookings) Update(ctx context.Context, b *domain.Booking) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.bookings[b.ID]; !ok {
		return domain.NewNotFound("booking", b.ID)
	}
	stored := *b
	stored.Items, stored.Customer = nil, nil
	stored.UpdatedOn = time.Now()
	r.d.bookings[b.ID] = stored
	return nil
}

func (r memBookings) UpdateItemReturn(ctx context.Context, it *domain.BookingItem) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.items[it.ID]
	if !ok || stored.BookingID != it.BookingID {
		return domain.NewNotFound("booking item", it.ID)
	}
	stored.ReturnedQty, stored.DamagedQty, stored.Notes = it.ReturnedQty, it.DamagedQty, it.Notes
	r.d.items[it.ID] = stored
	return nil
}

func (r memBookings) ListActiveReservations(ctx context.Context, tenantID, equipmentID int32, start, end time.Time, excludeBookingID *int32) ([]domain.Reservation, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []domain.Reservation
	active := func(b domain.Booking) bool {
		if b.TenantID != tenantID || !b.Status.HoldsStock() {
			return false
		}
		if excludeBookingID != nil && b.ID == *excludeBookingID {
			return false
		}
		return utils.IntervalsOverlap(start, end, b.StartDate, b.EndDate)
	}
	withItems := map[int32]bool{}
	for _, it := range r.d.items {
		withItems[it.BookingID] = true
		b := r.d.bookings[it.BookingID]
		if it.EquipmentID == equipmentID && active(b) && it.PendingQty() > 0 {
			out = append(out, domain.Reservation{BookingID: b.ID, EquipmentID: equipmentID, Quantity: it.PendingQty(),
				StartDate: b.StartDate, EndDate: b.EndDate, Status: b.Status})
		}
	}
	for _, b := range r.d.bookings {
		if b.EquipmentID != nil && *b.EquipmentID == equipmentID && !withItems[b.ID] && active(b) {
			out = append(out, domain.Reservation{BookingID: b.ID, EquipmentID: equipmentID, Quantity: 1,
				StartDate: b.StartDate, EndDate: b.EndDate, Status: b.Status})
		}
	}
	return out, nil
}

func (r memBookings) CountCreatedSince(ctx context.Context, tenantID int32, since time.Time) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	n := 0
	for _, b := range r.d.bookings {
		if b.TenantID == tenantID && !b.CreatedOn.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r memBookings) ListOverdue(ctx context.Context, today time.Time) ([]domain.Booking, error) {
	r.d.mu.Lock()
	var out []domain.Booking
	for _, b := range r.d.bookings {
		if b.Status.HoldsStock() && b.EndDate.Before(today) {
			out = append(out, b)
		}
	}
	r.d.mu.Unlock()
	for i := range out {
		out[i].Items, _ = r.ListItems(ctx, []int32{out[i].ID})
	}
	return out, nil
}

type memMovements struct{ d *memData }

func (r memMovements) Create(ctx context.Context, m *domain.StockMovement) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.d.failOn == "MovementCreate" {
		return errInjected
	}
	m.ID = r.d.id()
	m.CreatedOn = time.Now()
	r.d.movements = append(r.d.movements, *m)
	return nil
}

func (r memMovements) ListByEquipment(ctx context.Context, tenantID, equipmentID int32, limit int) ([]domain.StockMovement, error) {
	return r.list(limit, func(m domain.StockMovement) bool { return m.TenantID == tenantID && m.EquipmentID == equipmentID }), nil
}

func (r memMovements) ListByBooking(ctx context.Context, tenantID, bookingID int32, limit int) ([]domain.StockMovement, error) {
	return r.list(limit, func(m domain.StockMovement) bool {
		return m.TenantID == tenantID && m.BookingID != nil && *m.BookingID == bookingID
	}), nil
}

func (r memMovements) list(limit int, keep func(domain.StockMovement) bool) []domain.StockMovement {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := []domain.StockMovement{}
	for i := len(r.d.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(r.d.movements[i]) {
			out = append(out, r.d.movements[i])
		}
	}
	return out
}

type memCosts struct{ d *memData }

func (r memCosts) Create(ctx context.Context, c *domain.EquipmentCost) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c.ID = r.d.id()
	r.d.costs = append(r.d.costs, *c)
	return nil
}

type memActivities struct{ d *memData }

func (r memActivities) Create(ctx context.Context, e *domain.ActivityEntry) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	e.ID = r.d.id()
	r.d.activities = append(r.d.activities, *e)
	return nil
}
