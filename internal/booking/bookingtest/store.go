// Package bookingtest provides in-memory collaborators for exercising the
// booking service without MySQL or RabbitMQ.
package bookingtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// Store is an in-memory booking.Store.  Transactions are fully
// serialized and hold the store lock for their whole duration, so reads
// never observe uncommitted writes.  A failed transaction restores the
// state captured when it began.
type Store struct {
	mu sync.Mutex

	nextID      uint64
	nextAuditID uint64
	bookings    map[uint64]*model.Booking
	audits      []model.AuditEntry
	users       map[uint64]*model.User
	drivers     map[uint64]*model.Driver
	vehicles    map[uint64]*model.Vehicle

	// AuditErr, when set, is returned by AppendAudit.
	AuditErr error
}

var _ booking.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		bookings: map[uint64]*model.Booking{},
		users:    map[uint64]*model.User{},
		drivers:  map[uint64]*model.Driver{},
		vehicles: map[uint64]*model.Vehicle{},
	}
}

// AddUser registers a user.
func (s *Store) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

// AddDriver registers a driver.
func (s *Store) AddDriver(d model.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[d.ID] = &d
}

// AddVehicle registers a vehicle.
func (s *Store) AddVehicle(v model.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = &v
}

// Put stores b as-is, assigning an ID when it has none.
func (s *Store) Put(b model.Booking) *model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.nextID++
		b.ID = s.nextID
	} else if b.ID > s.nextID {
		s.nextID = b.ID
	}
	s.bookings[b.ID] = b.Clone()
	return b.Clone()
}

// Audits returns the audit entries of a booking in insertion order.
func (s *Store) Audits(bookingID uint64) []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auditsFor(bookingID)
}

func (s *Store) auditsFor(bookingID uint64) []model.AuditEntry {
	out := []model.AuditEntry{}
	for _, e := range s.audits {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out
}

type snapshot struct {
	nextID, nextAuditID uint64
	bookings            map[uint64]*model.Booking
	audits              int
}

// InTx implements booking.Store.
func (s *Store) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{nextID: s.nextID, nextAuditID: s.nextAuditID, audits: len(s.audits), bookings: map[uint64]*model.Booking{}}
	for id, b := range s.bookings {
		snap.bookings[id] = b.Clone()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(&memTx{s: s}); err != nil {
		s.nextID, s.nextAuditID = snap.nextID, snap.nextAuditID
		s.bookings = snap.bookings
		s.audits = s.audits[:snap.audits]
		return err
	}
	return nil
}

func (s *Store) getBooking(id uint64) (*model.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, booking.NotFound("booking", id)
	}
	return b.Clone(), nil
}

func (s *Store) approvedOverlapping(c booking.Candidate, excludeID uint64) []model.Booking {
	all := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.sorted() {
		all = append(all, *b.Clone())
	}
	return booking.FindConflicts(c, all, excludeID)
}

// sorted returns bookings by ascending ID.
func (s *Store) sorted() []*model.Booking {
	out := make([]*model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getBooking(id)
}

func (s *Store) GetBookingByCode(ctx context.Context, code string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.Code == code {
			return b.Clone(), nil
		}
	}
	return nil, &booking.NotFoundError{Entity: "booking", Key: code}
}

func (s *Store) SearchBookings(ctx context.Context, f booking.Filter) ([]model.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f = f.Normalized()
	all := s.sorted()
	var matched []model.Booking
	for i := len(all) - 1; i >= 0; i-- {
		if f.Matches(*all[i]) {
			matched = append(matched, *all[i].Clone())
		}
	}
	total := int64(len(matched))
	start := f.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return append([]model.Booking{}, matched[start:end]...), total, nil
}

func (s *Store) ApprovedOverlapping(ctx context.Context, c booking.Candidate, excludeID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approvedOverlapping(c, excludeID), nil
}

func (s *Store) ListAudit(ctx context.Context, bookingID uint64) ([]model.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auditsFor(bookingID), nil
}

func (s *Store) CountByStatus(ctx context.Context) (map[model.Status]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[model.Status]int64{}
	for _, b := range s.bookings {
		out[b.Status]++
	}
	return out, nil
}

func (s *Store) CountVehicles(ctx context.Context) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active int64
	for _, v := range s.vehicles {
		if v.IsActive {
			active++
		}
	}
	return active, int64(len(s.vehicles)), nil
}

func (s *Store) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, booking.NotFound("user", id)
	}
	c := *u
	return &c, nil
}

func (s *Store) GetDriver(ctx context.Context, id uint64) (*model.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver(id)
}

func (s *Store) driver(id uint64) (*model.Driver, error) {
	d, ok := s.drivers[id]
	if !ok {
		return nil, booking.NotFound("driver", id)
	}
	c := *d
	return &c, nil
}

func (s *Store) GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vehicle(id)
}

func (s *Store) vehicle(id uint64) (*model.Vehicle, error) {
	v, ok := s.vehicles[id]
	if !ok {
		return nil, booking.NotFound("vehicle", id)
	}
	c := *v
	return &c, nil
}

// memTx runs with Store.mu already held by InTx.
type memTx struct{ s *Store }

func (t *memTx) LockCodeSequence(ctx context.Context, prefix string) error { return nil }

func (t *memTx) MaxBookingCode(ctx context.Context, prefix string) (string, error) {
	top := ""
	for _, b := range t.s.bookings {
		if len(b.Code) == 5 && b.Code[:2] == prefix && b.Code > top {
			top = b.Code
		}
	}
	return top, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	for _, other := range t.s.bookings {
		if other.Code == b.Code {
			return &booking.ValidationError{Field: "booking_code", Reason: "duplicate " + b.Code}
		}
	}
	t.s.nextID++
	b.ID = t.s.nextID
	t.s.bookings[b.ID] = b.Clone()
	return nil
}

func (t *memTx) LockBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return t.s.getBooking(id)
}

func (t *memTx) LockDriver(ctx context.Context, id uint64) (*model.Driver, error) {
	return t.s.driver(id)
}

func (t *memTx) LockVehicle(ctx context.Context, id uint64) (*model.Vehicle, error) {
	return t.s.vehicle(id)
}

func (t *memTx) ApprovedOverlapping(ctx context.Context, c booking.Candidate, excludeID uint64) ([]model.Booking, error) {
	return t.s.approvedOverlapping(c, excludeID), nil
}

func (t *memTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	if _, ok := t.s.bookings[b.ID]; !ok {
		return booking.NotFound("booking", b.ID)
	}
	t.s.bookings[b.ID] = b.Clone()
	return nil
}

func (t *memTx) AppendAudit(ctx context.Context, e *model.AuditEntry) error {
	if t.s.AuditErr != nil {
		return t.s.AuditErr
	}
	t.s.nextAuditID++
	e.ID = t.s.nextAuditID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	t.s.audits = append(t.s.audits, *e)
	return nil
}
