package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-reservation/internal/metrics"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

const defaultNotesMaxLen = 500

// Service is the reservation state machine.  Every transition runs in a
// single store transaction together with its audit entry; notifications
// are dispatched only after the commit.
type Service struct {
	store             Store
	cal               *Calendar
	dispatch          *Dispatcher
	log               *logrus.Entry
	now               func() time.Time
	notesMaxLen       int
	requireAssignment bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger sets the base log entry.
func WithLogger(l *logrus.Entry) Option { return func(s *Service) { s.log = l } }

// WithNotesMaxLen bounds the notes field, in characters.
func WithNotesMaxLen(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.notesMaxLen = n
		}
	}
}

// WithRequireAssignment makes Approve and Modify-to-approved demand both
// a driver and a vehicle.
func WithRequireAssignment(v bool) Option { return func(s *Service) { s.requireAssignment = v } }

// NewService wires the state machine.  cal may be nil (UTC, no holidays)
// and d may be nil (no notifications).
func NewService(store Store, cal *Calendar, d *Dispatcher, opts ...Option) *Service {
	if store == nil {
		panic("nil store passed to NewService")
	}
	if cal == nil {
		cal = NewCalendar(time.UTC)
	}
	s := &Service{
		store:       store,
		cal:         cal,
		dispatch:    d,
		log:         logrus.NewEntry(logrus.StandardLogger()),
		now:         time.Now,
		notesMaxLen: defaultNotesMaxLen,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.WithField("component", "booking")
	return s
}

// Calendar exposes the working-day calendar.
func (s *Service) Calendar() *Calendar { return s.cal }

// CreateInput carries the trip fields of a new booking.
type CreateInput struct {
	DepartureAt time.Time
	ReturnAt    time.Time
	Destination string
	Purpose     string
	Notes       *string
	Passengers  *string
}

// Create submits a pending booking for actor and stamps its code.
func (s *Service) Create(ctx context.Context, actor model.Actor, in CreateInput) (*model.Booking, error) {
	if actor.ID == 0 {
		return nil, invalid("requester", "is required")
	}
	in.Destination = strings.TrimSpace(in.Destination)
	in.Purpose = strings.TrimSpace(in.Purpose)
	if in.Destination == "" {
		return nil, invalid("destination", "is required")
	}
	if in.Purpose == "" {
		return nil, invalid("purpose", "is required")
	}
	if !in.ReturnAt.After(in.DepartureAt) {
		return nil, invalid("return_at", "must be after departure")
	}
	now := s.now().UTC()
	if !in.DepartureAt.After(now) {
		return nil, invalid("departure_at", "must be in the future")
	}
	in.Notes = trimOptional(in.Notes)
	in.Passengers = trimOptional(in.Passengers)
	if in.Notes != nil && utf8.RuneCountInString(*in.Notes) > s.notesMaxLen {
		return nil, invalid("notes", "must be at most %d characters", s.notesMaxLen)
	}

	requester, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	b := &model.Booking{
		RequesterID:   actor.ID,
		RequesterUnit: requester.Unit,
		DepartureAt:   in.DepartureAt.UTC(),
		ReturnAt:      in.ReturnAt.UTC(),
		Destination:   in.Destination,
		Purpose:       in.Purpose,
		Notes:         in.Notes,
		Passengers:    in.Passengers,
		Status:        model.StatusPending,
		SubmittedAt:   now,
	}
	prefix := CodePrefix(now.In(s.cal.Location()).Year())
	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockCodeSequence(ctx, prefix); err != nil {
			return err
		}
		maxCode, err := tx.MaxBookingCode(ctx, prefix)
		if err != nil {
			return err
		}
		if b.Code, err = NextBookingCode(now.In(s.cal.Location()).Year(), maxCode); err != nil {
			return err
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, model.AuditCreated, nil, b)
	})
	if err != nil {
		return nil, err
	}
	s.committed(model.AuditCreated, actor, b)
	s.notify(KindCreated, b, 0)
	return b, nil
}

// ApproveInput is the resource assignment given on approval.
type ApproveInput struct {
	DriverID          *uint64
	VehicleID         *uint64
	DriverInstruction bool
}

// Approve moves a pending booking to approved after re-running the
// overlap check for the assignment.  On conflict nothing is written and
// a *ConflictError lists every blocking booking.
func (s *Service) Approve(ctx context.Context, actor model.Actor, id uint64, in ApproveInput) (*model.Booking, error) {
	if !actor.CanProcess() {
		return nil, &AuthorizationError{ActorID: actor.ID, Action: "approve bookings"}
	}
	if err := s.checkAssignmentInput(in.DriverID, in.VehicleID); err != nil {
		return nil, err
	}
	var out *model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != model.StatusPending {
			return invalid("status", "cannot approve a %s booking", b.Status)
		}
		if err := s.checkAssignment(ctx, tx, b, in.DriverID, in.VehicleID); err != nil {
			return err
		}
		before := b.Clone()
		now := s.now().UTC()
		b.Status = model.StatusApproved
		b.DriverID = in.DriverID
		b.VehicleID = in.VehicleID
		b.DriverInstruction = in.DriverInstruction
		b.RejectionReason = nil
		b.ProcessedAt = &now
		b.ProcessedBy = &actor.ID
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		out = b
		return s.audit(ctx, tx, actor, model.AuditApproved, before, b)
	})
	if err != nil {
		s.rejected(err, "approve", actor, id)
		return nil, err
	}
	s.committed(model.AuditApproved, actor, out)
	s.notify(KindApproved, out, actor.ID)
	return out, nil
}

// Reject moves a pending booking to rejected with a reason.
func (s *Service) Reject(ctx context.Context, actor model.Actor, id uint64, reason string) (*model.Booking, error) {
	if !actor.CanProcess() {
		return nil, &AuthorizationError{ActorID: actor.ID, Action: "reject bookings"}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "is required")
	}
	var out *model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != model.StatusPending {
			return invalid("status", "cannot reject a %s booking", b.Status)
		}
		before := b.Clone()
		now := s.now().UTC()
		b.Status = model.StatusRejected
		b.RejectionReason = &reason
		b.DriverID, b.VehicleID, b.DriverInstruction = nil, nil, false
		b.ProcessedAt = &now
		b.ProcessedBy = &actor.ID
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		out = b
		return s.audit(ctx, tx, actor, model.AuditRejected, before, b)
	})
	if err != nil {
		s.rejected(err, "reject", actor, id)
		return nil, err
	}
	s.committed(model.AuditRejected, actor, out)
	s.notify(KindRejected, out, actor.ID)
	return out, nil
}

// ModifyInput overwrites the outcome of a processed booking.
type ModifyInput struct {
	Status            model.Status
	DriverID          *uint64
	VehicleID         *uint64
	DriverInstruction bool
	Reason            *string
}

// Modify re-opens an approved or rejected booking.  Only the privileged
// tier may call it and it is audited as "modified", never as
// "approved", even when the target status is approved.
func (s *Service) Modify(ctx context.Context, actor model.Actor, id uint64, in ModifyInput) (*model.Booking, error) {
	if !actor.Privileged() {
		return nil, &AuthorizationError{ActorID: actor.ID, Action: "modify processed bookings"}
	}
	switch in.Status {
	case model.StatusApproved:
		if err := s.checkAssignmentInput(in.DriverID, in.VehicleID); err != nil {
			return nil, err
		}
	case model.StatusRejected:
	default:
		return nil, invalid("status", "must be approved or rejected")
	}
	in.Reason = trimOptional(in.Reason)

	var out *model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != model.StatusApproved && b.Status != model.StatusRejected {
			return invalid("status", "only processed bookings can be modified, booking is %s", b.Status)
		}
		before := b.Clone()
		if in.Status == model.StatusApproved {
			if err := s.checkAssignment(ctx, tx, b, in.DriverID, in.VehicleID); err != nil {
				return err
			}
			b.DriverID = in.DriverID
			b.VehicleID = in.VehicleID
			b.DriverInstruction = in.DriverInstruction
			b.RejectionReason = nil
		} else {
			reason := in.Reason
			if reason == nil {
				reason = b.RejectionReason
			}
			if reason == nil {
				return invalid("reason", "is required when rejecting")
			}
			b.RejectionReason = reason
			b.DriverID, b.VehicleID, b.DriverInstruction = nil, nil, false
		}
		now := s.now().UTC()
		b.Status = in.Status
		b.ModifiedAt = &now
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		out = b
		return s.audit(ctx, tx, actor, model.AuditModified, before, b)
	})
	if err != nil {
		s.rejected(err, "modify", actor, id)
		return nil, err
	}
	s.committed(model.AuditModified, actor, out)
	s.notify(KindModified, out, actor.ID)
	return out, nil
}

// Cancel lets the original requester withdraw a pending or approved
// booking before departure.  No notification is sent.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uint64) (*model.Booking, error) {
	var out *model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if b.RequesterID != actor.ID {
			return &AuthorizationError{ActorID: actor.ID, Action: "cancel another requester's booking"}
		}
		if b.Status != model.StatusPending && b.Status != model.StatusApproved {
			return invalid("status", "cannot cancel a %s booking", b.Status)
		}
		now := s.now().UTC()
		if !b.DepartureAt.After(now) {
			return invalid("departure_at", "booking has already departed")
		}
		before := b.Clone()
		b.Status = model.StatusCancelled
		b.DriverID, b.VehicleID, b.DriverInstruction = nil, nil, false
		b.ProcessedAt = &now
		b.ProcessedBy = &actor.ID
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		out = b
		return s.audit(ctx, tx, actor, model.AuditCancelled, before, b)
	})
	if err != nil {
		s.rejected(err, "cancel", actor, id)
		return nil, err
	}
	s.committed(model.AuditCancelled, actor, out)
	return out, nil
}

// CheckConflicts lists the approved bookings that would block c.
// excludeID (0 for none) is left out of consideration.
func (s *Service) CheckConflicts(ctx context.Context, c Candidate, excludeID uint64) ([]model.Booking, error) {
	if !c.End.After(c.Start) {
		return nil, invalid("end", "must be after start")
	}
	if c.Unconstrained() {
		return []model.Booking{}, nil
	}
	pool, err := s.store.ApprovedOverlapping(ctx, c, excludeID)
	if err != nil {
		return nil, err
	}
	out := FindConflicts(c, pool, excludeID)
	if out == nil {
		out = []model.Booking{}
	}
	return out, nil
}

// Get returns a booking by id.
func (s *Service) Get(ctx context.Context, id uint64) (*model.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

// GetByCode returns a booking by its booking code.
func (s *Service) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	return s.store.GetBookingByCode(ctx, strings.TrimSpace(code))
}

// Search lists bookings matching f and the total match count.
func (s *Service) Search(ctx context.Context, f Filter) ([]model.Booking, int64, error) {
	f = f.Normalized()
	if f.From != nil && f.To != nil && !f.To.After(*f.From) {
		return nil, 0, invalid("to", "must be after from")
	}
	return s.store.SearchBookings(ctx, f)
}

// AuditTrail returns the audit entries of a booking in transition order.
func (s *Service) AuditTrail(ctx context.Context, id uint64) ([]model.AuditEntry, error) {
	if _, err := s.store.GetBooking(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, id)
}

// ProcessingDays is the number of working days between submission and
// processing, or -1 while the booking is unprocessed.
func (s *Service) ProcessingDays(b *model.Booking) int {
	if b == nil || b.ProcessedAt == nil {
		return -1
	}
	return s.cal.WorkingDays(b.SubmittedAt, *b.ProcessedAt)
}

func (s *Service) checkAssignmentInput(driverID, vehicleID *uint64) error {
	if s.requireAssignment {
		if driverID == nil {
			return invalid("driver_id", "is required for approval")
		}
		if vehicleID == nil {
			return invalid("vehicle_id", "is required for approval")
		}
	}
	return nil
}

// checkAssignment locks the requested driver then vehicle, checks they
// are active and then looks for approved overlapping bookings.  Locking
// before the overlap query makes a concurrent approval of the same
// resource wait for this transaction and then see its result.
func (s *Service) checkAssignment(ctx context.Context, tx Tx, b *model.Booking, driverID, vehicleID *uint64) error {
	if driverID != nil {
		d, err := tx.LockDriver(ctx, *driverID)
		if err != nil {
			return err
		}
		if !d.IsActive {
			return invalid("driver_id", "driver %d is inactive", d.ID)
		}
	}
	if vehicleID != nil {
		v, err := tx.LockVehicle(ctx, *vehicleID)
		if err != nil {
			return err
		}
		if !v.IsActive {
			return invalid("vehicle_id", "vehicle %d is inactive", v.ID)
		}
	}
	c := Candidate{Start: b.DepartureAt, End: b.ReturnAt, DriverID: driverID, VehicleID: vehicleID}
	if c.Unconstrained() {
		return nil
	}
	pool, err := tx.ApprovedOverlapping(ctx, c, b.ID)
	if err != nil {
		return err
	}
	if conflicts := FindConflicts(c, pool, b.ID); len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

func (s *Service) audit(ctx context.Context, tx Tx, actor model.Actor, action model.AuditAction, before, after *model.Booking) error {
	e := &model.AuditEntry{
		BookingID: after.ID,
		ActorID:   actor.ID,
		Action:    action,
		CreatedAt: s.now().UTC(),
	}
	if before != nil {
		raw, err := json.Marshal(before)
		if err != nil {
			return fmt.Errorf("snapshot before: %w", err)
		}
		e.Before = raw
	}
	raw, err := json.Marshal(after)
	if err != nil {
		return fmt.Errorf("snapshot after: %w", err)
	}
	e.After = raw
	return tx.AppendAudit(ctx, e)
}

func (s *Service) committed(action model.AuditAction, actor model.Actor, b *model.Booking) {
	metrics.RecordTransition(string(action))
	s.log.WithFields(logrus.Fields{
		"action":       action,
		"booking_id":   b.ID,
		"booking_code": b.Code,
		"actor_id":     actor.ID,
		"status":       b.Status,
	}).Info("booking transition committed")
}

func (s *Service) rejected(err error, op string, actor model.Actor, id uint64) {
	entry := s.log.WithFields(logrus.Fields{"op": op, "booking_id": id, "actor_id": actor.ID})
	var ce *ConflictError
	if errors.As(err, &ce) {
		metrics.RecordConflict()
		entry.WithField("conflicts", len(ce.Conflicts)).Info("transition refused: resource conflict")
		return
	}
	entry.WithError(err).Debug("transition refused")
}

// notify snapshots b and hands the lookup work to the dispatcher so the
// caller never waits on the notifier.
func (s *Service) notify(kind Kind, b *model.Booking, processorID uint64) {
	if s.dispatch == nil {
		return
	}
	snap := b.Clone()
	s.dispatch.Dispatch(kind, snap.Code, func(ctx context.Context) (Notification, error) {
		return s.buildNotification(ctx, kind, snap, processorID)
	})
}

func (s *Service) buildNotification(ctx context.Context, kind Kind, b *model.Booking, processorID uint64) (Notification, error) {
	n := Notification{
		Kind:              kind,
		BookingCode:       b.Code,
		Status:            string(b.Status),
		ApplicantUnit:     b.RequesterUnit,
		DepartureAt:       b.DepartureAt,
		ReturnAt:          b.ReturnAt,
		Destination:       b.Destination,
		Purpose:           b.Purpose,
		DriverInstruction: b.DriverInstruction,
	}
	if b.Passengers != nil {
		n.Passengers = *b.Passengers
	}
	if b.Notes != nil {
		n.Notes = *b.Notes
	}
	if b.RejectionReason != nil {
		n.Reason = *b.RejectionReason
	}
	applicant, err := s.store.GetUser(ctx, b.RequesterID)
	if err != nil {
		return n, fmt.Errorf("load applicant: %w", err)
	}
	n.ApplicantName = applicant.Name
	n.ApplicantEmail = applicant.Email
	if b.DriverID != nil {
		d, err := s.store.GetDriver(ctx, *b.DriverID)
		if err != nil {
			return n, fmt.Errorf("load driver: %w", err)
		}
		n.Driver = d.Name
	}
	if b.VehicleID != nil {
		v, err := s.store.GetVehicle(ctx, *b.VehicleID)
		if err != nil {
			return n, fmt.Errorf("load vehicle: %w", err)
		}
		n.Vehicle = v.DisplayName()
	}
	if processorID != 0 {
		p, err := s.store.GetUser(ctx, processorID)
		if err != nil {
			return n, fmt.Errorf("load processor: %w", err)
		}
		n.ProcessorName = p.Name
	}
	return n, nil
}

func trimOptional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
