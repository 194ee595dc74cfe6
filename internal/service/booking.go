package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/metrics"
	"equipment-rental-backend/internal/repository"
	"equipment-rental-backend/internal/utils"
)

const defaultRecentMovements = 20

type bookingService struct {
	repos           repository.Repositories
	tx              repository.TxManager
	ledger          *StockLedger
	availability    *AvailabilityChecker
	pricing         PricingCalculator
	plans           PlanLimitChecker
	activity        ActivityLogger
	recentMovements int
}

func NewBookingService(
	repos repository.Repositories,
	tx repository.TxManager,
	ledger *StockLedger,
	availability *AvailabilityChecker,
	pricing PricingCalculator,
	plans PlanLimitChecker,
	activity ActivityLogger,
	recentMovements int,
) BookingService {
	if recentMovements <= 0 {
		recentMovements = defaultRecentMovements
	}
	return &bookingService{
		repos:           repos,
		tx:              tx,
		ledger:          ledger,
		availability:    availability,
		pricing:         pricing,
		plans:           plans,
		activity:        activity,
		recentMovements: recentMovements,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, actor domain.Actor, in *domain.CreateBookingInput) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "tenantID", actor.TenantID, "customerID", in.CustomerID)

	lines, days, err := validateCreate(in)
	if err != nil {
		return nil, s.fail("bookingService.CreateBooking", err)
	}

	limit, err := s.plans.CheckBookingLimit(ctx, actor.TenantID)
	if err != nil {
		return nil, s.fail("bookingService.CreateBooking", err)
	}
	if !limit.Allowed {
		return nil, s.fail("bookingService.CreateBooking", domain.NewPlanLimitExceeded(limit))
	}

	status := domain.BookingStatusPending
	if in.Status != nil {
		status = *in.Status
	}

	fx := newEffects(actor)
	var booking *domain.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		customer, err := repos.Customers.GetByID(ctx, actor.TenantID, in.CustomerID)
		if err != nil {
			return err
		}
		if in.CustomerSiteID != nil {
			if _, err := repos.Customers.GetSite(ctx, actor.TenantID, in.CustomerID, *in.CustomerSiteID); err != nil {
				return err
			}
		}

		demand := map[int32]int{}
		ids := make([]int32, 0, len(lines))
		for _, l := range lines {
			demand[l.EquipmentID] += l.Quantity
			ids = append(ids, l.EquipmentID)
		}
		locked, err := lockEquipment(ctx, repos, actor.TenantID, ids)
		if err != nil {
			return err
		}
		for _, id := range uniqueSorted(ids) {
			eq := locked[id]
			if !s.availability.CheckLive(eq, demand[id]) {
				return domain.NewStockConflict(eq.ID, eq.Name, demand[id], eq.Stock.Available)
			}
			av, err := s.availability.CheckPeriod(ctx, repos, eq, in.StartDate, in.EndDate, demand[id], nil)
			if err != nil {
				return err
			}
			if !av.Available {
				return domain.NewStockConflict(eq.ID, eq.Name, demand[id], av.AvailableInPeriod)
			}
		}

		items := make([]domain.BookingItem, 0, len(lines))
		total := decimal.Zero
		for _, l := range lines {
			item := domain.BookingItem{EquipmentID: l.EquipmentID, Quantity: l.Quantity, Notes: l.Notes}
			if l.UnitPrice != nil {
				item.UnitPrice = *l.UnitPrice
				item.TotalPrice = utils.LineTotal(*l.UnitPrice, l.Quantity, days)
			} else {
				quote, err := s.pricing.CalculateRentalPrice(ctx, locked[l.EquipmentID], days, l.Quantity)
				if err != nil {
					return fmt.Errorf("failed to price equipment %d: %w", l.EquipmentID, err)
				}
				item.UnitPrice = quote.PricePerDay
				item.TotalPrice = quote.TotalPrice
			}
			total = total.Add(item.TotalPrice)
			items = append(items, item)
		}
		if in.TotalPrice != nil {
			total = *in.TotalPrice
		}

		seq, err := repos.Tenants.NextBookingSeq(ctx, actor.TenantID)
		if err != nil {
			return fmt.Errorf("failed to allocate booking number: %w", err)
		}
		booking = &domain.Booking{
			BookingNumber:  domain.FormatBookingNumber(seq),
			TenantID:       actor.TenantID,
			CustomerID:     in.CustomerID,
			CustomerSiteID: in.CustomerSiteID,
			StartDate:      in.StartDate,
			EndDate:        in.EndDate,
			StartTime:      in.StartTime,
			EndTime:        in.EndTime,
			TotalPrice:     total,
			Status:         status,
			Notes:          in.Notes,
			CreatedBy:      actor.UserID,
			Customer:       customer,
		}
		if in.IsLegacy() {
			booking.EquipmentID = in.EquipmentID
		}
		if err := repos.Bookings.Create(ctx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		for i := range items {
			items[i].BookingID = booking.ID
			if err := repos.Bookings.CreateItem(ctx, &items[i]); err != nil {
				return fmt.Errorf("failed to create booking item: %w", err)
			}
			eq, err := s.ledger.Reserve(ctx, repos, fx, LedgerOp{
				Actor:       actor,
				EquipmentID: items[i].EquipmentID,
				BookingID:   &booking.ID,
				Quantity:    items[i].Quantity,
				Reason:      fmt.Sprintf("Reserved for booking %s", booking.BookingNumber),
			})
			if err != nil {
				return err
			}
			items[i].Equipment = eq
		}
		booking.Items = items

		fx.record(domain.ActivityCreate, "booking", booking.ID,
			fmt.Sprintf("Created booking %s", booking.BookingNumber),
			map[string]any{
				"bookingNumber": booking.BookingNumber,
				"items":         len(items),
				"totalPrice":    booking.TotalPrice.StringFixed(2),
				"status":        booking.Status,
			})
		return nil
	})
	if err != nil {
		return nil, s.fail("bookingService.CreateBooking", err)
	}

	fx.flush(ctx, s.activity)
	metrics.BookingsCreated.WithLabelValues(string(booking.Status)).Inc()
	logger.ExitMethod("bookingService.CreateBooking", "bookingID", booking.ID, "bookingNumber", booking.BookingNumber)
	return booking, nil
}

func validateCreate(in *domain.CreateBookingInput) ([]domain.BookingLineInput, int, error) {
	fields := map[string]string{}
	if in.CustomerID <= 0 {
		fields["customerId"] = "is required"
	}
	if in.StartDate.IsZero() {
		fields["startDate"] = "is required"
	}
	if in.EndDate.IsZero() {
		fields["endDate"] = "is required"
	}

	days := 0
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() {
		d, err := utils.InclusiveDays(in.StartDate, in.EndDate)
		if err != nil {
			fields["endDate"] = err.Error()
		}
		days = d
	}

	lines := in.Lines()
	if len(lines) == 0 {
		fields["items"] = "at least one item or equipmentId is required"
	}
	for i, l := range lines {
		if l.EquipmentID <= 0 {
			fields[fmt.Sprintf("items[%d].equipmentId", i)] = "is required"
		}
		if l.Quantity < 1 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be at least 1"
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			fields[fmt.Sprintf("items[%d].unitPrice", i)] = "must not be negative"
		}
	}
	if in.TotalPrice != nil && in.TotalPrice.IsNegative() {
		fields["totalPrice"] = "must not be negative"
	}
	if in.Status != nil && !in.Status.HoldsStock() {
		fields["status"] = "must be PENDING or CONFIRMED"
	}

	if len(fields) > 0 {
		return nil, 0, domain.NewValidation("invalid booking request", fields)
	}
	return lines, days, nil
}

func (s *bookingService) GetBooking(ctx context.Context, tenantID, id int32) (*domain.BookingDetail, error) {
	b, err := s.repos.Bookings.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if b.Customer, err = s.repos.Customers.GetByID(ctx, tenantID, b.CustomerID); err != nil {
		return nil, err
	}
	movements, err := s.repos.Movements.ListByBooking(ctx, tenantID, id, s.recentMovements)
	if err != nil {
		return nil, err
	}
	return &domain.BookingDetail{Booking: b, StockMovements: movements}, nil
}

// ListBookings returns the tenant's bookings with items and customers
// expanded. An empty status lists every status.
func (s *bookingService) ListBookings(ctx context.Context, tenantID int32, status string) ([]domain.Booking, error) {
	if status != "" {
		if _, ok := domain.ParseBookingStatus(status); !ok {
			return nil, domain.NewValidation("invalid status filter", map[string]string{"status": "unknown status " + status})
		}
	}

	bookings, err := s.repos.Bookings.List(ctx, tenantID, status)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	ids := make([]int32, len(bookings))
	index := make(map[int32]int, len(bookings))
	for i := range bookings {
		ids[i] = bookings[i].ID
		index[bookings[i].ID] = i
		bookings[i].Items = []domain.BookingItem{}
	}
	items, err := s.repos.Bookings.ListItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		b := &bookings[index[it.BookingID]]
		b.Items = append(b.Items, it)
	}

	customers := map[int32]*domain.Customer{}
	for i := range bookings {
		cid := bookings[i].CustomerID
		c, ok := customers[cid]
		if !ok {
			if c, err = s.repos.Customers.GetByID(ctx, tenantID, cid); err != nil && !domain.IsNotFound(err) {
				return nil, err
			}
			customers[cid] = c
		}
		bookings[i].Customer = c
	}
	return bookings, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, actor domain.Actor, id int32, in *domain.UpdateBookingInput) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.UpdateBooking", "bookingID", id, "tenantID", actor.TenantID)

	if in.TotalPrice != nil && in.TotalPrice.IsNegative() {
		return nil, s.fail("bookingService.UpdateBooking",
			domain.NewValidation("invalid booking update", map[string]string{"totalPrice": "must not be negative"}))
	}

	fx := newEffects(actor)
	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		b, err := repos.Bookings.GetForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		prev := b.Status

		next := prev
		if in.Status != nil {
			next = *in.Status
		}
		if !prev.CanTransitionTo(next) {
			return domain.NewInvalidStateTransition(
				fmt.Sprintf("cannot change booking %s from %s to %s", b.BookingNumber, prev, next), prev)
		}

		start, end := b.StartDate, b.EndDate
		if in.StartDate != nil {
			start = *in.StartDate
		}
		if in.EndDate != nil {
			end = *in.EndDate
		}
		datesChanged := !start.Equal(b.StartDate) || !end.Equal(b.EndDate)
		if datesChanged {
			if prev.IsTerminal() {
				return domain.NewInvalidStateTransition(
					fmt.Sprintf("cannot change dates of %s booking %s", prev, b.BookingNumber), prev)
			}
			if _, err := utils.InclusiveDays(start, end); err != nil {
				return domain.NewValidation("invalid booking update", map[string]string{"endDate": err.Error()})
			}
		}

		lines := b.Lines()
		ids := make([]int32, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.EquipmentID)
		}

		if datesChanged && next.HoldsStock() {
			locked, err := lockEquipment(ctx, repos, actor.TenantID, ids)
			if err != nil {
				return err
			}
			demand := map[int32]int{}
			for _, l := range lines {
				demand[l.EquipmentID] += l.Quantity
			}
			for _, eqID := range uniqueSorted(ids) {
				eq := locked[eqID]
				av, err := s.availability.CheckPeriod(ctx, repos, eq, start, end, demand[eqID], &b.ID)
				if err != nil {
					return err
				}
				if !av.Available {
					return domain.NewStockConflict(eq.ID, eq.Name, demand[eqID], av.AvailableInPeriod)
				}
			}
		}

		if prev.HoldsStock() && next.IsTerminal() {
			kind := domain.MovementAdjustment
			verb := "Released on cancellation of"
			if next == domain.BookingStatusCompleted {
				kind = domain.MovementRentalReturn
				verb = "Returned on completion of"
			}
			if err := s.releasePending(ctx, repos, fx, actor, b, kind, fmt.Sprintf("%s booking %s", verb, b.BookingNumber)); err != nil {
				return err
			}
		}

		b.Status = next
		b.StartDate, b.EndDate = start, end
		if in.TotalPrice != nil {
			b.TotalPrice = *in.TotalPrice
		}
		if in.Notes != nil {
			b.Notes = *in.Notes
		}
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return err
		}

		meta := map[string]any{"bookingNumber": b.BookingNumber}
		if prev != next {
			meta["from"] = prev
			meta["to"] = next
		}
		fx.record(domain.ActivityUpdate, "booking", b.ID, fmt.Sprintf("Updated booking %s", b.BookingNumber), meta)
		booking = b
		return nil
	})
	if err != nil {
		return nil, s.fail("bookingService.UpdateBooking", err)
	}

	fx.flush(ctx, s.activity)
	logger.ExitMethod("bookingService.UpdateBooking", "bookingID", id, "status", booking.Status)
	return booking, nil
}

// CancelBooking is idempotent: cancelling a CANCELLED booking succeeds
// without touching stock.
func (s *bookingService) CancelBooking(ctx context.Context, actor domain.Actor, id int32) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CancelBooking", "bookingID", id, "tenantID", actor.TenantID)

	fx := newEffects(actor)
	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		b, err := repos.Bookings.GetForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		booking = b
		switch b.Status {
		case domain.BookingStatusCancelled:
			return nil
		case domain.BookingStatusCompleted:
			return domain.NewInvalidStateTransition(
				fmt.Sprintf("cannot cancel completed booking %s", b.BookingNumber), b.Status)
		}

		if err := s.releasePending(ctx, repos, fx, actor, b, domain.MovementAdjustment,
			fmt.Sprintf("Released on cancellation of booking %s", b.BookingNumber)); err != nil {
			return err
		}
		b.Status = domain.BookingStatusCancelled
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return err
		}
		fx.record(domain.ActivityCancel, "booking", b.ID, fmt.Sprintf("Cancelled booking %s", b.BookingNumber),
			map[string]any{"bookingNumber": b.BookingNumber})
		return nil
	})
	if err != nil {
		return nil, s.fail("bookingService.CancelBooking", err)
	}

	fx.flush(ctx, s.activity)
	logger.ExitMethod("bookingService.CancelBooking", "bookingID", id)
	return booking, nil
}

// releasePending returns every line's pending units to available. Units
// already returned or damaged left reserved when the return was processed.
func (s *bookingService) releasePending(ctx context.Context, repos repository.Repositories, fx *effects, actor domain.Actor, b *domain.Booking, kind domain.MovementType, reason string) error {
	lines := b.Lines()
	ids := make([]int32, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.EquipmentID)
	}
	if _, err := lockEquipment(ctx, repos, actor.TenantID, ids); err != nil {
		return err
	}
	for i := range lines {
		pending := lines[i].PendingQty()
		if pending == 0 {
			continue
		}
		if _, err := s.ledger.Release(ctx, repos, fx, LedgerOp{
			Actor:       actor,
			EquipmentID: lines[i].EquipmentID,
			BookingID:   &b.ID,
			Quantity:    pending,
			Reason:      reason,
		}, kind); err != nil {
			return err
		}
	}
	return nil
}

func (s *bookingService) fail(method string, err error) error {
	kind := domain.KindOf(err)
	logger.ExitMethodWithError(method, err, kind != "")
	if kind != "" {
		metrics.BookingRejections.WithLabelValues(string(kind)).Inc()
	}
	return err
}

// today is the UTC calendar date of now.
func today() time.Time {
	return utils.TruncateToDate(time.Now().UTC())
}
