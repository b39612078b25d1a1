package calendar

import (
	"context"
	"fmt"
	"time"

	availabilityRepo "caredesk/database/repository/availability"
	ledgerRepo "caredesk/database/repository/ledger"
	professionalRepo "caredesk/database/repository/professional"
	"caredesk/models"
	"caredesk/services/slots"
	"caredesk/utils"

	"go.uber.org/zap"
)

// CalendarService is everything collaborators may ask of the calendar.
type CalendarService interface {
	QueryMonth(ctx context.Context, key models.MonthKey, filter *models.ProfessionalRef) ([]models.CalendarDay, error)
	AvailableSlots(ctx context.Context, q SlotQuery) ([]slots.Slot, error)
	BookSlot(ctx context.Context, req BookingRequest) (*models.BookedSlot, error)
	PastView(ctx context.Context, from, to models.DateKey, filter *models.ProfessionalRef) ([]models.CalendarDay, error)

	GetAvailability(ctx context.Context, ref models.ProfessionalRef) (*models.AvailabilityTemplate, error)
	UpdateAvailability(ctx context.Context, tpl *models.AvailabilityTemplate) error
	UpdateAvailabilityDay(ctx context.Context, ref models.ProfessionalRef, weekday time.Weekday, ranges []models.AvailabilityRange) (*models.AvailabilityTemplate, error)

	AddBreak(ctx context.Context, req BreakRequest) (*models.Break, error)
	RemoveBreak(ctx context.Context, ref models.ProfessionalRef, date models.DateKey, breakID string) error
}

// SyncRequester schedules an availability sync for one professional outside the request.
type SyncRequester interface {
	RequestAvailabilitySync(ctx context.Context, ref models.ProfessionalRef) error
}

// DefaultCalendarService implements CalendarService.
type DefaultCalendarService struct {
	Store     *MonthStore
	Deriver   *Deriver
	Ledger    ledgerRepo.LedgerRepository
	Directory professionalRepo.Directory
	Templates availabilityRepo.AvailabilityRepository
	// RetentionMonths is how many months before the current one stay in the store.
	RetentionMonths int

	// Optional collaborators; nil disables them.
	Cache   SlotCache
	Locker  Locker
	Sync    SyncRequester
	Metrics *utils.Metrics

	Logger *zap.Logger
}

func NewDefaultCalendarService(
	store *MonthStore,
	ledger ledgerRepo.LedgerRepository,
	directory professionalRepo.Directory,
	templates availabilityRepo.AvailabilityRepository,
	logger *zap.Logger,
) (*DefaultCalendarService, error) {
	if store == nil || store.Deriver == nil || ledger == nil || directory == nil || templates == nil {
		return nil, fmt.Errorf("calendar service initialization error: one or more dependencies are nil")
	}
	return &DefaultCalendarService{
		Store:           store,
		Deriver:         store.Deriver,
		Ledger:          ledger,
		Directory:       directory,
		Templates:       templates,
		RetentionMonths: 3,
		Logger:          logger.Named("CalendarService"),
	}, nil
}

// RetentionFloor is the first month still kept in the store.
func (s *DefaultCalendarService) RetentionFloor() models.MonthKey {
	return RetentionFloor(s.Deriver.Today(), s.RetentionMonths)
}

// RetentionFloor is the first month kept when months older than retention are pruned.
func RetentionFloor(today models.DateKey, retention int) models.MonthKey {
	if retention < 0 {
		retention = 0
	}
	return today.MonthKey().AddMonths(-retention)
}

func (s *DefaultCalendarService) invalidate(ctx context.Context, ref models.ProfessionalRef, date models.DateKey) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, ref, date)
	}
}

func (s *DefaultCalendarService) requestSync(ctx context.Context, ref models.ProfessionalRef) {
	if s.Sync == nil {
		return
	}
	if err := s.Sync.RequestAvailabilitySync(ctx, ref); err != nil {
		s.Logger.Warn("availability sync request failed, next scheduled pass will converge",
			zap.String("professional", ref.String()), zap.Error(err))
	}
}
