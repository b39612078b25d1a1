package models

import "time"

// BookingStatus is the lifecycle state of a ledger record.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusAccepted  BookingStatus = "accepted"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusRejected  BookingStatus = "rejected"
	StatusNoShow    BookingStatus = "no_show"
)

// ActiveStatuses occupy a slot.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusAccepted}

// HistoricalStatuses are shown in past-period views.
var HistoricalStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusAccepted, StatusCompleted}

func (s BookingStatus) Active() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// LedgerRecord is an authoritative appointment entry.
type LedgerRecord struct {
	ID           string          `bson:"id" json:"id"`
	Professional ProfessionalRef `bson:"professional" json:"professional"`
	SubjectID    string          `bson:"subjectId" json:"subjectId"`
	Date         DateKey         `bson:"date" json:"date"`
	Start        int             `bson:"start" json:"start"` // minutes from midnight
	End          int             `bson:"end" json:"end"`     // minutes from midnight, exclusive
	Status       BookingStatus   `bson:"status" json:"status"`
	RecordedAt   time.Time       `bson:"recordedAt" json:"recordedAt"`
}

// BookedSlot mirrors one live ledger record.
func (r LedgerRecord) BookedSlot() BookedSlot {
	return BookedSlot{
		BookingID:  r.ID,
		SubjectID:  r.SubjectID,
		Start:      r.Start,
		End:        r.End,
		RecordedAt: r.RecordedAt,
		Status:     r.Status,
	}
}
