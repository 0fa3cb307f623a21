package attendance

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"uniportal/internal/kv"
)

// Statuses a teacher can record.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

// DateLayout is the calendar-date format for attendance records.
// Dates carry no time component.
const DateLayout = "2006-01-02"

var (
	// ErrMissingField is returned when any of the five required
	// fields is empty.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidStatus is returned for a status outside the fixed set.
	ErrInvalidStatus = errors.New("invalid attendance status")
	// ErrInvalidDate is returned when the date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date, want YYYY-MM-DD")
)

// Record is one append-only attendance entry. Records are never
// edited or removed, and multiple records may exist for the same
// (course, student, date) — there is no de-duplication.
type Record struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"course_id"`
	StudentEmail string    `json:"student_email"`
	Date         string    `json:"date"`
	Status       string    `json:"status"`
	RecordedBy   string    `json:"recorded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

const storageKey = "attendanceRecords"

// Log is the append-only attendance collection, rewritten wholesale
// on every append.
type Log struct {
	mu    sync.Mutex
	store kv.Store
	now   func() time.Time
	newID func() string
}

// NewLog creates an attendance log backed by the given namespace.
func NewLog(store kv.Store) *Log {
	return &Log{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Record validates and appends a new entry with a fresh id and the
// current timestamp. Once validated it always succeeds; there is no
// de-dup check.
func (l *Log) Record(ctx context.Context, courseID, studentEmail, date, status, recordedBy string) (Record, error) {
	if courseID == "" || studentEmail == "" || date == "" || status == "" || recordedBy == "" {
		return Record{}, ErrMissingField
	}
	switch status {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
	default:
		return Record{}, ErrInvalidStatus
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Record{}, ErrInvalidDate
	}

	rec := Record{
		ID:           l.newID(),
		CourseID:     strings.ToUpper(courseID),
		StudentEmail: studentEmail,
		Date:         date,
		Status:       status,
		RecordedBy:   recordedBy,
		CreatedAt:    l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return Record{}, err
	}
	records = append(records, rec)
	if err := kv.SetJSON(ctx, l.store, storageKey, records); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// RecentByRecorder returns at most limit records created by the given
// teacher, newest first. Equal timestamps keep insertion order.
func (l *Log) RecentByRecorder(ctx context.Context, recordedBy string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 5
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range records {
		if r.RecordedBy == recordedBy {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *Log) load(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := kv.GetJSON(ctx, l.store, storageKey, &records); err != nil {
		if errors.Is(err, kv.ErrCorrupt) {
			log.Printf("attendance: %v, starting with empty collection", err)
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}
