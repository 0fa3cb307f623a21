package marks

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"uniportal/internal/kv"
)

// The four fixed assessment types, in report order.
const (
	TypeMidterm    = "midterm"
	TypeFinal      = "final"
	TypeAssignment = "assignment"
	TypeQuiz       = "quiz"
)

var assessmentTypes = []string{TypeMidterm, TypeFinal, TypeAssignment, TypeQuiz}

var (
	// ErrMissingField is returned when any required field is empty.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidType is returned for an assessment type outside the
	// fixed set.
	ErrInvalidType = errors.New("invalid assessment type")
	// ErrOutOfRange is returned when marks are not within [0,100].
	ErrOutOfRange = errors.New("marks must be between 0 and 100")
)

// Record is one append-only marks entry. A later record for the same
// (course, student, assessment type) does not supersede an earlier
// one; consumers pick a representative via AssessmentsByType.
type Record struct {
	ID             string    `json:"id"`
	CourseID       string    `json:"course_id"`
	StudentEmail   string    `json:"student_email"`
	AssessmentType string    `json:"assessment_type"`
	Marks          float64   `json:"marks"`
	RecordedBy     string    `json:"recorded_by"`
	CreatedAt      time.Time `json:"created_at"`
}

const storageKey = "marksRecords"

// Log is the append-only marks collection, rewritten wholesale on
// every append.
type Log struct {
	mu    sync.Mutex
	store kv.Store
	now   func() time.Time
	newID func() string
}

// NewLog creates a marks log backed by the given namespace.
func NewLog(store kv.Store) *Log {
	return &Log{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Record validates and appends a new entry with a fresh id and the
// current timestamp. Marks of exactly 0 and 100 are accepted.
func (l *Log) Record(ctx context.Context, courseID, studentEmail, assessmentType string, value float64, recordedBy string) (Record, error) {
	if courseID == "" || studentEmail == "" || assessmentType == "" || recordedBy == "" {
		return Record{}, ErrMissingField
	}
	switch assessmentType {
	case TypeMidterm, TypeFinal, TypeAssignment, TypeQuiz:
	default:
		return Record{}, ErrInvalidType
	}
	if math.IsNaN(value) || value < 0 || value > 100 {
		return Record{}, ErrOutOfRange
	}

	rec := Record{
		ID:             l.newID(),
		CourseID:       strings.ToUpper(courseID),
		StudentEmail:   studentEmail,
		AssessmentType: assessmentType,
		Marks:          value,
		RecordedBy:     recordedBy,
		CreatedAt:      l.now(),
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

// ForStudentInCourse returns every record for the student in the
// course, all assessment types, in append order.
func (l *Log) ForStudentInCourse(ctx context.Context, studentEmail, courseID string) ([]Record, error) {
	courseID = strings.ToUpper(courseID)

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range records {
		if r.StudentEmail == studentEmail && r.CourseID == courseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *Log) load(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := kv.GetJSON(ctx, l.store, storageKey, &records); err != nil {
		if errors.Is(err, kv.ErrCorrupt) {
			log.Printf("marks: %v, starting with empty collection", err)
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}
