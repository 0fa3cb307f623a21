package course

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"uniportal/internal/kv"
)

var (
	// ErrDuplicateID is returned when a course id (case-insensitive)
	// already exists.
	ErrDuplicateID = errors.New("course id already exists")
	// ErrNotFound is returned when no course has the given id.
	ErrNotFound = errors.New("course not found")
	// ErrAlreadyEnrolled is returned when the student is already on
	// the course roster.
	ErrAlreadyEnrolled = errors.New("student already enrolled in this course")
	// ErrMissingField is returned when a required field is empty.
	ErrMissingField = errors.New("missing required field")
)

// Course is a teacher-owned unit with a roster of enrolled students.
// The teacher is set once at creation and never reassigned; the roster
// grows only via Enroll. Courses are never deleted.
type Course struct {
	ID       string   `json:"course_id"`
	Name     string   `json:"course_name"`
	Teacher  string   `json:"teacher"`
	Students []string `json:"students"`
}

const storageKey = "registeredCourses"

// Store keeps the whole course collection serialized under one key
// and rewrites it wholesale on every mutation. The mutex makes the
// read-modify-write cycle single-writer within this process; there is
// no coordination across processes sharing a backend.
type Store struct {
	mu    sync.Mutex
	store kv.Store
}

// NewStore creates a course store backed by the given namespace.
func NewStore(store kv.Store) *Store {
	return &Store{store: store}
}

// Create inserts a new course with an empty roster. The id is
// normalized to uppercase; creation fails if a course with that
// normalized id already exists.
func (s *Store) Create(ctx context.Context, teacher, id, name string) (Course, error) {
	if teacher == "" || id == "" || name == "" {
		return Course{}, ErrMissingField
	}
	id = strings.ToUpper(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load(ctx)
	if err != nil {
		return Course{}, err
	}
	for _, c := range courses {
		if c.ID == id {
			return Course{}, ErrDuplicateID
		}
	}
	crs := Course{ID: id, Name: name, Teacher: teacher, Students: []string{}}
	courses = append(courses, crs)
	if err := kv.SetJSON(ctx, s.store, storageKey, courses); err != nil {
		return Course{}, err
	}
	return crs, nil
}

// ListAll returns every course in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// ListByTeacher returns the courses owned by the given teacher.
func (s *Store) ListByTeacher(ctx context.Context, teacher string) ([]Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Course
	for _, c := range courses {
		if c.Teacher == teacher {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListEnrolledFor returns the courses whose roster contains the
// given student email.
func (s *Store) ListEnrolledFor(ctx context.Context, studentEmail string) ([]Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Course
	for _, c := range courses {
		for _, email := range c.Students {
			if email == studentEmail {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// Enroll appends the student to the course roster. Enrolling twice is
// an explicit error, not a silent success.
func (s *Store) Enroll(ctx context.Context, courseID, studentEmail string) error {
	if courseID == "" || studentEmail == "" {
		return ErrMissingField
	}
	courseID = strings.ToUpper(courseID)

	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i := range courses {
		if courses[i].ID == courseID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	for _, email := range courses[idx].Students {
		if email == studentEmail {
			return ErrAlreadyEnrolled
		}
	}
	courses[idx].Students = append(courses[idx].Students, studentEmail)
	return kv.SetJSON(ctx, s.store, storageKey, courses)
}

// load reads the whole collection. A corrupt entry is logged and
// treated as empty rather than failing the operation.
func (s *Store) load(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := kv.GetJSON(ctx, s.store, storageKey, &courses); err != nil {
		if errors.Is(err, kv.ErrCorrupt) {
			log.Printf("courses: %v, starting with empty collection", err)
			return nil, nil
		}
		return nil, err
	}
	return courses, nil
}
