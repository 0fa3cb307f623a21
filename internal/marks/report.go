package marks

import (
	"context"
	"math"

	"uniportal/internal/course"
)

// Assessment is the per-type projection shown on a student's report.
type Assessment struct {
	Type  string  `json:"type"`
	Marks float64 `json:"marks"`
}

// AssessmentsByType selects at most one representative record for
// each of the four assessment types, in fixed type order. The first
// record found in append order wins; later duplicates for the same
// type are ignored. Known limitation: whether last-write-should-win
// was intended is unresolved, so the original first-match behavior is
// preserved.
func AssessmentsByType(records []Record) []Assessment {
	var out []Assessment
	for _, typ := range assessmentTypes {
		for _, r := range records {
			if r.AssessmentType == typ {
				out = append(out, Assessment{Type: typ, Marks: r.Marks})
				break
			}
		}
	}
	return out
}

// Average returns the rounded mean of the assessments. ok is false
// when there is nothing to average.
func Average(assessments []Assessment) (int, bool) {
	if len(assessments) == 0 {
		return 0, false
	}
	var sum float64
	for _, a := range assessments {
		sum += a.Marks
	}
	return int(math.Round(sum / float64(len(assessments)))), true
}

// Enrollments lists the courses a student is enrolled in.
type Enrollments interface {
	ListEnrolledFor(ctx context.Context, studentEmail string) ([]course.Course, error)
}

// CourseReport is a student's marks summary for one enrolled course.
// Average is nil when no assessments have been recorded.
type CourseReport struct {
	Course      course.Course `json:"course"`
	Assessments []Assessment  `json:"assessments"`
	Average     *int          `json:"average,omitempty"`
}

// ReportFor builds the per-course marks report for a student: one
// entry per enrolled course, with its representative assessments and
// rounded average.
func (l *Log) ReportFor(ctx context.Context, studentEmail string, enrollments Enrollments) ([]CourseReport, error) {
	courses, err := enrollments.ListEnrolledFor(ctx, studentEmail)
	if err != nil {
		return nil, err
	}
	reports := make([]CourseReport, 0, len(courses))
	for _, crs := range courses {
		records, err := l.ForStudentInCourse(ctx, studentEmail, crs.ID)
		if err != nil {
			return nil, err
		}
		assessments := AssessmentsByType(records)
		report := CourseReport{Course: crs, Assessments: assessments}
		if avg, ok := Average(assessments); ok {
			report.Average = &avg
		}
		reports = append(reports, report)
	}
	return reports, nil
}
