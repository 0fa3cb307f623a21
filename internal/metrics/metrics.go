package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Write counters for the portal collections, exposed on /metrics.
var (
	CoursesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_courses_created_total",
		Help: "Courses created by teachers.",
	})
	Enrollments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_enrollments_total",
		Help: "Successful student course enrollments.",
	})
	AttendanceRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_attendance_records_total",
		Help: "Attendance records appended.",
	})
	MarksRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_marks_records_total",
		Help: "Marks records appended.",
	})
	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_login_failures_total",
		Help: "Rejected login attempts.",
	})
)
