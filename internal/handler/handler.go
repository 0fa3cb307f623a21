package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"uniportal/internal/attendance"
	"uniportal/internal/auth"
	"uniportal/internal/course"
	"uniportal/internal/marks"
	"uniportal/internal/metrics"
)

// Handler binds the portal operations to HTTP. All semantics live in
// the internal packages; handlers only decode requests, enforce the
// caller's role and translate errors to statuses.
type Handler struct {
	auth       *auth.Service
	courses    *course.Store
	attendance *attendance.Log
	marks      *marks.Log

	signingKey string
	issuer     string
	healthy    func(ctx context.Context) bool
}

// New creates the portal handler. healthy reports backend
// connectivity for /healthz and may be nil.
func New(authSvc *auth.Service, courses *course.Store, att *attendance.Log, mk *marks.Log, signingKey, issuer string, healthy func(ctx context.Context) bool) *Handler {
	if healthy == nil {
		healthy = func(context.Context) bool { return true }
	}
	return &Handler{
		auth:       authSvc,
		courses:    courses,
		attendance: att,
		marks:      mk,
		signingKey: signingKey,
		issuer:     issuer,
		healthy:    healthy,
	}
}

// Register wires all portal routes onto the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")
	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/register", h.RegisterAccount)
	v1.POST("/auth/logout", h.Logout)

	anyRole := v1.Group("", auth.RequireRole(h.signingKey, h.issuer, ""))
	anyRole.GET("/courses", h.ListCourses)

	teachers := v1.Group("", auth.RequireRole(h.signingKey, h.issuer, auth.RoleTeacher))
	teachers.POST("/courses", h.CreateCourse)
	teachers.POST("/attendance", h.RecordAttendance)
	teachers.GET("/attendance/recent", h.RecentAttendance)
	teachers.POST("/marks", h.RecordMarks)
	teachers.GET("/marks/recent", h.RecentMarks)

	students := v1.Group("", auth.RequireRole(h.signingKey, h.issuer, auth.RoleStudent))
	students.POST("/courses/:id/enroll", h.Enroll)
	students.GET("/marks/report", h.MarksReport)
}

// Healthz reports storage backend connectivity.
func (h *Handler) Healthz(c *gin.Context) {
	if !h.healthy(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": true})
}

// ---------- Auth ----------

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=teacher student"`
}

// Login validates fixed credentials and returns the session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		metrics.LoginFailures.Inc()
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// RegisterAccount is a disabled stub kept for UI symmetry.
func (h *Handler) RegisterAccount(c *gin.Context) {
	err := h.auth.Register(c.Request.Context(), "", "", "")
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// Logout clears the session; calling it twice is fine.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- Courses ----------

type createCourseRequest struct {
	CourseID   string `json:"course_id" binding:"required"`
	CourseName string `json:"course_name" binding:"required"`
}

// CreateCourse adds a course owned by the calling teacher.
func (h *Handler) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	crs, err := h.courses.Create(c.Request.Context(), callerEmail(c), req.CourseID, req.CourseName)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	metrics.CoursesCreated.Inc()
	c.JSON(http.StatusCreated, crs)
}

// ListCourses returns courses, optionally filtered to one teacher's
// own courses or one student's enrollments.
func (h *Handler) ListCourses(c *gin.Context) {
	var (
		courses []course.Course
		err     error
	)
	switch {
	case c.Query("teacher") != "":
		courses, err = h.courses.ListByTeacher(c.Request.Context(), c.Query("teacher"))
	case c.Query("student") != "":
		courses, err = h.courses.ListEnrolledFor(c.Request.Context(), c.Query("student"))
	default:
		courses, err = h.courses.ListAll(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if courses == nil {
		courses = []course.Course{}
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// Enroll adds the calling student to the course roster.
func (h *Handler) Enroll(c *gin.Context) {
	if err := h.courses.Enroll(c.Request.Context(), c.Param("id"), callerEmail(c)); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	metrics.Enrollments.Inc()
	c.Status(http.StatusNoContent)
}

// ---------- Attendance ----------

type attendanceRequest struct {
	CourseID     string `json:"course_id" binding:"required"`
	StudentEmail string `json:"student_email" binding:"required"`
	Date         string `json:"date" binding:"required"`
	Status       string `json:"status" binding:"required"`
}

// RecordAttendance appends an attendance record credited to the
// calling teacher.
func (h *Handler) RecordAttendance(c *gin.Context) {
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.attendance.Record(c.Request.Context(), req.CourseID, req.StudentEmail, req.Date, req.Status, callerEmail(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	metrics.AttendanceRecords.Inc()
	c.JSON(http.StatusCreated, rec)
}

// RecentAttendance lists the calling teacher's latest records.
func (h *Handler) RecentAttendance(c *gin.Context) {
	records, err := h.attendance.RecentByRecorder(c.Request.Context(), callerEmail(c), limitQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// ---------- Marks ----------

type marksRequest struct {
	CourseID       string   `json:"course_id" binding:"required"`
	StudentEmail   string   `json:"student_email" binding:"required"`
	AssessmentType string   `json:"assessment_type" binding:"required"`
	Marks          *float64 `json:"marks" binding:"required"`
}

// RecordMarks appends a marks record credited to the calling teacher.
func (h *Handler) RecordMarks(c *gin.Context) {
	var req marksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.marks.Record(c.Request.Context(), req.CourseID, req.StudentEmail, req.AssessmentType, *req.Marks, callerEmail(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	metrics.MarksRecords.Inc()
	c.JSON(http.StatusCreated, rec)
}

// RecentMarks lists the calling teacher's latest records.
func (h *Handler) RecentMarks(c *gin.Context) {
	records, err := h.marks.RecentByRecorder(c.Request.Context(), callerEmail(c), limitQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []marks.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// MarksReport returns the calling student's per-course assessments
// and averages.
func (h *Handler) MarksReport(c *gin.Context) {
	reports, err := h.marks.ReportFor(c.Request.Context(), callerEmail(c), h.courses)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": reports})
}

// ---------- helpers ----------

func callerEmail(c *gin.Context) string {
	claimsAny, _ := c.Get("claims")
	claims, _ := claimsAny.(auth.Claims)
	return claims.Subject
}

func limitQuery(c *gin.Context) int {
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return 0
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrRegistrationDisabled):
		return http.StatusForbidden
	case errors.Is(err, course.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, course.ErrDuplicateID),
		errors.Is(err, course.ErrAlreadyEnrolled):
		return http.StatusConflict
	case errors.Is(err, course.ErrMissingField),
		errors.Is(err, attendance.ErrMissingField),
		errors.Is(err, attendance.ErrInvalidStatus),
		errors.Is(err, attendance.ErrInvalidDate),
		errors.Is(err, marks.ErrMissingField),
		errors.Is(err, marks.ErrInvalidType),
		errors.Is(err, marks.ErrOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
