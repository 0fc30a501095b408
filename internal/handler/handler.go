package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"classlink/internal/auth"
	"classlink/internal/config"
	"classlink/internal/metrics"
	"classlink/internal/school"
)

// Handler exposes the record store over HTTP. It owns no state of its own;
// every operation goes through the store.
type Handler struct {
	store *school.Store
	cfg   config.App
}

func New(store *school.Store, cfg config.App) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// Routes mounts the API. Registration and login are open; everything else
// requires a session token, and the class views require the teacher role.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.POST("/students/register", h.RegisterStudent)
	api.POST("/teachers/register", h.RegisterTeacher)
	api.POST("/login", h.Login)

	authed := api.Group("", auth.UserAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	authed.POST("/logout", h.Logout)
	authed.GET("/session", h.Session)
	authed.GET("/statistics", h.Statistics)
	authed.GET("/export", h.ExportAll)
	authed.GET("/export/csv/:kind", h.ExportCSV)
	authed.POST("/import", h.ImportAll)
	authed.GET("/backups", h.ListBackups)
	authed.GET("/preferences/sound", h.GetSound)
	authed.PUT("/preferences/sound", h.SetSound)

	student := authed.Group("", auth.RequireRole(school.RoleStudent))
	student.POST("/attendance", h.MarkAttendance)
	student.GET("/attendance/today", h.TodayAttendance)
	student.GET("/attendance/history", h.History)

	teacher := authed.Group("", auth.RequireRole(school.RoleTeacher))
	teacher.GET("/classrooms", h.Classrooms)
	teacher.GET("/attendance/class", h.ClassAttendance)
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail translates store outcomes to HTTP codes.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, school.ErrValidation), errors.Is(err, school.ErrInvalidFormat):
		status = http.StatusBadRequest
	case errors.Is(err, school.ErrDuplicateUsername), errors.Is(err, school.ErrAlreadyMarked):
		status = http.StatusConflict
	case errors.Is(err, school.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, school.ErrNoData):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ---------- Registration ----------

type registerStudentRequest struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Grade     string `json:"grade"`
	Classroom string `json:"classroom"`
}

func (h *Handler) RegisterStudent(c *gin.Context) {
	var req registerStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.store.RegisterStudent(req.Name, req.Username, req.Password, req.Grade, req.Classroom)
	if err != nil {
		metrics.MutationErrors.WithLabelValues("register_student").Inc()
		fail(c, err)
		return
	}

	metrics.Mutations.WithLabelValues(school.KindStudents, "register").Inc()
	c.JSON(http.StatusCreated, st)
}

type registerTeacherRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Subject  string `json:"subject"`
}

func (h *Handler) RegisterTeacher(c *gin.Context) {
	var req registerTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.store.RegisterTeacher(req.Name, req.Username, req.Password, req.Subject)
	if err != nil {
		metrics.MutationErrors.WithLabelValues("register_teacher").Inc()
		fail(c, err)
		return
	}

	metrics.Mutations.WithLabelValues(school.KindTeachers, "register").Inc()
	c.JSON(http.StatusCreated, t)
}

// ---------- Session ----------

type loginRequest struct {
	Role     string `json:"role" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.store.Login(req.Role, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, school.ErrInvalidCredentials) {
			metrics.LoginFailures.Inc()
		}
		fail(c, err)
		return
	}

	token, exp, err := auth.Issue(sess.ID, sess.Username, sess.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.SessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.Unix(),
		"session":    sess,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.store.Logout(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) Session(c *gin.Context) {
	sess := h.store.CurrentSession()
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// ---------- Attendance ----------

type markRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) MarkAttendance(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.store.MarkAttendance(claims.UserID, req.Status)
	if err != nil {
		metrics.MutationErrors.WithLabelValues("mark_attendance").Inc()
		fail(c, err)
		return
	}

	metrics.Mutations.WithLabelValues(school.KindAttendance, "mark").Inc()
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) TodayAttendance(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	rec := h.store.TodayRecord(claims.UserID)
	if rec == nil {
		c.JSON(http.StatusOK, gin.H{"marked": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": true, "record": rec})
}

func (h *Handler) History(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	history := h.store.StudentHistory(claims.UserID)
	if history == nil {
		history = []school.AttendanceRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// ---------- Class views ----------

func (h *Handler) Classrooms(c *gin.Context) {
	grade := c.Query("grade")
	classrooms := h.store.AvailableClassrooms(grade)
	if classrooms == nil {
		classrooms = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"grade": grade, "classrooms": classrooms})
}

func (h *Handler) ClassAttendance(c *gin.Context) {
	grade := c.Query("grade")
	classroom := c.Query("classroom")
	if grade == "" || classroom == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grade and classroom are required"})
		return
	}
	date := c.Query("date")
	if date == "" {
		date = h.store.Today()
	}

	students := h.store.ClassAttendance(grade, classroom, date)
	if students == nil {
		students = []school.StudentStatus{}
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "students": students})
}

// ---------- Statistics ----------

func (h *Handler) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Statistics())
}

// ---------- Import / Export ----------

func (h *Handler) ExportAll(c *gin.Context) {
	doc := h.store.ExportAll()
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+h.store.ExportFilename()+`"`)
	c.Data(http.StatusOK, "application/json", body)
}

func (h *Handler) ExportCSV(c *gin.Context) {
	kind := c.Param("kind")
	body, err := h.store.ExportCSV(kind)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+h.store.CSVFilename(kind)+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}

func (h *Handler) ImportAll(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}

	res, err := h.store.ImportAll(body)
	if err != nil {
		fail(c, err)
		return
	}

	metrics.ImportedRecords.WithLabelValues(school.KindStudents).Add(float64(res.Students))
	metrics.ImportedRecords.WithLabelValues(school.KindTeachers).Add(float64(res.Teachers))
	metrics.ImportedRecords.WithLabelValues(school.KindAttendance).Add(float64(res.Attendance))
	c.JSON(http.StatusOK, gin.H{"imported": res})
}

// ---------- Maintenance ----------

func (h *Handler) ListBackups(c *gin.Context) {
	backups, err := h.store.ListBackups()
	if err != nil {
		fail(c, err)
		return
	}
	if backups == nil {
		backups = []school.BackupInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"backups": backups})
}

// ---------- Preferences ----------

func (h *Handler) GetSound(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": h.store.SoundEnabled()})
}

type soundRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) SetSound(c *gin.Context) {
	var req soundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"enabled\": true|false}"})
		return
	}
	if err := h.store.SetSoundEnabled(*req.Enabled); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}
