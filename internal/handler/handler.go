// Package handler holds the gin handlers. Time values are formatted here and
// nowhere below: handlers are the presentation boundary.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"attendance/internal/auth"
	"attendance/internal/config"
	"attendance/internal/ingest"
	"attendance/internal/ledger"
	"attendance/internal/registry"
	"attendance/internal/report"
	"attendance/internal/scan"
	"attendance/internal/timefmt"
)

// ScanProcessor applies the per-day scan transition.
type ScanProcessor interface {
	ProcessScan(ctx context.Context, barcode string, now time.Time) (scan.Result, error)
}

// Reporter answers filtered attendance queries and exports.
type Reporter interface {
	Attendance(ctx context.Context, f ledger.Filters) ([]ledger.Row, error)
	Export(ctx context.Context, f ledger.Filters, now time.Time) (report.Export, error)
}

// Roster is the registry surface the handlers need.
type Roster interface {
	CreateStudent(ctx context.Context, in registry.NewStudent) (registry.Student, error)
	List(ctx context.Context) ([]registry.Student, error)
	FilterOptions(ctx context.Context) (registry.FilterOptions, error)
}

// Ingestor registers parsed roster rows in bulk.
type Ingestor interface {
	Ingest(ctx context.Context, rows []registry.NewStudent) ([]registry.Student, error)
}

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	cfg     config.App
	scans   ScanProcessor
	reports Reporter
	roster  Roster
	ingest  Ingestor
	now     func() time.Time
}

// New creates a handler set.
func New(cfg config.App, scans ScanProcessor, reports Reporter, roster Roster, ing Ingestor) *Handler {
	return &Handler{
		cfg:     cfg,
		scans:   scans,
		reports: reports,
		roster:  roster,
		ingest:  ing,
		now:     time.Now,
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/scan", h.Scan)

	staff := r.Group("/v1", auth.StaffAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	staff.GET("/attendance", h.ListAttendance)
	staff.GET("/attendance/download", h.DownloadAttendance)
	staff.GET("/filters", h.FilterOptions)
	staff.GET("/students", h.ListStudents)
	staff.POST("/students", h.AddStudent)
	staff.POST("/students/upload", h.UploadRoster)
}

// Login checks the configured staff credentials and issues a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !auth.CheckCredentials(req.Username, req.Password, h.cfg.AdminUser, h.cfg.AdminPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	tokens, err := auth.Issue(req.Username, auth.RoleStaff, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

type scanResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Name       string `json:"name,omitempty"`
	Department string `json:"department,omitempty"`
	Status     string `json:"status,omitempty"`
	TimeIn     string `json:"time_in,omitempty"`
	TimeOut    string `json:"time_out,omitempty"`
	Date       string `json:"date,omitempty"`
}

// Scan processes a badge submission. An unresolved barcode is 404; the
// already-timed-out rejection is 200 with success=false, because a business
// rejection is not a transport error.
func (h *Handler) Scan(c *gin.Context) {
	var req struct {
		Barcode string `json:"barcode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, scanResponse{Success: false, Message: "No barcode received"})
		return
	}

	res, err := h.scans.ProcessScan(c.Request.Context(), req.Barcode, h.now())
	switch {
	case errors.Is(err, scan.ErrEmptyBarcode):
		c.JSON(http.StatusBadRequest, scanResponse{Success: false, Message: "No barcode received"})
		return
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, scanResponse{Success: false, Message: "Student not found"})
		return
	case err != nil:
		log.Printf("scan failed for barcode %q: %v", req.Barcode, err)
		c.JSON(http.StatusInternalServerError, scanResponse{Success: false, Message: "Scan failed, try again"})
		return
	}

	resp := scanResponse{
		Success:    res.Accepted,
		Name:       res.Student.Name,
		Department: res.Student.Department,
		Status:     string(res.Status),
		TimeIn:     timefmt.Clock(res.TimeIn),
		TimeOut:    timefmt.ClockOrNA(res.TimeOut),
		Date:       timefmt.Date(res.Day),
	}
	switch res.Status {
	case scan.StatusTimeIn:
		resp.Message = fmt.Sprintf("Time In recorded for %s", res.Student.Name)
	case scan.StatusTimeOut:
		resp.Message = fmt.Sprintf("Time Out recorded for %s", res.Student.Name)
	default:
		resp.Message = "Already Timed Out for Today"
	}
	c.JSON(http.StatusOK, resp)
}

type attendanceRow struct {
	Name       string `json:"name"`
	Batch      string `json:"batch"`
	Position   string `json:"position"`
	Department string `json:"department"`
	School     string `json:"school"`
	Date       string `json:"date"`
	TimeIn     string `json:"time_in"`
	TimeOut    string `json:"time_out"`
}

// ListAttendance returns the filtered joined rows.
func (h *Handler) ListAttendance(c *gin.Context) {
	f, ok := h.parseFilters(c)
	if !ok {
		return
	}
	rows, err := h.reports.Attendance(c.Request.Context(), f)
	if err != nil {
		log.Printf("attendance query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "attendance query failed"})
		return
	}
	out := make([]attendanceRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, attendanceRow{
			Name:       row.Student.Name,
			Batch:      row.Student.Batch,
			Position:   row.Student.Position,
			Department: row.Student.Department,
			School:     row.Student.School,
			Date:       timefmt.Date(row.Record.Day),
			TimeIn:     timefmt.Clock(row.Record.TimeIn),
			TimeOut:    timefmt.ClockOrNA(row.Record.TimeOut),
		})
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}

// DownloadAttendance streams the CSV report for the same filter surface.
func (h *Handler) DownloadAttendance(c *gin.Context) {
	f, ok := h.parseFilters(c)
	if !ok {
		return
	}
	exp, err := h.reports.Export(c.Request.Context(), f, h.now())
	if err != nil {
		log.Printf("attendance export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "attendance export failed"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	c.Data(http.StatusOK, exp.ContentType, exp.Data)
}

// FilterOptions returns distinct attribute values for report filter dropdowns.
func (h *Handler) FilterOptions(c *gin.Context) {
	opts, err := h.roster.FilterOptions(c.Request.Context())
	if err != nil {
		log.Printf("filter options failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "filter options failed"})
		return
	}
	c.JSON(http.StatusOK, opts)
}

// ListStudents returns the roster with assigned barcodes.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.roster.List(c.Request.Context())
	if err != nil {
		log.Printf("student list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "student list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// AddStudent registers a single student; the registry assigns the barcode.
func (h *Handler) AddStudent(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		Batch      string `json:"batch" binding:"required"`
		Position   string `json:"position" binding:"required"`
		Department string `json:"department" binding:"required"`
		School     string `json:"school" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	student, err := h.roster.CreateStudent(c.Request.Context(), registry.NewStudent{
		Name:       req.Name,
		Batch:      req.Batch,
		Position:   req.Position,
		Department: req.Department,
		School:     req.School,
	})
	if err != nil {
		if errors.Is(err, registry.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("add student failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add student failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"student": student})
}

// UploadRoster ingests a CSV roster in bulk, assigning barcodes row by row.
func (h *Handler) UploadRoster(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be a CSV roster"})
		return
	}

	rows, err := ingest.ParseRoster(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	students, err := h.ingest.Ingest(c.Request.Context(), rows)
	if err != nil {
		if errors.Is(err, registry.ErrDuplicateBarcode) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "created": len(students)})
			return
		}
		log.Printf("roster ingest failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "created": len(students)})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"students": students, "count": len(students)})
}

func (h *Handler) parseFilters(c *gin.Context) (ledger.Filters, bool) {
	f := ledger.Filters{
		Batch:      strings.TrimSpace(c.Query("batch")),
		Position:   strings.TrimSpace(c.Query("position")),
		Department: strings.TrimSpace(c.Query("department")),
		School:     strings.TrimSpace(c.Query("school")),
	}
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		d, err := timefmt.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return ledger.Filters{}, false
		}
		f.Date = &d
	}
	return f, true
}
