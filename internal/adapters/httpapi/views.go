package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"labqms/internal/core"
	"labqms/internal/export"
	"labqms/internal/report"
	"labqms/pkg/domain"
)

func (s *Server) trainingOverview(c *gin.Context) {
	rows, err := s.svc.TrainingOverview(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"items": rows, "requirements": s.svc.Requirements()}, err)
}

func (s *Server) dashboard(c *gin.Context) {
	d, err := s.svc.Dashboard(c.Request.Context())
	respond(c, http.StatusOK, d, err)
}

// year reads ?year=, defaulting to the current year.
func (s *Server) year(c *gin.Context) (int, bool) {
	raw := c.Query("year")
	if raw == "" {
		return s.now().Year(), true
	}
	y, err := strconv.Atoi(raw)
	if err != nil || y < 1900 || y > 9999 {
		badRequest(c, fmt.Errorf("invalid year %q", raw))
		return 0, false
	}
	return y, true
}

func (s *Server) calibrationPlan(c *gin.Context) {
	year, ok := s.year(c)
	if !ok {
		return
	}
	plan, err := s.svc.CalibrationPlan(c.Request.Context(), year)
	respond(c, http.StatusOK, gin.H{"year": year, "items": plan}, err)
}

func (s *Server) deletionLogs(c *gin.Context) {
	logs, err := s.svc.DeletionLogs(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"items": logs}, err)
}

func (s *Server) transitions(c *gin.Context) {
	list, err := s.svc.Transitions(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"items": list}, err)
}

func (s *Server) exportsEnabled(c *gin.Context) bool {
	if s.archiver == nil {
		abort(c, http.StatusServiceUnavailable, "document archive not configured")
		return false
	}
	return true
}

// sendDocument writes a rendered document; the archive key travels in a header.
func sendDocument(c *gin.Context, doc export.Document, filename string) {
	c.Header("X-Archive-Key", doc.Info.Key)
	if doc.Info.ContentType == export.ContentTypeXLSX {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	c.Data(http.StatusOK, doc.Info.ContentType, doc.Body)
}

func (s *Server) loanSlip(c *gin.Context) {
	if !s.exportsEnabled(c) {
		return
	}
	loans, err := s.svc.LoanRecords(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	id := c.Param("id")
	for _, loan := range loans {
		if loan.ID != id {
			continue
		}
		doc, err := s.archiver.LoanSlip(c.Request.Context(), loan)
		if err != nil {
			fail(c, err)
			return
		}
		sendDocument(c, doc, loan.ID+".html")
		return
	}
	fail(c, domain.NotFoundError{Entity: domain.EntityLoan, Key: id})
}

func (s *Server) trainingPlanExport(c *gin.Context) {
	if !s.exportsEnabled(c) {
		return
	}
	year, ok := s.year(c)
	if !ok {
		return
	}
	users, err := s.svc.Users(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	var doc export.Document
	switch format := c.DefaultQuery("format", "html"); format {
	case "html":
		doc, err = s.archiver.TrainingPlanHTML(c.Request.Context(), year, users)
	case "xlsx":
		doc, err = s.archiver.TrainingPlanXLSX(c.Request.Context(), year, users)
	default:
		badRequest(c, fmt.Errorf("unsupported format %q", format))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	sendDocument(c, doc, fmt.Sprintf("training-plan-%d.xlsx", year))
}

func (s *Server) calibrationPlanExport(c *gin.Context) {
	if !s.exportsEnabled(c) {
		return
	}
	year, ok := s.year(c)
	if !ok {
		return
	}
	plan, err := s.svc.CalibrationPlan(c.Request.Context(), year)
	if err != nil {
		fail(c, err)
		return
	}
	doc, err := s.archiver.CalibrationPlanXLSX(c.Request.Context(), year, plan)
	if err != nil {
		fail(c, err)
		return
	}
	sendDocument(c, doc, fmt.Sprintf("calibration-plan-%d.xlsx", year))
}

func (s *Server) listExports(c *gin.Context) {
	if !s.exportsEnabled(c) {
		return
	}
	items, err := s.archiver.List(c.Request.Context(), c.Query("prefix"))
	respond(c, http.StatusOK, gin.H{"items": items}, err)
}

type askBody struct {
	Prompt string `json:"prompt" binding:"required"`
}

// snapshot gathers the dataset the assistant reasons over, archived
// instruments and the loan history included.
func (s *Server) snapshot(c *gin.Context) (report.Snapshot, error) {
	ctx := c.Request.Context()
	snap := report.Snapshot{Qualifications: currentActor(c).Qualifications}
	for _, archived := range []bool{false, true} {
		views, err := s.svc.Instruments(ctx, core.InstrumentFilter{Archived: archived})
		if err != nil {
			return report.Snapshot{}, err
		}
		for _, v := range views {
			snap.Instruments = append(snap.Instruments, v.Instrument)
		}
	}
	var err error
	if snap.Materials, err = s.svc.Materials(ctx); err != nil {
		return report.Snapshot{}, err
	}
	if snap.Users, err = s.svc.Users(ctx); err != nil {
		return report.Snapshot{}, err
	}
	if snap.LoanRecords, err = s.svc.LoanRecords(ctx); err != nil {
		return report.Snapshot{}, err
	}
	return snap, nil
}

func (s *Server) ask(c *gin.Context) {
	if s.assistant == nil {
		abort(c, http.StatusServiceUnavailable, "assistant not configured")
		return
	}
	var body askBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	snap, err := s.snapshot(c)
	if err != nil {
		fail(c, err)
		return
	}
	text, err := s.assistant.Generate(c.Request.Context(), body.Prompt, snap)
	respond(c, http.StatusOK, gin.H{"text": text}, err)
}
