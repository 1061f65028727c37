package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"labqms/internal/core"
	"labqms/pkg/domain"
)

// confirmBody carries the operator's answer to a confirmation dialog.
// Confirm answers yes/no questions; Confirmation answers the hard-delete
// challenge and is nil when the prompt was cancelled.
type confirmBody struct {
	Confirm      bool    `json:"confirm"`
	Confirmation *string `json:"confirmation"`
}

func (b confirmBody) confirmer() domain.Confirmer {
	switch {
	case b.Confirmation != nil:
		return domain.Answer(*b.Confirmation)
	case b.Confirm:
		return domain.Confirmed()
	}
	return domain.Declined()
}

// bindConfirm reads an optional confirmation body. An empty body declines.
func bindConfirm(c *gin.Context) (domain.Confirmer, bool) {
	var body confirmBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return nil, false
	}
	return body.confirmer(), true
}

// respond writes v, or the error, or the declined marker.
func respond(c *gin.Context, status int, v any, err error) {
	switch {
	case errors.Is(err, domain.ErrDeclined):
		declined(c)
	case err != nil:
		fail(c, err)
	default:
		c.JSON(status, v)
	}
}

type loginBody struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	actor, err := s.svc.Authenticate(c.Request.Context(), body.Login, body.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, expires, err := s.tokens.Issue(actor.Username, actor.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expires, "user": actor})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentActor(c))
}

func (s *Server) listInstruments(c *gin.Context) {
	filter := core.InstrumentFilter{
		Search:   c.Query("q"),
		Status:   domain.InstrumentStatus(c.Query("status")),
		Archived: c.Query("archived") == "true",
		LoanType: domain.LoanType(c.Query("loanType")),
	}
	list, err := s.svc.Instruments(c.Request.Context(), filter)
	respond(c, http.StatusOK, gin.H{"items": list}, err)
}

func (s *Server) getInstrument(c *gin.Context) {
	view, err := s.svc.Instrument(c.Request.Context(), c.Param("no"))
	respond(c, http.StatusOK, view, err)
}

func (s *Server) createInstrument(c *gin.Context) {
	var inst domain.Instrument
	if err := c.ShouldBindJSON(&inst); err != nil {
		badRequest(c, err)
		return
	}
	saved, res, err := s.svc.CreateInstrument(c.Request.Context(), currentActor(c), inst)
	respond(c, http.StatusCreated, gin.H{"instrument": saved, "result": res}, err)
}

func (s *Server) saveInstrument(c *gin.Context) {
	var inst domain.Instrument
	if err := c.ShouldBindJSON(&inst); err != nil {
		badRequest(c, err)
		return
	}
	inst.InstrumentNo = c.Param("no")
	saved, res, err := s.svc.SaveInstrument(c.Request.Context(), currentActor(c), inst)
	respond(c, http.StatusOK, gin.H{"instrument": saved, "result": res}, err)
}

func (s *Server) archiveInstrument(c *gin.Context) {
	conf, ok := bindConfirm(c)
	if !ok {
		return
	}
	inst, res, err := s.svc.ArchiveInstrument(c.Request.Context(), currentActor(c), c.Param("no"), conf)
	respond(c, http.StatusOK, gin.H{"instrument": inst, "result": res}, err)
}

func (s *Server) restoreInstrument(c *gin.Context) {
	conf, ok := bindConfirm(c)
	if !ok {
		return
	}
	inst, res, err := s.svc.RestoreInstrument(c.Request.Context(), currentActor(c), c.Param("no"), conf)
	respond(c, http.StatusOK, gin.H{"instrument": inst, "result": res}, err)
}

func (s *Server) hardDeleteInstrument(c *gin.Context) {
	conf, ok := bindConfirm(c)
	if !ok {
		return
	}
	entry, res, err := s.svc.HardDeleteInstrument(c.Request.Context(), currentActor(c), c.Param("no"), conf)
	respond(c, http.StatusOK, gin.H{"deletionLog": entry, "result": res}, err)
}

func (s *Server) addCalibration(c *gin.Context) {
	var in core.CalibrationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	rec, res, err := s.svc.AddCalibrationRecord(c.Request.Context(), currentActor(c), c.Param("no"), in)
	respond(c, http.StatusCreated, gin.H{"record": rec, "result": res}, err)
}

func (s *Server) addMaintenance(c *gin.Context) {
	var rec domain.MaintenanceRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, err)
		return
	}
	saved, res, err := s.svc.AddMaintenanceRecord(c.Request.Context(), currentActor(c), c.Param("no"), rec)
	respond(c, http.StatusCreated, gin.H{"record": saved, "result": res}, err)
}

func (s *Server) issueLoan(c *gin.Context) {
	var in core.LoanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	loan, res, err := s.svc.IssueLoan(c.Request.Context(), currentActor(c), c.Param("no"), in)
	respond(c, http.StatusCreated, gin.H{"loan": loan, "result": res}, err)
}

func (s *Server) listLoans(c *gin.Context) {
	loans, err := s.svc.LoanRecords(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"items": loans}, err)
}

func (s *Server) returnLoan(c *gin.Context) {
	conf, ok := bindConfirm(c)
	if !ok {
		return
	}
	loan, res, err := s.svc.ConfirmLoanReturn(c.Request.Context(), currentActor(c), c.Param("id"), conf)
	respond(c, http.StatusOK, gin.H{"loan": loan, "result": res}, err)
}

func (s *Server) listMaterials(c *gin.Context) {
	list, err := s.svc.Materials(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"items": list}, err)
}

func (s *Server) saveMaterial(c *gin.Context) {
	var m domain.Material
	if err := c.ShouldBindJSON(&m); err != nil {
		badRequest(c, err)
		return
	}
	m.Lot = c.Param("lot")
	saved, res, err := s.svc.SaveMaterial(c.Request.Context(), currentActor(c), m)
	respond(c, http.StatusOK, gin.H{"material": saved, "result": res}, err)
}

func (s *Server) deleteMaterial(c *gin.Context) {
	conf, ok := bindConfirm(c)
	if !ok {
		return
	}
	res, err := s.svc.DeleteMaterial(c.Request.Context(), currentActor(c), c.Param("lot"), conf)
	respond(c, http.StatusOK, gin.H{"result": res}, err)
}

func (s *Server) materialNames(c *gin.Context) {
	names, err := s.svc.MaterialNames(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"items": names}, err)
}

func (s *Server) vendors(c *gin.Context) {
	list, err := s.svc.Vendors(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"items": list}, err)
}

func (s *Server) listUsers(c *gin.Context) {
	list, err := s.svc.Users(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"items": list}, err)
}

func (s *Server) createUser(c *gin.Context) {
	var in core.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	u, res, err := s.svc.CreateUser(c.Request.Context(), currentActor(c), in)
	respond(c, http.StatusCreated, gin.H{"user": u, "result": res}, err)
}

func (s *Server) saveUser(c *gin.Context) {
	var in core.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	in.Username = c.Param("username")
	u, res, err := s.svc.SaveUser(c.Request.Context(), currentActor(c), in)
	respond(c, http.StatusOK, gin.H{"user": u, "result": res}, err)
}

func (s *Server) deleteUser(c *gin.Context) {
	conf, ok := bindConfirm(c)
	if !ok {
		return
	}
	res, err := s.svc.DeleteUser(c.Request.Context(), currentActor(c), c.Param("username"), conf)
	respond(c, http.StatusOK, gin.H{"result": res}, err)
}

func (s *Server) addTraining(c *gin.Context) {
	var rec domain.TrainingRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, err)
		return
	}
	saved, res, err := s.svc.AddTrainingRecord(c.Request.Context(), currentActor(c), c.Param("username"), rec)
	respond(c, http.StatusCreated, gin.H{"record": saved, "result": res}, err)
}
