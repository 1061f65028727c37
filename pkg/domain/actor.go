package domain

import (
	"context"
	"slices"
)

// Qualification tags checked by authorization.
const (
	QualManagementRep   = "管理代表"
	QualInstrumentMgr   = "儀器管理員"
	QualSampleMgr       = "樣本管理員"
	QualTechnicalLead   = "技術主管"
	QualQualityLead     = "品質主管"
	QualTechnician      = "技術員"
	QualReportSignatory = "報告簽署人"
	QualInternalAuditor = "內部稽核員"
)

// QualificationPresets is the catalog offered when editing a user. Tags are
// free-form; this list is informational.
var QualificationPresets = []string{
	QualManagementRep,
	QualTechnicalLead,
	QualQualityLead,
	QualInstrumentMgr,
	QualSampleMgr,
	QualTechnician,
	QualReportSignatory,
	QualInternalAuditor,
}

// AdminUsername is the account that can never be deleted.
const AdminUsername = "admin"

// Actor is the identified operator on whose behalf an operation runs.
type Actor struct {
	Username       string   `json:"username"`
	Name           string   `json:"name"`
	Qualifications []string `json:"qualifications"`
}

// ActorFromUser builds an Actor from a stored user record.
func ActorFromUser(u User) Actor {
	return Actor{
		Username:       u.Username,
		Name:           u.Name,
		Qualifications: slices.Clone(u.Qualifications),
	}
}

// Identified reports whether the actor refers to a logged-in user.
func (a Actor) Identified() bool { return a.Username != "" }

// HasAny reports whether the actor holds at least one of the tags, by exact match.
func (a Actor) HasAny(tags ...string) bool {
	for _, tag := range tags {
		if slices.Contains(a.Qualifications, tag) {
			return true
		}
	}
	return false
}

// Confirmer stands in for the operator's blocking confirmation dialogs.
type Confirmer interface {
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, message string) bool
	// Prompt asks for free text. ok is false when the dialog was cancelled.
	Prompt(ctx context.Context, message string) (answer string, ok bool)
}

type fixedConfirmer struct {
	confirm bool
	answer  string
	ok      bool
}

func (f fixedConfirmer) Confirm(context.Context, string) bool { return f.confirm }

func (f fixedConfirmer) Prompt(context.Context, string) (string, bool) { return f.answer, f.ok }

// Confirmed accepts every confirmation. Prompts are cancelled.
func Confirmed() Confirmer { return fixedConfirmer{confirm: true} }

// Declined rejects every confirmation and cancels every prompt.
func Declined() Confirmer { return fixedConfirmer{} }

// Answer accepts confirmations and answers prompts with text.
func Answer(text string) Confirmer { return fixedConfirmer{confirm: true, answer: text, ok: true} }
