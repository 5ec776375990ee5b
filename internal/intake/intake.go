// Package intake accumulates and validates registration drafts, the first
// stage of the funnel. Validation here is the local, pre-payment kind: field
// presence and format only, no remote calls.
package intake

import (
	"context"
	"strings"
	"time"

	pipelineerrors "apcc-pipeline/internal/common/errors"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/models"
	"apcc-pipeline/internal/store"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	aadhaarDigits = 12
	mobileDigits  = 10
)

type Service struct {
	session *store.Session
	logger  logger.Logger
}

func NewService(session *store.Session, log logger.Logger) *Service {
	return &Service{
		session: session,
		logger:  log.WithFields(map[string]interface{}{"component": "intake"}),
	}
}

// SubmitCandidate normalizes and validates a candidate draft, then writes
// the draft and the context discriminator into the session store together.
// On success the caller hands control to the payment orchestrator.
func (s *Service) SubmitCandidate(ctx context.Context, app *models.CandidateApplication) error {
	normalizeCandidate(app)

	if err := validateCandidate(app); err != nil {
		return pipelineerrors.NewDraftValidationFailedError(err.Error())
	}
	if err := validateDraftSchema(app, candidateDraftSchema); err != nil {
		return pipelineerrors.NewDraftValidationFailedError(err.Error())
	}

	if err := s.session.SaveCandidateDraft(ctx, app); err != nil {
		return err
	}

	s.logger.Info("candidate draft submitted", map[string]interface{}{
		"mobile":    app.Mobile,
		"agentCode": app.AgentCode,
	})
	return nil
}

func normalizeCandidate(app *models.CandidateApplication) {
	app.FirstName = strings.TrimSpace(app.FirstName)
	app.MiddleName = strings.TrimSpace(app.MiddleName)
	app.LastName = strings.TrimSpace(app.LastName)
	app.Email = strings.TrimSpace(app.Email)
	app.Address = strings.TrimSpace(app.Address)
	app.PreferredLocation = strings.TrimSpace(app.PreferredLocation)
	app.Signature = strings.TrimSpace(app.Signature)

	app.Aadhaar = digitsOnly(app.Aadhaar, aadhaarDigits)
	app.Mobile = digitsOnly(app.Mobile, mobileDigits)

	// Agent referral codes are entered free-form; match them
	// case-insensitively against generated codes.
	app.AgentCode = strings.ToLower(strings.TrimSpace(app.AgentCode))

	app.Education = fixedEducationRows(app.Education)

	if !app.HasPreviousExperience {
		app.PreviousExperience = nil
	}

	if app.Date == "" {
		app.Date = time.Now().Format("02/01/2006")
	}
}

// digitsOnly strips non-digits and truncates to max characters, mirroring
// the reference form's input filtering for Aadhaar and mobile fields.
func digitsOnly(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == max {
			break
		}
	}
	return b.String()
}

// fixedEducationRows returns the six fixed qualification rows in order,
// keeping whatever the applicant filled in for rows that match.
func fixedEducationRows(rows []models.EducationRow) []models.EducationRow {
	byQualification := make(map[string]models.EducationRow, len(rows))
	for _, r := range rows {
		byQualification[r.Qualification] = r
	}

	out := make([]models.EducationRow, 0, len(models.FixedQualifications))
	for _, q := range models.FixedQualifications {
		row := byQualification[q]
		row.Qualification = q
		out = append(out, row)
	}
	return out
}

func validateCandidate(app *models.CandidateApplication) error {
	return validation.ValidateStruct(app,
		validation.Field(&app.FirstName, validation.Required),
		validation.Field(&app.LastName, validation.Required),
		validation.Field(&app.DOB, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&app.Mobile, validation.Required, validation.Length(mobileDigits, mobileDigits)),
		validation.Field(&app.Email, validation.Required, is.Email),
		validation.Field(&app.Aadhaar, validation.Required, validation.Length(aadhaarDigits, aadhaarDigits)),
		validation.Field(&app.Address, validation.Required),
		validation.Field(&app.Gender, validation.Required, validation.In(
			models.GenderMale, models.GenderFemale, models.GenderOther)),
		validation.Field(&app.PreferredSector, validation.Required),
		validation.Field(&app.PreferredJobType, validation.Required, validation.In(
			models.JobTypeFullTime, models.JobTypePartTime,
			models.JobTypeInternship, models.JobTypeWorkFromHome)),
		validation.Field(&app.CareerGoal, validation.Required),
		validation.Field(&app.Skills, validation.Required),
		validation.Field(&app.EnglishProficiency, validation.Required, validation.In(
			models.EnglishYes, models.EnglishNo, models.EnglishBasic)),
		validation.Field(&app.ExpectedSalary, validation.Required, validation.Min(int64(1))),
		validation.Field(&app.PreferredLocation, validation.Required),
		validation.Field(&app.Signature, validation.Required),
	)
}
