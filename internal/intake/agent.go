package intake

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	pipelineerrors "apcc-pipeline/internal/common/errors"
	"apcc-pipeline/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// AgentInput is the agent registration form payload. The agent code is not
// part of it; codes are generated here, never user-supplied.
type AgentInput struct {
	FullName string `json:"fullName"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
	Aadhaar  string `json:"aadhaar"`
	Address  string `json:"address"`
}

// SubmitAgent validates an agent registration, generates the permanent
// agent code, and writes the draft plus context discriminator to the store.
func (s *Service) SubmitAgent(ctx context.Context, in *AgentInput) (*models.AgentRegistration, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	in.Mobile = digitsOnly(in.Mobile, mobileDigits)
	in.Aadhaar = digitsOnly(in.Aadhaar, aadhaarDigits)

	if err := validateAgent(in); err != nil {
		return nil, pipelineerrors.NewDraftValidationFailedError(err.Error())
	}

	reg := &models.AgentRegistration{
		FullName:         in.FullName,
		Mobile:           in.Mobile,
		Email:            in.Email,
		Aadhaar:          in.Aadhaar,
		Address:          in.Address,
		AgentCode:        GenerateAgentCode(in.FullName),
		RegistrationDate: time.Now().Format("02/01/2006"),
	}

	if err := s.session.SaveAgentDraft(ctx, reg); err != nil {
		return nil, err
	}

	s.logger.Info("agent draft submitted", map[string]interface{}{
		"agentCode": reg.AgentCode,
	})
	return reg, nil
}

func validateAgent(in *AgentInput) error {
	return validation.ValidateStruct(in,
		validation.Field(&in.FullName, validation.Required),
		validation.Field(&in.Mobile, validation.Required, validation.Length(mobileDigits, mobileDigits)),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Aadhaar, validation.Required, validation.Length(aadhaarDigits, aadhaarDigits)),
		validation.Field(&in.Address, validation.Required),
	)
}

// GenerateAgentCode builds a code like "tejas-pandit1001": the slugged name
// plus a four-digit suffix. Cosmetic readability matters more than global
// uniqueness; the ledger still dedups on the full code.
func GenerateAgentCode(fullName string) string {
	slug := strings.ToLower(strings.TrimSpace(fullName))
	slug = strings.Join(strings.Fields(slug), "-")

	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		b.WriteString("agent")
	}

	return fmt.Sprintf("%s%d", b.String(), 1000+rand.Intn(9000))
}
