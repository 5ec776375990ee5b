package models

// Context selects which draft variant is active and which fee schedule
// applies. Exactly one draft exists in the session store at a time.
type Context string

const (
	ContextCandidate Context = "candidate"
	ContextAgent     Context = "agent"
)

// Valid reports whether the discriminator is one of the two known contexts.
func (c Context) Valid() bool {
	return c == ContextCandidate || c == ContextAgent
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type JobType string

const (
	JobTypeFullTime     JobType = "Full Time"
	JobTypePartTime     JobType = "Part Time"
	JobTypeInternship   JobType = "Internship"
	JobTypeWorkFromHome JobType = "Work From Home"
)

// EnglishLevel is the tri-state English-proficiency answer.
type EnglishLevel string

const (
	EnglishYes   EnglishLevel = "yes"
	EnglishNo    EnglishLevel = "no"
	EnglishBasic EnglishLevel = "basic"
)

// EducationRow is one of the six fixed qualification rows on the candidate
// form. All cells are optional free text.
type EducationRow struct {
	Qualification string `json:"qualification"`
	PassingYear   string `json:"passingYear"`
	Percentage    string `json:"percentage"`
	Stream        string `json:"stream"`
	CollegeName   string `json:"collegeName"`
}

// FixedQualifications is the ordered qualification list every candidate
// draft carries, one row each.
var FixedQualifications = []string{
	"10th", "12th", "ITI", "Diploma", "Graduation", "Post Graduation",
}

// PreviousExperience is the optional prior-experience sub-record, present
// only when the applicant answered yes.
type PreviousExperience struct {
	Company     string `json:"prevCompany"`
	Designation string `json:"prevDesignation"`
	Duration    string `json:"prevDuration"`
}

// CandidateApplication is the candidate draft variant.
type CandidateApplication struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	DOB        string `json:"dob"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email"`
	Aadhaar    string `json:"aadhaar"`
	Address    string `json:"address"`
	Gender     Gender `json:"gender"`

	Education []EducationRow `json:"education"`

	PreferredSector  []string `json:"preferredSector"`
	OtherSector      string   `json:"otherSector,omitempty"`
	PreferredJobType JobType  `json:"preferredJobType"`

	CareerGoal         string       `json:"careerGoal"`
	Skills             string       `json:"skills"`
	EnglishProficiency EnglishLevel `json:"englishProficiency"`
	ExpectedSalary     int64        `json:"expectedSalary"`
	PreferredLocation  string       `json:"preferredLocation"`

	HasPreviousExperience bool                `json:"hasPreviousExperience"`
	PreviousExperience    *PreviousExperience `json:"previousExperience,omitempty"`

	AdditionalInfo string `json:"additionalInfo,omitempty"`
	AgentCode      string `json:"agentCode,omitempty"`
	Signature      string `json:"signature"`
	Date           string `json:"date"` // dd/mm/yyyy creation stamp
}

// FullName joins the name parts for invoices and ledger rows.
func (a CandidateApplication) FullName() string {
	name := a.FirstName
	if a.MiddleName != "" {
		name += " " + a.MiddleName
	}
	if a.LastName != "" {
		name += " " + a.LastName
	}
	return name
}

// AgentRegistration is the agent draft variant. The agent code is generated
// at submit time and is the dedup key for the agents ledger.
type AgentRegistration struct {
	FullName         string `json:"fullName"`
	Mobile           string `json:"mobile"`
	Email            string `json:"email"`
	Aadhaar          string `json:"aadhaar"`
	Address          string `json:"address"`
	AgentCode        string `json:"agentCode"`
	RegistrationDate string `json:"registrationDate"` // dd/mm/yyyy
}
