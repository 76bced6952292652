package models

// PersonType distinguishes people the user may see in full
type PersonType string

const (
	PersonTypeFull       PersonType = "FullPerson"
	PersonTypeRestricted PersonType = "RestrictedPerson"
	PersonTypeUnknown    PersonType = "UnknownPerson"
)

// Person is someone on probation, identified by their CRN
type Person struct {
	CRN         string     `json:"crn"`
	Type        PersonType `json:"type"`
	Name        string     `json:"name,omitempty"`
	DateOfBirth string     `json:"dateOfBirth,omitempty"`
	Sex         string     `json:"sex,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
	Status      string     `json:"status,omitempty"`
	NomsNumber  string     `json:"nomsNumber,omitempty"`
	PrisonName  string     `json:"prisonName,omitempty"`
}

// DisplayName hides the name of restricted people
func (p Person) DisplayName() string {
	switch p.Type {
	case PersonTypeRestricted:
		return "Limited access offender"
	case PersonTypeUnknown:
		return "Unknown person"
	}
	return p.Name
}

// RiskEnvelopeStatus tells whether a risk value could be retrieved
type RiskEnvelopeStatus string

const (
	RiskRetrieved RiskEnvelopeStatus = "retrieved"
	RiskNotFound  RiskEnvelopeStatus = "not_found"
	RiskError     RiskEnvelopeStatus = "error"
)

// RoshRisks is the risk of serious harm summary
type RoshRisks struct {
	Status RiskEnvelopeStatus `json:"status"`
	Value  *RoshLevels        `json:"value,omitempty"`
}

// RoshLevels are the risk of serious harm levels per group
type RoshLevels struct {
	OverallRisk      string `json:"overallRisk"`
	RiskToChildren   string `json:"riskToChildren"`
	RiskToPublic     string `json:"riskToPublic"`
	RiskToKnownAdult string `json:"riskToKnownAdult"`
	RiskToStaff      string `json:"riskToStaff"`
	LastUpdated      string `json:"lastUpdated,omitempty"`
}

// Tier is the case allocation tier, e.g. "A1"
type Tier struct {
	Status RiskEnvelopeStatus `json:"status"`
	Value  *TierLevel         `json:"value,omitempty"`
}

// TierLevel holds the tier value
type TierLevel struct {
	Level string `json:"level"`
}

// Flags are the risk flags recorded against a person
type Flags struct {
	Status RiskEnvelopeStatus `json:"status"`
	Value  []string           `json:"value,omitempty"`
}

// PersonRisks groups the risk information shown alongside a person
type PersonRisks struct {
	CRN       string    `json:"crn"`
	RoshRisks RoshRisks `json:"roshRisks"`
	Tier      Tier      `json:"tier"`
	Flags     Flags     `json:"flags"`
}

// TierLabel returns the tier or "" when it is not known
func (r *PersonRisks) TierLabel() string {
	if r == nil || r.Tier.Value == nil {
		return ""
	}
	return r.Tier.Value.Level
}

// OverallRisk returns the overall RoSH level or "" when it is not known
func (r *PersonRisks) OverallRisk() string {
	if r == nil || r.RoshRisks.Value == nil {
		return ""
	}
	return r.RoshRisks.Value.OverallRisk
}
