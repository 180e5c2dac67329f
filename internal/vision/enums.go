package vision

// InfoCenter is the name of a Vision info center.
type InfoCenter string

// Standard info centers.
const (
	Projects      InfoCenter = "Projects"
	Clients       InfoCenter = "Clients"
	Contacts      InfoCenter = "Contacts"
	Employees     InfoCenter = "Employees"
	EmployeesMC   InfoCenter = "EmployeesMC"
	Opportunities InfoCenter = "Opportunities"
	Leads         InfoCenter = "Leads"
	MktCampaigns  InfoCenter = "MktCampaigns"
	Vendors       InfoCenter = "Vendors"
	TextLibraries InfoCenter = "TextLibraries"
	Activities    InfoCenter = "Activities"
)

// PickList is the name of a configuration pick list.
type PickList string

// Known pick lists.
const (
	CFGActivitySubject      PickList = "CFGActivitySubject"
	CFGActivityType         PickList = "CFGActivityType"
	CFGChargeType           PickList = "CFGChargeType"
	CFGClientCurrentStatus  PickList = "CFGClientCurrentStatus"
	CFGClientRole           PickList = "CFGClientRole"
	CFGClientStatus         PickList = "CFGClientStatus"
	CFGClientType           PickList = "CFGClientType"
	CFGContactRole          PickList = "CFGContactRole"
	CFGContactTitle         PickList = "CFGContactTitle"
	CFGContactType          PickList = "CFGContactType"
	CFGCountry              PickList = "CFGCountry"
	CFGEmployeeRelationship PickList = "CFGEmployeeRelationship"
	CFGEmployeeRole         PickList = "CFGEmployeeRole"
	CFGEmployeeStatus       PickList = "CFGEmployeeStatus"
	CFGOpportunitySource    PickList = "CFGOpportunitySource"
	CFGOpportunityStage     PickList = "CFGOpportunityStage"
	CFGOpportunityStatus    PickList = "CFGOpportunityStatus"
	CFGOpportunityType      PickList = "CFGOpportunityType"
	CFGPhoneFormat          PickList = "CFGPhoneFormat"
	CFGPrimarySpecialty     PickList = "CFGPrimarySpecialty"
	CFGProbability          PickList = "CFGProbability"
	CFGProjectStatus        PickList = "CFGProjectStatus"
	CFGStates               PickList = "CFGStates"
	CFGVendorRole           PickList = "CFGVendorRole"
	CFGVendorStatus         PickList = "CFGVendorStatus"
	CFGVendorType           PickList = "CFGVendorType"
	ContactStatus           PickList = "ContactStatus"
	Organization            PickList = "Organization"
	Payterms                PickList = "Payterms"
	SEUser                  PickList = "SEUser"
	CFGOrgCodes             PickList = "CFGOrgCodes"
)

// RecordDetail selects how much of each record the server returns.
type RecordDetail int

const (
	// DetailEmpty sends no detail level and lets the server decide.
	DetailEmpty RecordDetail = iota
	DetailPrimary
	DetailAllPrimary
	DetailAll
)

// String returns the wire value of d. DetailEmpty is the empty string.
func (d RecordDetail) String() string {
	switch d {
	case DetailPrimary:
		return "Primary"
	case DetailAllPrimary:
		return "AllPrimary"
	case DetailAll:
		return "All"
	default:
		return ""
	}
}

// ParseRecordDetail converts a wire or configuration value into a
// RecordDetail. Unknown values map to DetailEmpty.
func ParseRecordDetail(s string) RecordDetail {
	switch s {
	case "Primary", "primary":
		return DetailPrimary
	case "AllPrimary", "allprimary", "all_primary":
		return DetailAllPrimary
	case "All", "all":
		return DetailAll
	default:
		return DetailEmpty
	}
}
