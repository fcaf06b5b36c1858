// Package ppmi holds the study-specific vocabulary: the column names of
// the imaging and clinical exports, the visit and session code maps, and
// cohort naming. Everything downstream of the raw CSVs goes through the
// typed records defined here.
package ppmi

// Imaging availability export columns.
const (
	ColImagingSubject  = "Subject ID"
	ColImagingVisit    = "Visit"
	ColImagingGroup    = "Research Group"
	ColDescription     = "Description"
	ColModality        = "Modality"
	ColImagingProtocol = "Imaging Protocol"
)

// Clinical study-data export columns.
const (
	ColTabularSubject = "PATNO"
	ColTabularVisit   = "EVENT_ID"
	ColTabularGroup   = "COHORT_DEFINITION"
)

// Modality labels as they appear in the imaging export.
const (
	ModalityDwi  = "DTI"
	ModalityFunc = "fMRI"
	ModalityAnat = "MRI"
)

// ImagingRecord is one row of the imaging availability export.
type ImagingRecord struct {
	Subject     string
	Visit       string
	Group       string
	Description string
	Modality    string
	Protocol    string
}

// TabularRecord is one row of a clinical study-data file, reduced to the
// identifying columns. Group is empty when the file does not carry a
// cohort column.
type TabularRecord struct {
	Subject string
	Visit   string
	Group   string
}

// visitCodes maps imaging visit labels to the event codes the clinical
// files use.
var visitCodes = map[string]string{
	"Baseline":             "BL",
	"Month 6":              "R01",
	"Month 12":             "V04",
	"Month 24":             "V06",
	"Month 36":             "V08",
	"Month 48":             "V10",
	"Screening":            "SC",
	"Premature Withdrawal": "PW",
	"Symptomatic Therapy":  "ST",
	"Unscheduled Visit 01": "U01",
	"Unscheduled Visit 02": "U02",
}

// sessionCodes maps visit event codes to imaging session codes.
var sessionCodes = map[string]string{
	"BL":  "1",
	"V04": "5",
	"V06": "7",
	"V08": "9",
	"V10": "11",
	"SC":  "0",
	"R01": "3",
	"PW":  "30",
	"ST":  "21",
	"U01": "90",
	"U02": "91",
}

// groupNames maps imaging cohort labels to the canonical names the
// clinical files use.
var groupNames = map[string]string{
	"PD":           "Parkinson's Disease",
	"Control":      "Healthy Control",
	"Phantom":      "Phantom",
	"SWEDD":        "SWEDD",
	"GenReg Unaff": "GenReg Unaff",
	"Prodromal":    "Prodromal",
}

// defaultGroupsKeep lists the cohorts retained by default.
var defaultGroupsKeep = []string{
	"Parkinson's Disease",
	"Prodromal",
	"Healthy Control",
	"SWEDD",
	"GenReg Unaff",
}

// VisitCode translates an imaging visit label to its event code.
func VisitCode(label string) (string, bool) {
	code, ok := visitCodes[label]
	return code, ok
}

// SessionCode translates a visit event code to its imaging session code.
func SessionCode(visit string) (string, bool) {
	code, ok := sessionCodes[visit]
	return code, ok
}

// KnownSession reports whether code is one of the mapped session codes.
func KnownSession(code string) bool {
	for _, c := range sessionCodes {
		if c == code {
			return true
		}
	}
	return false
}

// CanonicalSession translates a visit label, visit event code, or session
// code to the session code. Unrecognized values are returned unchanged
// with ok set to false.
func CanonicalSession(value string) (string, bool) {
	if code, ok := visitCodes[value]; ok {
		value = code
	}
	if code, ok := sessionCodes[value]; ok {
		return code, true
	}
	if KnownSession(value) {
		return value, true
	}
	return value, false
}

// GroupName translates an imaging cohort label to its canonical name.
func GroupName(label string) (string, bool) {
	name, ok := groupNames[label]
	return name, ok
}

// DefaultGroupsKeep returns the cohorts retained when the configuration
// does not override the selection.
func DefaultGroupsKeep() []string {
	out := make([]string, len(defaultGroupsKeep))
	copy(out, defaultGroupsKeep)
	return out
}

// Modalities returns the recognized modality labels.
func Modalities() []string {
	return []string{ModalityDwi, ModalityFunc, ModalityAnat}
}

// KnownModality reports whether label is a recognized modality.
func KnownModality(label string) bool {
	switch label {
	case ModalityDwi, ModalityFunc, ModalityAnat:
		return true
	}
	return false
}
