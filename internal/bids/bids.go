// Package bids holds the BIDS naming vocabulary shared by the classifier
// and the manifest builder: datatype directory names, anatomical suffixes,
// and the sub-/ses- label formatting rules.
package bids

import "strings"

// Datatype directory names used under a subject/session tree.
const (
	DatatypeAnat = "anat"
	DatatypeDwi  = "dwi"
	DatatypeFunc = "func"
)

// Anatomical suffixes, in the order the classifier evaluates them.
const (
	SuffixT1     = "T1w"
	SuffixT2     = "T2w"
	SuffixT2Star = "T2starw"
	SuffixFLAIR  = "FLAIR"
)

const (
	participantPrefix = "sub-"
	sessionPrefix     = "ses-"
)

// Datatypes returns the datatype names in alphabetical order.
func Datatypes() []string {
	return []string{DatatypeAnat, DatatypeDwi, DatatypeFunc}
}

// AnatSuffixes returns the anatomical suffixes in classification order.
// Each suffix excludes everything selected by the suffixes before it.
func AnatSuffixes() []string {
	return []string{SuffixT1, SuffixT2, SuffixT2Star, SuffixFLAIR}
}

// FormatSession prefixes a session code with "ses-". Empty codes stay
// empty so rows without imaging keep a blank session column.
func FormatSession(code string) string {
	if code == "" {
		return ""
	}
	return sessionPrefix + code
}

// SessionCode strips the "ses-" prefix from a formatted session label.
func SessionCode(label string) string {
	return strings.TrimPrefix(label, sessionPrefix)
}

// ParticipantLabel builds a "sub-" label from a study participant ID.
func ParticipantLabel(id string) string {
	return participantPrefix + SanitizeLabel(id)
}

// SanitizeLabel strips everything but letters and digits from a value so
// it is legal inside a BIDS entity label.
func SanitizeLabel(value string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
