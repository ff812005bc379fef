package model

import "fmt"

// DefectKind classifies one field-level schema violation.
type DefectKind string

const (
	DefectMissing    DefectKind = "missing"
	DefectInvalid    DefectKind = "invalid"
	DefectTooLong    DefectKind = "too_long"
	DefectOutOfRange DefectKind = "out_of_range"
	DefectNotMember  DefectKind = "not_a_member"
)

// Defect describes a single schema violation: which field, what went wrong,
// and a human-readable message. Defects are collected per field, never
// short-circuited, so one invalid event reports everything wrong with it.
type Defect struct {
	Field   string     `json:"field"`
	Kind    DefectKind `json:"kind"`
	Message string     `json:"message"`
}

func (d Defect) String() string {
	return fmt.Sprintf("%s: %s (%s)", d.Field, d.Message, d.Kind)
}
