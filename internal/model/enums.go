package model

import (
	"errors"
	"fmt"
)

// ErrInvalidEnum is returned by the Parse functions for values outside the closed set.
var ErrInvalidEnum = errors.New("invalid enum value")

// Gender of a patient.
type Gender string

const (
	GenderMale           Gender = "Male"
	GenderFemale         Gender = "Female"
	GenderNonBinary      Gender = "NonBinary"
	GenderOther          Gender = "Other"
	GenderPreferNotToSay Gender = "PreferNotToSay"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderNonBinary, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

func ParseGender(s string) (Gender, error) {
	return parse(Gender(s), "gender")
}

// UserRole of a staff member.
type UserRole string

const (
	RoleAdministrator UserRole = "Administrator"
	RolePhysician     UserRole = "Physician"
	RoleNurse         UserRole = "Nurse"
	RoleLabTechnician UserRole = "LabTechnician"
	RoleReceptionist  UserRole = "Receptionist"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdministrator, RolePhysician, RoleNurse, RoleLabTechnician, RoleReceptionist:
		return true
	}
	return false
}

func ParseUserRole(s string) (UserRole, error) {
	return parse(UserRole(s), "user role")
}

type AppointmentStatus string

const (
	AppointmentScheduled  AppointmentStatus = "Scheduled"
	AppointmentConfirmed  AppointmentStatus = "Confirmed"
	AppointmentCheckedIn  AppointmentStatus = "CheckedIn"
	AppointmentInProgress AppointmentStatus = "InProgress"
	AppointmentCompleted  AppointmentStatus = "Completed"
	AppointmentCancelled  AppointmentStatus = "Cancelled"
	AppointmentNoShow     AppointmentStatus = "NoShow"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCheckedIn, AppointmentInProgress,
		AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	return parse(AppointmentStatus(s), "appointment status")
}

type LabResultStatus string

const (
	LabResultOrdered    LabResultStatus = "Ordered"
	LabResultInProgress LabResultStatus = "InProgress"
	LabResultCompleted  LabResultStatus = "Completed"
	LabResultCancelled  LabResultStatus = "Cancelled"
	LabResultAbnormal   LabResultStatus = "Abnormal"
)

func (s LabResultStatus) Valid() bool {
	switch s {
	case LabResultOrdered, LabResultInProgress, LabResultCompleted, LabResultCancelled, LabResultAbnormal:
		return true
	}
	return false
}

func ParseLabResultStatus(s string) (LabResultStatus, error) {
	return parse(LabResultStatus(s), "lab result status")
}

type MedicationStatus string

const (
	MedicationActive       MedicationStatus = "Active"
	MedicationDiscontinued MedicationStatus = "Discontinued"
	MedicationCompleted    MedicationStatus = "Completed"
	MedicationOnHold       MedicationStatus = "OnHold"
)

func (s MedicationStatus) Valid() bool {
	switch s {
	case MedicationActive, MedicationDiscontinued, MedicationCompleted, MedicationOnHold:
		return true
	}
	return false
}

func ParseMedicationStatus(s string) (MedicationStatus, error) {
	return parse(MedicationStatus(s), "medication status")
}

// AuditAction is the kind of change an audit entry records.
type AuditAction string

const (
	AuditCreate AuditAction = "Create"
	AuditRead   AuditAction = "Read"
	AuditUpdate AuditAction = "Update"
	AuditDelete AuditAction = "Delete"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditCreate, AuditRead, AuditUpdate, AuditDelete:
		return true
	}
	return false
}

func ParseAuditAction(s string) (AuditAction, error) {
	return parse(AuditAction(s), "audit action")
}

type enum interface {
	~string
	Valid() bool
}

func parse[E enum](v E, name string) (E, error) {
	if !v.Valid() {
		var zero E
		return zero, fmt.Errorf("%w: %s %q", ErrInvalidEnum, name, string(v))
	}
	return v, nil
}
