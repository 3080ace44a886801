package domain

import (
	"fmt"
	"strings"
)

// Status is the publication state of a document.
type Status string

const (
	StatusDataEntered Status = "DataEntered"
	StatusPublished   Status = "Published"
)

// Labels used by the original register UI; accepted on input only.
const (
	labelDataEntered = "Data Girilmiş"
	labelPublished   = "Yayınlanmış"
)

// ParseStatus accepts the canonical names and the Turkish labels.
func ParseStatus(s string) (Status, error) {
	switch strings.TrimSpace(s) {
	case string(StatusDataEntered), labelDataEntered:
		return StatusDataEntered, nil
	case string(StatusPublished), labelPublished:
		return StatusPublished, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
}

func (s Status) Valid() bool {
	return s == StatusDataEntered || s == StatusPublished
}

// ApprovalStatus is the collapsed view of the per-role approval facts.
type ApprovalStatus string

const (
	ApprovalPending       ApprovalStatus = "Pending"
	ApprovalOwnerApproved ApprovalStatus = "OwnerApproved"
	ApprovalClassApproved ApprovalStatus = "ClassApproved"
	ApprovalFlagApproved  ApprovalStatus = "FlagApproved"
	ApprovalFullyApproved ApprovalStatus = "FullyApproved"
)

func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	a := ApprovalStatus(strings.TrimSpace(s))
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown approval status %q", ErrInvalidInput, s)
	}
	return a, nil
}

func (a ApprovalStatus) Valid() bool {
	switch a {
	case ApprovalPending, ApprovalOwnerApproved, ApprovalClassApproved, ApprovalFlagApproved, ApprovalFullyApproved:
		return true
	}
	return false
}

// Role is one of the fixed remark participants.
type Role string

const (
	RoleOwner  Role = "Owner"
	RoleDesign Role = "Design"
	RoleClass  Role = "Class"
	RoleFlag   Role = "Flag"
)

// Roles lists the roles in display order.
var Roles = []Role{RoleOwner, RoleDesign, RoleClass, RoleFlag}

func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}
