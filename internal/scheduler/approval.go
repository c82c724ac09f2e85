package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ApprovalStatus is the review state of a meeting.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// ErrMissingApprover is returned when an approval names no approver.
var ErrMissingApprover = errors.New("scheduler: approver is required")

// Approval captures a meeting's review state. IsApproved, ApprovedBy and
// ApprovedAt are the persisted legacy fields; Status disambiguates a
// rejected meeting from one nobody has reviewed yet.
type Approval struct {
	Status     ApprovalStatus
	IsApproved bool
	ApprovedBy *string
	ApprovedAt *time.Time
}

// PendingApproval is the state every new meeting starts in.
func PendingApproval() Approval {
	return Approval{Status: ApprovalPending}
}

// Approve marks the meeting approved by approverID at now. Approving an
// already approved meeting keeps the original approver and time and reports
// changed=false.
func (a Approval) Approve(approverID string, now time.Time) (next Approval, changed bool, err error) {
	if approverID == "" {
		return a, false, ErrMissingApprover
	}
	if a.Status == ApprovalApproved {
		return a, false, nil
	}
	approvedAt := now.UTC()
	return Approval{
		Status:     ApprovalApproved,
		IsApproved: true,
		ApprovedBy: &approverID,
		ApprovedAt: &approvedAt,
	}, true, nil
}

// Reject clears any approval. The legacy fields end up identical to a
// pending meeting; only Status records the rejection.
func (a Approval) Reject() (next Approval, changed bool) {
	if a.Status == ApprovalRejected {
		return a, false
	}
	return Approval{Status: ApprovalRejected}, true
}

// ResponseStatus is an invitee's answer to a meeting invitation. The ordinal
// values are persisted.
type ResponseStatus int

const (
	ResponsePending ResponseStatus = iota
	ResponseApproved
	ResponseRejected
)

// ErrInvalidResponse is returned for responses an invitee cannot give.
var ErrInvalidResponse = errors.New("scheduler: invalid invitation response")

// String returns the wire name of the status.
func (s ResponseStatus) String() string {
	switch s {
	case ResponsePending:
		return "pending"
	case ResponseApproved:
		return "approved"
	case ResponseRejected:
		return "rejected"
	default:
		return fmt.Sprintf("ResponseStatus(%d)", int(s))
	}
}

// ParseResponseStatus converts a wire name into a ResponseStatus.
func ParseResponseStatus(value string) (ResponseStatus, error) {
	switch value {
	case "pending":
		return ResponsePending, nil
	case "approved":
		return ResponseApproved, nil
	case "rejected":
		return ResponseRejected, nil
	}
	return ResponsePending, fmt.Errorf("%w: %q", ErrInvalidResponse, value)
}

// Valid reports whether s is a known response status.
func (s ResponseStatus) Valid() bool {
	return s >= ResponsePending && s <= ResponseRejected
}

// Invitation is an invitee's response state for one meeting.
type Invitation struct {
	Status       ResponseStatus
	ResponseDate *time.Time
}

// Respond records the invitee's answer at now. Only approved or rejected are
// accepted; answering with the current status is a no-op.
func (i Invitation) Respond(status ResponseStatus, now time.Time) (next Invitation, changed bool, err error) {
	if status != ResponseApproved && status != ResponseRejected {
		return i, false, fmt.Errorf("%w: %s", ErrInvalidResponse, status)
	}
	if i.Status == status {
		return i, false, nil
	}
	respondedAt := now.UTC()
	return Invitation{Status: status, ResponseDate: &respondedAt}, true, nil
}
