package domain

import "time"

// RequestStatus is the status value persisted by the backend.
type RequestStatus string

const (
	StatusPending          RequestStatus = "Pending"
	StatusApproved         RequestStatus = "Approved"
	StatusAwaitingPayment  RequestStatus = "AwaitingPayment"
	StatusRejected         RequestStatus = "Rejected"
	StatusCancelled        RequestStatus = "Cancelled"
	StatusCompleted        RequestStatus = "Completed"
	StatusReceiptConfirmed RequestStatus = "ReceiptConfirmed"
)

type RentalRequest struct {
	ID            int32         `json:"id"`
	ItemID        int32         `json:"item"`
	ItemName      string        `json:"item_name,omitempty"`
	RequesterID   int32         `json:"requester_id"`
	RequesterName string        `json:"requester_name"`
	OwnerID       int32         `json:"owner_id"`
	OwnerName     string        `json:"owner_name"`
	StartDate     Date          `json:"start_date"`
	EndDate       Date          `json:"end_date"`
	Status        RequestStatus `json:"status"`
	TotalPrice    Money         `json:"total_price"`
	DepositAmount Money         `json:"deposit_amount"`
	HandoverCode  string        `json:"handover_code,omitempty"`
	ReturnCode    string        `json:"return_code,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	HandedOverAt  *time.Time    `json:"handed_over_at,omitempty"`
	RatingGiven   *int32        `json:"rating_given,omitempty"`
	RequestedAt   time.Time     `json:"requested_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Phase derives the lifecycle phase from the persisted status and the
// payment/handover bookkeeping. Handover and settlement do not change the
// status column, they refine an Approved request.
func (r *RentalRequest) Phase() Phase {
	switch r.Status {
	case StatusPending:
		return PhasePending
	case StatusApproved:
		if r.HandedOverAt != nil {
			return PhaseHandedOver
		}
		if r.PaidAt != nil {
			return PhasePaid
		}
		return PhaseApproved
	case StatusAwaitingPayment:
		return PhaseAwaitingPayment
	case StatusCompleted:
		return PhaseCompleted
	case StatusReceiptConfirmed:
		return PhaseReceiptConfirmed
	case StatusRejected:
		return PhaseRejected
	case StatusCancelled:
		return PhaseCancelled
	}
	return PhaseUnknown
}

func (r *RentalRequest) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// IsParty reports whether userID is the requester or the owner.
func (r *RentalRequest) IsParty(userID int32) bool {
	return userID == r.RequesterID || userID == r.OwnerID
}

// Counterpart returns the other party of the request.
func (r *RentalRequest) Counterpart(userID int32) int32 {
	if userID == r.RequesterID {
		return r.OwnerID
	}
	return r.RequesterID
}

// RequestPatch is the body of PATCH /requests/{id}/.
type RequestPatch struct {
	Status       *RequestStatus `json:"status,omitempty"`
	HandoverCode string         `json:"handover_code,omitempty"`
	RatingGiven  *int32         `json:"rating_given,omitempty"`
}

// CodeSubmission is the body of the confirm_handover and confirm_return actions.
type CodeSubmission struct {
	Code       string `json:"code"`
	ReturnCode string `json:"return_code,omitempty"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// NewRequest is the body of POST /requests/.
type NewRequest struct {
	ItemID     int32 `json:"item"`
	StartDate  Date  `json:"start_date"`
	EndDate    Date  `json:"end_date"`
	TotalPrice Money `json:"total_price"`
}
