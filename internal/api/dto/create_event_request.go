package dto

// CreateEventRequest is the JSON body reporting one valuation state change.
type CreateEventRequest struct {
	ValuationID     int64             `json:"valuation_id" validate:"required,gt=0"`
	Event           string            `json:"event" validate:"required,oneof=RECEIVED IN_REVIEW OBSERVED APPROVED REJECTED"`
	PriorState      string            `json:"prior_state"`
	NewState        string            `json:"new_state" validate:"required"`
	WorkName        string            `json:"work_name"`
	ValuationNumber string            `json:"valuation_number"`
	ExtraVars       map[string]string `json:"extra_vars"`
	Immediate       bool              `json:"immediate"`
}
