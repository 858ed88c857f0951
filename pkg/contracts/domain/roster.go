package domain

// GroupMember is one entry of the small-group membership roster.
// Read-only input; roster order is significant for matching.
type GroupMember struct {
	FullName              string `json:"full_name" validate:"required"`
	MobileNumber          string `json:"mobile_number"`
	AlternateMobileNumber string `json:"alternate_mobile_number"`
	Email                 string `json:"email"`
	Age                   int    `json:"age,omitempty"`
	Group                 string `json:"group"`
}

// HistoricalParticipant is one entry of the multi-year historical
// attendance roster. Read-only input.
type HistoricalParticipant struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Years    []int  `json:"years,omitempty"`
	Age      int    `json:"age,omitempty"`
}
