package model

// CareRecipient is the elderly person care logs are written about. The
// recipient owns their logs; caregivers are only the authors of individual
// mutations. Timezone is the IANA zone used to resolve "today".
type CareRecipient struct {
	Base
	Name     string `json:"name" db:"name"`
	Timezone string `json:"timezone" db:"timezone"`
	Notes    string `json:"notes,omitempty" db:"notes"`
}

type CreateCareRecipientRequest struct {
	Name     string `json:"name" binding:"required"`
	Timezone string `json:"timezone" binding:"required,iana_timezone"`
	Notes    string `json:"notes"`
}
