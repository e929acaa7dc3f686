package models

// Booking is one confirmed table reservation inside a slot.
type Booking struct {
	ID         int64  `json:"id" bson:"id"`
	Date       string `json:"date" bson:"date"`
	Period     string `json:"period" bson:"period"`
	HolderName string `json:"holderName" bson:"holderName"`
	Household  string `json:"household" bson:"household"`
	Phone      string `json:"phone" bson:"phone"`
	PartySize  int    `json:"partySize" bson:"partySize"`
	Code       string `json:"code" bson:"code"`
	CreatedAt  int64  `json:"createdAt" bson:"createdAt"`
}

// WaitlistEntry is a household queued for a slot that was full at signup time.
type WaitlistEntry struct {
	Date         string `json:"date" bson:"date"`
	Period       string `json:"period" bson:"period"`
	HolderName   string `json:"holderName" bson:"holderName"`
	Household    string `json:"household" bson:"household"`
	Phone        string `json:"phone" bson:"phone"`
	PartySize    int    `json:"partySize" bson:"partySize"`
	RegisteredAt int64  `json:"registeredAt" bson:"registeredAt"`
}

// SelectionItem is a staged, not-yet-committed booking candidate.
type SelectionItem struct {
	Date       string `json:"date"`
	Period     string `json:"period"`
	HolderName string `json:"holderName"`
	Household  string `json:"household"`
	Phone      string `json:"phone"`
	PartySize  int    `json:"partySize"`
}

// Profile caches a resident's contact details for form prefill.
// It is convenience data only, never authoritative.
type Profile struct {
	HolderName string `json:"holderName"`
	Phone      string `json:"phone"`
	Household  string `json:"household"`
}

// Stats aggregates the whole ledger for the admin dashboard.
type Stats struct {
	TotalBookings int `json:"totalBookings"`
	TotalPeople   int `json:"totalPeople"`
	Midday        int `json:"midday"`
	Evening       int `json:"evening"`
}

// SlotInfo is the availability view of one slot for calendar consumers.
type SlotInfo struct {
	Date      string  `json:"date"`
	Period    string  `json:"period"`
	Occupied  int     `json:"occupied"`
	Available int     `json:"available"`
	Percent   float64 `json:"percent"`
	Status    string  `json:"status"`
}

// Connectivity reports the sync adapter's link state.
type Connectivity struct {
	Online         bool `json:"online"`
	StoreConnected bool `json:"storeConnected"`
}
