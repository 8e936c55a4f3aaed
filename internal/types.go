package internal

// WorkOrderRow is one projected spreadsheet row. Immutable once read;
// the raw date string is kept so the caller decides how to handle rows
// that fail to parse.
type WorkOrderRow struct {
	RowNumber int
	FirstName string
	LastName  string
	Mobile    string
	JobName   string
	DateRaw   string
	Address   string
	City      string
	Postcode  string
	Shutter   bool
	LockType  string
}

// Contact mirrors the fields of a simPRO customer contact that matching
// and job creation need.
type Contact struct {
	ID         int    `json:"ID"`
	GivenName  string `json:"GivenName"`
	FamilyName string `json:"FamilyName"`
	CellPhone  string `json:"CellPhone,omitempty"`
}

// ChargeRecord is one billed line of the run summary.
type ChargeRecord struct {
	Contact     string
	JobName     string
	Date        string
	Description string
	Total       float64
}

type SheetRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Filename   string
	Hash       string
	Status     string
	Path       string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
