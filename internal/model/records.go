package model

// LightStatusWorking is the provider's status value for a functional
// street light. Anything else counts as not working.
const LightStatusWorking = "WORKING"

// IncidentRecord is a single police incident as returned by the incidents
// dataset. Timestamps stay in wire form; the analyzers parse them so a
// malformed record surfaces as an analysis failure, not a fetch failure.
type IncidentRecord struct {
	Category string `json:"category"`
	Date     string `json:"date"`
}

// LightRecord is a single street light as returned by the lights dataset.
type LightRecord struct {
	Status           string `json:"status"`
	InstallationDate string `json:"installation_date"`
	MaintenanceDate  string `json:"maintenance_date"`
}

// CaseRecord is a single 311 service case as returned by the cases dataset.
// ClosedDate is empty for cases that are still open.
type CaseRecord struct {
	Category    string `json:"category"`
	Status      string `json:"status"`
	CreatedDate string `json:"created_date"`
	ClosedDate  string `json:"closed_date"`
}
