package dto

// DatevExportRequest body for POST /api/exports/datev. AccountMapping and
// ContraAccount are supplied by the caller per export (concern-scoped
// configuration lives outside this engine).
type DatevExportRequest struct {
	InvoiceIDs     []string          `json:"invoice_ids"`
	ContraAccount  string            `json:"contra_account,omitempty"`  // default from config
	AccountMapping map[string]string `json:"account_mapping"`           // taxKey -> ledger account
	DefaultAccount string            `json:"default_account,omitempty"` // fallback for unmapped keys
}

// DatevExportResponse CSV payload plus row count for the UI.
type DatevExportResponse struct {
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
	CSV      string `json:"csv"`
}
