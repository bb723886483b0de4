package models

// Flash levels understood by the layout template.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}
