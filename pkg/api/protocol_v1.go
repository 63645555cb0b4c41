// pkg/api/protocol_v1.go
package api

// ProtocolV1 is the stable JSON schema for a rendered protocol.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type ProtocolV1 struct {
	Steps    []StepV1    `json:"steps"`
	Reagents []ReagentV1 `json:"reagents,omitempty"`
}

// StepV1 is one numbered step; Text is the step without its number.
type StepV1 struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// ReagentV1 is one row of the main reaction table. Quantities are rendered
// strings ("19 µL", "2x") so symbolic stocks survive the round trip.
type ReagentV1 struct {
	Name      string `json:"name"`
	Volume    string `json:"volume,omitempty"`
	Stock     string `json:"stock,omitempty"`
	Final     string `json:"final,omitempty"`
	Total     string `json:"total,omitempty"`
	MasterMix bool   `json:"master_mix"`
}
