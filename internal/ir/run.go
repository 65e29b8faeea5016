package ir

// Run records one execution of an object file. Seq comes from the session's
// logical clock and orders runs deterministically.
type Run struct {
	ID          string `json:"id"`
	ObjectID    string `json:"object_id"`
	ShotCount   int    `json:"shots"`
	Seq         int64  `json:"seq"`
	StrictWidth bool   `json:"strict_width"`
	ToolVersion string `json:"tool_version"`
}

// Shot is one decoded measurement map of a run. Seq is the zero-based shot
// index within the run.
type Shot struct {
	RunID        string         `json:"run_id"`
	Seq          int            `json:"seq"`
	Measurements MeasurementMap `json:"measurements"`
	Result       ResultSet      `json:"result"`
	ResultHash   string         `json:"result_hash"`
}
