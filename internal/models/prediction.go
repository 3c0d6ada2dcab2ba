package models

// Provenance tags where a prediction's risk came from.
type Provenance string

const (
	ProvenanceModel        Provenance = "model"
	ProvenanceHeuristic    Provenance = "heuristic"
	ProvenanceInterpolated Provenance = "interpolated"
	ProvenanceSimulated    Provenance = "simulated"
)

// Notes shown to the dashboard alongside each prediction.
const (
	NoteInterpolated = "Interpolated prediction"
	NoteSimulated    = "Simulated - No DB/Model"
)

// Prediction is the /predict response element.
type Prediction struct {
	ID        int     `json:"id"`
	MachineID string  `json:"machine_id"`
	Timestamp string  `json:"timestamp"`
	Risk      float64 `json:"risk"`
	*SensorEcho
	Note       string     `json:"note"`
	Provenance Provenance `json:"provenance"`
}

// SensorEcho carries the input features back to the client. Simulated
// predictions leave it nil so the fields are omitted entirely.
type SensorEcho struct {
	Temperature float64 `json:"temperature"`
	Vibration   float64 `json:"vibration"`
	Power       float64 `json:"power"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	MachineType string  `json:"machine_type"`
}

// Asset is a tracked machine on the plant floor map.
type Asset struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
	XPct   int    `json:"x_pct"`
	YPct   int    `json:"y_pct"`
}
