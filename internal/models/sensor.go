package models

// SensorReading is one row of the sensor table. Numeric fields are pointers so
// that absent attributes stay distinguishable from zero readings; each route
// applies its own defaults.
type SensorReading struct {
	DeviceID    string  `dynamodbav:"deviceId"`
	Timestamp   string  `dynamodbav:"timestamp"`
	Temperature *Number `dynamodbav:"Temperature,omitempty"`
	Vibration   *Number `dynamodbav:"Vibration,omitempty"`
	PowerUsage  *Number `dynamodbav:"Power_Usage,omitempty"`
	Humidity    *Number `dynamodbav:"Humidity,omitempty"`
	Pressure    *Number `dynamodbav:"Pressure,omitempty"`
	MachineType string  `dynamodbav:"Machine_Type,omitempty"`
}

// SensorDefaults supplies values for attributes missing from a reading.
type SensorDefaults struct {
	Temperature float64
	Vibration   float64
	PowerUsage  float64
	Humidity    float64
	Pressure    float64
	MachineType string
}

// Features is a reading with every attribute resolved.
type Features struct {
	Timestamp   string
	Temperature float64
	Vibration   float64
	PowerUsage  float64
	Humidity    float64
	Pressure    float64
	MachineType string
}

// Resolve fills missing attributes from d.
func (r SensorReading) Resolve(d SensorDefaults) Features {
	f := Features{
		Timestamp:   r.Timestamp,
		Temperature: valueOr(r.Temperature, d.Temperature),
		Vibration:   valueOr(r.Vibration, d.Vibration),
		PowerUsage:  valueOr(r.PowerUsage, d.PowerUsage),
		Humidity:    valueOr(r.Humidity, d.Humidity),
		Pressure:    valueOr(r.Pressure, d.Pressure),
		MachineType: r.MachineType,
	}
	if f.MachineType == "" {
		f.MachineType = d.MachineType
	}
	return f
}

func valueOr(v *Number, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return float64(*v)
}

// Float returns v as a reading attribute; handy for building readings in
// tests and tools.
func Float(v float64) *Number {
	n := Number(v)
	return &n
}

// SensorView is the /sensors response element.
type SensorView struct {
	ID               int     `json:"id"`
	Timestamp        string  `json:"timestamp"`
	Temperature      float64 `json:"temperature"`
	Vibration        float64 `json:"vibration"`
	PowerConsumption float64 `json:"power_consumption"`
	Humidity         float64 `json:"humidity"`
	Pressure         float64 `json:"pressure"`
}
