// Package features maps raw sensor attributes onto model inputs.
package features

// Known machine type labels.
const (
	TypeA = "Type_A"
	TypeB = "Type_B"
	TypeC = "Type_C"
)

var machineTypeCodes = map[string]int{
	TypeA: 0,
	TypeB: 1,
	TypeC: 2,
}

// MachineTypeCode converts a machine type label into the integer code the
// model was trained on. Unknown or empty labels map to 0.
func MachineTypeCode(label string) int {
	return machineTypeCodes[label]
}
