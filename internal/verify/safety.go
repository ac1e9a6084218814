package verify

// SafetyLevel bounds how deeply diagnostic code may dereference a
// possibly-corrupt object graph while assembling a failure report.
// Levels are ordered; a renderer branch must hold at least the level it
// names before touching the corresponding data.
type SafetyLevel uint8

const (
	// SafetyUnknown trusts nothing about the address: only the address
	// value itself and the region table may be consulted.
	SafetyUnknown SafetyLevel = iota
	// SafetyObject permits reading the object header.
	SafetyObject
	// SafetyObjectFwd additionally permits reading the forwardee's
	// header.
	SafetyObjectFwd
	// SafetyAll permits every auxiliary query, including the connection
	// matrix.
	SafetyAll
)

func (l SafetyLevel) String() string {
	switch l {
	case SafetyUnknown:
		return "unknown"
	case SafetyObject:
		return "object"
	case SafetyObjectFwd:
		return "object+fwd"
	case SafetyAll:
		return "all"
	}
	return "invalid"
}

// ParseSafetyLevel maps a level name to its SafetyLevel.
func ParseSafetyLevel(s string) (SafetyLevel, bool) {
	switch s {
	case "unknown":
		return SafetyUnknown, true
	case "object":
		return SafetyObject, true
	case "object+fwd", "fwd":
		return SafetyObjectFwd, true
	case "all":
		return SafetyAll, true
	}
	return SafetyUnknown, false
}
