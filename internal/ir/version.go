package ir

// Version constants for the snapshot schema and engine.
const (
	// SchemaVersion is the snapshot content schema version.
	SchemaVersion = "1"

	// EngineVersion is the weft engine version.
	EngineVersion = "0.1.0"
)
