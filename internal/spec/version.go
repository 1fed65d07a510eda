package spec

const (
	// Version is the version of the analysis output format. It changes when
	// fields of the JSON/YAML report are renamed or removed.
	Version = "1.0"
)
