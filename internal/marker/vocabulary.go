package marker

import "strings"

// IncidentTypes is the fixed, sorted incident-type vocabulary offered when
// incidents are created or edited interactively.
var IncidentTypes = []string{
	"Leak",
	"Spill",
	"Slip",
	"Trip",
	"Fall",
	"Dog Bite",
	"Property Damage",
	"Food Poisoning",
	"Physical Harassment",
	"Verbal Harassment",
	"Vandalism",
	"Theft",
	"Fire",
	"Flood",
	"Car Crash",
	"Intoxication/Drug Use",
	"Loss of Consciousness",
	"Incident Involving A Minor",
}

// IsIncidentType reports whether s is part of the vocabulary.
func IsIncidentType(s string) bool {
	for _, t := range IncidentTypes {
		if t == s {
			return true
		}
	}
	return false
}

// CoerceCameraLevel maps free text onto the camera level domain. Exact level
// names are kept; affirmative words mean Functioning.
func CoerceCameraLevel(s string) Level {
	s = strings.TrimSpace(s)
	if l := Level(s); ValidLevel(KindCamera, l) {
		return l
	}
	switch strings.ToLower(s) {
	case "yes", "true", "1", "working", "active":
		return LevelFunctioning
	}
	return LevelNotFunctioning
}

// CoerceIncidentLevel maps free text onto the incident level domain.
func CoerceIncidentLevel(s string) Level {
	s = strings.TrimSpace(s)
	if l := Level(s); ValidLevel(KindIncident, l) {
		return l
	}
	switch strings.ToLower(s) {
	case "emergency", "critical", "high":
		return LevelSerious
	case "low", "minor":
		return LevelLight
	}
	return LevelMedium
}

// ParseFlag reports whether s is one of the accepted truthy spellings.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true
	}
	return false
}
