package timeclock

// Field aliases written by pre-2.0 mobile clients. Renames apply only when
// the canonical field is absent; the alias itself is dropped on every
// write, so records migrate forward and never back.
var legacyRenames = map[string]string{
	"geoValid":      "clockInGeofenceValid",
	"exitGeoValid":  "clockOutGeofenceValid",
	"noGps":         "gpsMissing",
	"eventId":       "clientEventId",
	"flaggedReview": "needsReview",
}

// Legacy fields with no canonical equivalent; superseded by the structured
// clockIn/clockOut coordinate fields.
var legacyDrops = []string{
	"geo",
	"gps",
	"location",
	"clockInLocation",
	"clockOutLocation",
}

// Optional booleans are stored as a concrete false, never absent, so that
// predicate-qualified writes and the declarative access rules can compare
// them directly.
var optionalBools = []string{
	"clockInGeofenceValid",
	"clockOutGeofenceValid",
	"gpsMissing",
	"approved",
	"needsReview",
	"autoClockOut",
}

// Normalize rewrites a raw record onto the canonical field set. Pure and
// idempotent: normalising an already-canonical record is a no-op copy.
func Normalize(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	for alias, canonical := range legacyRenames {
		v, ok := out[alias]
		if !ok {
			continue
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = v
		}
		delete(out, alias)
	}

	for _, field := range legacyDrops {
		delete(out, field)
	}

	for _, field := range optionalBools {
		if v, ok := out[field]; !ok || v == nil {
			out[field] = false
		}
	}

	tags, ok := out["exceptionTags"]
	if !ok || tags == nil {
		out["exceptionTags"] = []any{}
	}

	return out
}
