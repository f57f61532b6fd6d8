package state

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Location identifiers form a closed set. An update naming any other
// location is ignored by the reducer.
const (
	LocationStation             = "station"
	LocationTicketOffice        = "ticket_office"
	LocationWaitingRoom         = "waiting_room"
	LocationPlatformNine        = "platform_nine"
	LocationSignalBox           = "signal_box"
	LocationLuggageRoom         = "luggage_room"
	LocationStationmasterOffice = "stationmasters_office"
)

var knownLocations = map[string]struct{}{
	LocationStation:             {},
	LocationTicketOffice:        {},
	LocationWaitingRoom:         {},
	LocationPlatformNine:        {},
	LocationSignalBox:           {},
	LocationLuggageRoom:         {},
	LocationStationmasterOffice: {},
}

var titleCaser = cases.Title(language.English)

// Locations returns the closed set of location identifiers.
func Locations() []string {
	return []string{
		LocationStation,
		LocationTicketOffice,
		LocationWaitingRoom,
		LocationPlatformNine,
		LocationSignalBox,
		LocationLuggageRoom,
		LocationStationmasterOffice,
	}
}

// KnownLocation reports whether id is a member of the closed location set.
func KnownLocation(id string) bool {
	_, ok := knownLocations[id]
	return ok
}

// ResolveLocation maps free-form model output ("Signal Box", "the waiting
// room") to a location key. It returns the key and true on a match, or
// "" and false for anything outside the closed set.
func ResolveLocation(input string) (string, bool) {
	key := toSnakeCase(strings.ToLower(strings.TrimSpace(input)))
	key = strings.TrimPrefix(key, "the_")
	if KnownLocation(key) {
		return key, true
	}
	return "", false
}

// LocationDisplayName renders a location key for the UI, e.g.
// "waiting_room" becomes "Waiting Room".
func LocationDisplayName(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

// toSnakeCase converts a string to lower snake_case
func toSnakeCase(s string) string {
	var out strings.Builder
	prevUnderscore := false
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		if r == ' ' || r == '-' || r == '.' || r == '_' {
			if !prevUnderscore && i > 0 {
				out.WriteRune('_')
				prevUnderscore = true
			}
			continue
		}
		out.WriteRune(r)
		prevUnderscore = false
	}
	return strings.TrimSuffix(out.String(), "_")
}
