// Package address decomposes free-text postal addresses into structured
// components. The raw input is always preserved verbatim on the result, so
// a failed or partial parse never loses information.
package address

import (
	"regexp"
	"strings"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// Canonical short forms for street types. Keys cover the full word and the
// abbreviation variants seen in portal data; values are what we emit.
var streetTypes = map[string]string{
	"street": "St", "st": "St", "str": "St",
	"avenue": "Ave", "ave": "Ave", "av": "Ave",
	"road": "Rd", "rd": "Rd",
	"drive": "Dr", "dr": "Dr",
	"lane": "Ln", "ln": "Ln",
	"court": "Ct", "ct": "Ct",
	"circle": "Cir", "cir": "Cir",
	"boulevard": "Blvd", "blvd": "Blvd",
	"way":   "Way",
	"place": "Pl", "pl": "Pl",
	"trail": "Trl", "trl": "Trl", "tr": "Trl",
	"parkway": "Pkwy", "pkwy": "Pkwy",
	"highway": "Hwy", "hwy": "Hwy",
	"terrace": "Ter", "ter": "Ter",
	"path":   "Path",
	"loop":   "Loop",
	"square": "Sq", "sq": "Sq",
	"crossing": "Xing", "xing": "Xing",
}

var directions = map[string]string{
	"n": "N", "s": "S", "e": "E", "w": "W",
	"ne": "NE", "nw": "NW", "se": "SE", "sw": "SW",
	"north": "N", "south": "S", "east": "E", "west": "W",
}

var unitMarkers = map[string]struct{}{
	"ste": {}, "suite": {}, "apt": {}, "apartment": {}, "unit": {}, "#": {},
	"fl": {}, "floor": {}, "rm": {}, "room": {}, "bldg": {}, "building": {},
}

var (
	streetNumberRe = regexp.MustCompile(`^(\d+[-\d]*)\s+(.+)$`)
	cityStateZipRe = regexp.MustCompile(`(?i)^(.+?),\s*([A-Za-z]{2})\s+([\d][\d\-–]*)$`)
	cityStateRe    = regexp.MustCompile(`(?i)^(.+?),\s*([A-Za-z]{2})$`)
	unitLineRe     = regexp.MustCompile(`(?i)^(STE|SUITE|APT|APARTMENT|UNIT|#|FL|FLOOR|RM|ROOM|BLDG|BUILDING)\s*\.?\s*\S*`)
	poBoxRe        = regexp.MustCompile(`(?i)^(p\.?\s*o\.?\s*box|post\s+office\s+box)\b`)
)

// Parse decomposes a raw address into components. Structured fields are
// left empty whenever they cannot be extracted with confidence; Raw always
// carries the input unchanged.
func Parse(raw string) registry.AddressComponents {
	result := registry.AddressComponents{Raw: raw}
	lines := splitLines(raw)
	if len(lines) == 0 {
		return result
	}

	// PO Box and similar non-street forms stay unstructured.
	if poBoxRe.MatchString(lines[0]) {
		return result
	}

	streetLine, unitLine, cityLine := classifyLines(lines)

	if streetLine != "" {
		parseStreet(streetLine, &result)
	}
	if unitLine != "" && result.Unit == "" {
		result.Unit = unitLine
	}
	if cityLine != "" {
		parseCityStateZip(cityLine, &result)
	}
	return result
}

// splitLines trims and collapses whitespace, drops empty lines and the
// country line, and re-splits comma-separated single-line addresses into a
// street line plus a city/state/zip line.
func splitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		switch strings.ToUpper(line) {
		case "USA", "US", "UNITED STATES":
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 1 && strings.Contains(lines[0], ",") {
		parts := strings.SplitN(lines[0], ",", 2)
		if len(parts) == 2 {
			lines = []string{
				strings.TrimSpace(parts[0]),
				strings.TrimSpace(parts[1]),
			}
		}
	}
	return lines
}

func classifyLines(lines []string) (streetLine, unitLine, cityLine string) {
	for _, line := range lines {
		switch {
		case cityStateZipRe.MatchString(line) || cityStateRe.MatchString(line):
			cityLine = line
		case unitLineRe.MatchString(line):
			unitLine = line
		case streetLine == "":
			streetLine = line
		}
	}
	return streetLine, unitLine, cityLine
}

func parseStreet(line string, result *registry.AddressComponents) {
	remainder := line
	if m := streetNumberRe.FindStringSubmatch(line); m != nil {
		result.StreetNumber = m[1]
		remainder = m[2]
	}

	words := strings.Fields(remainder)

	// A trailing unit marker ("Suite 4", "# 210") is consumed first so it
	// never shadows the street type scan.
	for i := 1; i < len(words); i++ {
		if _, ok := unitMarkers[normalizeToken(words[i])]; ok {
			result.Unit = strings.Join(words[i:], " ")
			words = words[:i]
			break
		}
	}

	if len(words) > 0 {
		if dir, ok := directions[normalizeToken(words[len(words)-1])]; ok {
			result.StreetDirection = dir
			words = words[:len(words)-1]
		}
	}
	if len(words) > 0 {
		if st, ok := streetTypes[normalizeToken(words[len(words)-1])]; ok {
			result.StreetType = st
			words = words[:len(words)-1]
		}
	}
	if len(words) > 0 {
		result.StreetName = strings.Join(words, " ")
	}
}

func parseCityStateZip(line string, result *registry.AddressComponents) {
	if m := cityStateZipRe.FindStringSubmatch(line); m != nil {
		result.City = strings.TrimSpace(m[1])
		result.State = strings.ToUpper(m[2])
		// En-dashes show up in ZIP+4 values pasted from the portal.
		result.Zip = strings.ReplaceAll(m[3], "–", "-")
		return
	}
	if m := cityStateRe.FindStringSubmatch(line); m != nil {
		result.City = strings.TrimSpace(m[1])
		result.State = strings.ToUpper(m[2])
	}
	// Anything else is left unstructured rather than guessed.
}

func normalizeToken(tok string) string {
	return strings.ToLower(strings.TrimSuffix(tok, "."))
}
