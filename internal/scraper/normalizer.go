package scraper

import "strings"

// 104 encodes required experience as a two-digit code in the listing
// payload. Unknown codes fall through to the board's own "any experience"
// wording.
var experienceLabels = map[string]string{
	"01": "no experience required",
	"02": "under 1 year",
	"03": "1-3 years",
	"04": "3-5 years",
	"05": "5-10 years",
	"06": "over 10 years",
}

const (
	experienceFallback = "not specified"
	educationFallback  = "not provided"
	salaryFallback     = "negotiable"
)

func convertExperience(code string) string {
	if label, ok := experienceLabels[code]; ok {
		return label
	}
	return experienceFallback
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// buildLocation joins the district label and the street address the way
// the board displays them.
func buildLocation(district, address string) string {
	return strings.TrimSpace(district + address)
}

// absoluteURL resolves 104's protocol-relative job links.
func absoluteURL(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return "https:" + link
}
