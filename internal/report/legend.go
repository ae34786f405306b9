package report

type LegendEntry struct {
	Label       string
	Description string
	// swatch colour, 8 bit RGB
	R, G, B int
}

// Treatment categories printed on every report, in reading order
var Legend = [5]LegendEntry{
	{Label: "Inflamed / red gums", Description: "Scaling and oral hygiene review", R: 128, G: 0, B: 128},
	{Label: "Malaligned", Description: "Orthodontic (braces / aligner) consultation", R: 255, G: 215, B: 0},
	{Label: "Receded gums", Description: "Periodontal evaluation, possible gum surgery", R: 160, G: 82, B: 45},
	{Label: "Stains", Description: "Professional cleaning and polishing", R: 220, G: 20, B: 60},
	{Label: "Attrition / decay", Description: "Restoration or night guard assessment", R: 0, G: 160, B: 160},
}
