// Package e2e runs whole conversations against a multi-document corpus served over HTTP.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/pdfassist/test/fixtures"
)

// Manual is one PDF of the corpus. Each manual carries a signature phrase that no other
// manual uses, so a question built from it has exactly one correct source.
type Manual struct {
	Name      string
	Signature string
	Pages     []string
}

// QuestionCase is a question and the signature its answer must be grounded on.
type QuestionCase struct {
	Question  string
	Signature string
}

// Corpus is a set of manuals and the questions asked about them.
type Corpus struct {
	Manuals   []Manual
	Questions []QuestionCase
}

var topics = []struct {
	name      string
	signature string
	body      string
}{
	{"dishwasher", "rinse aid dispenser", "Fill the rinse aid dispenser until the indicator turns dark. The rinse aid dispenser holds enough for forty cycles."},
	{"thermostat", "geothermal heat pump", "Select the geothermal heat pump mode in the installer menu. A geothermal heat pump needs the auxiliary stage disabled."},
	{"bicycle", "hydraulic disc brake", "Bleed the hydraulic disc brake once a year. A spongy hydraulic disc brake lever means air entered the line."},
	{"router", "mesh satellite pairing", "Press the sync button to start mesh satellite pairing. Mesh satellite pairing completes when the ring glows blue."},
	{"espresso", "portafilter gasket", "Replace the portafilter gasket when water leaks around the group head. A worn portafilter gasket hardens and cracks."},
	{"printer", "duplex tray jam", "Open the rear cover to clear a duplex tray jam. A duplex tray jam usually follows damp paper."},
	{"camera", "sensor cleaning swab", "Use a dry sensor cleaning swab in one direction only. Never reuse a sensor cleaning swab."},
	{"lawnmower", "mulching blade sharpening", "Mulching blade sharpening keeps the cut clean. Do mulching blade sharpening every twenty five hours."},
	{"aquarium", "canister filter priming", "Canister filter priming removes trapped air. Repeat canister filter priming after every cleaning."},
	{"piano", "sustain pedal calibration", "Hold both buttons for sustain pedal calibration. Sustain pedal calibration stores the half pedal point."},
	{"furnace", "flame sensor rod", "Polish the flame sensor rod with fine steel wool. A dirty flame sensor rod shuts the burner off."},
	{"kayak", "rudder cable tension", "Check rudder cable tension before each trip. Loose rudder cable tension makes steering sluggish."},
}

// BuildCorpus returns manuals of two pages each and one question per manual.
func BuildCorpus() *Corpus {
	c := &Corpus{}
	for i, t := range topics {
		c.Manuals = append(c.Manuals, Manual{
			Name:      fmt.Sprintf("%02d-%s.pdf", i, t.name),
			Signature: t.signature,
			Pages: []string{
				fmt.Sprintf("%s manual. ", strings.ToUpper(t.name[:1])+t.name[1:]),
				t.body + " ",
			},
		})
		c.Questions = append(c.Questions, QuestionCase{
			Question:  fmt.Sprintf("How do I handle the %s?", t.signature),
			Signature: t.signature,
		})
	}
	return c
}

// PDF renders m as a PDF document.
func (m Manual) PDF() []byte {
	return fixtures.MinimalPDF(m.Pages...)
}
