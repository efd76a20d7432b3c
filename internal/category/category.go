// Package category tags assistant replies by specialty and offers the
// follow-up actions shown under each reply.
package category

import (
	"strings"

	"github.com/RichardoC/dentalchat/internal/models"
)

type Category string

const (
	Yomi    Category = "yomi"
	TMJ     Category = "tmj"
	EMFace  Category = "em-face"
	General Category = "general"
)

// Label is the display name of the category chip.
func (c Category) Label() string {
	switch c {
	case Yomi:
		return "Yomi Implants"
	case TMJ:
		return "TMJ Treatment"
	case EMFace:
		return "EM Face"
	}
	return "General"
}

type rule struct {
	substring string
	category  Category
}

// Priority order matters: a reply mentioning both implants and TMJ is yomi.
var rules = []rule{
	{"yomi", Yomi},
	{"implant", Yomi},
	{"tmj", TMJ},
	{"jaw pain", TMJ},
	{"em face", EMFace},
	{"aesthetic", EMFace},
}

// Classify derives the category of an assistant reply from its text.
func Classify(text string) Category {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(lower, r.substring) {
			return r.category
		}
	}
	return General
}

// Action is a button that starts a guided dialogue.
type Action struct {
	Label   string          `json:"label"`
	Kind    models.LeadKind `json:"kind"`
	Tooltip string          `json:"tooltip"`
}

// Actions returns the buttons offered under a reply of the given category.
func Actions(c Category) []Action {
	actions := []Action{{Label: "Schedule", Kind: models.LeadAppointment, Tooltip: "Schedule an appointment"}}
	switch c {
	case Yomi:
		actions = append(actions, Action{Label: "Yomi Info", Kind: models.LeadInfoRequest, Tooltip: "Get detailed Yomi information"})
	case TMJ, EMFace:
		actions = append(actions, Action{Label: "Consultation", Kind: models.LeadConsultation, Tooltip: "Schedule a virtual consultation"})
	}
	return append(actions, Action{Label: "Insurance", Kind: models.LeadInsuranceCheck, Tooltip: "Verify insurance coverage"})
}
