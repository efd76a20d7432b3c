package dialogue

import (
	"fmt"
	"strings"

	"github.com/RichardoC/dentalchat/internal/models"
)

// Record is the lead captured from one comma-separated utterance. Contact
// is the phone number or insurance provider depending on the kind. Missing
// segments are left empty.
type Record struct {
	Name    string
	Email   string
	Contact string
}

// ParseRecord splits on commas and trims each segment. Segments past the
// third are ignored. No format validation is done.
func ParseRecord(text string) Record {
	parts := strings.Split(text, ",")
	field := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	return Record{Name: field(0), Email: field(1), Contact: field(2)}
}

// Prompt asks for the kind's fields and names the delimiter.
func Prompt(kind models.LeadKind) string {
	switch kind {
	case models.LeadAppointment:
		return "I'd be happy to help you schedule an appointment. Could you please provide your name, email, and phone number? (separated by commas)"
	case models.LeadInfoRequest:
		return "I'll send you detailed information about our Yomi robotic implant technology. Could you share your name and email address? (separated by a comma)"
	case models.LeadConsultation:
		return "Virtual consultations are a great way to discuss your needs with Dr. Pedro. Please provide your name, email, and phone number for scheduling. (separated by commas)"
	case models.LeadInsuranceCheck:
		return "I can help verify your insurance coverage. Please provide your name, email, and insurance provider. (separated by commas)"
	}
	return ""
}

// Confirmation echoes the collected fields back verbatim.
func Confirmation(kind models.LeadKind, r Record) string {
	switch kind {
	case models.LeadAppointment:
		return fmt.Sprintf("Thank you, %s. Our office will contact you soon at %s%s to finalize your appointment details. Is there anything specific you'd like us to know about your appointment needs?",
			r.Name, r.Email, orContact(r.Contact))
	case models.LeadInfoRequest:
		return fmt.Sprintf("Thanks, %s. We've sent comprehensive information about our Yomi robotic implant technology to %s. Do you have any specific questions about Yomi implants?",
			r.Name, r.Email)
	case models.LeadConsultation:
		return fmt.Sprintf("Thank you, %s. Our team will reach out at %s%s to schedule your virtual consultation. What specific concerns would you like to discuss during your consultation?",
			r.Name, r.Email, orContact(r.Contact))
	case models.LeadInsuranceCheck:
		provider := r.Contact
		if provider == "" {
			provider = "your provider"
		}
		return fmt.Sprintf("Thanks, %s. We'll verify your coverage with %s and send the details to %s. Which specific procedure are you interested in having covered?",
			r.Name, provider, r.Email)
	}
	return ""
}

func orContact(phone string) string {
	if phone == "" {
		return ""
	}
	return " or " + phone
}

// Apology ends a dialogue whose submission failed.
func Apology(officePhone string) string {
	return fmt.Sprintf("I'm sorry, there was an issue processing your information. Please try again or contact our office directly at %s.", officePhone)
}

// Payload shapes the record sent to the lead-intake endpoint. Fields the
// chat does not collect are sent blank for staff to fill in on follow-up.
// Missing segments are omitted.
func Payload(kind models.LeadKind, r Record) map[string]string {
	p := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			p[k] = v
		}
	}
	set("name", r.Name)
	set("email", r.Email)
	if f := kind.ContactField(); f != "" {
		set(f, r.Contact)
	}

	switch kind {
	case models.LeadAppointment:
		p["preferredDate"] = ""
		p["preferredTime"] = ""
		p["procedureType"] = ""
		p["notes"] = ""
	case models.LeadInfoRequest:
		p["topic"] = "yomi"
	case models.LeadConsultation:
		p["consultationType"] = "other"
		p["preferredDate"] = ""
		p["preferredTime"] = ""
		p["notes"] = ""
	case models.LeadInsuranceCheck:
		p["procedureType"] = "other"
	}
	return p
}

// Path is the lead-intake route for a kind.
func Path(kind models.LeadKind) string {
	switch kind {
	case models.LeadAppointment:
		return "/api/appointments"
	case models.LeadInfoRequest:
		return "/api/info-requests"
	case models.LeadConsultation:
		return "/api/consultations"
	case models.LeadInsuranceCheck:
		return "/api/insurance-verification"
	}
	return ""
}
