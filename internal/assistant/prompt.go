// Package assistant builds the upstream context for the practice's chat
// assistant: the system prompt, topic routing of the patient's question and
// the canned texts the widget shows.
package assistant

import (
	"fmt"
	"strings"

	"github.com/RichardoC/dentalchat/internal/models"
)

const Greeting = "Hi there! I'm Dr. Pedro's virtual assistant, specializing in Yomi robotic dental implants, TMJ treatments, and EM face aesthetic procedures. How can I help you today?"

const specialistKnowledge = `Dr. Greg Pedro is the only dentist in Staten Island and one of the few in New York City to offer Yomi robotic technology for dental implant placement.

Key Procedures:
1. Yomi Robotic Dental Implants:
   - Sub-millimeter precision and accuracy
   - Minimally invasive procedures
   - Faster recovery times and less downtime
   - Reduced number of appointments
   - Same-day surgery possibilities
   - Enhanced predictability of outcomes

2. TMJ Procedures:
   - Comprehensive TMJ disorder diagnosis
   - Non-surgical TMJ treatments
   - Custom oral appliances
   - Therapeutic injections
   - Physical therapy modalities
   - Long-term TMJ management

3. EM Face Aesthetic Procedures:
   - Facial rejuvenation
   - Dermal fillers
   - Neurotoxin treatments
   - Facial contouring
   - Non-surgical facial enhancement
   - Combined dental-aesthetic approaches`

const systemPrompt = `You are Dr. Pedro's dental assistant specializing in Yomi robotic dental implants, TMJ procedures, and EM face aesthetic treatments in Staten Island, NY.

%s

COMMUNICATION STYLE:
- Use a Socratic, thoughtful tone that guides patients to understanding
- Be concise and clear, never verbose
- Focus on accuracy and educational value
- When appropriate, ask thoughtful questions to better understand patient needs
- Highlight Dr. Pedro's unique capabilities, especially being the only Yomi provider in Staten Island
- For appointment requests or complex questions, recommend contacting the office directly at %s

SPECIAL INSTRUCTIONS:
- Always provide accurate information about dental procedures
- When discussing Yomi implants, emphasize the precision and reduced recovery benefits
- For TMJ inquiries, acknowledge the complexity and customized treatment approach
- For EM face questions, highlight the aesthetic and functional benefits
- Never diagnose specific conditions
- If unsure, suggest an in-person consultation rather than speculating`

// SystemPrompt returns the assistant's instructions naming the office phone.
func SystemPrompt(officePhone string) string {
	return fmt.Sprintf(systemPrompt, specialistKnowledge, officePhone)
}

// ConnectionApology is shown when a free-text query fails.
func ConnectionApology(officePhone string) string {
	return fmt.Sprintf("I'm sorry, I'm having trouble connecting right now. Please try again later or contact our office directly at %s.", officePhone)
}

type topic struct {
	keywords []string
	prefix   string
}

// Evaluated in order; the first topic with a matching keyword wins.
var topics = []topic{
	{keywords: []string{"yomi", "robot", "implant"}, prefix: "Regarding Yomi robotic dental implants: "},
	{keywords: []string{"tmj", "jaw", "joint"}, prefix: "About TMJ treatment: "},
	{keywords: []string{"em face", "aesthetic", "cosmetic"}, prefix: "Regarding EM Face aesthetic procedures: "},
}

// RouteQuery prefixes a patient question with its specialty so the model
// answers in context. General questions pass through unchanged.
func RouteQuery(query string) string {
	lower := strings.ToLower(query)
	for _, t := range topics {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				return t.prefix + query
			}
		}
	}
	return query
}

// BuildMessages assembles the upstream context: system prompt, prior
// history in order, then the routed query.
func BuildMessages(officePhone string, history []models.Message, query string) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(history)+2)
	out = append(out, models.ChatMessage{Role: models.RoleSystem, Content: SystemPrompt(officePhone)})
	for _, m := range history {
		if m.Role == models.RoleSystem {
			continue
		}
		out = append(out, models.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return append(out, models.ChatMessage{Role: models.RoleUser, Content: RouteQuery(query)})
}
