package agent

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Script is the conversational knowledge for one deployment: which
// locations exist, what unit sizes cost, and whether the flow collects a
// consent confirmation before taking contact details. The relay logic is
// identical across deployments; only this data varies.
type Script struct {
	Language       string     `yaml:"language"`
	Locations      []string   `yaml:"locations"`
	Tiers          []SizeTier `yaml:"tiers"`
	CollectConsent bool       `yaml:"collect_consent"`
	Greeting       string     `yaml:"greeting"`
}

// SizeTier groups unit sizes under a spoken label (small, medium, large).
type SizeTier struct {
	Name  string      `yaml:"name"`
	Units []UnitPrice `yaml:"units"`
}

// UnitPrice is one unit size with its monthly price.
type UnitPrice struct {
	SquareMeters int    `yaml:"sqm"`
	Price        string `yaml:"price"`
}

// English returns the built-in English script.
func English() Script {
	return Script{
		Language:  "en",
		Locations: []string{"Downtown", "Uptown", "Riverside"},
		Tiers: []SizeTier{
			{Name: "small", Units: []UnitPrice{
				{5, "$50/month"}, {6, "$55/month"}, {7, "$60/month"},
				{8, "$65/month"}, {9, "$70/month"},
			}},
			{Name: "medium", Units: []UnitPrice{
				{10, "$90/month"}, {12, "$100/month"}, {15, "$120/month"},
				{18, "$140/month"}, {19, "$150/month"},
			}},
			{Name: "large", Units: []UnitPrice{
				{20, "$150/month"}, {22, "$170/month"}, {25, "$200/month"},
			}},
		},
		Greeting: "Greet the user and offer your assistance.",
	}
}

// French returns the built-in French script, which adds a consent
// confirmation before contact details are collected.
func French() Script {
	s := English()
	s.Language = "fr"
	s.CollectConsent = true
	return s
}

// Builtin returns the built-in script for a language code.
func Builtin(language string) (Script, error) {
	switch language {
	case "", "en":
		return English(), nil
	case "fr":
		return French(), nil
	default:
		return Script{}, fmt.Errorf("agent: no built-in script for language %q", language)
	}
}

// Load reads a script override from a YAML file. Missing fields fall back
// to the built-in for the script's language.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("agent: read script %s: %w", path, err)
	}

	var override Script
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Script{}, fmt.Errorf("agent: parse script %s: %w", path, err)
	}

	base, err := Builtin(override.Language)
	if err != nil {
		base = English()
		base.Language = override.Language
	}

	if len(override.Locations) > 0 {
		base.Locations = override.Locations
	}
	if len(override.Tiers) > 0 {
		base.Tiers = override.Tiers
	}
	if override.Greeting != "" {
		base.Greeting = override.Greeting
	}
	base.CollectConsent = base.CollectConsent || override.CollectConsent

	return base, nil
}

// Instructions renders the script into system instructions for the voice
// pipeline. The flow it describes (greet, collect, check, confirm, book,
// close) is interpreted by the model, not executed here.
func (s Script) Instructions() string {
	var b strings.Builder

	b.WriteString(`# Role:
You are an AI voice assistant for a self-storage company. Your job is to answer inbound calls, talk naturally with customers, and collect their details.
# Instructions:
Greet the customer warmly and professionally.
Ask how you can assist them with their storage needs.
<Wait for the customer's response>
If the customer wants to book a storage unit, ask for the following details in a friendly, conversational manner:
Desired unit size (small, medium, large)
Preferred location (` + strings.Join(s.Locations, ", ") + `)
<Wait for the customer's response>
Use the 'check_availability' tool to see if there are units that match their requirements.
If units are available, provide the customer with the details (size, location, price) in a clear and friendly manner.
<Wait for the customer's response>
`)

	if s.CollectConsent {
		b.WriteString(`Ask for the customer's consent to store their personal details for the booking. Only continue once they agree; if they decline, offer to connect them to a representative instead.
`)
	}

	b.WriteString(`Collect their contact information (name, phone number, and email) and use the 'book_unit' tool to confirm the booking.
Thank the customer for choosing your service and end the call politely.

# Guidelines:
Maintain a professional yet friendly tone throughout the conversation.
Adapt your language to be natural and easy to understand.
Confirm each piece of information politely before proceeding to the next step.
Be fast-keep responses short and snappy.
Sound human-sprinkle in light vocal pauses like 'Mmh...', 'Let me see...', or 'Alright...' at natural moments-but not too often.
Keep everything upbeat and easy to follow. Never overwhelm the customer, don't ask multiple questions at the same time.

# Constraints:
Do not give out information unrelated to storage.
If unsure, politely say: "I'll connect you to a representative who can assist further."
Avoid long robotic sentences; keep the conversation natural.
`)

	if s.Language != "" && s.Language != "en" {
		fmt.Fprintf(&b, "Conduct the entire conversation in the language with code %q.\n", s.Language)
	}

	b.WriteString(`
# Knowledge:
## locations:
We have locations in ` + strings.Join(s.Locations, ", ") + `.
## unit sizes:
`)

	for _, tier := range s.Tiers {
		fmt.Fprintf(&b, "### %s:\n", tier.Name)
		parts := make([]string, len(tier.Units))
		for i, u := range tier.Units {
			parts[i] = fmt.Sprintf("%dm2 %s", u.SquareMeters, u.Price)
		}
		b.WriteString(strings.Join(parts, ", ") + ".\n")
	}

	return b.String()
}
