package llm

import (
	"fmt"
	"strings"
)

// PromptFacts are the resolved facts embedded in the system turn; they
// are refreshed on every exchange.
type PromptFacts struct {
	TimeLine    string // "Ora tani: 15:05, e marte, 1 shtator 2026"
	WeatherLine string // "Moti: Tirana, vranet, 14°C"; empty when unavailable
	UserName    string
	Family      string
	City        string
	Style       string // short | normal | long
}

// BuildSystemPrompt is the single place encoding the Luna persona, the
// tone rules, and the anti-hallucination contract.
func BuildSystemPrompt(f PromptFacts) string {
	var b strings.Builder
	b.WriteString("Ti je Luna, nje asistente zanore qe flet shqip.\n")
	b.WriteString("Rregulla:\n")
	b.WriteString("- Pergjigju gjithmone vetem ne shqip.\n")
	switch f.Style {
	case "long":
		b.WriteString("- Pergjigju me shtjellim, por pa dale nga tema.\n")
	case "short":
		b.WriteString("- Pergjigju me nje fjali te vetme.\n")
	default:
		b.WriteString("- Mbaji pergjigjet te shkurtra, 1 deri ne 3 fjali.\n")
	}
	b.WriteString("- Mos shpik kurre oren, daten, motin apo trafikun; perdor vetem faktet e dhena ketu.\n")
	b.WriteString("- Mos permend burimet apo kerkimet ne internet; pergjigju drejtperdrejt.\n")
	b.WriteString("- Kur te mungon nje e dhene e domosdoshme, bej vetem nje pyetje sqaruese.\n")
	b.WriteString("Fakte aktuale:\n")
	b.WriteString(f.TimeLine)
	b.WriteString("\n")
	if f.WeatherLine != "" {
		b.WriteString(f.WeatherLine)
		b.WriteString("\n")
	}
	if f.UserName != "" {
		fmt.Fprintf(&b, "Perdoruesi quhet %s.\n", f.UserName)
	}
	if f.Family != "" {
		fmt.Fprintf(&b, "Familja e perdoruesit: %s.\n", f.Family)
	}
	if f.City != "" {
		fmt.Fprintf(&b, "Qyteti i perdoruesit: %s.\n", f.City)
	}
	return strings.TrimRight(b.String(), "\n")
}
