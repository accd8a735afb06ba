package intent

import (
	"regexp"
	"strings"

	"luna-voice-backend/internal/mathexpr"
)

type Kind string

const (
	KindIdentity Kind = "identity"
	KindJoke     Kind = "joke"
	KindTime     Kind = "time"
	KindMath     Kind = "math"
	KindWeather  Kind = "weather"
	KindTraffic  Kind = "traffic"
	KindGeneral  Kind = "general"
)

// Result is the classified intent plus any slots extracted from the
// text. Slots are best-effort; handlers decide what a missing slot
// means (default city, clarifying question, ...).
type Result struct {
	Kind Kind
	// City named in a time or weather query ("ora ne londer", "moti ne vlore")
	City string
	// Time query asking for the full date rather than the hour
	WantDate bool
	// Traffic route endpoints ("nga tirana ne durres")
	From, To string
}

type route struct {
	kind  Kind
	match func(q string, r *Result) bool
}

// routes is evaluated in order, first match wins. Exact local intents
// (identity, time, math) come before anything that costs a network
// call, so "sa bejne 2+2 me kete mot" is math, not weather.
var routes = []route{
	{KindIdentity, matchIdentity},
	{KindJoke, matchJoke},
	{KindTime, matchTime},
	{KindMath, matchMath},
	{KindWeather, matchWeather},
	{KindTraffic, matchTraffic},
}

// Classify maps free text to the single highest-precedence intent.
// Pure function of the text; unmatched input is KindGeneral.
func Classify(text string) Result {
	q := normalize(text)
	r := Result{Kind: KindGeneral}
	if q == "" {
		return r
	}
	for _, rt := range routes {
		if rt.match(q, &r) {
			r.Kind = rt.kind
			return r
		}
	}
	return r
}

func normalize(text string) string {
	q := strings.ToLower(strings.TrimSpace(text))
	// Fold the Albanian diacritic so keyword sets stay small.
	q = strings.ReplaceAll(q, "ë", "e")
	return q
}

func matchIdentity(q string, _ *Result) bool {
	return containsAny(q, []string{
		"si quhesh", "kush je ti", "kush je", "emri yt", "cili eshte emri",
		"what's your name", "whats your name", "what is your name", "who are you",
	})
}

func matchJoke(q string, _ *Result) bool {
	return containsAny(q, []string{"barcalet", "nje barsolete", "tell me a joke", "a joke"})
}

func matchTime(q string, r *Result) bool {
	if hasWord(q, "data") || containsAny(q, []string{"cfare date", "what date", "what's the date", "sot jemi"}) {
		r.WantDate = true
		return true
	}
	if !hasWord(q, "ora") && !hasWord(q, "koha") &&
		!containsAny(q, []string{"what time", "time is it", "current time", "sa eshte ora"}) {
		return false
	}
	r.City = extractAfter(q, "ne ", "in ")
	return true
}

var mathPattern = regexp.MustCompile(`[0-9]\s*[-+*/%^]\s*[0-9(]|[-+*/%^]\s*[0-9]+\s*\)`)

func matchMath(q string, _ *Result) bool {
	if mathPattern.MatchString(q) {
		return true
	}
	if containsAny(q, []string{"sa bejne", "sa ben", "how much is", "llogarit"}) {
		_, ok := mathexpr.Extract(q)
		return ok
	}
	return false
}

func matchWeather(q string, r *Result) bool {
	if !containsAny(q, []string{"moti", "mot ", "weather", "temperatura", "temperature", "parashikimi"}) &&
		!hasWord(q, "shi") && !hasWord(q, "rain") {
		return false
	}
	r.City = extractAfter(q, "ne ", "in ")
	return true
}

func matchTraffic(q string, r *Result) bool {
	if !hasWord(q, "trafiku") && !hasWord(q, "trafik") && !hasWord(q, "traffic") {
		return false
	}
	r.From, r.To = extractRoute(q)
	return true
}

// extractRoute pulls "nga X ne Y" / "from X to Y" endpoints. Both
// empty means the handler should ask a clarifying question.
func extractRoute(q string) (from, to string) {
	for _, pair := range [][2]string{{"nga ", " ne "}, {"from ", " to "}} {
		i := strings.Index(q, pair[0])
		if i == -1 {
			continue
		}
		rest := q[i+len(pair[0]):]
		j := strings.Index(rest, pair[1])
		if j == -1 {
			continue
		}
		from = cleanPlace(rest[:j])
		to = cleanPlace(rest[j+len(pair[1]):])
		if from != "" && to != "" {
			return from, to
		}
	}
	return "", ""
}

// extractAfter returns the trailing words after the last occurrence of
// any marker ("ne ", "in "), cleaned of punctuation.
func extractAfter(q string, markers ...string) string {
	for _, m := range markers {
		i := strings.LastIndex(q, m)
		if i == -1 {
			continue
		}
		// Marker must start a word.
		if i > 0 && q[i-1] != ' ' {
			continue
		}
		if c := cleanPlace(q[i+len(m):]); c != "" {
			return c
		}
	}
	return ""
}

func cleanPlace(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "?!.,")
	// Keep at most the first three words; trailing chatter is not a place.
	words := strings.Fields(s)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

func hasWord(q, w string) bool {
	for _, f := range strings.FieldsFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if f == w {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
