package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKinds(t *testing.T) {
	cases := map[string]Kind{
		"si quhesh?":                 KindIdentity,
		"what's your name":           KindIdentity,
		"me trego nje barcalete":     KindJoke,
		"sa eshte ora":               KindTime,
		"sa është ora në londër":     KindTime,
		"what time is it":            KindTime,
		"28*17":                      KindMath,
		"sa bejne 28*17":             KindMath,
		"how much is 2 + 2":          KindMath,
		"moti ne london":             KindWeather,
		"si eshte temperatura sot":   KindWeather,
		"will it rain tomorrow":      KindWeather,
		"trafiku nga tirana ne durres": KindTraffic,
		"how is traffic from tirana to durres": KindTraffic,
		"kush e fitoi boten 2022":    KindGeneral,
		"tell me about go":           KindGeneral,
		"":                           KindGeneral,
	}
	for in, want := range cases {
		got := Classify(in)
		assert.Equal(t, want, got.Kind, "input %q", in)
	}
}

func TestPrecedenceFirstMatchWins(t *testing.T) {
	// Math and time are exact local intents; they outrank weather.
	r := Classify("me kete mot sa bejne 2+2")
	assert.Equal(t, KindMath, r.Kind)

	r = Classify("sa eshte ora, a ka shi")
	assert.Equal(t, KindTime, r.Kind)
}

func TestDateQuery(t *testing.T) {
	r := Classify("cfare date eshte sot")
	assert.Equal(t, KindTime, r.Kind)
	assert.True(t, r.WantDate)

	r = Classify("sa eshte ora")
	assert.False(t, r.WantDate)
}

func TestSlotExtraction(t *testing.T) {
	r := Classify("sa eshte ora ne londer?")
	assert.Equal(t, KindTime, r.Kind)
	assert.Equal(t, "londer", r.City)

	r = Classify("moti ne new york")
	assert.Equal(t, KindWeather, r.Kind)
	assert.Equal(t, "new york", r.City)

	r = Classify("moti")
	assert.Equal(t, KindWeather, r.Kind)
	assert.Empty(t, r.City)

	r = Classify("trafiku nga tirana ne durres")
	assert.Equal(t, KindTraffic, r.Kind)
	assert.Equal(t, "tirana", r.From)
	assert.Equal(t, "durres", r.To)

	// Missing route phrase: still traffic, handler asks for the route.
	r = Classify("si eshte trafiku")
	assert.Equal(t, KindTraffic, r.Kind)
	assert.Empty(t, r.From)
	assert.Empty(t, r.To)
}
