package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterIsEmergency(t *testing.T) {
	f := NewFilter(nil)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"english phrase", "I have chest pain since morning", true},
		{"mixed case", "My father is UNCONSCIOUS", true},
		{"extra whitespace", "heavy    bleeding after a fall", true},
		{"romanized hindi", "mujhe saans lene me dikkat ho rahi hai", true},
		{"hindi", "मुझे सांस लेने में दिक्कत हो रही है", true},
		{"hindi chest pain", "कल से सीने में दर्द है", true},
		{"marathi", "माझ्या छातीत दुखत आहे", true},
		{"bengali", "আমার বুকে ব্যথা করছে", true},
		{"ordinary fever", "I have a fever", false},
		{"headache", "mild headache after work", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsEmergency(tt.text), "text: %q", tt.text)
		})
	}
}

func TestFilterMatchEmergencyReturnsPhrase(t *testing.T) {
	f := NewFilter(&Keywords{Emergency: []string{"Chest Pain"}})
	phrase, ok := f.MatchEmergency("sharp CHEST PAIN")
	assert.True(t, ok)
	assert.Equal(t, "chest pain", phrase)
}

func TestFilterIsExit(t *testing.T) {
	f := NewFilter(nil)

	tests := []struct {
		text string
		want bool
	}{
		{"bye", true},
		{"Bye!", true},
		{"thank you.", true},
		{"  STOP ", true},
		{"धन्यवाद", true},
		{"band karo", true},
		{"no", true},
		{"no fever but cough", false},
		{"thank you, what about my cough?", false},
		{"stop the bleeding how", false},
		{"", false},
		{"...", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, f.IsExit(tt.text), "text: %q", tt.text)
	}
}

func TestNilFilterNeverMatches(t *testing.T) {
	var f *Filter
	assert.False(t, f.IsEmergency("chest pain"))
	assert.False(t, f.IsExit("bye"))
}

func TestTokensKeepsCombiningMarks(t *testing.T) {
	tokens := Tokens("धन्यवाद, डॉक्टर!")
	assert.Equal(t, []string{"धन्यवाद", "डॉक्टर"}, tokens)
}
