package accent

import "strings"

// Accent describes one supported English accent.
type Accent struct {
	Locale      string
	Label       string
	Region      string
	Description string
}

var accents = []Accent{
	{"en-US", "American English", "North America", "North American English, commonly heard in the United States. Features rhotic pronunciation and distinctive vowel patterns."},
	{"en-GB", "British English", "British Isles", "English as spoken in the United Kingdom, including Received Pronunciation and regional variants. Often non-rhotic with distinct vowel sounds."},
	{"en-AU", "Australian English", "Oceania", "English as spoken in Australia, with distinctive vowel sounds and pronunciation patterns influenced by British English."},
	{"en-CA", "Canadian English", "North America", "North American English with some British influences, spoken in Canada. Similar to American English but with distinct features."},
	{"en-IN", "Indian English", "South Asia", "English as spoken in India, influenced by local languages. Features its own pronunciation patterns and vocabulary."},
	{"en-NZ", "New Zealand English", "Oceania", "English as spoken in New Zealand, close to Australian English but with distinct vowel pronunciation."},
	{"en-ZA", "South African English", "Africa", "English as spoken in South Africa, influenced by Afrikaans and local languages."},
	{"en-IE", "Irish English", "British Isles", "English as spoken in Ireland, with Celtic influences and distinctive pronunciation patterns."},
	{"en-SG", "Singaporean English", "Southeast Asia", "English as spoken in Singapore, shaped by several local languages."},
}

// UnclassifiedLabel is reported for every locale outside the table.
const UnclassifiedLabel = "Other/Unclassified English"

const fallbackDescription = "Regional variant of English with unique characteristics."

// Index maps built at init time.
var (
	byLocale map[string]*Accent
	byLabel  map[string]*Accent
)

func init() {
	byLocale = make(map[string]*Accent, len(accents))
	byLabel = make(map[string]*Accent, len(accents))
	for i := range accents {
		a := &accents[i]
		byLocale[strings.ToLower(a.Locale)] = a
		byLabel[a.Label] = a
	}
}

// Lookup returns the accent for an exact, case-insensitive locale match.
// No trimming or separator normalization is applied.
func Lookup(locale string) (Accent, bool) {
	if a, ok := byLocale[strings.ToLower(locale)]; ok {
		return *a, true
	}
	return Accent{}, false
}

// Supported returns a copy of the table in display order.
func Supported() []Accent {
	out := make([]Accent, len(accents))
	copy(out, accents)
	return out
}

// Describe returns the description for an accent label, or a generic
// description for labels outside the table.
func Describe(label string) string {
	if a, ok := byLabel[label]; ok {
		return a.Description
	}
	return fallbackDescription
}
