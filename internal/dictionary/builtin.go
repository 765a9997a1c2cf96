package dictionary

// DefaultLanguage is the language used when a requested code is unknown.
const DefaultLanguage = "en-US"

var enUS = Definition{
	ID:          "en-US",
	DisplayName: "English",
	Replacements: map[string]string{
		"next week": "next week",
		"tomorrow":  "tomorrow",
		"today":     "today",
	},
	Prompts: map[PromptKey]string{
		PromptListening:   "Listening...",
		PromptProcessing:  "Processing...",
		PromptAskTeam:     "Which team is this for?",
		PromptAskTitle:    "What is the title of the event?",
		PromptAskConfirm:  "Ready to create this booking?",
		PromptSuccess:     "Booking created successfully!",
		PromptRetry:       "Sorry, I didn't catch that. Please try again.",
		PromptMissingInfo: "I need some more information.",
	},
}

var guIN = Definition{
	ID:          "gu-IN",
	DisplayName: "Gujarati",
	Numerals: map[string]string{
		"૦": "0", "૧": "1", "૨": "2", "૩": "3", "૪": "4",
		"૫": "5", "૬": "6", "૭": "7", "૮": "8", "૯": "9",
	},
	Replacements: map[string]string{
		// Time markers.
		"કાલે":          "tomorrow",
		"આજે":           "today",
		"પછી":           "after",
		"આવતા":          "next",
		"આવતા અઠવાડિયે": "next week",
		"ગયા":           "last",

		// Days.
		"સોમવાર":    "Monday",
		"સોમવારે":   "Monday",
		"મંગળવાર":   "Tuesday",
		"મંગળવારે":  "Tuesday",
		"બુધવાર":    "Wednesday",
		"બુધવારે":   "Wednesday",
		"ગુરુવાર":   "Thursday",
		"ગુરુવારે":  "Thursday",
		"શુક્રવાર":  "Friday",
		"શુક્રવારે": "Friday",
		"શનિવાર":    "Saturday",
		"શનિવારે":   "Saturday",
		"રવિવાર":    "Sunday",
		"રવિવારે":   "Sunday",

		// Units. "માટે" ("for") follows the quantity; the normalizer's
		// grammar pass moves it in front.
		"વાગ્યે": "at",
		"વાગે":   "at",
		"મિનિટ":  "minutes",
		"કલાક":   "hours",
		"દિવસ":   "days",
		"માટે":   "for",

		// Day parts.
		"સવારે":  "AM",
		"બપોરે":  "PM",
		"સાંજે":  "PM",
		"રાત્રે": "PM",
	},
	Prompts: map[PromptKey]string{
		PromptListening:   "સાંભળી રહ્યો છું...",
		PromptProcessing:  "પ્રક્રિયા કરી રહ્યો છું...",
		PromptAskTeam:     "આ કઈ ટીમ માટે છે?",
		PromptAskTitle:    "ઈવેન્ટ નું નામ શું છે?",
		PromptAskConfirm:  "શું હું બુકિંગ બનાવી લઉં?",
		PromptSuccess:     "બુકિંગ સફળતાપૂર્વક થઈ ગયું!",
		PromptRetry:       "ક્ષમા કરશો, મને સમજાયું નહીં. ફરી પ્રયાસ કરો.",
		PromptMissingInfo: "મારે થોડી વધુ માહિતી જોઈએ છે.",
	},
}

// Builtin returns freshly compiled copies of the dictionaries shipped with
// voxbook.
func Builtin() []*Dictionary {
	return []*Dictionary{MustNew(enUS), MustNew(guIN)}
}
