package conversation

// Canned replies, keyed by language code. English is the fallback.
var (
	emergencyMessages = map[string]string{
		"en": "⚠️ *EMERGENCY!* This may be a life-threatening situation. Please call an ambulance immediately: *108* or go to the nearest health center.",
		"hi": "⚠️ *तुरंत मदद!* यह एक आपातकालीन स्थिति हो सकती है। कृपया बिना देर किए एम्बुलेंस को कॉल करें: *108* या नजदीकी स्वास्थ्य केंद्र पर जाएं।",
		"mr": "⚠️ *त्वरित मदत!* ही गंभीर समस्या असू शकते. कृपया त्वरित ॲम्बुलन्सला कॉल करा: *108* किंवा जवळच्या आरोग्य केंद्रात जा.",
		"bn": "⚠️ *জরুরী!* এটি একটি জীবন-হুমকির পরিস্থিতি হতে পারে। অবিলম্বে অ্যাম্বুলেন্সকে কল করুন: *108* অথবা নিকটস্থ স্বাস্থ্যকেন্দ্রে যান।",
	}
	fallbackMessages = map[string]string{
		"en": "Sorry, I couldn't process that right now. Please try again later.",
		"hi": "माफ़ कीजिए, मैं अभी जवाब नहीं दे पा रहा हूँ। कृपया बाद में प्रयास करें।",
		"mr": "माफ करा, मी सध्या उत्तर देऊ शकत नाही. कृपया नंतर प्रयत्न करा.",
		"bn": "দুঃখিত, আমি এখন উত্তর দিতে পারছি না। পরে আবার চেষ্টা করুন।",
	}
	audioFallbackMessages = map[string]string{
		"en": "Sorry, I could not understand the voice message. Please try again or type your question.",
		"hi": "माफ़ कीजिए, मैं आपका वॉइस मैसेज समझ नहीं पाया। कृपया दोबारा भेजें या अपना सवाल लिखें।",
		"mr": "माफ करा, मला तुमचा व्हॉइस संदेश समजला नाही. कृपया पुन्हा पाठवा किंवा तुमचा प्रश्न लिहा.",
		"bn": "দুঃখিত, আমি ভয়েস মেসেজটি বুঝতে পারিনি। আবার চেষ্টা করুন অথবা আপনার প্রশ্ন লিখুন।",
	}
	welcomeMessages = map[string]string{
		"en": "Hello! I'm your health assistant. Please ask your health-related question.",
		"hi": "नमस्ते! मैं आपका स्वास्थ्य सहायक हूँ। कृपया अपने स्वास्थ्य संबंधी सवाल पूछें।",
		"mr": "नमस्कार! मी तुमचा आरोग्य सहाय्यक आहे. कृपया तुमचा आरोग्य संबंधित प्रश्न विचारा.",
		"bn": "হ্যালো! আমি আপনার স্বাস্থ্য সহকারী। আপনার স্বাস্থ্য সংক্রান্ত প্রশ্ন জিজ্ঞাসা করুন।",
	}
	goodbyeMessages = map[string]string{
		"en": "Conversation ended. You can send a new message to start again.",
		"hi": "बातचीत समाप्त हुई। फिर से शुरू करने के लिए नया संदेश भेजें।",
		"mr": "संभाषण संपले. पुन्हा सुरू करण्यासाठी नवीन संदेश पाठवा.",
		"bn": "কথোপকথন শেষ হয়েছে। আবার শুরু করতে একটি নতুন বার্তা পাঠান।",
	}
	emptyMessages = map[string]string{
		"en": "Sorry, I received an empty message. Please try again or type your question.",
		"hi": "माफ़ कीजिए, मुझे खाली संदेश मिला। कृपया दोबारा प्रयास करें या अपना सवाल लिखें।",
		"mr": "माफ करा, मला रिकामा संदेश मिळाला. कृपया पुन्हा प्रयत्न करा किंवा तुमचा प्रश्न लिहा.",
		"bn": "দুঃখিত, আমি একটি খালি বার্তা পেয়েছি। আবার চেষ্টা করুন অথবা আপনার প্রশ্ন লিখুন।",
	}
)

func localized(messages map[string]string, lang string) string {
	if msg, ok := messages[lang]; ok {
		return msg
	}
	return messages["en"]
}

func EmergencyMessage(lang string) string     { return localized(emergencyMessages, lang) }
func FallbackMessage(lang string) string      { return localized(fallbackMessages, lang) }
func AudioFallbackMessage(lang string) string { return localized(audioFallbackMessages, lang) }
func WelcomeMessage(lang string) string       { return localized(welcomeMessages, lang) }
func GoodbyeMessage(lang string) string       { return localized(goodbyeMessages, lang) }
func EmptyMessage(lang string) string         { return localized(emptyMessages, lang) }
