package chatbot

import (
	"fmt"
	"strings"

	"github.com/paradetect/paradetect/internal/model"
)

// Context carries the user's most recent scan so answers about "my
// result" can reference it.
type Context struct {
	Prediction string
	Confidence float64
}

type rule struct {
	keywords []string
	reply    string
}

// Bot is a keyword-matching malaria assistant. It answers common
// questions about the disease and the user's own results; anything
// else gets a generic pointer to the covered topics.
type Bot struct {
	rules []rule
}

func New() *Bot {
	return &Bot{rules: defaultRules}
}

func (b *Bot) Reply(message string, userCtx *Context) string {
	lower := strings.ToLower(message)

	if userCtx != nil && containsAny(lower, []string{"my result", "my test", "my diagnosis", "infected", "positive"}) {
		if userCtx.Prediction == model.ClassParasitized {
			return fmt.Sprintf("Your test result: Parasitized (infected), confidence %.1f%%. "+
				"Please consult a doctor promptly to confirm the diagnosis and start treatment. "+
				"Malaria is very treatable when caught early.", userCtx.Confidence*100)
		}
		return fmt.Sprintf("Your test result: Uninfected, confidence %.1f%%. "+
			"No malaria parasites were detected. Keep using prevention measures and get "+
			"retested if fever develops.", userCtx.Confidence*100)
	}

	for _, r := range b.rules {
		if containsAny(lower, r.keywords) {
			return r.reply
		}
	}

	return fmt.Sprintf("I'm here to help with your question: %q. I can answer questions about "+
		"malaria symptoms, prevention, treatment, nutrition, recovery, and your test results. "+
		"For medical emergencies, contact a doctor immediately.", message)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var defaultRules = []rule{
	{
		keywords: []string{"what is malaria", "about malaria", "malaria disease"},
		reply: "Malaria is a life-threatening disease caused by Plasmodium parasites, " +
			"transmitted through the bites of infected female Anopheles mosquitoes. It is " +
			"preventable and curable with early diagnosis and treatment.",
	},
	{
		keywords: []string{"emergency", "urgent", "severe", "critical"},
		reply: "Seek immediate medical attention. Call emergency services now if you have " +
			"very high fever, confusion, difficulty breathing, seizures, or dark urine. " +
			"Severe malaria can be fatal within hours without treatment.",
	},
	{
		keywords: []string{"symptom", "signs", "feel"},
		reply: "Common malaria symptoms include fever and chills, headache, muscle aches, " +
			"fatigue, nausea and vomiting. Symptoms usually appear 10-15 days after the " +
			"mosquito bite. See a doctor if you develop fever in or after visiting an " +
			"endemic area.",
	},
	{
		keywords: []string{"prevent", "protection", "avoid", "precaution"},
		reply: "Prevent malaria by sleeping under insecticide-treated nets, using mosquito " +
			"repellent, wearing long sleeves after dusk, removing standing water, and " +
			"taking antimalarial prophylaxis when traveling to endemic areas.",
	},
	{
		keywords: []string{"treatment", "cure", "medicine", "drug", "tablet"},
		reply: "Malaria is treated with prescription antimalarials, most commonly " +
			"artemisinin-based combination therapy (ACT). Always complete the full course, " +
			"even if you feel better. Only a doctor can prescribe the right regimen for " +
			"the parasite species and severity.",
	},
	{
		keywords: []string{"food", "diet", "eat", "nutrition"},
		reply: "During recovery, stay hydrated and eat light, nutritious meals: fruits, " +
			"vegetables, lean protein, and iron-rich foods to rebuild red blood cells. " +
			"Avoid alcohol while on antimalarial medication.",
	},
	{
		keywords: []string{"fever", "temperature", "chills"},
		reply: "Cyclic fever with chills is the hallmark of malaria. Rest, stay hydrated, " +
			"and use paracetamol for comfort, but do not rely on it alone. Seek medical " +
			"care if fever persists or is very high.",
	},
	{
		keywords: []string{"recover", "after treatment", "follow up", "better"},
		reply: "Most people recover within two weeks of starting treatment. Finish the " +
			"entire medication course, rest, rehydrate, and return for follow-up testing. " +
			"See a doctor immediately if fever returns.",
	},
	{
		keywords: []string{"worried", "scared", "afraid", "anxious", "help"},
		reply: "You're not alone. Malaria is very treatable when diagnosed early, and this " +
			"screening is a good first step. Share your results with a doctor, who can " +
			"confirm the diagnosis and guide you through treatment.",
	},
	{
		keywords: []string{"how accurate", "ai", "system", "technology"},
		reply: "ParaDetect analyzes blood smear images with a deep learning model trained " +
			"on thousands of labeled cell images. It is a screening aid, not a diagnosis: " +
			"always confirm results with a qualified medical professional.",
	},
}
