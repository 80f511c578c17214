package chatbot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_KeywordReplies(t *testing.T) {
	assert := assert.New(t)

	bot := New()

	assert.Contains(bot.Reply("What is malaria?", nil), "Plasmodium")
	assert.Contains(bot.Reply("how can I prevent it", nil), "nets")
	assert.Contains(strings.ToLower(bot.Reply("is there a cure or medicine", nil)), "antimalarial")
}

func Test_ResultContext(t *testing.T) {
	assert := assert.New(t)

	bot := New()

	reply := bot.Reply("what does my result mean", &Context{Prediction: "Parasitized", Confidence: 0.97})
	assert.Contains(reply, "Parasitized")
	assert.Contains(reply, "97.0%")

	reply = bot.Reply("tell me about my test", &Context{Prediction: "Uninfected", Confidence: 0.91})
	assert.Contains(reply, "Uninfected")
}

func Test_FallbackEchoesQuestion(t *testing.T) {
	assert := assert.New(t)

	reply := New().Reply("zzz unrelated zzz", nil)
	assert.Contains(reply, "zzz unrelated zzz")
}
