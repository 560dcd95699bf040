package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAnswer(t *testing.T) {
	assert.Equal(t, Answer("1500 рублей"), NormalizeAnswer("  1500 Рублей \n"))
	assert.Equal(t, Answer("не знаю"), NormalizeAnswer("Не знаю"))
}

func TestNormalizeAnswer_Idempotent(t *testing.T) {
	inputs := []string{"  Стул Деревянный ", "НЕ ЗНАЮ.", "", "уже нормализовано"}
	for _, in := range inputs {
		once := NormalizeAnswer(in)
		twice := NormalizeAnswer(string(once))
		assert.Equal(t, once, twice)
	}
}

func TestAnswerIsSentinel(t *testing.T) {
	assert.True(t, AnswerDontKnow.IsSentinel())
	assert.True(t, AnswerUnknownCategory.IsSentinel())
	assert.True(t, AnswerUnavailable.IsSentinel())
	assert.False(t, Answer("стол обеденный стоит 4200").IsSentinel())
}
