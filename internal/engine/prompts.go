package engine

import "fmt"

// Prompts are in Russian, matching the language of the shop's customers. The
// answer prompt instructs the model to ground itself in the supplied data and
// to reply with the refusal phrase when the data does not contain an answer.

const classifyTemplate = `Ты — точный ассистент.
Классифицируй вопрос как 'general', если он общий про компанию,
или 'product', если он про товар.
Ответь строго одним словом: general или product.
Не добавляй знаков, точек, других слов или символов.
Вопрос: "%s"`

const answerTemplate = `Ты — точный ассистент по товарам и бизнесу. Тебе даны только следующие данные:

%s

Ответь строго и только на основе этих данных на вопрос: "%s"

Правила:
- Если в данных есть точный ответ — выведи его кратко и без пояснений.
- Если данных недостаточно или ответа нет — ответь только: "не знаю".
- Никогда не придумывай, не дополняй, не объясняй и не извиняйся.
- Не добавляй пунктуацию, кроме необходимой.
- Ответ должен быть одним предложением или фразой.

Ответ:`

func classifyPrompt(question string) string {
	return fmt.Sprintf(classifyTemplate, question)
}

func answerPrompt(context, question string) string {
	return fmt.Sprintf(answerTemplate, context, question)
}
