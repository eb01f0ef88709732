// Package prompt holds every model prompt and canned question text of
// the interview. Question texts are part of the product surface; keep
// the wording stable.
package prompt

import (
	"fmt"
	"time"

	"bant-agent-be/pkg/bant"
)

// ExtractionPrompt instructs the model to return one strict JSON
// object matching the four-slot schema. The rules mirror how answers
// of sales managers actually look: ranges, magnitude words, explicit
// negatives that must not be dropped.
func ExtractionPrompt(now time.Time) string {
	return fmt.Sprintf(`Проанализируй ответ менеджера и извлеки BANT-информацию. Верни ТОЛЬКО валидный JSON без дополнительного текста.

Контекст времени: %s

Схема ответа:
{
  "budget": {
    "have_budget": true|false|null,
    "amount_min": 0|null,
    "amount_max": 0|null,
    "currency": "RUB"|"USD"|"EUR"|"CNY"|"GBP"|null,
    "comment": "string"|null,
    "budget_status": "NOT_ASKED"|"NO_BUDGET"|"AVAILABLE"|null
  },
  "authority": {
    "decision_maker": "string"|null,
    "stakeholders": ["string"]|null,
    "decision_process": "string"|null,
    "risks": ["string"]|null,
    "uncertain": true|false|null
  },
  "need": {
    "pain_points": ["string"]|null,
    "current_solution": "string"|null,
    "success_criteria": ["string"]|null,
    "priority": "low"|"medium"|"high"|"critical"|null
  },
  "timing": {
    "timeframe": "this_month"|"this_quarter"|"this_half"|"this_year"|"next_year"|"unknown"|null,
    "deadline": "YYYY-MM-DD"|null,
    "next_step": "string"|null
  }
}

Правила извлечения:

Budget:
- Если указан диапазон (например, "50-100 тысяч") → amount_min=50000, amount_max=100000
- Если одна сумма (например, "около 75 тысяч") → amount_min=amount_max=75000
- Фразы "есть бюджет" без суммы → have_budget=true, суммы null
- КРИТИЧЕСКИ ВАЖНО: Различай отсутствие информации и отсутствие бюджета:
  * "не знаю" / "не имею понятия" / "не спрашивал" / "не обсуждали" → have_budget=null, budget_status="NOT_ASKED"
  * "нет бюджета" / "не заложено" / "нет денег" / "бюджет не выделен" → have_budget=false, budget_status="NO_BUDGET"
  * "есть бюджет" / конкретные суммы → have_budget=true, budget_status="AVAILABLE"
- Конвертируй тысячи/миллионы в полные числа (50к → 50000)

Authority:
- Ищи ФИО, должности (CEO, директор, руководитель отдела)
- stakeholders — все упомянутые роли кроме главного ЛПР
- decision_process — описание этапов согласования, количества согласующих
- КРИТИЧЕСКИ ВАЖНО: Различай неопределенность и конкретную информацию:
  * "не знаю" / "не определились" / "не знаем" / "без понятия" / "не в курсе" → decision_maker="не знаем", uncertain=null
  * "вроде X" / "кажется X" / "может быть X" → decision_maker=X, uncertain=true (сохраняй конкретную информацию!)
  * "точно X" / "определенно X" / "X решает" → decision_maker=X, uncertain=false

Need:
- pain_points — конкретные проблемы, не общие фразы
- "Проблем нет" / "все хорошо" / "ничего не беспокоит" → pain_points=[]
- priority: critical (срочно, горит), high (важно, планируют), medium (рассматривают), low (интересуются)

Timing:
- this_month — в течение месяца; this_quarter — до конца квартала; this_half — до конца полугодия; this_year — до конца года; next_year — следующий год
- unknown — неопределенные сроки / "не знаем" / "пока не планируем"
- КРИТИЧЕСКИ ВАЖНО: deadline только для конкретных дат (например, "15 марта 2026"), НЕ для общих периодов. "До конца года" → timeframe="this_year", deadline=null.

Общие правила:
- Если информация отсутствует или неясна → null
- НЕ додумывай данные, используй только явную информацию
- Числа без пробелов и форматирования
- КРИТИЧЕСКИ ВАЖНО: Отрицательные ответы ("не знаю", "нет", "не определились") - это ВАЛИДНЫЕ данные, НЕ игнорируй их!`,
		now.Format("02.01.2006"))
}

// RepairPrompt asks the model to fix its previous JSON against the
// reported schema errors.
func RepairPrompt(errText string) string {
	return fmt.Sprintf("Исправь JSON строго под схему. Ошибки валидатора: %s. Верни только JSON.", errText)
}

// ScoringPrompt states the rubric the model must score against. The
// bands match the heuristic scorer exactly, so both paths agree.
const ScoringPrompt = `Ты оцениваешь полноту BANT. На вход — JSON BantRecord без поля score.

Верни только JSON BantScore: {"budget":{"value":..,"confidence":..,"rationale":..},"authority":{..},"need":{..},"timing":{..},"total":..,"stage":"unqualified|qualified|ready"}.

Правила скоринга:
- Budget (0–25): про бюджет не спрашивали → 0; "бюджета нет" → 3; есть бюджет, суммы и валюта полностью → 22; есть бюджет и одна из сумм → 15; "есть бюджет" без сумм → 8
- Authority (0–25): ЛПР не назван → 0; "не знаем" → 2; роль без имени → 8; имя и роль → 10; +7 если описан процесс согласования; +5 если названы stakeholders; −2 если ЛПР указан неуверенно; максимум 25
- Need (0–30): pain_points не спрашивали → 0; "проблем нет" → 3; есть хотя бы одна боль → 13; ≥2 болей и ≥2 критериев успеха → 22, +5 если названо текущее решение и приоритет high/critical
- Timing (0–20): сроки не спрашивали → 0; "unknown" → 2; this_month/this_quarter → 18; this_half → 15; this_year → 12; next_year → 8; есть конкретный deadline без ясного timeframe → 15

total = сумма четырёх значений. stage: "ready" если total ≥ 80 и каждый слот ≥ 15; "qualified" если total ≥ 60 и каждый слот ≥ 8; иначе "unqualified".

Никаких комментариев, только JSON.`

// FollowupPrompt asks for clarifying questions, scoped by the caller
// to the current slot. Recent interview questions are passed for
// context so the model does not repeat itself.
func FollowupPrompt(history string) string {
	return fmt.Sprintf(`На вход — BantRecord и BantScore. Верни только JSON {"followups":{"budget":[...],"authority":[...],"need":[...],"timing":[...]}}.

%s

Сгенерируй не более двух коротких уточняющих вопросов на слот, выбирая слоты с низким score либо с confidence<0.6. Формулируй по одному краткому предложению на русском, без лишних слов.`, history)
}

// Questions holds the canonical opening question per slot.
var Questions = map[bant.Slot]string{
	bant.SlotBudget:    "Какой ориентировочный бюджет и валюта? Если диапазон — укажите диапазон.",
	bant.SlotAuthority: "Кто финальный ЛПР и кто ещё участвует в согласовании? Опишите процесс принятия решения.",
	bant.SlotNeed:      "Какие ключевые боли и критерии успеха? Есть ли текущее решение?",
	bant.SlotTiming:    "Какой желаемый срок покупки/внедрения? Есть ли жёсткий дедлайн (дата)?",
}

// Rephrased holds the variants used on repeated attempts at a slot.
// Attempt n (1-based, after the canonical question) picks variant
// min(n, len)-1; the last variant repeats for later attempts.
var Rephrased = map[bant.Slot][]string{
	bant.SlotBudget: {
		"Какой бюджет у клиента на проект?",
		"Есть ли у клиента заложенный бюджет на решение?",
		"Какие финансовые возможности у клиента для этого проекта?",
	},
	bant.SlotAuthority: {
		"Кто у клиента принимает финальное решение?",
		"Кто у них отвечает за выбор решений?",
		"Какой процесс принятия решений у клиента?",
	},
	bant.SlotNeed: {
		"Какие ключевые проблемы у клиента?",
		"Что беспокоит клиента в текущей ситуации?",
		"Какие задачи клиент хочет решить?",
	},
	bant.SlotTiming: {
		"Когда клиент планирует запуск?",
		"Какие сроки у клиента для реализации?",
		"Когда клиент хочет получить результат?",
	},
}

// Question returns the canonical question for a slot.
func Question(slot bant.Slot) string {
	if q, ok := Questions[slot]; ok {
		return q
	}
	return fmt.Sprintf("Вопрос по %s", slot)
}

// RephrasedQuestion returns the variant for a repeated attempt.
// attempts is the number of questions already asked for the slot.
func RephrasedQuestion(slot bant.Slot, attempts int) string {
	variants := Rephrased[slot]
	if len(variants) == 0 {
		return Question(slot)
	}
	idx := attempts - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(variants) {
		idx = len(variants) - 1
	}
	return variants[idx]
}

// Heuristic follow-up texts, keyed off which negative/unknown value is
// present in the slot. Used when follow-up generation by the model
// fails or is unavailable.
const (
	FollowupBudgetNoBudget  = "Говорил ли клиент про деньги вообще? Какая была реакция на тему цены?"
	FollowupBudgetUnknown   = "Есть ли у клиента заложенный бюджет?"
	FollowupAuthorityVague  = "С кем вы общались? (должность/роль) Этот человек сказал 'я решу' или 'нужно согласовать'?"
	FollowupAuthorityEmpty  = "Кто у клиента принимает финальное решение?"
	FollowupNeedNoPains     = "Что клиент хочет получить на выходе? (конкретный результат) Что его НЕ устраивает сейчас?"
	FollowupNeedEmpty       = "Какие основные проблемы у заказчика?"
	FollowupTimingUnknown   = "Почему именно сейчас? Что подтолкнуло к запуску? Есть ли у него внешнее давление?"
	FollowupTimingEmpty     = "Когда клиент планирует запуск?"
)
