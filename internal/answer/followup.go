package answer

import "strings"

// minFollowUps is the point below which heuristic suggestions top up the
// model's own; maxFollowUps caps the final list.
const (
	minFollowUps = 2
	maxFollowUps = 3
)

// topicKeywords maps a topic to the substrings that signal it in question or
// answer text. Keyword sets mix Chinese and English because questions arrive
// in both.
var topicKeywords = map[string][]string{
	"career":       {"事業", "工作", "職", "升遷", "創業", "career", "job", "work", "promotion"},
	"wealth":       {"財", "錢", "投資", "收入", "理財", "wealth", "money", "invest", "income"},
	"relationship": {"感情", "愛情", "婚姻", "姻緣", "桃花", "伴侶", "love", "relationship", "marriage", "partner"},
	"health":       {"健康", "身體", "疾", "病", "養生", "health", "illness", "body"},
}

// topicTemplates holds the suggestions offered per detected topic.
var topicTemplates = map[string][]string{
	"career":       {"我今年的事業運勢如何？", "我適合轉換跑道或創業嗎？", "工作上需要注意哪些貴人或小人？"},
	"wealth":       {"我近期的財運走勢如何？", "我適合哪種投資或理財方式？", "有什麼需要避開的破財風險？"},
	"relationship": {"我的感情運勢近期如何？", "我和伴侶的相處要注意什麼？", "我的桃花運什麼時候比較旺？"},
	"health":       {"我需要特別留意哪些健康問題？", "有什麼適合我的養生方向？", "今年哪段時間要注意身體？"},
}

// genericFollowUps is the fallback when no topic matches.
var genericFollowUps = []string{
	"可以再詳細說明這部分嗎？",
	"我接下來需要注意什麼？",
	"這對我今年的整體運勢有什麼影響？",
}

// detectTopics returns the topics whose keywords appear in text, in a stable
// order.
func detectTopics(text string) []string {
	lower := strings.ToLower(text)
	var topics []string
	for _, topic := range []string{"career", "wealth", "relationship", "health"} {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lower, kw) {
				topics = append(topics, topic)
				break
			}
		}
	}
	return topics
}

// suggestFollowUps produces the final follow-up list. Model-supplied
// suggestions are kept when there are enough of them; otherwise templated
// suggestions fill the gap. Caller-supplied topic hints take precedence over
// keyword detection, and generic suggestions are the last resort.
func suggestFollowUps(question, answer string, hints, fromModel []string) []string {
	if len(fromModel) >= minFollowUps {
		if len(fromModel) > maxFollowUps {
			return fromModel[:maxFollowUps]
		}
		return fromModel
	}

	topics := hints
	if len(topics) == 0 {
		topics = detectTopics(question + " " + answer)
	}

	suggestions := append([]string{}, fromModel...)
	seen := make(map[string]bool, len(suggestions))
	for _, s := range suggestions {
		seen[s] = true
	}

	add := func(candidates []string) {
		for _, c := range candidates {
			if len(suggestions) >= maxFollowUps {
				return
			}
			if !seen[c] {
				seen[c] = true
				suggestions = append(suggestions, c)
			}
		}
	}

	for _, topic := range topics {
		if templates, ok := topicTemplates[topic]; ok {
			add(templates)
		}
	}
	add(genericFollowUps)

	return suggestions
}
