package answer

import "testing"

func TestSuggestFollowUpsKeepsModelSuggestions(t *testing.T) {
	t.Parallel()

	fromModel := []string{"後續問題一", "後續問題二"}
	got := suggestFollowUps("事業運如何？", "answer", nil, fromModel)
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want the model's 2", len(got))
	}
	for i, s := range fromModel {
		if got[i] != s {
			t.Errorf("got[%d] = %q, want %q", i, got[i], s)
		}
	}
}

func TestSuggestFollowUpsCapsModelSuggestions(t *testing.T) {
	t.Parallel()

	fromModel := []string{"a", "b", "c", "d"}
	if got := suggestFollowUps("q", "a", nil, fromModel); len(got) != maxFollowUps {
		t.Errorf("got %d suggestions, want capped at %d", len(got), maxFollowUps)
	}
}

func TestSuggestFollowUpsDetectsTopic(t *testing.T) {
	t.Parallel()

	got := suggestFollowUps("我的事業運勢如何？", "你的工作運不錯。", nil, nil)
	if len(got) < 2 || len(got) > maxFollowUps {
		t.Fatalf("got %d suggestions, want 2-%d", len(got), maxFollowUps)
	}
	career := topicTemplates["career"]
	if got[0] != career[0] {
		t.Errorf("got[0] = %q, want career template %q", got[0], career[0])
	}
}

func TestSuggestFollowUpsHintsTakePrecedence(t *testing.T) {
	t.Parallel()

	// Question text says career, but the caller hints wealth.
	got := suggestFollowUps("我的事業運勢如何？", "", []string{"wealth"}, nil)
	wealth := topicTemplates["wealth"]
	if got[0] != wealth[0] {
		t.Errorf("got[0] = %q, want wealth template %q", got[0], wealth[0])
	}
}

func TestSuggestFollowUpsGenericFallback(t *testing.T) {
	t.Parallel()

	got := suggestFollowUps("今天天氣如何？", "無法判斷。", nil, nil)
	if len(got) != maxFollowUps {
		t.Fatalf("got %d suggestions, want %d generics", len(got), maxFollowUps)
	}
	for i, s := range genericFollowUps {
		if got[i] != s {
			t.Errorf("got[%d] = %q, want generic %q", i, got[i], s)
		}
	}
}

func TestSuggestFollowUpsTopsUpSingleModelSuggestion(t *testing.T) {
	t.Parallel()

	got := suggestFollowUps("我的健康狀況如何？", "", nil, []string{"model suggestion"})
	if len(got) != maxFollowUps {
		t.Fatalf("got %d suggestions, want topped up to %d", len(got), maxFollowUps)
	}
	if got[0] != "model suggestion" {
		t.Errorf("got[0] = %q, model suggestion should come first", got[0])
	}
	health := topicTemplates["health"]
	if got[1] != health[0] {
		t.Errorf("got[1] = %q, want health template %q", got[1], health[0])
	}
}

func TestDetectTopicsEnglishKeywords(t *testing.T) {
	t.Parallel()

	topics := detectTopics("How is my career and money outlook?")
	if len(topics) != 2 {
		t.Fatalf("detected %v, want career and wealth", topics)
	}
	if topics[0] != "career" || topics[1] != "wealth" {
		t.Errorf("detected %v, want [career wealth]", topics)
	}
}
