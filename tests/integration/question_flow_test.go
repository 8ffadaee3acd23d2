//go:build integration
// +build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

type choice struct {
	ID     *string `json:"id,omitempty"`
	Value  string  `json:"value"`
	Answer *bool   `json:"answer"`
}

type question struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Choices  []choice `json:"choices"`
	Matches  []choice `json:"matches"`
}

func flag(b bool) *bool { return &b }

func TestQuestionLifecycle(t *testing.T) {
	owner := issueToken(t, envOrDefault("OWNER_ROLE", "owner"))
	category := fmt.Sprintf("it-%d", time.Now().UnixNano())

	payload := map[string]any{
		"question": "Which of these are JVM languages?",
		"choices": []choice{
			{Value: "Java", Answer: flag(true)},
			{Value: "Go", Answer: flag(false)},
			{Value: "Kotlin", Answer: flag(true)},
		},
		"categories": []string{category},
	}
	var created question
	if status := doJSON(t, http.MethodPost, baseURL()+"/v1/questions/types/multi-choice", owner, payload, &created); status != http.StatusCreated {
		t.Fatalf("create: unexpected status %d", status)
	}
	if len(created.Choices) != 3 || created.Choices[0].ID == nil {
		t.Fatalf("create: unexpected choices %+v", created.Choices)
	}

	var anon question
	if status := doJSON(t, http.MethodGet, baseURL()+"/v1/questions/"+created.ID, "", nil, &anon); status != http.StatusOK {
		t.Fatalf("read: unexpected status %d", status)
	}
	for _, c := range anon.Choices {
		if c.Answer != nil {
			t.Fatalf("anonymous read exposes answer flags: %+v", anon.Choices)
		}
	}

	var listed []question
	doJSON(t, http.MethodGet, baseURL()+"/v1/questions/?category="+category, "", nil, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("list by category: got %+v", listed)
	}

	answer := map[string]string{"answer": *created.Choices[0].ID + "," + *created.Choices[2].ID}
	var result struct {
		Correct bool `json:"correct"`
	}
	doJSON(t, http.MethodPost, baseURL()+"/v1/questions/"+created.ID+"/answer", "", answer, &result)
	if !result.Correct {
		t.Fatal("expected the two JVM languages to be correct")
	}

	update := created
	update.Choices = created.Choices[:2]
	update.Choices[1].Answer = flag(true)
	var updated question
	if status := doJSON(t, http.MethodPut, baseURL()+"/v1/questions/types/multi-choice/"+created.ID, owner, update, &updated); status != http.StatusOK {
		t.Fatalf("update: unexpected status %d", status)
	}
	if len(updated.Choices) != 2 || *updated.Choices[0].ID != *created.Choices[0].ID {
		t.Fatalf("update: unexpected choices %+v", updated.Choices)
	}

	if status := doJSON(t, http.MethodDelete, baseURL()+"/v1/questions/types/multi-choice/"+created.ID, owner, nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete: unexpected status %d", status)
	}
	if status := doJSON(t, http.MethodGet, baseURL()+"/v1/questions/"+created.ID, "", nil, nil); status != http.StatusNotFound {
		t.Fatalf("read after delete: unexpected status %d", status)
	}
}

func TestQuestionWritesNeedToken(t *testing.T) {
	payload := map[string]any{"question": "Capital of France?", "answer": "Paris"}
	if status := doJSON(t, http.MethodPost, baseURL()+"/v1/questions/types/single-line", "", payload, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestQuestionValidation(t *testing.T) {
	owner := issueToken(t, envOrDefault("OWNER_ROLE", "owner"))
	payload := map[string]any{
		"question": "Match",
		"choices":  []choice{{Value: "a"}, {Value: "b"}},
		"matches":  []choice{{Value: "1"}},
	}
	if status := doJSON(t, http.MethodPost, baseURL()+"/v1/questions/types/match-the-following", owner, payload, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}
