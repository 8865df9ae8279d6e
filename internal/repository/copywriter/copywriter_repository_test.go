//go:build !integration

package copywriter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"promoHunter/business/curation"
	"promoHunter/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelAnswer(text string) string {
	body := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func TestScoreAndWrite_ParsesVerdicts(t *testing.T) {
	answer := "Aqui está a análise:\n```json\n" +
		`[{"item_id": 1, "relevance": 88, "pitch_a": " Direto ", "pitch_b": "Criativo"},` + "\n" +
		`{"item_id": 2, "relevance": 40, "pitch_a": "Meh", "pitch_b": ""},]` +
		"\n```\nEspero que ajude!"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":generateContent")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, modelAnswer(answer))
	}))
	defer srv.Close()

	repo := NewCopywriterRepository(CopywriterConfig{
		BaseURL: srv.URL,
		APIKey:  "key",
		Model:   "gemini-1.5-flash",
	})

	offers := []domain.Offer{{ItemID: 1, Name: "Fone"}, {ItemID: 2, Name: "Mouse"}}
	copies, err := repo.ScoreAndWrite(context.Background(), offers)
	require.NoError(t, err)
	require.Len(t, copies, 2)

	assert.Equal(t, int64(1), copies[0].ItemID)
	assert.Equal(t, 88.0, copies[0].Relevance)
	assert.Equal(t, "Direto", copies[0].PitchA)
}

func TestScoreAndWrite_DropsUnknownItemIDs(t *testing.T) {
	answer := `[{"item_id": 999, "relevance": 90, "pitch_a": "a", "pitch_b": "b"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, modelAnswer(answer))
	}))
	defer srv.Close()

	repo := NewCopywriterRepository(CopywriterConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})

	copies, err := repo.ScoreAndWrite(context.Background(), []domain.Offer{{ItemID: 1, Name: "Fone"}})
	require.NoError(t, err)
	assert.Empty(t, copies)
}

func TestScoreAndWrite_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	repo := NewCopywriterRepository(CopywriterConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})

	_, err := repo.ScoreAndWrite(context.Background(), []domain.Offer{{ItemID: 1, Name: "Fone"}})
	assert.ErrorIs(t, err, curation.ErrCopywriterUnavailable)
}

func TestScoreAndWrite_NetworkErrorIsUnavailable(t *testing.T) {
	repo := NewCopywriterRepository(CopywriterConfig{BaseURL: "http://127.0.0.1:1", APIKey: "k", Model: "m"})

	_, err := repo.ScoreAndWrite(context.Background(), []domain.Offer{{ItemID: 1, Name: "Fone"}})
	assert.ErrorIs(t, err, curation.ErrCopywriterUnavailable)
}

func TestScoreAndWrite_GarbageOutputIsAParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, modelAnswer("desculpe, não consigo ajudar com isso"))
	}))
	defer srv.Close()

	repo := NewCopywriterRepository(CopywriterConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})

	_, err := repo.ScoreAndWrite(context.Background(), []domain.Offer{{ItemID: 1, Name: "Fone"}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, curation.ErrCopywriterUnavailable)
}

func TestScoreAndWrite_EmptyBatchSkipsRequest(t *testing.T) {
	repo := NewCopywriterRepository(CopywriterConfig{BaseURL: "http://127.0.0.1:1"})
	copies, err := repo.ScoreAndWrite(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, copies)
}

func TestLargestJSONArray(t *testing.T) {
	text := `prefix [1,2] middle [{"a": "va]ue", "b": [1,2,3]}] suffix`
	assert.Equal(t, `[{"a": "va]ue", "b": [1,2,3]}]`, largestJSONArray(text))

	assert.Equal(t, "", largestJSONArray("no array here"))
	assert.Equal(t, "", largestJSONArray("unbalanced [1, 2"))
}

func TestParseVerdicts_TrailingCommas(t *testing.T) {
	verdicts, err := parseVerdicts(`[{"item_id": 5, "relevance": 70, "pitch_a": "a", "pitch_b": "b",},]`)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, int64(5), verdicts[0].ItemID)
}
