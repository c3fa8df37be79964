package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagare-ai/chat-service/internal/domain/models"
	"github.com/nagare-ai/chat-service/internal/services/chat"
	"github.com/nagare-ai/chat-service/internal/services/responses"
)

func TestFinalize_PrefersAccumulatedText(t *testing.T) {
	final := &responses.Response{
		ID:         "resp-1",
		OutputText: "convenience text",
	}

	result := chat.Finalize("streamed text", final)

	assert.Equal(t, "resp-1", result.ResponseID)
	assert.Equal(t, "streamed text", result.Text)
}

func TestFinalize_FallsBackToOutputText(t *testing.T) {
	final := &responses.Response{OutputText: "convenience text"}

	result := chat.Finalize("", final)

	assert.Equal(t, "convenience text", result.Text)
}

func TestFinalize_FallsBackToStructuralWalk(t *testing.T) {
	final := &responses.Response{
		Output: []responses.OutputItem{{
			Type: responses.ItemTypeMessage,
			Role: "assistant",
			Content: []responses.ContentPart{
				{Type: "output_text", Text: "part one "},
				{Type: "refusal", Text: "ignored"},
				{Type: "output_text", Text: "part two"},
			},
		}},
	}

	result := chat.Finalize("", final)

	assert.Equal(t, "part one part two", result.Text)
}

func TestFinalize_EmptyEverywhereYieldsEmptyText(t *testing.T) {
	result := chat.Finalize("", &responses.Response{})

	assert.Equal(t, "", result.Text)
	assert.NotNil(t, result.Sources)
	assert.NotNil(t, result.UsedTools)
}

func TestFinalize_NilResponse(t *testing.T) {
	result := chat.Finalize("text", nil)

	assert.Equal(t, "text", result.Text)
	assert.Empty(t, result.UsedTools)
}

func TestFinalize_ExtractsFileSearchSources(t *testing.T) {
	final := &responses.Response{
		Output: []responses.OutputItem{{
			Type: responses.ItemTypeFileSearchCall,
			ID:   "fs-1",
			Results: []responses.SearchResult{
				{FileID: "file-1", Filename: "report.pdf", Text: "relevant excerpt"},
				{FileID: "file-2", Text: "untitled excerpt"},
			},
		}},
	}

	result := chat.Finalize("answer", final)

	assert.Equal(t, []string{chat.ToolLabelVectorStore}, result.UsedTools)
	require.Len(t, result.Sources, 2)

	assert.Equal(t, models.PartTypeSource, result.Sources[0].Type)
	assert.Equal(t, models.SourceTypeVector, result.Sources[0].SourceType)
	assert.Equal(t, "report.pdf", result.Sources[0].Title)
	assert.Equal(t, "relevant excerpt", result.Sources[0].Snippet)
	assert.Equal(t, "file-1", result.Sources[0].FileID)

	// Missing filename falls back to the file ID.
	assert.Equal(t, "file-2", result.Sources[1].Title)
}

func TestFinalize_WebSearchMarker(t *testing.T) {
	final := &responses.Response{
		Output: []responses.OutputItem{{
			Type: responses.ItemTypeWebSearchCall,
			ID:   "ws-1",
		}},
	}

	result := chat.Finalize("answer", final)

	assert.Equal(t, []string{chat.ToolLabelWebSearch}, result.UsedTools)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, models.SourceTypeWeb, result.Sources[0].SourceType)
	assert.Empty(t, result.Sources[0].URL)
}

func TestFinalize_ToolLabelsDeduplicated(t *testing.T) {
	final := &responses.Response{
		Output: []responses.OutputItem{
			{Type: responses.ItemTypeFileSearchCall, ID: "fs-1"},
			{Type: responses.ItemTypeFileSearchCall, ID: "fs-2"},
			{Type: responses.ItemTypeWebSearchCall, ID: "ws-1"},
		},
	}

	result := chat.Finalize("answer", final)

	assert.Equal(t, []string{chat.ToolLabelVectorStore, chat.ToolLabelWebSearch}, result.UsedTools)
}

func TestFinalize_UsageMapped(t *testing.T) {
	final := &responses.Response{
		Usage: &responses.Usage{InputTokens: 500, OutputTokens: 120, TotalTokens: 620},
	}

	result := chat.Finalize("answer", final)

	require.NotNil(t, result.TokenUsage)
	assert.Equal(t, 500, result.TokenUsage.PromptTokens)
	assert.Equal(t, 120, result.TokenUsage.CompletionTokens)
	assert.Equal(t, 620, result.TokenUsage.TotalTokens)
}

func TestFinalize_AbsentUsageStaysAbsent(t *testing.T) {
	result := chat.Finalize("answer", &responses.Response{})

	assert.Nil(t, result.TokenUsage)
}

func TestCumulativeTokens_SumsHistoryAndCurrent(t *testing.T) {
	history := []*models.Message{
		{Role: models.RoleUser},
		{Role: models.RoleAssistant, TokenUsage: &models.TokenUsage{TotalTokens: 300}},
		{Role: models.RoleUser},
		{Role: models.RoleAssistant, TokenUsage: &models.TokenUsage{TotalTokens: 200}},
	}

	assert.Equal(t, 620, chat.CumulativeTokens(history, 120))
}

func TestCumulativeTokens_EmptyHistory(t *testing.T) {
	assert.Equal(t, 6, chat.CumulativeTokens(nil, 6))
}
