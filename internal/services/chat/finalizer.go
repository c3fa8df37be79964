package chat

import (
	"github.com/nagare-ai/chat-service/internal/domain/models"
	"github.com/nagare-ai/chat-service/internal/services/responses"
)

// Finalize reconciles the final text, sources and usage for a completed
// stream into a StreamResult.
//
// Text resolution tries three locations in order, first non-empty wins:
// the locally accumulated delta buffer, the response's output_text
// convenience field, then a structural walk of the first output item's
// content entries. The tiering papers over the difference between the true
// streaming transport and the non-streaming emulation, which populate
// different fields; it is load-bearing and must not be collapsed.
func Finalize(accumulated string, final *responses.Response) *StreamResult {
	if final == nil {
		final = &responses.Response{}
	}

	result := &StreamResult{
		ResponseID: final.ID,
		Text:       resolveText(accumulated, final),
		Sources:    []models.MessagePart{},
		UsedTools:  []string{},
	}

	seen := map[string]bool{}
	for _, item := range final.Output {
		switch item.Type {
		case responses.ItemTypeFileSearchCall:
			if !seen[ToolLabelVectorStore] {
				seen[ToolLabelVectorStore] = true
				result.UsedTools = append(result.UsedTools, ToolLabelVectorStore)
			}
			for _, r := range item.Results {
				title := r.Filename
				if title == "" {
					title = r.FileID
				}
				result.Sources = append(result.Sources, models.MessagePart{
					Type:       models.PartTypeSource,
					SourceType: models.SourceTypeVector,
					Title:      title,
					Snippet:    r.Text,
					FileID:     r.FileID,
				})
			}

		case responses.ItemTypeWebSearchCall:
			if !seen[ToolLabelWebSearch] {
				seen[ToolLabelWebSearch] = true
				result.UsedTools = append(result.UsedTools, ToolLabelWebSearch)
			}
			// The wire format exposes no URL at this layer: one generic
			// marker per call.
			result.Sources = append(result.Sources, models.MessagePart{
				Type:       models.PartTypeSource,
				SourceType: models.SourceTypeWeb,
				Title:      ToolLabelWebSearch,
			})
		}
	}

	if final.Usage != nil {
		// Absent usage stays absent: zero-filling would falsely claim a
		// measured zero-cost turn.
		result.TokenUsage = &models.TokenUsage{
			PromptTokens:     final.Usage.InputTokens,
			CompletionTokens: final.Usage.OutputTokens,
			TotalTokens:      final.Usage.TotalTokens,
		}
	}

	return result
}

func resolveText(accumulated string, final *responses.Response) string {
	if accumulated != "" {
		return accumulated
	}
	if final.OutputText != "" {
		return final.OutputText
	}
	if len(final.Output) > 0 {
		var text string
		for _, part := range final.Output[0].Content {
			if part.Type == "output_text" {
				text += part.Text
			}
		}
		return text
	}
	return ""
}
