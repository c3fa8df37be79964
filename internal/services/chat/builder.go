package chat

import (
	"github.com/nagare-ai/chat-service/internal/domain/models"
	"github.com/nagare-ai/chat-service/internal/services/responses"
)

const (
	// MaxHistoryMessages is the number of most recent messages kept when
	// converting history to provider input.
	MaxHistoryMessages = 100

	// MaxVectorStoreIDs caps how many vector stores one turn may search.
	// Product policy, not a protocol limit: overflow is discarded silently.
	MaxVectorStoreIDs = 3
)

// BuildInput converts ordered message history into the provider input list.
//
// History is truncated to the most recent MaxHistoryMessages entries first,
// preserving order. Tool-role messages and messages without text are dropped.
// A non-empty systemRole is prepended after truncation so it can never be
// truncated away. Attachments are merged into the last user entry; if the
// history has no user entry the attachments are dropped (the caller is
// expected to log this).
func BuildInput(messages []*models.Message, attachments []models.FileAttachment, systemRole string) []responses.InputItem {
	if len(messages) > MaxHistoryMessages {
		messages = messages[len(messages)-MaxHistoryMessages:]
	}

	var input []responses.InputItem
	for _, m := range messages {
		if m.Role == models.RoleTool {
			continue
		}
		text := m.CombinedText()
		if text == "" {
			continue
		}
		input = append(input, responses.InputItem{
			Type:    responses.InputItemTypeMessage,
			Role:    string(m.Role),
			Content: responses.TextContent(text),
		})
	}

	if len(attachments) > 0 {
		mergeAttachments(input, attachments)
	}

	if systemRole != "" {
		input = append([]responses.InputItem{{
			Type:    responses.InputItemTypeMessage,
			Role:    string(models.RoleSystem),
			Content: responses.TextContent(systemRole),
		}}, input...)
	}

	return input
}

// mergeAttachments rewrites the last user entry's content from a plain string
// into a structured part list: the text first, then one part per attachment.
func mergeAttachments(input []responses.InputItem, attachments []models.FileAttachment) {
	for i := len(input) - 1; i >= 0; i-- {
		if input[i].Role != string(models.RoleUser) {
			continue
		}
		parts := make([]responses.InputPart, 0, len(attachments)+1)
		parts = append(parts, responses.InputPart{
			Type: responses.InputPartText,
			Text: input[i].Content.Text,
		})
		for _, a := range attachments {
			partType := responses.InputPartFile
			if a.IsImage() {
				partType = responses.InputPartImage
			}
			parts = append(parts, responses.InputPart{
				Type:   partType,
				FileID: a.FileID,
			})
		}
		input[i].Content = responses.PartsContent(parts)
		return
	}
}

// BuildTools builds the tools array for a turn. It returns nil when neither
// vector retrieval nor web search is requested: omission is wire-significant,
// an empty array is not equivalent. Vector store IDs beyond MaxVectorStoreIDs
// are discarded.
func BuildTools(vectorStoreIDs []string, webSearchEnabled bool) []responses.Tool {
	var tools []responses.Tool

	if len(vectorStoreIDs) > 0 {
		ids := vectorStoreIDs
		if len(ids) > MaxVectorStoreIDs {
			ids = ids[:MaxVectorStoreIDs]
		}
		tools = append(tools, responses.Tool{
			Type:           responses.ToolTypeFileSearch,
			VectorStoreIDs: ids,
		})
	}

	if webSearchEnabled {
		tools = append(tools, responses.Tool{
			Type: responses.ToolTypeWebSearch,
		})
	}

	return tools
}
