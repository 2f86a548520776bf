package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kathyli05/kathboard/internal/models"
	"github.com/kathyli05/kathboard/internal/storage"
)

// NoteTools holds references needed by note tool handlers.
type NoteTools struct {
	Store *storage.Store
}

// --- Input types ---

type ListNotesInput struct {
	FriendID string `json:"friend_id" jsonschema:"Friend ID"`
}

type CreateNoteInput struct {
	FriendID string   `json:"friend_id" jsonschema:"Friend ID"`
	Content  string   `json:"content" jsonschema:"Note text"`
	Category *string  `json:"category,omitempty" jsonschema:"Optional category (e.g., work, family)"`
	Tags     []string `json:"tags,omitempty" jsonschema:"Optional tags"`
}

type UpdateNoteInput struct {
	ID       string    `json:"id" jsonschema:"Note ID"`
	Content  *string   `json:"content,omitempty" jsonschema:"New note text; omit to keep"`
	Category *string   `json:"category,omitempty" jsonschema:"New category; omit to keep"`
	Tags     *[]string `json:"tags,omitempty" jsonschema:"Replacement tag list; omit to keep"`
}

type DeleteNoteInput struct {
	ID string `json:"id" jsonschema:"Note ID"`
}

// --- Handlers ---

func (t *NoteTools) ListNotes(ctx context.Context, _ *mcp.CallToolRequest, input ListNotesInput) (*mcp.CallToolResult, any, error) {
	notes, err := t.Store.ListNotes(ctx, input.FriendID)
	if err != nil {
		return toolError("Failed to list notes: %v", err), nil, nil
	}
	return toolJSON(notes)
}

func (t *NoteTools) CreateNote(ctx context.Context, _ *mcp.CallToolRequest, input CreateNoteInput) (*mcp.CallToolResult, any, error) {
	id, err := t.Store.CreateNote(ctx, input.FriendID, models.NoteInput{
		Content:  input.Content,
		Category: input.Category,
		Tags:     input.Tags,
	})
	if err != nil {
		return toolError("Failed to create note: %v", err), nil, nil
	}

	note, err := t.Store.GetNote(ctx, id)
	if err != nil {
		return toolError("Note created but failed to read back: %v", err), nil, nil
	}
	return toolJSON(note)
}

func (t *NoteTools) UpdateNote(ctx context.Context, _ *mcp.CallToolRequest, input UpdateNoteInput) (*mcp.CallToolResult, any, error) {
	err := t.Store.UpdateNote(ctx, input.ID, models.NoteUpdate{
		Content:  input.Content,
		Category: input.Category,
		Tags:     input.Tags,
	})
	if err != nil {
		return toolError("Failed to update note: %v", err), nil, nil
	}

	note, err := t.Store.GetNote(ctx, input.ID)
	if err != nil {
		return toolError("Failed to get note: %v", err), nil, nil
	}
	return toolJSON(note)
}

func (t *NoteTools) DeleteNote(ctx context.Context, _ *mcp.CallToolRequest, input DeleteNoteInput) (*mcp.CallToolResult, any, error) {
	if err := t.Store.DeleteNote(ctx, input.ID); err != nil {
		return toolError("Failed to delete note: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Note %q deleted.", input.ID)), nil, nil
}

// --- Helpers ---

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
