package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kathyli05/kathboard/internal/models"
	"github.com/kathyli05/kathboard/internal/storage"
)

// FriendTools holds references needed by friend and attribute tool handlers.
type FriendTools struct {
	Store *storage.Store
}

// --- Input types ---

type ListFriendsInput struct {
	Query         string `json:"query,omitempty" jsonschema:"Case-insensitive substring to match against friend names"`
	IncludeHidden bool   `json:"include_hidden,omitempty" jsonschema:"Include friends marked hidden"`
}

type CreateFriendInput struct {
	Name   string         `json:"name" jsonschema:"Friend's name"`
	Fields map[string]any `json:"fields,omitempty" jsonschema:"Optional profile fields (birthday, hometown, phone, email, nickname, current_city, languages, social_media, is_favorite, hidden, ...)"`
}

type FriendIDInput struct {
	ID string `json:"id" jsonschema:"Friend ID"`
}

type UpdateFriendInput struct {
	ID     string         `json:"id" jsonschema:"Friend ID"`
	Fields map[string]any `json:"fields" jsonschema:"Profile fields to change; unknown fields are ignored"`
}

type ListAttributesInput struct {
	FriendID string `json:"friend_id" jsonschema:"Friend ID"`
}

type SetAttributeInput struct {
	FriendID string  `json:"friend_id" jsonschema:"Friend ID"`
	Key      string  `json:"key" jsonschema:"Attribute key (e.g., favorite_color)"`
	Value    *string `json:"value,omitempty" jsonschema:"Attribute value; omit to store an empty value"`
}

// --- Handlers ---

func (t *FriendTools) ListFriends(ctx context.Context, _ *mcp.CallToolRequest, input ListFriendsInput) (*mcp.CallToolResult, any, error) {
	friends, err := t.Store.ListFriends(ctx, models.FriendFilter{
		Query:         input.Query,
		IncludeHidden: input.IncludeHidden,
	})
	if err != nil {
		return toolError("Failed to list friends: %v", err), nil, nil
	}
	return toolJSON(friends)
}

func (t *FriendTools) CreateFriend(ctx context.Context, _ *mcp.CallToolRequest, input CreateFriendInput) (*mcp.CallToolResult, any, error) {
	id, err := t.Store.CreateFriend(ctx, input.Name, input.Fields)
	if err != nil {
		return toolError("Failed to create friend: %v", err), nil, nil
	}

	friend, err := t.Store.GetFriend(ctx, id)
	if err != nil {
		return toolError("Friend created but failed to read back: %v", err), nil, nil
	}
	return toolJSON(friend)
}

func (t *FriendTools) GetFriend(ctx context.Context, _ *mcp.CallToolRequest, input FriendIDInput) (*mcp.CallToolResult, any, error) {
	friend, err := t.Store.GetFriend(ctx, input.ID)
	if err != nil {
		return toolError("Failed to get friend: %v", err), nil, nil
	}
	return toolJSON(friend)
}

func (t *FriendTools) UpdateFriend(ctx context.Context, _ *mcp.CallToolRequest, input UpdateFriendInput) (*mcp.CallToolResult, any, error) {
	if err := t.Store.UpdateFriend(ctx, input.ID, input.Fields); err != nil {
		return toolError("Failed to update friend: %v", err), nil, nil
	}

	friend, err := t.Store.GetFriend(ctx, input.ID)
	if err != nil {
		return toolError("Failed to get friend: %v", err), nil, nil
	}
	return toolJSON(friend)
}

func (t *FriendTools) DeleteFriend(ctx context.Context, _ *mcp.CallToolRequest, input FriendIDInput) (*mcp.CallToolResult, any, error) {
	if err := t.Store.DeleteFriend(ctx, input.ID); err != nil {
		return toolError("Failed to delete friend: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Friend %q deleted with its attributes and notes.", input.ID)), nil, nil
}

func (t *FriendTools) ListAttributes(ctx context.Context, _ *mcp.CallToolRequest, input ListAttributesInput) (*mcp.CallToolResult, any, error) {
	attrs, err := t.Store.GetAttributes(ctx, input.FriendID)
	if err != nil {
		return toolError("Failed to list attributes: %v", err), nil, nil
	}
	return toolJSON(attrs)
}

func (t *FriendTools) SetAttribute(ctx context.Context, _ *mcp.CallToolRequest, input SetAttributeInput) (*mcp.CallToolResult, any, error) {
	attr, err := t.Store.SetAttribute(ctx, input.FriendID, input.Key, input.Value)
	if err != nil {
		return toolError("Failed to set attribute: %v", err), nil, nil
	}
	return toolJSON(attr)
}

func (t *FriendTools) ListAttributeKeys(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	keys, err := t.Store.ListAttributeKeys(ctx)
	if err != nil {
		return toolError("Failed to list attribute keys: %v", err), nil, nil
	}
	return toolJSON(keys)
}
