package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kathyli05/kathboard/internal/storage"
	"github.com/kathyli05/kathboard/internal/tools"
)

// Version is reported to MCP clients and by the version command.
var Version = "0.1.0"

// New creates a fully configured MCP server with all tools registered.
func New(store *storage.Store) *mcp.Server {
	ft := &tools.FriendTools{Store: store}
	nt := &tools.NoteTools{Store: store}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "kathboard",
		Version: Version,
	}, nil)

	// Friend tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_friends",
		Description: "List friends, newest first, with optional name search; hidden friends are excluded unless include_hidden is set",
	}, ft.ListFriends)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_friend",
		Description: "Create a friend with a name and optional profile fields",
	}, ft.CreateFriend)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_friend",
		Description: "Get a friend's full profile by ID",
	}, ft.GetFriend)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_friend",
		Description: "Change profile fields of a friend; unknown fields are ignored",
	}, ft.UpdateFriend)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_friend",
		Description: "Permanently delete a friend together with its attributes and notes (irreversible)",
	}, ft.DeleteFriend)

	// Attribute tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_attributes",
		Description: "List the custom key/value attributes of a friend",
	}, ft.ListAttributes)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "set_attribute",
		Description: "Set a custom attribute on a friend, replacing any existing value for the same key",
	}, ft.SetAttribute)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_attribute_keys",
		Description: "List every attribute key in use across all friends",
	}, ft.ListAttributeKeys)

	// Note tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_notes",
		Description: "List a friend's notes, newest first",
	}, nt.ListNotes)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_note",
		Description: "Add a note to a friend with optional category and tags",
	}, nt.CreateNote)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_note",
		Description: "Change the content, category or tags of a note",
	}, nt.UpdateNote)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_note",
		Description: "Delete a note",
	}, nt.DeleteNote)

	return srv
}
