package models

// Friend represents a tracked person. Profile fields that were never set are nil.
type Friend struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Birthday            *string `json:"birthday"`
	Notes               *string `json:"notes"`
	Ethnicity           *string `json:"ethnicity"`
	University          *string `json:"university"`
	Concentration       *string `json:"concentration"`
	Hometown            *string `json:"hometown"`
	RelationshipContext *string `json:"relationship_context"`
	Phone               *string `json:"phone"`
	Email               *string `json:"email"`
	Nickname            *string `json:"nickname"`
	CurrentCity         *string `json:"current_city"`

	Hidden     bool `json:"hidden"`
	IsFavorite bool `json:"is_favorite"`

	Languages   StringList `json:"languages"`
	SocialMedia StringMap  `json:"social_media"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Attribute is a caller-defined key/value fact attached to a friend.
// At most one attribute exists per (FriendID, Key).
type Attribute struct {
	ID        string  `json:"id"`
	FriendID  string  `json:"friend_id"`
	Key       string  `json:"key"`
	Value     *string `json:"value"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// Note is a free-form annotation attached to a friend.
type Note struct {
	ID        string   `json:"id"`
	FriendID  string   `json:"friend_id"`
	Content   string   `json:"content"`
	Category  *string  `json:"category"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// FriendFilter narrows ListFriends. The zero value lists every visible friend.
type FriendFilter struct {
	Query         string
	IncludeHidden bool
}

// NoteInput carries the fields of a new note.
type NoteInput struct {
	Content  string   `json:"content" validate:"notblank"`
	Category *string  `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// NoteUpdate is a partial note update: nil fields are left untouched.
type NoteUpdate struct {
	Content  *string   `json:"content,omitempty"`
	Category *string   `json:"category,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (u NoteUpdate) Empty() bool {
	return u.Content == nil && u.Category == nil && u.Tags == nil
}
