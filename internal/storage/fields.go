package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kathyli05/kathboard/internal/models"
)

type fieldKind int

const (
	textField fieldKind = iota
	flagField
	listField
	mapField
)

// profileField is one entry of the friend allow-list. The name doubles as the
// column name, so statements are only ever built from these constants.
type profileField struct {
	name   string
	kind   fieldKind
	target func(f *models.Friend) any
}

// profileFields is the allow-list of caller-settable friend fields, in column
// order. New profile fields are added here and in the schema.
var profileFields = []profileField{
	{"birthday", textField, func(f *models.Friend) any { return &f.Birthday }},
	{"notes", textField, func(f *models.Friend) any { return &f.Notes }},
	{"ethnicity", textField, func(f *models.Friend) any { return &f.Ethnicity }},
	{"university", textField, func(f *models.Friend) any { return &f.University }},
	{"concentration", textField, func(f *models.Friend) any { return &f.Concentration }},
	{"hometown", textField, func(f *models.Friend) any { return &f.Hometown }},
	{"relationship_context", textField, func(f *models.Friend) any { return &f.RelationshipContext }},
	{"phone", textField, func(f *models.Friend) any { return &f.Phone }},
	{"email", textField, func(f *models.Friend) any { return &f.Email }},
	{"nickname", textField, func(f *models.Friend) any { return &f.Nickname }},
	{"current_city", textField, func(f *models.Friend) any { return &f.CurrentCity }},
	{"hidden", flagField, func(f *models.Friend) any { return &f.Hidden }},
	{"is_favorite", flagField, func(f *models.Friend) any { return &f.IsFavorite }},
	{"languages", listField, func(f *models.Friend) any { return &f.Languages }},
	{"social_media", mapField, func(f *models.Friend) any { return &f.SocialMedia }},
}

// ProfileFieldNames lists the allow-listed field names in column order.
func ProfileFieldNames() []string {
	names := make([]string, len(profileFields))
	for i, f := range profileFields {
		names[i] = f.name
	}
	return names
}

var friendColumns = "id, name, " + strings.Join(ProfileFieldNames(), ", ") + ", created_at, updated_at"

// assignments walks the allow-list and returns the columns present in fields
// with their encoded values. Keys outside the allow-list are ignored.
func (s *Store) assignments(fields map[string]any) ([]string, []any, error) {
	var cols []string
	var args []any
	for _, f := range profileFields {
		v, ok := fields[f.name]
		if !ok {
			continue
		}
		arg, err := s.encodeField(f, v)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, f.name)
		args = append(args, arg)
	}
	return cols, args, nil
}

// encodeField converts a caller value into a bound parameter. Lists and
// mappings become canonical JSON text whatever the field; flags go through the
// dialect; everything else is stored as provided.
func (s *Store) encodeField(f profileField, v any) (any, error) {
	if f.kind == flagField {
		b, err := coerceFlag(v)
		if err != nil {
			return nil, &ValidationError{Field: f.name, Message: err.Error()}
		}
		return s.dialect.Bool(b), nil
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return val, nil
	case *string:
		if val == nil {
			return nil, nil
		}
		return *val, nil
	case []string, []any, map[string]string, map[string]any:
		text, err := models.EncodeComposite(val)
		if err != nil {
			return nil, &ValidationError{Field: f.name, Message: err.Error()}
		}
		return text, nil
	case models.StringList, models.StringMap:
		text, err := val.(driver.Valuer).Value()
		if err != nil {
			return nil, &ValidationError{Field: f.name, Message: err.Error()}
		}
		return text, nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case json.Number:
		return val.String(), nil
	default:
		return nil, &ValidationError{Field: f.name, Message: fmt.Sprintf("unsupported value type %T", v)}
	}
}

func coerceFlag(v any) (bool, error) {
	switch val := v.(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, fmt.Errorf("expected a boolean, got %q", val)
		}
		return b, nil
	case float64:
		return val != 0, nil
	case int:
		return val != 0, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %T", v)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanFriend reads a row selected with friendColumns.
func (s *Store) scanFriend(row rowScanner) (*models.Friend, error) {
	var f models.Friend
	flags := make(map[int]*string, 2)

	dest := make([]any, 0, len(profileFields)+4)
	dest = append(dest, &f.ID, &f.Name)
	for i, pf := range profileFields {
		if pf.kind == flagField {
			raw := new(string)
			flags[i] = raw
			dest = append(dest, raw)
			continue
		}
		dest = append(dest, pf.target(&f))
	}
	dest = append(dest, &f.CreatedAt, &f.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	for i, raw := range flags {
		*profileFields[i].target(&f).(*bool) = parseFlag(*raw)
	}

	if f.Languages.Malformed() {
		s.logLenient("friends", f.ID, "languages")
	}
	if f.SocialMedia.Malformed() {
		s.logLenient("friends", f.ID, "social_media")
	}
	return &f, nil
}

func (s *Store) logLenient(table, id, column string) {
	s.log.WithFields(logrus.Fields{
		"table":  table,
		"id":     id,
		"column": column,
	}).Debug("stored composite value is not valid JSON, returning raw text")
}
