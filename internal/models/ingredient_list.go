package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// IngredientSeparator joins multiple active ingredients into the single
// text field the catalog has always stored and served.
const IngredientSeparator = " + "

// IngredientList holds the active ingredients of a product as an ordered
// sequence. On every wire and storage boundary the list is encoded as one
// string with the components joined by " + ".
type IngredientList []string

// ParseIngredients splits the joined wire form back into components,
// dropping empty segments.
func ParseIngredients(value string) IngredientList {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	parts := strings.Split(trimmed, "+")
	out := make(IngredientList, 0, len(parts))
	for _, part := range parts {
		if component := strings.TrimSpace(part); component != "" {
			out = append(out, component)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Join renders the canonical joined wire form.
func (l IngredientList) Join() string {
	return strings.Join([]string(l), IngredientSeparator)
}

func (l IngredientList) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Join())
}

// UnmarshalJSON accepts both the joined string and an array of strings,
// so documents written by older variants keep decoding.
func (l *IngredientList) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err == nil {
		*l = ParseIngredients(value)
		return nil
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("cannot decode %s into IngredientList", string(data))
	}
	*l = IngredientList(values)
	return nil
}

// MarshalBSONValue always stores the joined string, keeping new writes
// consistent with the legacy single-text-field encoding.
func (l IngredientList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(l.Join())
}

// UnmarshalBSONValue accepts string, array and null BSON types, allowing
// legacy documents to be decoded without failing the entire request.
func (l *IngredientList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null:
		*l = nil
		return nil
	case bsontype.Array:
		var values []string
		if err := bson.UnmarshalValue(t, data, &values); err != nil {
			return err
		}
		*l = values
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*l = ParseIngredients(value)
		return nil
	default:
		return fmt.Errorf("cannot decode %s into IngredientList", t)
	}
}
