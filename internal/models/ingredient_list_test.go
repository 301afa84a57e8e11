package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseIngredients(t *testing.T) {
	cases := []struct {
		in   string
		want IngredientList
	}{
		{"", nil},
		{"   ", nil},
		{"Azadirachtin", IngredientList{"Azadirachtin"}},
		{"Copper + Sulfur", IngredientList{"Copper", "Sulfur"}},
		{"Copper+Sulfur", IngredientList{"Copper", "Sulfur"}},
		{"A + + B", IngredientList{"A", "B"}},
	}

	for _, tc := range cases {
		if got := ParseIngredients(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseIngredients(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestIngredientListJSONWireForm(t *testing.T) {
	list := IngredientList{"Copper", "Sulfur"}

	raw, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(raw) != `"Copper + Sulfur"` {
		t.Fatalf("expected joined wire form, got %s", raw)
	}

	var decoded IngredientList
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if !reflect.DeepEqual(decoded, list) {
		t.Fatalf("round trip mismatch: %#v", decoded)
	}
}

func TestIngredientListJSONAcceptsArray(t *testing.T) {
	var decoded IngredientList
	if err := json.Unmarshal([]byte(`["A","B"]`), &decoded); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if !reflect.DeepEqual(decoded, IngredientList{"A", "B"}) {
		t.Fatalf("array decode mismatch: %#v", decoded)
	}
}

func TestStockLevel(t *testing.T) {
	cases := []struct {
		stock int
		want  string
	}{
		{0, "out"},
		{1, "low"},
		{9, "low"},
		{10, "in"},
		{500, "in"},
	}

	for _, tc := range cases {
		p := Product{Stock: tc.stock}
		if got := p.StockLevel(); got != tc.want {
			t.Errorf("StockLevel(stock=%d) = %q, want %q", tc.stock, got, tc.want)
		}
	}
}
