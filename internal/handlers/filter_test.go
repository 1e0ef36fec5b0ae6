package handlers

import (
	"net/url"
	"reflect"
	"testing"
)

func TestSignalsFromQuery_Categories(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", nil},
		{"category=Books", []string{"Books"}},
		{"category=Books,Garden", []string{"Books", "Garden"}},
		{"category=Books&category=Garden", []string{"Books", "Garden"}},
		{"category=" + url.QueryEscape("cama, mesa") + "&category=Books", []string{"cama, mesa", "Books"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got := signalsFromQuery(q).Categories
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("categories = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignalsFromQuery_CommaCategorySelectable(t *testing.T) {
	q := url.Values{"category": {"cama, mesa", "cama, mesa"}}
	spec, err := signalsFromQuery(q).spec()
	if err != nil {
		t.Fatal(err)
	}
	set := spec.CategorySet()
	if _, ok := set["cama, mesa"]; !ok || len(set) != 1 {
		t.Errorf("category set = %v, want only %q", set, "cama, mesa")
	}
}
