// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"reflect"
	"slices"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   Node
		values Values
		want   Node
	}{
		{
			name:   "greeting",
			tmpl:   Object{{Key: "greeting", Value: String("Hello {name}")}},
			values: Values{"name": "World"},
			want:   Object{{Key: "greeting", Value: String("Hello World")}},
		},
		{
			name: "array and nested object",
			tmpl: Array{
				String("{a}"),
				Object{{Key: "x", Value: String("{a}-{b}")}},
			},
			values: Values{"a": "1", "b": "2"},
			want: Array{
				String("1"),
				Object{{Key: "x", Value: String("1-2")}},
			},
		},
		{
			name:   "first occurrence only",
			tmpl:   String("{a} and {a}"),
			values: Values{"a": "x"},
			want:   String("x and {a}"),
		},
		{
			name:   "unmatched placeholder left verbatim",
			tmpl:   String("{model}: {missing}"),
			values: Values{"model": "gpt-4o"},
			want:   String("gpt-4o: {missing}"),
		},
		{
			name:   "inserted text not rescanned",
			tmpl:   String("{a} {b}"),
			values: Values{"a": "{b}", "b": "B"},
			want:   String("{b} B"),
		},
		{
			name:   "doubled braces",
			tmpl:   String("{{name}}"),
			values: Values{"name": "n"},
			want:   String("{n}"),
		},
		{
			name:   "numbers coerced",
			tmpl:   Object{{Key: "t", Value: String("{temperature}")}, {Key: "m", Value: String("{max_tokens}")}},
			values: Values{"temperature": 0.7, "max_tokens": 1024},
			want:   Object{{Key: "t", Value: String("0.7")}, {Key: "m", Value: String("1024")}},
		},
		{
			name:   "non string leaves unchanged",
			tmpl:   Array{Number("1.5"), Bool(true), Null{}},
			values: Values{"a": "1"},
			want:   Array{Number("1.5"), Bool(true), Null{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.tmpl, tt.values)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Format() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFormatEmptyValuesClones(t *testing.T) {
	tmpl := Object{
		{Key: "model", Value: String("{model}")},
		{Key: "messages", Value: Array{Object{{Key: "content", Value: String("{prompt}")}}}},
		{Key: "temperature", Value: Number("0.2")},
		{Key: "stream", Value: Bool(false)},
		{Key: "stop", Value: Null{}},
	}

	got := Format(tmpl, Values{})
	if !reflect.DeepEqual(got, tmpl) {
		t.Fatalf("Format() = %#v, want %#v", got, tmpl)
	}

	// The result must not share backing arrays with the input.
	got.(Object)[0].Value = String("changed")
	if tmpl[0].Value != String("{model}") {
		t.Error("Format() result aliases the input")
	}
}

func TestFormatDoesNotMutateInput(t *testing.T) {
	tmpl := Array{String("{a}"), Object{{Key: "k", Value: String("{a}")}}}
	Format(tmpl, Values{"a": "x"})

	want := Array{String("{a}"), Object{{Key: "k", Value: String("{a}")}}}
	if !reflect.DeepEqual(tmpl, want) {
		t.Errorf("input modified: %#v", tmpl)
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"s", "s"},
		{1.0, "1"},
		{0.1, "0.1"},
		{float32(0.5), "0.5"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint(3), "3"},
		{true, "true"},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := stringify(tt.in); got != tt.want {
			t.Errorf("stringify(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	tmpl := Object{
		{Key: "model", Value: String("{model}")},
		{Key: "input", Value: Array{String("{instructions}\n\n{prompt}"), String("{model}")}},
		{Key: "json", Value: String(`{"not": "a placeholder"}`)},
	}

	got := Placeholders(tmpl)
	want := []string{"model", "instructions", "prompt"}
	if !slices.Equal(got, want) {
		t.Errorf("Placeholders() = %v, want %v", got, want)
	}
}
