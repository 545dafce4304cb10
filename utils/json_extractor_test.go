package utils

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object",
			input: `{"board":"AQA","year":2023}`,
			want:  `{"board":"AQA","year":2023}`,
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"board\":\"AQA\"}\n```",
			want:  `{"board":"AQA"}`,
		},
		{
			name:  "fenced without language tag",
			input: "```\n[1,2,3]\n```",
			want:  `[1,2,3]`,
		},
		{
			name:  "surrounded by prose",
			input: `Here is the extracted data: {"subject":"Physics"} Hope that helps!`,
			want:  `{"subject":"Physics"}`,
		},
		{
			name:  "array with leading garbage",
			input: `Sure! [{"questionNumber":"1","pageNumber":2}]`,
			want:  `[{"questionNumber":"1","pageNumber":2}]`,
		},
		{
			name:  "braces inside strings",
			input: `{"feedback":"use {x} notation"} trailing`,
			want:  `{"feedback":"use {x} notation"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if err != nil {
				t.Fatalf("ExtractJSON: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	for _, input := range []string{"", "no json here at all", "{broken"} {
		_, err := ExtractJSON(input)
		if !errors.Is(err, ErrNoJSONFound) {
			t.Errorf("ExtractJSON(%q) err = %v, want ErrNoJSONFound", input, err)
		}
	}
}

func TestExtractJSONTo(t *testing.T) {
	var out struct {
		Board string `json:"board"`
		Year  int    `json:"year"`
	}

	input := "The metadata is:\n```json\n{\"board\": \"OCR\", \"year\": 2022}\n```"
	if err := ExtractJSONTo(input, &out); err != nil {
		t.Fatalf("ExtractJSONTo: %v", err)
	}
	if out.Board != "OCR" || out.Year != 2022 {
		t.Errorf("got %+v", out)
	}
}
