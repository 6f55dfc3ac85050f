package domain

import "testing"

func TestNumericID(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		want   int
		wantOK bool
	}{
		{name: "plain number", input: "42.txt", want: 42, wantOK: true},
		{name: "prefixed", input: "prompt_007.txt", want: 7, wantOK: true},
		{name: "first run wins", input: "img12_v3.png", want: 12, wantOK: true},
		{name: "padded dataset id", input: "img_0000123.jpg", want: 123, wantOK: true},
		{name: "no digits", input: "notes.txt", want: 0, wantOK: false},
		{name: "empty", input: "", want: 0, wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NumericID(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("NumericID(%q) ok = %v, want %v", tc.input, ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("NumericID(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestSortRecords(t *testing.T) {
	records := []CaptionRecord{
		{ID: "10", Caption: "j"},
		{ID: "banner", Caption: "x"},
		{ID: "2", Caption: "b"},
		{ID: "img_0000003", Caption: "c"},
	}

	SortRecords(records)

	wantOrder := []string{"2", "img_0000003", "10", "banner"}
	for i, want := range wantOrder {
		if records[i].ID != want {
			t.Errorf("position %d: got ID %q, want %q", i, records[i].ID, want)
		}
	}
}

func TestSortPrompts(t *testing.T) {
	records := []PromptRecord{
		{ID: 3, Prompt: "a"},
		{ID: 10, Prompt: "b"},
		{ID: 2, Prompt: "c"},
	}

	SortPrompts(records)

	wantIDs := []int{2, 3, 10}
	wantPrompts := []string{"c", "a", "b"}
	for i := range wantIDs {
		if records[i].ID != wantIDs[i] || records[i].Prompt != wantPrompts[i] {
			t.Errorf("position %d: got (%d, %q), want (%d, %q)",
				i, records[i].ID, records[i].Prompt, wantIDs[i], wantPrompts[i])
		}
	}
}
