package script

import (
	"reflect"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "simple sentences",
			in:   "The rotary screamed. Nobody expected it to win. History was made that day.",
			want: []string{"The rotary screamed", "Nobody expected it to win", "History was made that day"},
		},
		{
			name: "drops short trailing fragment",
			in:   "A full sentence about the car. And then it",
			want: []string{"A full sentence about the car"},
		},
		{
			name: "keeps long trailing fragment",
			in:   "A full sentence about the car. and the ending kept going without a period",
			want: []string{"A full sentence about the car", "and the ending kept going without a period"},
		},
		{
			name: "newlines flattened",
			in:   "First line sentence.\nSecond line sentence.",
			want: []string{"First line sentence", "Second line sentence"},
		},
		{
			name: "empty segments skipped",
			in:   "One sentence here... another sentence there.",
			want: []string{"One sentence here", "another sentence there"},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
		{
			name: "only a short fragment",
			in:   "short",
			want: []string{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := SplitSentences(tc.in)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SplitSentences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
