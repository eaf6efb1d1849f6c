package compose

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTrimToMatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		images    []string
		durations []float64
		wantLen   int
	}{
		{"more images than durations", []string{"a", "b", "c"}, []float64{1, 2}, 2},
		{"more durations than images", []string{"a"}, []float64{1, 2, 3}, 1},
		{"already matched", []string{"a", "b"}, []float64{1, 2}, 2},
		{"no durations", []string{"a", "b"}, nil, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			images, durations := trimToMatch(tc.images, tc.durations)
			if len(images) != tc.wantLen || len(durations) != tc.wantLen {
				t.Fatalf("trimmed to %d images / %d durations, want %d of each",
					len(images), len(durations), tc.wantLen)
			}
			// the kept prefix is untouched
			for i := range images {
				if images[i] != tc.images[i] {
					t.Errorf("image %d = %q, want %q", i, images[i], tc.images[i])
				}
				if durations[i] != tc.durations[i] {
					t.Errorf("duration %d = %v, want %v", i, durations[i], tc.durations[i])
				}
			}
		})
	}
}

func TestWriteConcatList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(1280, 1280, 1, dir)

	images := []string{
		filepath.Join(dir, "001.jpg"),
		filepath.Join(dir, "002.jpg"),
	}
	listFile, err := c.writeConcatList(images, []float64{2.5, 3.125})
	if err != nil {
		t.Fatalf("writeConcatList: %v", err)
	}

	data, err := os.ReadFile(listFile)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	// one file+duration pair per image, then the last file repeated so the
	// concat demuxer honors the final duration
	want := []string{
		"file '" + images[0] + "'",
		"duration 2.500",
		"file '" + images[1] + "'",
		"duration 3.125",
		"file '" + images[1] + "'",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), data)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestWriteConcatList_RelativePathsMadeAbsolute(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(1280, 1280, 1, dir)

	listFile, err := c.writeConcatList([]string{"images/rel.jpg"}, []float64{1})
	if err != nil {
		t.Fatalf("writeConcatList: %v", err)
	}
	data, err := os.ReadFile(listFile)
	if err != nil {
		t.Fatal(err)
	}
	first := strings.SplitN(string(data), "\n", 2)[0]
	path := strings.TrimSuffix(strings.TrimPrefix(first, "file '"), "'")
	if !filepath.IsAbs(path) {
		t.Errorf("concat entry not absolute: %q", first)
	}
}
