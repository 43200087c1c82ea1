package route

import "testing"

func TestSplitParts(t *testing.T) {
	cases := []struct {
		name     string
		s        string
		delims   string
		maxParts int
		want     []string
	}{
		{"simple", "a/b/c", "/", 8, []string{"a", "b", "c"}},
		{"trailing slash preserved", "a/b/", "/", 8, []string{"a", "b", ""}},
		{"empty string", "", "/", 8, []string{""}},
		{"capped remainder folds in delimiters", "a/b/c/d", "/", 2, []string{"a", "b/c/d"}},
		{"multiple delims", "a?b&c", "?&", 8, []string{"a", "b", "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitParts(tc.s, tc.delims, tc.maxParts)
			if len(got) != len(tc.want) {
				t.Fatalf("SplitParts(%q) = %q, want %q", tc.s, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("SplitParts(%q)[%d] = %q, want %q", tc.s, i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestMatchExact(t *testing.T) {
	tbl := Table[string]{Items: []Item[string]{
		{Parts: []string{"api", "v1", "users"}, Handler: "users"},
	}}
	if _, ok := tbl.Match([]string{"api", "v1", "users"}); !ok {
		t.Fatal("expected exact match")
	}
	if _, ok := tbl.Match([]string{"api", "v1", "Users"}); !ok {
		t.Fatal("expected case-insensitive match")
	}
	if _, ok := tbl.Match([]string{"api", "v1"}); ok {
		t.Fatal("expected no match for short request")
	}
	if _, ok := tbl.Match([]string{"api", "v1", "users", "extra"}); ok {
		t.Fatal("expected no match for long request")
	}
}

func TestMatchIgnoreTrailingSlash(t *testing.T) {
	tbl := Table[string]{Items: []Item[string]{
		{Parts: []string{"a", "b"}, Options: IgnoreTrailingSlash, Handler: "h"},
	}}
	if _, ok := tbl.Match([]string{"a", "b"}); !ok {
		t.Fatal("expected match with no trailing slash")
	}
	if _, ok := tbl.Match([]string{"a", "b", ""}); !ok {
		t.Fatal("expected tolerant match for request with trailing slash")
	}
	if _, ok := tbl.Match([]string{"a", "b", "c"}); ok {
		t.Fatal("trailing tolerance must not accept a non-empty extra part")
	}

	tbl2 := Table[string]{Items: []Item[string]{
		{Parts: []string{"a", "b", ""}, Options: IgnoreTrailingSlash, Handler: "h"},
	}}
	if _, ok := tbl2.Match([]string{"a", "b"}); !ok {
		t.Fatal("expected tolerant match when table entry has trailing slash but request doesn't")
	}
}

func TestMatchWildcards(t *testing.T) {
	tbl := Table[string]{Items: []Item[string]{
		{Parts: []string{"static", "%"}, Options: AllowWildcards, Handler: "static"},
		{Parts: []string{"img", "*.png"}, Options: AllowWildcards, Handler: "png"},
	}}
	if _, ok := tbl.Match([]string{"static", "css", "main.css"}); !ok {
		t.Fatal("expected '%' to consume remaining parts")
	}
	if _, ok := tbl.Match([]string{"img", "logo.png"}); !ok {
		t.Fatal("expected glob match on single part")
	}
	if _, ok := tbl.Match([]string{"img", "logo.jpg"}); ok {
		t.Fatal("glob must not match a different extension")
	}
}

func TestMatchFirstWins(t *testing.T) {
	tbl := Table[string]{Items: []Item[string]{
		{Parts: []string{"a"}, Handler: "first"},
		{Parts: []string{"a"}, Handler: "second"},
	}}
	h, ok := tbl.Match([]string{"a"})
	if !ok || h != "first" {
		t.Fatalf("expected first matching item to win, got %q", h)
	}
}
