package dialect

import "testing"

func TestParseModelNameThinking(t *testing.T) {
	tag := ParseModelName("gemini-2.0-flash-thinking-high")
	if tag.BaseModel != "gemini-2.0-flash" {
		t.Fatalf("base model = %q", tag.BaseModel)
	}
	if tag.Mode != ModeThinking {
		t.Fatalf("mode = %q", tag.Mode)
	}
	if tag.Budget != 24576 {
		t.Fatalf("budget = %d", tag.Budget)
	}
}

func TestParseModelNameRefined(t *testing.T) {
	tag := ParseModelName("gemini-2.0-flash-refined-medium")
	if tag.Mode != ModeRefined || tag.Budget != 8192 {
		t.Fatalf("unexpected tag: %+v", tag)
	}
}

func TestParseModelNameSearch(t *testing.T) {
	for _, name := range []string{"gemini-2.0-flash:search", "gemini-2.0-flash-search-preview"} {
		tag := ParseModelName(name)
		if !tag.SearchTool {
			t.Fatalf("%s: expected search tool", name)
		}
		if tag.BaseModel != "gemini-2.0-flash" {
			t.Fatalf("%s: base model = %q", name, tag.BaseModel)
		}
	}
}

func TestParseModelNamePlain(t *testing.T) {
	tag := ParseModelName("gemini-2.0-flash")
	if tag.Mode != ModeNone || tag.Budget != 0 || tag.SearchTool {
		t.Fatalf("unexpected tag: %+v", tag)
	}
}

func TestMapFinishReason(t *testing.T) {
	cases := map[string]string{
		"STOP":       "stop",
		"MAX_TOKENS": "length",
		"SAFETY":     "content_filter",
		"RECITATION": "content_filter",
		"":           "stop",
		"WEIRD":      "weird",
	}
	for in, want := range cases {
		if got := MapFinishReason(in); got != want {
			t.Errorf("MapFinishReason(%q) = %q, want %q", in, got, want)
		}
	}
}
