package tts

import "testing"

func TestPreprocessTextNormalizesWhitespaceAndTypo(t *testing.T) {
	in := "Hello\r\nworld  (e.g., foo)   \x07bad"
	got := PreprocessText(in)
	want := "Hello\nworld (e.g. foo) bad"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSplitSentencesBasic(t *testing.T) {
	got := SplitSentences("Hello world. How are you? Fine!")
	want := []string{"Hello world.", "How are you?", "Fine!"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestSplitSentencesMasksAbbreviationsAndDecimals(t *testing.T) {
	got := SplitSentences("Dr. Smith paid $3.14 for it. He was happy.")
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(got), got)
	}
	if got[0] != "Dr. Smith paid $3.14 for it." {
		t.Fatalf("unexpected first sentence: %q", got[0])
	}
	if got[1] != "He was happy." {
		t.Fatalf("unexpected second sentence: %q", got[1])
	}
}

func TestSplitSentencesDropsEmpty(t *testing.T) {
	got := SplitSentences("One.    Two.")
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %v", got)
	}
}
