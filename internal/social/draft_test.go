package social

import (
	"errors"
	"testing"
)

func TestDraftSlotRoundtrip(t *testing.T) {
	t.Cleanup(DeleteDraft)

	in := &Draft{
		Content:   "New level pack is out!",
		Platforms: []string{"twitter", "reddit"},
		Title:     "Level pack release",
		Hashtags:  []string{"gamedev", "solar2d"},
		Subreddit: "gamedev",
	}
	if err := SaveDraft(in); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	out, err := LoadDraft()
	if err != nil {
		t.Fatalf("LoadDraft: %v", err)
	}
	if out.Content != in.Content || len(out.Platforms) != 2 || out.Subreddit != "gamedev" {
		t.Errorf("draft did not roundtrip: %+v", out)
	}
}

func TestDraftSlotIsSingle(t *testing.T) {
	t.Cleanup(DeleteDraft)

	if err := SaveDraft(&Draft{Content: "first", Platforms: []string{"twitter"}}); err != nil {
		t.Fatal(err)
	}
	if err := SaveDraft(&Draft{Content: "second", Platforms: []string{"twitter"}}); err != nil {
		t.Fatal(err)
	}

	out, err := LoadDraft()
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != "second" {
		t.Errorf("new preview must replace the pending draft, got %q", out.Content)
	}
}

func TestLoadDraftMissing(t *testing.T) {
	DeleteDraft()
	if _, err := LoadDraft(); !errors.Is(err, ErrNoDraft) {
		t.Errorf("err = %v, want ErrNoDraft", err)
	}
}

func TestDeleteDraft(t *testing.T) {
	if err := SaveDraft(&Draft{Content: "x", Platforms: []string{"twitter"}}); err != nil {
		t.Fatal(err)
	}
	DeleteDraft()
	if _, err := LoadDraft(); !errors.Is(err, ErrNoDraft) {
		t.Error("draft survived deletion")
	}
}

func TestFullText(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  string
	}{
		{"no hashtags", Draft{Content: "hello"}, "hello"},
		{"with hashtags", Draft{Content: "hello", Hashtags: []string{"gamedev", "indie"}}, "hello\n\n#gamedev #indie"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.draft.FullText(); got != tt.want {
				t.Errorf("FullText = %q, want %q", got, tt.want)
			}
		})
	}
}
