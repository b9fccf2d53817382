// Package social builds, previews, and publishes development-update posts
// through Late (getlate.dev). A post must be previewed before it can be
// published: the preview step writes the single global draft slot and the
// publish step consumes it.
package social

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cexll/solar2d-mcp/internal/project"
)

// ErrNoDraft means publish was called without a prior preview.
var ErrNoDraft = errors.New("no draft found; use preview_social_post first to create and review a preview")

// Draft is the pending, not-yet-published post. At most one exists
// system-wide; a new preview overwrites it.
type Draft struct {
	Content   string   `json:"content"`
	Platforms []string `json:"platforms"`
	MediaPath string   `json:"media_path,omitempty"`
	Title     string   `json:"title,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`
	Subreddit string   `json:"subreddit,omitempty"`
}

// FullText is the post body with hashtags appended.
func (d *Draft) FullText() string {
	text := d.Content
	if len(d.Hashtags) > 0 {
		text += "\n\n" + hashtagLine(d.Hashtags)
	}
	return text
}

func hashtagLine(tags []string) string {
	line := ""
	for i, tag := range tags {
		if i > 0 {
			line += " "
		}
		line += "#" + tag
	}
	return line
}

// SaveDraft writes the draft slot, replacing any pending draft.
func SaveDraft(d *Draft) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := os.WriteFile(project.DraftFile(), data, 0o644); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// LoadDraft reads the pending draft. A missing or corrupt file is ErrNoDraft.
func LoadDraft() (*Draft, error) {
	data, err := os.ReadFile(project.DraftFile())
	if err != nil {
		return nil, ErrNoDraft
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, ErrNoDraft
	}
	return &d, nil
}

// DeleteDraft clears the slot after a successful publish.
func DeleteDraft() {
	_ = os.Remove(project.DraftFile())
}
