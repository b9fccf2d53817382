package social

import (
	"fmt"
	"os"
	"strings"
)

// Publish posts or schedules the pending draft via Late. On any upstream
// failure the draft stays in place so the caller can retry without
// re-previewing; only a successful post consumes it.
func Publish(client *LateClient, scheduleFor, timezone string) (string, error) {
	draft, err := LoadDraft()
	if err != nil {
		return "", err
	}

	accounts, err := client.Accounts()
	if err != nil {
		return "", err
	}

	accountIDs := make(map[string]string, len(accounts))
	var available []string
	for _, acct := range accounts {
		provider := strings.ToLower(acct.Provider)
		available = append(available, provider)
		accountIDs[provider] = acct.ID
	}

	var missing []string
	var ids []string
	for _, platform := range draft.Platforms {
		id, ok := accountIDs[platform]
		if !ok {
			missing = append(missing, platform)
			continue
		}
		ids = append(ids, id)
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("no Late accounts found for: %s\nAvailable accounts: %s\nConnect missing platforms at https://getlate.dev",
			strings.Join(missing, ", "), strings.Join(available, ", "))
	}

	var mediaIDs []string
	if draft.MediaPath != "" {
		if _, statErr := os.Stat(draft.MediaPath); statErr == nil {
			mediaID, err := client.UploadMedia(draft.MediaPath)
			if err != nil {
				return "", err
			}
			if mediaID != "" {
				mediaIDs = append(mediaIDs, mediaID)
			}
		}
	}

	req := &PostRequest{
		Content:    draft.FullText(),
		AccountIDs: ids,
		MediaIDs:   mediaIDs,
		Title:      draft.Title,
		Subreddit:  draft.Subreddit,
	}
	if scheduleFor != "" {
		req.ScheduledFor = scheduleFor
		if timezone == "" {
			timezone = "UTC"
		}
		req.Timezone = timezone
	} else {
		req.PublishNow = true
	}

	postID, err := client.CreatePost(req)
	if err != nil {
		return "", err
	}

	DeleteDraft()

	msg := "Post published!"
	if scheduleFor != "" {
		msg = fmt.Sprintf("Post scheduled for %s (%s)!", scheduleFor, timezone)
	}
	lines := []string{
		msg,
		"",
		"Platforms: " + strings.Join(draft.Platforms, ", "),
		"Content: " + truncate(draft.Content, 80),
	}
	if draft.MediaPath != "" {
		lines = append(lines, "Media: attached")
	}
	if draft.Title != "" {
		lines = append(lines, "Title: "+draft.Title)
	}
	if postID != "" {
		lines = append(lines, "Post ID: "+postID)
	}
	return strings.Join(lines, "\n"), nil
}
