package social

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/cexll/solar2d-mcp/internal/project"
	"github.com/cexll/solar2d-mcp/internal/screenshot"
)

//go:embed templates/*
var templatesFS embed.FS

var previewTmpl = template.Must(template.ParseFS(templatesFS, "templates/preview.html"))

// knownPlatforms have dedicated card styling in the preview template.
var knownPlatforms = map[string]bool{
	"twitter": true, "facebook": true, "instagram": true, "reddit": true,
	"linkedin": true, "threads": true, "bluesky": true, "mastodon": true,
	"tiktok": true, "youtube": true, "pinterest": true,
}

// PreviewRequest is the input to the preview step.
type PreviewRequest struct {
	Content     string
	Platforms   []string
	Media       string
	ProjectPath string
	Title       string
	Hashtags    []string
	Subreddit   string
}

// Warning annotates the preview with a soft or hard content problem.
type Warning struct {
	Level   string // "warning" or "error"
	Message string
}

type cardView struct {
	DisplayName string
	CSSClass    string
	IconLetter  string
	ImageSrc    template.URL
	Title       string
	Content     string
	Hashtags    string
	CountLabel  string
	CountClass  string
}

type previewData struct {
	Cards    []cardView
	Warnings []Warning
}

// Preview resolves the media reference, fits the image to each platform,
// renders the HTML card mockups, saves the draft slot, and opens the preview.
// It returns a text summary for the tool response.
func Preview(req PreviewRequest, server *PreviewServer) (string, error) {
	platforms := make([]string, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		platforms = append(platforms, p)
	}
	if len(platforms) == 0 {
		return "", fmt.Errorf("platforms must name at least one platform")
	}

	var mediaPath string
	if req.Media != "" {
		path, err := screenshot.ResolveMedia(req.Media, req.ProjectPath)
		if err != nil {
			return "", err
		}
		mediaPath = path
	}

	warnings := buildWarnings(req.Content, platforms, req.Hashtags, req.Title)

	data := previewData{Warnings: warnings}
	for _, platform := range platforms {
		card := cardView{
			DisplayName: strings.ToUpper(platform[:1]) + platform[1:],
			CSSClass:    cssClass(platform),
			IconLetter:  strings.ToUpper(platform[:1]),
			Content:     req.Content,
			Title:       req.Title,
		}
		if len(req.Hashtags) > 0 {
			card.Hashtags = hashtagLine(req.Hashtags)
		}
		if mediaPath != "" {
			img, err := OptimizeImage(mediaPath, platform)
			if err != nil {
				return "", err
			}
			card.ImageSrc = template.URL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img))
		}
		card.CountLabel, card.CountClass = charCount(req.Content, platform, req.Hashtags, req.Title)
		data.Cards = append(data.Cards, card)
	}

	var html strings.Builder
	if err := previewTmpl.Execute(&html, data); err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	if err := os.WriteFile(project.PreviewFile(), []byte(html.String()), 0o644); err != nil {
		return "", fmt.Errorf("write preview: %w", err)
	}

	previewURL := "file://" + project.PreviewFile()
	if server != nil {
		if url, err := server.Serve(); err == nil {
			previewURL = url
		}
	}
	openBrowser(previewURL)

	draft := &Draft{
		Content:   req.Content,
		Platforms: platforms,
		MediaPath: mediaPath,
		Title:     req.Title,
		Hashtags:  req.Hashtags,
		Subreddit: req.Subreddit,
	}
	if err := SaveDraft(draft); err != nil {
		return "", err
	}

	return previewSummary(draft, previewURL, warnings), nil
}

func previewSummary(d *Draft, previewURL string, warnings []Warning) string {
	lines := []string{
		"Preview opened in browser!",
		"",
		"Platforms: " + strings.Join(d.Platforms, ", "),
		"Content: " + truncate(d.Content, 80),
	}
	if d.MediaPath != "" {
		lines = append(lines, "Media: "+d.MediaPath)
	}
	if d.Title != "" {
		lines = append(lines, "Title: "+d.Title)
	}
	if len(d.Hashtags) > 0 {
		lines = append(lines, "Hashtags: "+hashtagLine(d.Hashtags))
	}
	if d.Subreddit != "" {
		lines = append(lines, "Subreddit: r/"+d.Subreddit)
	}
	lines = append(lines, "", "Preview: "+previewURL, "Draft saved to "+project.DraftFile(), "")

	if len(warnings) > 0 {
		lines = append(lines, "Warnings:")
		for _, w := range warnings {
			prefix := "WARN"
			if w.Level == "error" {
				prefix = "ERROR"
			}
			lines = append(lines, fmt.Sprintf("  [%s] %s", prefix, w.Message))
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"Review the preview, then:",
		"  - Tell me to publish it (uses publish_social_post)",
		"  - Tell me to schedule it for a specific time",
		"  - Ask me to make changes and re-preview")
	return strings.Join(lines, "\n")
}

func buildWarnings(content string, platforms, hashtags []string, title string) []Warning {
	fullText := content
	if len(hashtags) > 0 {
		fullText += " " + hashtagLine(hashtags)
	}

	var warnings []Warning
	hasInstagram := false
	for _, platform := range platforms {
		if platform == "instagram" {
			hasInstagram = true
		}
		limit, ok := PlatformCharLimits[platform]
		if !ok {
			continue
		}

		display := strings.ToUpper(platform[:1]) + platform[1:]
		if platform == "reddit" && title != "" {
			if len(title) > limit {
				warnings = append(warnings, Warning{"error",
					fmt.Sprintf("Reddit title exceeds %d characters (%d used)", limit, len(title))})
			}
			continue
		}
		if len(fullText) > limit {
			warnings = append(warnings, Warning{"error",
				fmt.Sprintf("%s content exceeds %d characters (%d used)", display, limit, len(fullText))})
		} else if limit <= 300 && len(fullText) > limit*9/10 {
			warnings = append(warnings, Warning{"warning",
				fmt.Sprintf("%s content is near the %d character limit (%d used)", display, limit, len(fullText))})
		}
	}

	if hasInstagram && len(hashtags) == 0 {
		warnings = append(warnings, Warning{"warning", "Instagram posts perform better with hashtags"})
	}
	return warnings
}

func charCount(content, platform string, hashtags []string, title string) (label, class string) {
	fullText := content
	if len(hashtags) > 0 {
		fullText += " " + hashtagLine(hashtags)
	}

	limit, hasLimit := PlatformCharLimits[platform]
	count := len(fullText)
	if platform == "reddit" && title != "" {
		count = len(title)
		return fmt.Sprintf("%d/%d (title)", count, limit), countClass(count, limit)
	}
	if !hasLimit {
		return fmt.Sprintf("%d chars", count), ""
	}
	return fmt.Sprintf("%d/%d", count, limit), countClass(count, limit)
}

func countClass(count, limit int) string {
	switch {
	case count > limit:
		return "error"
	case count > limit*9/10:
		return "warning"
	default:
		return ""
	}
}

func cssClass(platform string) string {
	if knownPlatforms[platform] {
		return platform
	}
	return "default"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// openBrowser is best-effort; preview still works from the returned URL.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
