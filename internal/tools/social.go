package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/solar2d-mcp/internal/config"
	"github.com/cexll/solar2d-mcp/internal/social"
)

type ConfigureSocialParams struct {
	LateAPIKey string `json:"late_api_key,omitempty" jsonschema:"API key from getlate.dev. When omitted, shows the current configuration and connected accounts."`
}

type PreviewPostParams struct {
	Content     string   `json:"content" jsonschema:"Post text"`
	Platforms   []string `json:"platforms" jsonschema:"Target platforms, e.g. twitter, facebook, instagram, reddit, linkedin"`
	Media       string   `json:"media,omitempty" jsonschema:"Image to attach: a file path, 'latest' to capture a fresh simulator screenshot, 'last' for the most recent recorded one, or a recording number"`
	ProjectPath string   `json:"project_path,omitempty" jsonschema:"Project path; required when media refers to a simulator screenshot"`
	Title       string   `json:"title,omitempty" jsonschema:"Post title (required for reddit)"`
	Hashtags    []string `json:"hashtags,omitempty" jsonschema:"Hashtags without the # prefix"`
	Subreddit   string   `json:"subreddit,omitempty" jsonschema:"Target subreddit without the r/ prefix (reddit only)"`
}

type PublishPostParams struct {
	ScheduleFor string `json:"schedule_for,omitempty" jsonschema:"Schedule time (ISO 8601, e.g. 2026-09-01T10:00:00). Publishes immediately when omitted."`
	Timezone    string `json:"timezone,omitempty" jsonschema:"IANA timezone for schedule_for (default: UTC)"`
}

func registerSocialTools(server *mcp.Server, deps *Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "configure_social_media",
		Description: "Configure the Late (getlate.dev) API key for social media posting, or show the current configuration and connected accounts.",
	}, handleConfigureSocial)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_social_post",
		Description: "Build a social media post and open an HTML preview showing how it will look on each platform, with per-platform image fitting and character-limit checks. Saves the post as a draft; nothing is published until publish_social_post.",
	}, deps.handlePreviewPost)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "publish_social_post",
		Description: "Publish or schedule the previewed draft via Late. Requires a prior preview_social_post; the draft is consumed only on success.",
	}, handlePublishPost)
}

// maskKey shows enough of a credential to recognize it without exposing it.
func maskKey(key string) string {
	if len(key) <= 12 {
		return "***"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

func handleConfigureSocial(ctx context.Context, req *mcp.CallToolRequest, params ConfigureSocialParams) (*mcp.CallToolResult, any, error) {
	if params.LateAPIKey != "" {
		cfg := config.Load()
		cfg.Social.LateAPIKey = params.LateAPIKey
		if err := config.Save(cfg); err != nil {
			return errorResult(fmt.Sprintf("Error saving configuration: %v", err)), nil, nil
		}
		return textResult(fmt.Sprintf(
			"Late API key saved (%s).\n\nUse preview_social_post to build a post.", maskKey(params.LateAPIKey))), nil, nil
	}

	key := config.Load().Social.LateAPIKey
	if key == "" {
		return textResult(strings.Join([]string{
			"Social media posting is not configured.",
			"",
			"1. Sign up at https://getlate.dev and connect your social accounts",
			"2. Create an API key in the Late dashboard",
			`3. Call configure_social_media(late_api_key="...")`,
		}, "\n")), nil, nil
	}

	lines := []string{"Late API key: " + maskKey(key)}
	client, err := social.NewLateClient(key)
	if err == nil {
		accounts, err := client.Accounts()
		if err != nil {
			lines = append(lines, "", fmt.Sprintf("Could not list accounts: %v", err))
		} else if len(accounts) == 0 {
			lines = append(lines, "", "No social accounts connected yet. Connect them at https://getlate.dev")
		} else {
			lines = append(lines, "", "Connected accounts:")
			for _, acct := range accounts {
				lines = append(lines, "  - "+strings.ToLower(acct.Provider))
			}
		}
	}
	return textResult(strings.Join(lines, "\n")), nil, nil
}

func (d *Deps) handlePreviewPost(ctx context.Context, req *mcp.CallToolRequest, params PreviewPostParams) (*mcp.CallToolResult, any, error) {
	if params.Content == "" {
		return errorResult("Error: content is required"), nil, nil
	}
	if len(params.Platforms) == 0 {
		return errorResult("Error: platforms is required (e.g. [\"twitter\", \"facebook\"])"), nil, nil
	}

	summary, err := social.Preview(social.PreviewRequest{
		Content:     params.Content,
		Platforms:   params.Platforms,
		Media:       params.Media,
		ProjectPath: params.ProjectPath,
		Title:       params.Title,
		Hashtags:    params.Hashtags,
		Subreddit:   params.Subreddit,
	}, d.Preview)
	if err != nil {
		return errorResult(fmt.Sprintf("Error building preview: %v", err)), nil, nil
	}
	return textResult(summary), nil, nil
}

func handlePublishPost(ctx context.Context, req *mcp.CallToolRequest, params PublishPostParams) (*mcp.CallToolResult, any, error) {
	client, err := social.NewLateClient(config.Load().Social.LateAPIKey)
	if errors.Is(err, social.ErrNoAPIKey) {
		return errorResult("Error: social media posting is not configured. Use configure_social_media to set your Late API key."), nil, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}

	summary, err := social.Publish(client, params.ScheduleFor, params.Timezone)
	if errors.Is(err, social.ErrNoDraft) {
		return errorResult("Error: no draft to publish. Use preview_social_post first; the draft it saves is what gets published."), nil, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Error publishing: %v\n\nThe draft is still saved; fix the problem and retry publish_social_post.", err)), nil, nil
	}
	return textResult(summary), nil, nil
}
