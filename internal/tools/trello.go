package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/solar2d-mcp/internal/config"
	"github.com/cexll/solar2d-mcp/internal/screenshot"
	"github.com/cexll/solar2d-mcp/internal/trello"
)

type ConfigureTrelloParams struct {
	APIKey   string `json:"api_key,omitempty" jsonschema:"Trello API key (from https://trello.com/power-ups/admin)"`
	APIToken string `json:"api_token,omitempty" jsonschema:"Trello API token"`
	BoardID  string `json:"board_id,omitempty" jsonschema:"ID of the Trello board to use for the development workflow"`
}

type SetupBoardParams struct {
	BoardID string            `json:"board_id,omitempty" jsonschema:"Board ID to set up. Uses the configured board when omitted."`
	Lanes   map[string]string `json:"lanes,omitempty" jsonschema:"Optional manual mapping of workflow roles (ideas, planning, blocked_plan, backlog, in_progress, blocked_work, done) to existing Trello list IDs. When omitted, lists are matched by name and missing ones are created."`
}

type CreateCardParams struct {
	Name        string   `json:"name" jsonschema:"Card title"`
	Lane        string   `json:"lane,omitempty" jsonschema:"Workflow lane for the new card (default: ideas). One of: ideas, planning, blocked_plan, backlog, in_progress, blocked_work, done."`
	Description string   `json:"description,omitempty" jsonschema:"Card description (Markdown)"`
	Labels      []string `json:"labels,omitempty" jsonschema:"Label names to apply: bug, priority, ai-created, needs-screenshot, shareable"`
	Due         string   `json:"due,omitempty" jsonschema:"Due date (ISO 8601, e.g. 2026-09-01)"`
	Checklist   []string `json:"checklist,omitempty" jsonschema:"Checklist items; creates a 'Tasks' checklist on the card"`
}

type UpdateCardParams struct {
	CardID        string   `json:"card_id" jsonschema:"ID of the card to update"`
	Lane          string   `json:"lane,omitempty" jsonschema:"Move the card to this workflow lane. Transitions are validated: ideas->planning, planning->blocked_plan/backlog, backlog->in_progress, in_progress->blocked_work/done."`
	BlockedReason string   `json:"blocked_reason,omitempty" jsonschema:"Required when moving to blocked_plan or blocked_work; posted as a card comment"`
	AddLabels     []string `json:"add_labels,omitempty" jsonschema:"Label names to add"`
	RemoveLabels  []string `json:"remove_labels,omitempty" jsonschema:"Label names to remove"`
	CheckItem     string   `json:"check_item,omitempty" jsonschema:"Toggle the first checklist item whose name contains this text (case-insensitive)"`
	Name          string   `json:"name,omitempty" jsonschema:"New card title"`
	Description   *string  `json:"description,omitempty" jsonschema:"New card description (empty string clears it)"`
	Due           string   `json:"due,omitempty" jsonschema:"New due date (ISO 8601), or 'null' to clear"`
}

type ListCardsParams struct {
	Lane  string `json:"lane,omitempty" jsonschema:"Only show cards in this workflow lane"`
	Label string `json:"label,omitempty" jsonschema:"Only show cards carrying this label"`
}

type GetCardParams struct {
	CardID string `json:"card_id" jsonschema:"ID of the card to show"`
}

type CommentCardParams struct {
	CardID string `json:"card_id" jsonschema:"ID of the card to comment on"`
	Text   string `json:"text" jsonschema:"Comment text (Markdown)"`
}

type AttachCardParams struct {
	CardID      string `json:"card_id" jsonschema:"ID of the card to attach to"`
	Media       string `json:"media" jsonschema:"File to upload: a direct path, 'latest' for the on-demand simulator screenshot, 'last' for the most recent recorded one, or a recording number"`
	ProjectPath string `json:"project_path,omitempty" jsonschema:"Project path; required when media refers to a simulator screenshot"`
	Name        string `json:"name,omitempty" jsonschema:"Display name for the attachment (default: file name)"`
}

func registerTrelloTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "configure_trello",
		Description: "Configure Trello integration: API key, token, and the board used for the development workflow. Credentials are saved for future sessions.",
	}, handleConfigureTrello)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "setup_trello_board",
		Description: "Set up the configured Trello board for the development workflow: matches or creates the workflow lists (Ideas, Planning, Blocked:Plan, Backlog, In Progress, Blocked:Work, Done) and labels, and saves the mapping.",
	}, handleSetupBoard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_trello_card",
		Description: "Create a card on the workflow board, optionally with labels, a due date, and a checklist.",
	}, handleCreateCard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_trello_card",
		Description: "Update a card: move between workflow lanes (with transition validation), add/remove labels, toggle checklist items, or edit title/description/due date. Moving to a blocked lane requires blocked_reason.",
	}, handleUpdateCard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_trello_cards",
		Description: "List the workflow board's cards grouped by lane. Priority cards sort first; cards idle for 24h+ in active lanes are flagged as stale.",
	}, handleListCards)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_trello_card",
		Description: "Show a card's full detail: description, checklists, attachments, and comments (latest comment flagged as a possible call-to-action).",
	}, handleGetCard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "comment_trello_card",
		Description: "Add a comment to a card.",
	}, handleCommentCard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "attach_to_trello_card",
		Description: "Upload a file as a card attachment. Accepts a direct path or a simulator screenshot reference ('latest', 'last', or a recording number with project_path).",
	}, handleAttachCard)
}

// trelloClient builds a client from the saved config, normalizing the
// not-configured case into the guidance the tools show.
func trelloClient() (*trello.Client, error) {
	cfg := config.Load()
	client, err := trello.NewClient(&cfg.Trello)
	if err != nil {
		return nil, fmt.Errorf("Trello is not configured.\n\nUse configure_trello with your api_key and api_token.\nGet them at https://trello.com/power-ups/admin")
	}
	return client, nil
}

func handleConfigureTrello(ctx context.Context, req *mcp.CallToolRequest, params ConfigureTrelloParams) (*mcp.CallToolResult, any, error) {
	cfg := config.Load()

	if params.APIKey != "" {
		cfg.Trello.APIKey = params.APIKey
	}
	if params.APIToken != "" {
		cfg.Trello.APIToken = params.APIToken
	}
	if params.BoardID != "" {
		cfg.Trello.BoardID = params.BoardID
	}

	if params.APIKey == "" && params.APIToken == "" && params.BoardID == "" {
		var lines []string
		if cfg.Trello.APIKey != "" && cfg.Trello.APIToken != "" {
			lines = append(lines, "Trello credentials: configured")
		} else {
			lines = append(lines, "Trello credentials: NOT configured",
				"", "Get your API key and token at https://trello.com/power-ups/admin",
				`Then call configure_trello(api_key="...", api_token="...")`)
		}
		if cfg.Trello.BoardID != "" {
			lines = append(lines, "Board ID: "+cfg.Trello.BoardID)
		} else {
			lines = append(lines, "Board ID: not set")
		}
		if len(cfg.Trello.LaneMap) > 0 {
			lines = append(lines, fmt.Sprintf("Lane mapping: %d lanes (run setup_trello_board to refresh)", len(cfg.Trello.LaneMap)))
		} else {
			lines = append(lines, "Lane mapping: not set (run setup_trello_board)")
		}
		return textResult(strings.Join(lines, "\n")), nil, nil
	}

	if err := config.Save(cfg); err != nil {
		return errorResult(fmt.Sprintf("Error saving configuration: %v", err)), nil, nil
	}

	// Verify credentials and board when we have enough to check.
	if cfg.Trello.APIKey != "" && cfg.Trello.APIToken != "" {
		client, err := trello.NewClient(&cfg.Trello)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
		}
		if cfg.Trello.BoardID != "" {
			board, err := client.GetBoard(cfg.Trello.BoardID)
			if err != nil {
				return errorResult(fmt.Sprintf("Configuration saved, but the board could not be verified: %v\n\nCheck the board ID and that your token has access to it.", err)), nil, nil
			}
			return textResult(fmt.Sprintf(
				"Trello configured!\n\nBoard: %s\nURL: %s\n\nNext step: run setup_trello_board to map the workflow lanes.",
				board.Name, board.URL)), nil, nil
		}

		boards, err := client.ListBoards()
		if err != nil {
			return errorResult(fmt.Sprintf("Credentials saved, but listing boards failed: %v", err)), nil, nil
		}
		lines := []string{"Trello credentials saved!", "", "Your boards:"}
		for _, b := range boards {
			lines = append(lines, fmt.Sprintf("  - %s (id: %s)", b.Name, b.ID))
		}
		lines = append(lines, "", `Call configure_trello(board_id="...") to pick one, then setup_trello_board.`)
		return textResult(strings.Join(lines, "\n")), nil, nil
	}

	return textResult("Configuration saved. Provide both api_key and api_token to complete Trello setup."), nil, nil
}

func handleSetupBoard(ctx context.Context, req *mcp.CallToolRequest, params SetupBoardParams) (*mcp.CallToolResult, any, error) {
	client, err := trelloClient()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	boardID := params.BoardID
	if boardID == "" {
		boardID = client.Config().BoardID
	}
	if boardID == "" {
		return errorResult(`Error: no board configured. Call configure_trello(board_id="...") first or pass board_id to this tool.`), nil, nil
	}

	if boardID != client.Config().BoardID {
		cfg := config.Load()
		cfg.Trello.BoardID = boardID
		if err := config.Save(cfg); err != nil {
			return errorResult(fmt.Sprintf("Error saving board ID: %v", err)), nil, nil
		}
		client.Config().BoardID = boardID
	}

	var result *trello.SetupResult
	if len(params.Lanes) > 0 {
		result, err = client.SetupManual(boardID, params.Lanes)
	} else {
		result, err = client.SetupAuto(boardID)
	}
	if err != nil {
		lists, listErr := client.ListLists(boardID)
		if listErr == nil && len(lists) > 0 {
			lines := []string{fmt.Sprintf("Board setup failed: %v", err), "", "Existing lists on the board:"}
			for _, lst := range lists {
				lines = append(lines, fmt.Sprintf("  - %s (id: %s)", lst.Name, lst.ID))
			}
			lines = append(lines, "", "You can map lanes manually with the lanes parameter, e.g.",
				`  setup_trello_board(lanes={"ideas": "<list-id>", ...})`)
			return errorResult(strings.Join(lines, "\n")), nil, nil
		}
		return errorResult(fmt.Sprintf("Board setup failed: %v", err)), nil, nil
	}

	return textResult(result.Summary()), nil, nil
}

func handleCreateCard(ctx context.Context, req *mcp.CallToolRequest, params CreateCardParams) (*mcp.CallToolResult, any, error) {
	if params.Name == "" {
		return errorResult("Error: name is required"), nil, nil
	}
	client, err := trelloClient()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	lane := params.Lane
	if lane == "" {
		lane = string(trello.LaneIdeas)
	}

	summary, err := client.CreateCard(trello.CreateCardRequest{
		Name:        params.Name,
		Lane:        trello.Lane(lane),
		Description: params.Description,
		Labels:      params.Labels,
		Due:         params.Due,
		Checklist:   params.Checklist,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}
	return textResult(summary), nil, nil
}

func handleUpdateCard(ctx context.Context, req *mcp.CallToolRequest, params UpdateCardParams) (*mcp.CallToolResult, any, error) {
	if params.CardID == "" {
		return errorResult("Error: card_id is required"), nil, nil
	}
	client, err := trelloClient()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	summary, err := client.UpdateCard(trello.UpdateCardRequest{
		CardID:        params.CardID,
		Lane:          trello.Lane(params.Lane),
		BlockedReason: params.BlockedReason,
		AddLabels:     params.AddLabels,
		RemoveLabels:  params.RemoveLabels,
		CheckItem:     params.CheckItem,
		Name:          params.Name,
		Description:   params.Description,
		Due:           params.Due,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}
	return textResult(summary), nil, nil
}

func handleListCards(ctx context.Context, req *mcp.CallToolRequest, params ListCardsParams) (*mcp.CallToolResult, any, error) {
	client, err := trelloClient()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	board, err := client.ListCards(params.Lane, params.Label)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}
	return textResult(board), nil, nil
}

func handleGetCard(ctx context.Context, req *mcp.CallToolRequest, params GetCardParams) (*mcp.CallToolResult, any, error) {
	if params.CardID == "" {
		return errorResult("Error: card_id is required"), nil, nil
	}
	client, err := trelloClient()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	detail, err := client.CardDetail(params.CardID)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}
	return textResult(detail), nil, nil
}

func handleCommentCard(ctx context.Context, req *mcp.CallToolRequest, params CommentCardParams) (*mcp.CallToolResult, any, error) {
	if params.CardID == "" || params.Text == "" {
		return errorResult("Error: card_id and text are required"), nil, nil
	}
	client, err := trelloClient()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	if err := client.Comment(params.CardID, params.Text); err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Comment added to card %s.", params.CardID)), nil, nil
}

func handleAttachCard(ctx context.Context, req *mcp.CallToolRequest, params AttachCardParams) (*mcp.CallToolResult, any, error) {
	if params.CardID == "" || params.Media == "" {
		return errorResult("Error: card_id and media are required"), nil, nil
	}

	filePath, err := screenshot.ResolveMedia(params.Media, params.ProjectPath)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}

	client, err := trelloClient()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	att, err := client.AttachFile(params.CardID, filePath, params.Name)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Attachment uploaded: %s\nURL: %s", att.Name, att.URL)), nil, nil
}
