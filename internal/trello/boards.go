package trello

import (
	"fmt"
	"strings"

	"github.com/cexll/solar2d-mcp/internal/config"
)

// Board is the subset of board fields the tools display.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// List is a Trello list (a workflow lane's backing object).
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Label is a Trello label definition.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type boardFieldsParams struct {
	Fields string `url:"fields"`
}

// ListBoards fetches the authenticated member's boards.
func (c *Client) ListBoards() ([]Board, error) {
	var boards []Board
	err := c.request("GET", "/members/me/boards", boardFieldsParams{Fields: "name,id,url"}, &boards)
	return boards, err
}

// GetBoard fetches one board by ID, verifying it is reachable with the
// configured credentials.
func (c *Client) GetBoard(boardID string) (*Board, error) {
	var board Board
	err := c.request("GET", "/boards/"+boardID, boardFieldsParams{Fields: "name,id,url"}, &board)
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// SetupResult summarizes what board setup matched and created.
type SetupResult struct {
	LaneMap       map[string]string
	LabelMap      map[string]string
	LanesMatched  []string
	LanesCreated  []string
	LabelsMatched []string
	LabelsCreated []string
}

// Summary renders the setup result the way the tool reports it.
func (r *SetupResult) Summary() string {
	var b strings.Builder
	b.WriteString("Board setup complete!\n\nLanes:\n")
	for _, l := range r.LanesMatched {
		fmt.Fprintf(&b, "  %s\n", l)
	}
	for _, l := range r.LanesCreated {
		fmt.Fprintf(&b, "  %s\n", l)
	}
	b.WriteString("\nLabels:\n")
	for _, l := range r.LabelsMatched {
		fmt.Fprintf(&b, "  %s\n", l)
	}
	for _, l := range r.LabelsCreated {
		fmt.Fprintf(&b, "  %s\n", l)
	}
	fmt.Fprintf(&b, "\nMatched: %d lanes, %d labels\n", len(r.LanesMatched), len(r.LabelsMatched))
	fmt.Fprintf(&b, "Created: %d lanes, %d labels", len(r.LanesCreated), len(r.LabelsCreated))
	return b.String()
}

type createListParams struct {
	Name    string `url:"name"`
	IDBoard string `url:"idBoard"`
	Pos     string `url:"pos"`
}

type createLabelParams struct {
	Name  string `url:"name"`
	Color string `url:"color"`
}

// SetupAuto scans the board's lists and labels, matches the expected workflow
// names case-insensitively, creates anything missing, and persists the
// resulting lane and label maps.
func (c *Client) SetupAuto(boardID string) (*SetupResult, error) {
	var existing []List
	if err := c.request("GET", "/boards/"+boardID+"/lists", boardFieldsParams{Fields: "name,id"}, &existing); err != nil {
		return nil, fmt.Errorf("fetch lists: %w", err)
	}

	byName := make(map[string]List, len(existing))
	for _, lst := range existing {
		byName[strings.ToLower(lst.Name)] = lst
	}

	result := &SetupResult{LaneMap: make(map[string]string)}
	for _, role := range LaneOrder {
		expected := LaneNames[role]
		if lst, ok := byName[strings.ToLower(expected)]; ok {
			result.LaneMap[string(role)] = lst.ID
			result.LanesMatched = append(result.LanesMatched, fmt.Sprintf("%s -> %s (existing)", role, lst.Name))
			continue
		}
		var created List
		err := c.request("POST", "/lists", createListParams{Name: expected, IDBoard: boardID, Pos: "bottom"}, &created)
		if err != nil {
			return nil, fmt.Errorf("create list %q: %w", expected, err)
		}
		result.LaneMap[string(role)] = created.ID
		result.LanesCreated = append(result.LanesCreated, fmt.Sprintf("%s -> %s (created)", role, expected))
	}

	labelMap, matched, created, err := c.setupLabels(boardID)
	if err != nil {
		return nil, err
	}
	result.LabelMap = labelMap
	result.LabelsMatched = matched
	result.LabelsCreated = created

	if err := c.saveMaps(result.LaneMap, result.LabelMap); err != nil {
		return nil, err
	}
	return result, nil
}

// SetupManual saves a user-provided role -> list ID assignment, then runs the
// label setup as in auto mode.
func (c *Client) SetupManual(boardID string, laneAssignments map[string]string) (*SetupResult, error) {
	var invalid []string
	for role := range laneAssignments {
		if !IsLane(role) {
			invalid = append(invalid, role)
		}
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("unknown roles: %s (valid: %s)",
			strings.Join(invalid, ", "), strings.Join(LaneList(), ", "))
	}

	labelMap, matched, created, err := c.setupLabels(boardID)
	if err != nil {
		return nil, err
	}

	result := &SetupResult{
		LaneMap:       laneAssignments,
		LabelMap:      labelMap,
		LabelsMatched: matched,
		LabelsCreated: created,
	}
	for role, id := range laneAssignments {
		result.LanesMatched = append(result.LanesMatched, fmt.Sprintf("%s -> %s (assigned)", role, id))
	}

	if err := c.saveMaps(result.LaneMap, result.LabelMap); err != nil {
		return nil, err
	}
	return result, nil
}

// ListLists fetches the board's lists, for the manual-mapping prompt.
func (c *Client) ListLists(boardID string) ([]List, error) {
	var lists []List
	err := c.request("GET", "/boards/"+boardID+"/lists", boardFieldsParams{Fields: "name,id"}, &lists)
	return lists, err
}

func (c *Client) setupLabels(boardID string) (labelMap map[string]string, matched, created []string, err error) {
	var existing []Label
	if err := c.request("GET", "/boards/"+boardID+"/labels", boardFieldsParams{Fields: "name,id,color"}, &existing); err != nil {
		return nil, nil, nil, fmt.Errorf("fetch labels: %w", err)
	}

	byName := make(map[string]Label, len(existing))
	for _, lbl := range existing {
		if lbl.Name != "" {
			byName[strings.ToLower(lbl.Name)] = lbl
		}
	}

	labelMap = make(map[string]string, len(LabelDefs))
	for name, color := range LabelDefs {
		if lbl, ok := byName[strings.ToLower(name)]; ok {
			labelMap[name] = lbl.ID
			matched = append(matched, fmt.Sprintf("%s (%s) (existing)", name, lbl.Color))
			continue
		}
		var newLabel Label
		err := c.request("POST", "/boards/"+boardID+"/labels", createLabelParams{Name: name, Color: color}, &newLabel)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create label %q: %w", name, err)
		}
		labelMap[name] = newLabel.ID
		created = append(created, fmt.Sprintf("%s (%s) (created)", name, color))
	}
	return labelMap, matched, created, nil
}

func (c *Client) saveMaps(laneMap, labelMap map[string]string) error {
	cfg := config.Load()
	cfg.Trello.LaneMap = laneMap
	cfg.Trello.LabelMap = labelMap
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("persist lane/label maps: %w", err)
	}
	c.cfg.LaneMap = laneMap
	c.cfg.LabelMap = labelMap
	return nil
}
