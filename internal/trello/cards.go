package trello

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// staleAfter flags cards sitting in an active lane without activity.
const staleAfter = 24 * time.Hour

// Card is the subset of card fields the tools work with.
type Card struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Desc             string       `json:"desc"`
	IDList           string       `json:"idList"`
	IDLabels         []string     `json:"idLabels"`
	Due              string       `json:"due"`
	ShortURL         string       `json:"shortUrl"`
	Pos              float64      `json:"pos"`
	DateLastActivity string       `json:"dateLastActivity"`
	Checklists       []Checklist  `json:"checklists"`
	Attachments      []Attachment `json:"attachments"`
}

type Checklist struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CheckItems []CheckItem `json:"checkItems"`
}

type CheckItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Date string `json:"date"`
}

// CommentAction is a commentCard action; Trello returns newest first.
type CommentAction struct {
	Date string `json:"date"`
	Data struct {
		Text string `json:"text"`
	} `json:"data"`
	MemberCreator struct {
		FullName string `json:"fullName"`
	} `json:"memberCreator"`
}

// CreateCardRequest describes a new card.
type CreateCardRequest struct {
	Name        string
	Lane        Lane
	Description string
	Labels      []string
	Due         string
	Checklist   []string
}

type createCardParams struct {
	Name     string `url:"name"`
	IDList   string `url:"idList"`
	Desc     string `url:"desc"`
	Pos      string `url:"pos"`
	IDLabels string `url:"idLabels,omitempty"`
	Due      string `url:"due,omitempty"`
}

// CreateCard creates a card in the given lane with optional labels, due date,
// and a "Tasks" checklist. A checklist failure after card creation is reported
// as partial success so the caller does not recreate the card.
func (c *Client) CreateCard(req CreateCardRequest) (string, error) {
	listID := c.ResolveLaneID(req.Lane)
	if listID == "" {
		if !IsLane(string(req.Lane)) {
			return "", fmt.Errorf("unknown lane %q; valid: %s", req.Lane, strings.Join(LaneList(), ", "))
		}
		return "", fmt.Errorf("lane %q not mapped; run setup_trello_board first", req.Lane)
	}

	var labelIDs []string
	for _, name := range req.Labels {
		if id, ok := c.cfg.LabelMap[name]; ok {
			labelIDs = append(labelIDs, id)
		}
	}

	params := createCardParams{
		Name:     req.Name,
		IDList:   listID,
		Desc:     req.Description,
		Pos:      "bottom",
		IDLabels: strings.Join(labelIDs, ","),
		Due:      req.Due,
	}

	var card Card
	if err := c.request("POST", "/cards", params, &card); err != nil {
		return "", fmt.Errorf("create card: %w", err)
	}

	if len(req.Checklist) > 0 {
		if err := c.addChecklist(card.ID, "Tasks", req.Checklist); err != nil {
			return fmt.Sprintf("Card created but checklist failed: %v\n\nCard: %s\nID: %s\nURL: %s",
				err, card.Name, card.ID, card.ShortURL), nil
		}
	}

	lines := []string{
		fmt.Sprintf("Card created: %s", card.Name),
		fmt.Sprintf("ID: %s", card.ID),
		fmt.Sprintf("Lane: %s (%s)", req.Lane, LaneNames[req.Lane]),
		fmt.Sprintf("URL: %s", card.ShortURL),
	}
	if len(req.Labels) > 0 {
		lines = append(lines, "Labels: "+strings.Join(req.Labels, ", "))
	}
	if req.Due != "" {
		lines = append(lines, "Due: "+req.Due)
	}
	if len(req.Checklist) > 0 {
		lines = append(lines, fmt.Sprintf("Checklist: %d items", len(req.Checklist)))
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Client) addChecklist(cardID, name string, items []string) error {
	var checklist Checklist
	if err := c.request("POST", "/cards/"+cardID+"/checklists", url.Values{"name": {name}}, &checklist); err != nil {
		return err
	}
	for _, item := range items {
		if err := c.request("POST", "/checklists/"+checklist.ID+"/checkItems", url.Values{"name": {item}}, nil); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCardRequest describes card mutations. Zero values mean "leave alone";
// Due accepts the literal "null" to clear the date.
type UpdateCardRequest struct {
	CardID        string
	Lane          Lane
	BlockedReason string
	AddLabels     []string
	RemoveLabels  []string
	CheckItem     string
	Name          string
	Description   *string
	Due           string
}

// UpdateCard applies the requested changes, validating lane transitions
// against the workflow rules and requiring a blocked reason for blocked lanes.
// Per-label and checklist problems are reported inline rather than aborting.
func (c *Client) UpdateCard(req UpdateCardRequest) (string, error) {
	var changes []string

	if req.Lane != "" {
		moved, err := c.moveCard(req.CardID, req.Lane, req.BlockedReason)
		if err != nil {
			return "", err
		}
		changes = append(changes, moved...)
	}

	values := url.Values{}
	if req.Name != "" {
		values.Set("name", req.Name)
	}
	if req.Description != nil {
		values.Set("desc", *req.Description)
	}
	if req.Due != "" {
		if req.Due == "null" {
			values.Set("due", "")
		} else {
			values.Set("due", req.Due)
		}
	}
	if len(values) > 0 {
		if err := c.request("PUT", "/cards/"+req.CardID, values, nil); err != nil {
			return "", fmt.Errorf("update card: %w", err)
		}
		if req.Name != "" {
			changes = append(changes, "Name updated to: "+req.Name)
		}
		if req.Description != nil {
			changes = append(changes, "Description updated")
		}
		if req.Due != "" {
			if req.Due == "null" {
				changes = append(changes, "Due date: cleared")
			} else {
				changes = append(changes, "Due date: "+req.Due)
			}
		}
	}

	for _, name := range req.AddLabels {
		id, ok := c.cfg.LabelMap[name]
		if !ok {
			changes = append(changes, fmt.Sprintf("Warning: Unknown label '%s', skipped", name))
			continue
		}
		if err := c.request("POST", "/cards/"+req.CardID+"/idLabels", url.Values{"value": {id}}, nil); err != nil {
			changes = append(changes, fmt.Sprintf("Label '%s' may already be on card", name))
		} else {
			changes = append(changes, "Added label: "+name)
		}
	}
	for _, name := range req.RemoveLabels {
		id, ok := c.cfg.LabelMap[name]
		if !ok {
			changes = append(changes, fmt.Sprintf("Warning: Unknown label '%s', skipped", name))
			continue
		}
		if err := c.request("DELETE", "/cards/"+req.CardID+"/idLabels/"+id, nil, nil); err != nil {
			changes = append(changes, fmt.Sprintf("Label '%s' may not be on card", name))
		} else {
			changes = append(changes, "Removed label: "+name)
		}
	}

	if req.CheckItem != "" {
		changes = append(changes, c.toggleCheckItem(req.CardID, req.CheckItem))
	}

	if len(changes) == 0 {
		return "No changes specified. Provide at least one field to update.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Card %s updated:", req.CardID)
	for _, ch := range changes {
		b.WriteString("\n  - " + ch)
	}
	return b.String(), nil
}

// moveCard validates and performs a lane transition. Moving into a blocked
// lane posts the blocked reason as a card comment.
func (c *Client) moveCard(cardID string, lane Lane, blockedReason string) ([]string, error) {
	if !IsLane(string(lane)) {
		return nil, fmt.Errorf("unknown lane %q; valid: %s", lane, strings.Join(LaneList(), ", "))
	}
	blocked := lane == LaneBlockedPlan || lane == LaneBlockedWork
	if blocked && blockedReason == "" {
		return nil, fmt.Errorf("blocked_reason is required when moving to %s; explain what's blocking progress and what the user needs to do", LaneNames[lane])
	}

	listID := c.ResolveLaneID(lane)
	if listID == "" {
		return nil, fmt.Errorf("lane %q not mapped; run setup_trello_board first", lane)
	}

	var card Card
	if err := c.request("GET", "/cards/"+cardID, boardFieldsParams{Fields: "idList"}, &card); err != nil {
		return nil, fmt.Errorf("fetch card: %w", err)
	}

	fromStr := ""
	if current, ok := c.ResolveLaneRole(card.IDList); ok {
		allowed := ValidTransitions[current]
		permitted := false
		for _, a := range allowed {
			if a == lane {
				permitted = true
				break
			}
		}
		if !permitted {
			var allowedNames []string
			for _, a := range allowed {
				allowedNames = append(allowedNames, fmt.Sprintf("%s (%s)", a, LaneNames[a]))
			}
			if len(allowedNames) == 0 {
				allowedNames = []string{"none - terminal lane"}
			}
			return nil, fmt.Errorf("cannot move from %s to %s; valid moves from %s: %s",
				LaneNames[current], LaneNames[lane], current, strings.Join(allowedNames, ", "))
		}
		fromStr = fmt.Sprintf(" (from %s)", LaneNames[current])
	}

	if err := c.request("PUT", "/cards/"+cardID, url.Values{"idList": {listID}}, nil); err != nil {
		return nil, fmt.Errorf("move card: %w", err)
	}
	changes := []string{fmt.Sprintf("Moved to %s%s", LaneNames[lane], fromStr)}

	if blocked {
		err := c.request("POST", "/cards/"+cardID+"/actions/comments",
			url.Values{"text": {"**Blocked:** " + blockedReason}}, nil)
		if err != nil {
			changes = append(changes, "Blocked reason (failed to post as comment): "+blockedReason)
		} else {
			changes = append(changes, "Blocked reason posted: "+blockedReason)
		}
	}
	return changes, nil
}

func (c *Client) toggleCheckItem(cardID, match string) string {
	var card Card
	if err := c.request("GET", "/cards/"+cardID, url.Values{"checklists": {"all"}}, &card); err != nil {
		return fmt.Sprintf("Error toggling checklist item: %v", err)
	}
	for _, cl := range card.Checklists {
		for _, item := range cl.CheckItems {
			if !strings.Contains(strings.ToLower(item.Name), strings.ToLower(match)) {
				continue
			}
			newState := "complete"
			if item.State == "complete" {
				newState = "incomplete"
			}
			err := c.request("PUT", "/cards/"+cardID+"/checkItem/"+item.ID,
				url.Values{"state": {newState}}, nil)
			if err != nil {
				return fmt.Sprintf("Error toggling checklist item: %v", err)
			}
			return fmt.Sprintf("Checklist item '%s' -> %s", item.Name, newState)
		}
	}
	return fmt.Sprintf("No checklist item matching '%s' found", match)
}

type listCardsParams struct {
	Fields  string `url:"fields"`
	Members string `url:"members"`
}

// ListCards renders the board's cards grouped by lane, optionally filtered by
// lane and label. Priority cards sort first within a lane; cards idle for a
// day or more in an active lane get a stale warning block appended.
func (c *Client) ListCards(laneFilter, labelFilter string) (string, error) {
	if len(c.cfg.LaneMap) == 0 {
		return "", fmt.Errorf("no lane mapping; run setup_trello_board first")
	}
	if laneFilter != "" && !IsLane(laneFilter) {
		return "", fmt.Errorf("unknown lane %q; valid: %s", laneFilter, strings.Join(LaneList(), ", "))
	}

	var filterLabelID string
	if labelFilter != "" {
		id, ok := c.cfg.LabelMap[labelFilter]
		if !ok {
			known := make([]string, 0, len(c.cfg.LabelMap))
			for name := range c.cfg.LabelMap {
				known = append(known, name)
			}
			sort.Strings(known)
			return "", fmt.Errorf("unknown label %q; valid: %s", labelFilter, strings.Join(known, ", "))
		}
		filterLabelID = id
	}

	targets := LaneOrder
	if laneFilter != "" {
		targets = []Lane{Lane(laneFilter)}
	}

	idToLabel := make(map[string]string, len(c.cfg.LabelMap))
	for name, id := range c.cfg.LabelMap {
		idToLabel[id] = name
	}
	priorityID := c.cfg.LabelMap["priority"]

	staleLanes := map[Lane]bool{LaneInProgress: true, LaneBlockedPlan: true, LaneBlockedWork: true}
	type staleCard struct {
		name, id string
		lane     Lane
		days     int
	}
	var staleCards []staleCard
	now := time.Now().UTC()

	var sections []string
	for _, role := range targets {
		listID := c.cfg.LaneMap[string(role)]
		if listID == "" {
			if laneFilter != "" {
				return "", fmt.Errorf("lane %q not mapped; run setup_trello_board first", role)
			}
			continue
		}

		var cards []Card
		err := c.request("GET", "/lists/"+listID+"/cards", listCardsParams{
			Fields:  "name,idLabels,due,shortUrl,pos,dateLastActivity",
			Members: "false",
		}, &cards)
		if err != nil {
			sections = append(sections, fmt.Sprintf("## %s\n  Error: %v", LaneNames[role], err))
			continue
		}

		if filterLabelID != "" {
			filtered := cards[:0]
			for _, card := range cards {
				if containsString(card.IDLabels, filterLabelID) {
					filtered = append(filtered, card)
				}
			}
			cards = filtered
		}
		if len(cards) == 0 {
			continue
		}

		sort.SliceStable(cards, func(i, j int) bool {
			pi := priorityID != "" && containsString(cards[i].IDLabels, priorityID)
			pj := priorityID != "" && containsString(cards[j].IDLabels, priorityID)
			if pi != pj {
				return pi
			}
			return cards[i].Pos < cards[j].Pos
		})

		lines := []string{fmt.Sprintf("## %s (%d cards)", LaneNames[role], len(cards))}
		for _, card := range cards {
			var labelNames []string
			for _, id := range card.IDLabels {
				if name, ok := idToLabel[id]; ok {
					labelNames = append(labelNames, name)
				}
			}
			entry := "  - " + card.Name
			if len(labelNames) > 0 {
				entry += " [" + strings.Join(labelNames, ", ") + "]"
			}
			if card.Due != "" {
				entry += " (due: " + truncateDate(card.Due) + ")"
			}
			if staleLanes[role] && card.DateLastActivity != "" {
				if last, err := time.Parse(time.RFC3339, card.DateLastActivity); err == nil {
					if idle := now.Sub(last); idle >= staleAfter {
						days := int(idle.Hours() / 24)
						entry += fmt.Sprintf(" *** STALE (%dd idle) ***", days)
						staleCards = append(staleCards, staleCard{card.Name, card.ID, role, days})
					}
				}
			}
			lines = append(lines, entry, "    ID: "+card.ID)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(sections) == 0 {
		var filters []string
		if laneFilter != "" {
			filters = append(filters, "lane="+laneFilter)
		}
		if labelFilter != "" {
			filters = append(filters, "label="+labelFilter)
		}
		if len(filters) > 0 {
			return fmt.Sprintf("No cards found (filters: %s).", strings.Join(filters, ", ")), nil
		}
		return "No cards found.", nil
	}

	result := strings.Join(sections, "\n\n")
	if len(staleCards) > 0 {
		warning := []string{"", "---", "ACTION REQUIRED - Stale cards detected:"}
		for _, sc := range staleCards {
			if sc.lane == LaneInProgress {
				warning = append(warning, fmt.Sprintf(
					"  - %q (%s) has been In Progress for %dd. Move to 'done' or 'blocked_work' (with blocked_reason).",
					sc.name, sc.id, sc.days))
			} else {
				warning = append(warning, fmt.Sprintf(
					"  - %q (%s) has been in %s for %dd. Needs user attention.",
					sc.name, sc.id, LaneNames[sc.lane], sc.days))
			}
		}
		result += strings.Join(warning, "\n")
	}
	return result, nil
}

type cardDetailParams struct {
	Fields           string `url:"fields"`
	Checklists       string `url:"checklists"`
	CheckItemStates  string `url:"checkItemStates"`
	Attachments      string `url:"attachments"`
	AttachmentFields string `url:"attachment_fields"`
}

type actionsParams struct {
	Filter string `url:"filter"`
	Fields string `url:"fields"`
}

// CardDetail renders the full card: description, checklists, attachments, and
// comments with the latest comment flagged as a possible call-to-action.
func (c *Client) CardDetail(cardID string) (string, error) {
	var card Card
	err := c.request("GET", "/cards/"+cardID, cardDetailParams{
		Fields:           "name,desc,idList,idLabels,due,shortUrl,dateLastActivity",
		Checklists:       "all",
		CheckItemStates:  "true",
		Attachments:      "true",
		AttachmentFields: "name,url,date",
	}, &card)
	if err != nil {
		return "", fmt.Errorf("fetch card: %w", err)
	}

	var comments []CommentAction
	_ = c.request("GET", "/cards/"+cardID+"/actions", actionsParams{
		Filter: "commentCard",
		Fields: "data,date,memberCreator",
	}, &comments)

	idToLabel := make(map[string]string, len(c.cfg.LabelMap))
	for name, id := range c.cfg.LabelMap {
		idToLabel[id] = name
	}

	laneDisplay := "Unknown"
	laneRole := "?"
	if role, ok := c.ResolveLaneRole(card.IDList); ok {
		laneDisplay = LaneNames[role]
		laneRole = string(role)
	}

	lines := []string{
		"# " + card.Name,
		"ID: " + cardID,
		fmt.Sprintf("Lane: %s (%s)", laneDisplay, laneRole),
		"URL: " + card.ShortURL,
	}
	if card.Due != "" {
		lines = append(lines, "Due: "+truncateDate(card.Due))
	}
	var labelNames []string
	for _, id := range card.IDLabels {
		if name, ok := idToLabel[id]; ok {
			labelNames = append(labelNames, name)
		} else {
			labelNames = append(labelNames, id)
		}
	}
	if len(labelNames) > 0 {
		lines = append(lines, "Labels: "+strings.Join(labelNames, ", "))
	}
	lines = append(lines, "Last activity: "+card.DateLastActivity)

	if desc := strings.TrimSpace(card.Desc); desc != "" {
		lines = append(lines, "", "## Description", desc)
	}

	if len(card.Checklists) > 0 {
		lines = append(lines, "", "## Checklists")
		for _, cl := range card.Checklists {
			lines = append(lines, "", "### "+cl.Name)
			for _, item := range cl.CheckItems {
				mark := " "
				if item.State == "complete" {
					mark = "x"
				}
				lines = append(lines, fmt.Sprintf("  [%s] %s", mark, item.Name))
			}
		}
	}

	if len(card.Attachments) > 0 {
		lines = append(lines, "", "## Attachments")
		for _, att := range card.Attachments {
			lines = append(lines, fmt.Sprintf("  - %s: %s", att.Name, att.URL))
		}
	}

	if len(comments) > 0 {
		lines = append(lines, "", "## Comments")
		for i, action := range comments {
			author := action.MemberCreator.FullName
			if author == "" {
				author = "Unknown"
			}
			date := truncateDate(action.Date)
			if i == 0 {
				lines = append(lines, "",
					">>> LATEST COMMENT (may be a call-to-action) <<<",
					fmt.Sprintf("**%s** (%s):", author, date),
					action.Data.Text,
					">>> END LATEST COMMENT <<<")
			} else {
				lines = append(lines, "", fmt.Sprintf("**%s** (%s):", author, date), action.Data.Text)
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}

// Comment adds a comment to a card.
func (c *Client) Comment(cardID, text string) error {
	err := c.request("POST", "/cards/"+cardID+"/actions/comments", url.Values{"text": {text}}, nil)
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// AttachFile uploads a local file as a card attachment.
func (c *Client) AttachFile(cardID, filePath, displayName string) (*Attachment, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	if displayName == "" {
		displayName = filepath.Base(filePath)
	}
	var att Attachment
	if err := c.upload("/cards/"+cardID+"/attachments", displayName, data, &att); err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}
	return &att, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// truncateDate keeps the YYYY-MM-DD portion of an ISO timestamp.
func truncateDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
