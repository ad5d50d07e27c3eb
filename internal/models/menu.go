package models

import (
	"strconv"
	"strings"
)

// MenuOption is one numbered choice in an onboarding menu.
type MenuOption struct {
	Index int
	Tag   string
	Label string
}

// Menu is an ordered list of numbered options the user answers with
// indices like "1, 3".
type Menu []MenuOption

// GoalMenu lists the health goals a user can pick during onboarding.
var GoalMenu = Menu{
	{Index: 1, Tag: "lower-cholesterol", Label: "Lower cholesterol"},
	{Index: 2, Tag: "weight-loss", Label: "Lose weight"},
	{Index: 3, Tag: "manage-diabetes", Label: "Manage diabetes"},
	{Index: 4, Tag: "lower-blood-pressure", Label: "Lower blood pressure"},
	{Index: 5, Tag: "heart-health", Label: "Improve heart health"},
	{Index: 6, Tag: "general-wellness", Label: "General wellness"},
}

// RestrictionMenu lists the dietary restrictions a user can pick.
var RestrictionMenu = Menu{
	{Index: 1, Tag: "no-salt", Label: "No salt"},
	{Index: 2, Tag: "no-oil", Label: "No oil"},
	{Index: 3, Tag: "no-sugar", Label: "No sugar"},
	{Index: 4, Tag: "no-nuts", Label: "No nuts"},
	{Index: 5, Tag: "no-dairy", Label: "No dairy"},
	{Index: 6, Tag: "no-gluten", Label: "No gluten"},
	{Index: 7, Tag: "no-meat", Label: "No meat"},
	{Index: 8, Tag: "no-eggs", Label: "No eggs"},
}

// Labels maps a set of tags back to their display labels, keeping menu
// order. Unknown tags are skipped.
func (m Menu) Labels(tags []string) []string {
	selected := make(map[string]bool, len(tags))
	for _, tag := range tags {
		selected[tag] = true
	}

	labels := make([]string, 0, len(tags))
	for _, opt := range m {
		if selected[opt.Tag] {
			labels = append(labels, opt.Label)
		}
	}
	return labels
}

// Parse interprets a user's answer as a list of menu indices and
// returns the matching tags. Duplicates collapse, out-of-range indices
// are dropped, and the result keeps menu order. The second return value
// is false when the answer contains no indices at all, meaning the
// menu should be shown again; "none" and "skip" are explicit empty
// selections.
func (m Menu) Parse(input string) ([]string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "none" || normalized == "skip" {
		return []string{}, true
	}

	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})

	answered := false
	selected := make(map[int]bool)
	for _, field := range fields {
		index, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			continue
		}
		answered = true
		selected[index] = true
	}

	if !answered {
		return nil, false
	}

	tags := make([]string, 0, len(selected))
	for _, opt := range m {
		if selected[opt.Index] {
			tags = append(tags, opt.Tag)
		}
	}
	return tags, true
}
