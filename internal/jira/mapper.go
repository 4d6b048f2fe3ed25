package jira

import (
	"slices"
	"strings"

	"agile-analytics/internal/ticket"
)

// ConvertIssue transforms a Jira DTO into an AgileTicket with a chronological flow log.
// The first entry is the status the issue was created in.
func ConvertIssue(item IssueDTO) ticket.AgileTicket {
	t := ticket.AgileTicket{
		Key:   item.Key,
		Title: item.Fields.Summary,
		Type:  item.Fields.IssueType.Name,
	}

	if created, err := ParseTime(item.Fields.Created); err == nil {
		t.Created = created
	}
	if updated, err := ParseTime(item.Fields.Updated); err == nil {
		t.Updated = updated
	}

	transitions := statusTransitions(item.Changelog)

	initialStatus := item.Fields.Status.Name
	if len(transitions) > 0 {
		initialStatus = transitions[0].from
	}
	t.FlowLog = append(t.FlowLog, ticket.FlowEntry{State: initialStatus, EnteredAt: t.Created})

	for _, tr := range transitions {
		t.FlowLog = append(t.FlowLog, tr.entry)
	}

	return t
}

type statusTransition struct {
	from  string
	entry ticket.FlowEntry
}

func statusTransitions(changelog *ChangelogDTO) []statusTransition {
	if changelog == nil {
		return nil
	}

	var transitions []statusTransition
	for _, h := range changelog.Histories {
		hDate, err := ParseTime(h.Created)
		if err != nil {
			continue
		}
		for _, itm := range h.Items {
			if !strings.EqualFold(itm.Field, "status") {
				continue
			}
			transitions = append(transitions, statusTransition{
				from:  itm.FromString,
				entry: ticket.FlowEntry{State: itm.ToString, EnteredAt: hDate},
			})
		}
	}

	// Jira often returns histories newest first
	slices.SortStableFunc(transitions, func(a, b statusTransition) int {
		return a.entry.EnteredAt.Compare(b.entry.EnteredAt)
	})
	return transitions
}
