package adapter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

// KindJira is the provider kind for issue-tracker webhook events.
const KindJira = "jira-like"

type jiraPayload struct {
	Issue *struct {
		Key    string `json:"key"`
		Fields *struct {
			Status *struct {
				Name string `json:"name"`
			} `json:"status"`
		} `json:"fields"`
	} `json:"issue"`
	User *struct {
		DisplayName string `json:"displayName"`
	} `json:"user"`
}

// JiraAdapter parses issue-tracker events (status transitions).
type JiraAdapter struct{}

func (JiraAdapter) Kind() string { return KindJira }

func (JiraAdapter) Parse(payload json.RawMessage) (*models.IntermediateRecord, error) {
	var p jiraPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, &ValidationError{Source: KindJira, Field: "(body)", Reason: "is not a JSON object"}
	}

	if p.Issue == nil || p.Issue.Key == "" {
		return nil, &ValidationError{Source: KindJira, Field: "issue.key", Reason: "is required"}
	}
	if p.Issue.Fields == nil || p.Issue.Fields.Status == nil || p.Issue.Fields.Status.Name == "" {
		return nil, &ValidationError{Source: KindJira, Field: "issue.fields.status.name", Reason: "is required"}
	}
	if p.User == nil || p.User.DisplayName == "" {
		return nil, &ValidationError{Source: KindJira, Field: "user.displayName", Reason: "is required"}
	}

	status := p.Issue.Fields.Status.Name

	return &models.IntermediateRecord{
		Source:    KindJira,
		OriginID:  p.Issue.Key,
		Actor:     p.User.DisplayName,
		EventType: "TRANSITION_TO_" + strings.ToUpper(status),
		Context:   fmt.Sprintf("Issue: %s moved to %s", p.Issue.Key, status),
		Timestamp: time.Now().UTC(),
	}, nil
}
