package adapter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

// KindGitHub is the provider kind for source-control webhook events.
const KindGitHub = "github-like"

// githubPayload mirrors the subset of a source-control webhook we consume.
// ID is a json.Number so both numeric and string delivery IDs survive.
type githubPayload struct {
	ID     json.Number `json:"id"`
	Action string      `json:"action"`
	Repo   *struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Sender *struct {
		Login string `json:"login"`
	} `json:"sender"`
}

// GitHubAdapter parses source-control events (PR merged, commit pushed).
type GitHubAdapter struct{}

func (GitHubAdapter) Kind() string { return KindGitHub }

func (GitHubAdapter) Parse(payload json.RawMessage) (*models.IntermediateRecord, error) {
	var p githubPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, &ValidationError{Source: KindGitHub, Field: "(body)", Reason: "is not a JSON object"}
	}

	if p.ID.String() == "" {
		return nil, &ValidationError{Source: KindGitHub, Field: "id", Reason: "is required"}
	}
	if p.Repo == nil || p.Repo.FullName == "" {
		return nil, &ValidationError{Source: KindGitHub, Field: "repository.full_name", Reason: "is required"}
	}
	if p.Sender == nil || p.Sender.Login == "" {
		return nil, &ValidationError{Source: KindGitHub, Field: "sender.login", Reason: "is required"}
	}

	// Bare commit pushes arrive without an action label.
	action := p.Action
	if action == "" {
		action = "push"
	}

	return &models.IntermediateRecord{
		Source:    KindGitHub,
		OriginID:  p.ID.String(),
		Actor:     p.Sender.Login,
		EventType: action,
		Context:   fmt.Sprintf("Repository: %s", p.Repo.FullName),
		Timestamp: time.Now().UTC(),
	}, nil
}
