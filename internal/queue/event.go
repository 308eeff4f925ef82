// Package queue defines the report lifecycle events exchanged over RabbitMQ,
// their publisher and the log-writing consumer.
package queue

// Event types.
const (
	EventReported = "pollution.reported"
	EventUpdated  = "pollution.updated"
	EventDeleted  = "pollution.deleted"
)

// PollutionEvent is published after a report is created, updated or
// deleted.  It carries enough for a consumer to log or notify without
// querying the primary database.
type PollutionEvent struct {
	Type          string `json:"type"`
	PollutionID   int64  `json:"pollution_id"`
	Titre         string `json:"titre"`
	TypePollution string `json:"type_pollution"`
	Lieu          string `json:"lieu"`
	UtilisateurID string `json:"utilisateur_id,omitempty"`
	ActorID       string `json:"actor_id"`
	OccurredAt    string `json:"occurred_at"`
}
