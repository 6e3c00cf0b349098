package publishers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/newsapi-harvester/internal/domain"
)

// fifoSuffix marks SQS queues and SNS topics that require group and
// deduplication IDs.
const fifoSuffix = ".fifo"

// Event is the envelope every sink receives for one harvested article.
type Event struct {
	EventID     string         `json:"event_id"`
	QueryID     string         `json:"query_id"`
	QueryName   string         `json:"query_name"`
	Article     domain.Article `json:"article"`
	CollectedAt time.Time      `json:"collected_at"`
}

// NewEvent wraps article as harvested by the saved query queryID.
func NewEvent(queryID, queryName string, article domain.Article) Event {
	return Event{
		EventID:     uuid.NewString(),
		QueryID:     queryID,
		QueryName:   queryName,
		Article:     article,
		CollectedAt: time.Now().UTC(),
	}
}

func (e Event) encode() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.EventID, err)
	}
	return payload, nil
}

// dedupeKey identifies the article rather than the delivery, so a re-harvested
// article collapses on sinks that deduplicate.
func (e Event) dedupeKey() string {
	if e.Article.ID != "" {
		return e.Article.ID
	}
	return e.EventID
}

// attributes are the routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{"query_id": e.QueryID}
	if e.Article.SourceName != "" {
		attrs["source_name"] = e.Article.SourceName
	}
	return attrs
}

func isFIFO(target string) bool {
	return strings.HasSuffix(target, fifoSuffix)
}

func deliveryFields(pubID string, evt Event, extra map[string]any) map[string]any {
	fields := map[string]any{
		"publisher_id": pubID,
		"event_id":     evt.EventID,
		"article_id":   evt.Article.ID,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}
