package models

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusAborted    = "aborted"
)

// BatchEvent is published on the events exchange when a batch changes state.
type BatchEvent struct {
	Type        string   `json:"type"`
	BatchID     string   `json:"batch_id"`
	TotalImages int      `json:"total_images,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	FailedIndex *int     `json:"failed_index,omitempty"`
	Error       string   `json:"error,omitempty"`
}

const (
	EventBatchCompleted = "batch.completed"
	EventBatchAborted   = "batch.aborted"
	EventBatchDeleted   = "batch.deleted"
)
