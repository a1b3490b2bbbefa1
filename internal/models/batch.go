package models

import "time"

// Manifest is the persisted record of a completed batch (batch_info.json).
type Manifest struct {
	BatchID     string    `json:"batch_id"`
	TotalImages int       `json:"total_images"`
	ProcessedAt time.Time `json:"processed_at"`
	ImageURLs   []string  `json:"image_urls"`
	Status      string    `json:"status"`
}

// UploadFile is a single source photo handed to the batch orchestrator.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type DownloadResponse struct {
	DownloadURL string `json:"download_url"`
}

type DeleteResponse struct {
	BatchID string `json:"batch_id"`
	Deleted bool   `json:"deleted"`
}

const (
	MaxBatchImages = 8
)
