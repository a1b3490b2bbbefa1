package models

// ProcessedImage describes one normalized image stored for a batch.
type ProcessedImage struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Key      string `json:"key"`
	URL      string `json:"url"`
	Quality  int    `json:"quality"`
	FileSize int64  `json:"file_size"`
	Oversize bool   `json:"oversize,omitempty"`
}
