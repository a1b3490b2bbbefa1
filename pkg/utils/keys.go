package utils

import "fmt"

const (
	BatchesRoot   = "batches/"
	DownloadsRoot = "downloads/"
	ManifestName  = "batch_info.json"
)

// BatchPrefix is the key prefix holding every object of a batch.
func BatchPrefix(batchID string) string {
	return BatchesRoot + batchID + "/"
}

// ImageKey is the key of the idx-th normalized image of a batch.
func ImageKey(batchID string, idx int) string {
	return fmt.Sprintf("%s%02d_optimized.jpg", BatchPrefix(batchID), idx)
}

func ManifestKey(batchID string) string {
	return BatchPrefix(batchID) + ManifestName
}

func ArchiveKey(batchID string) string {
	return DownloadsRoot + batchID + ".zip"
}
