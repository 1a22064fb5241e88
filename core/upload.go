package core

type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadDone      UploadStatus = "done"
	UploadFailed    UploadStatus = "failed"
)

// UploadedImage tracks one file through the upload widget. It is never persisted.
type UploadedImage struct {
	Filename    string       `json:"filename"`
	ContentType string       `json:"contentType"`
	Size        int64        `json:"size"`
	URL         string       `json:"url,omitempty"`
	Progress    int          `json:"progress"`
	Status      UploadStatus `json:"status"`
	Error       string       `json:"error,omitempty"`
}
