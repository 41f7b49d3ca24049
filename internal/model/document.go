package model

import "time"

type OrderDocument struct {
	ID           string    `json:"id"`
	FileID       string    `json:"file_id"`
	OrderID      string    `json:"order_id"`
	Category     string    `json:"category"`
	FileType     string    `json:"file_type"`
	Size         int64     `json:"size"`
	Status       string    `json:"status"` // PENDING, PROCESSING, PROCESSED, FAILED
	UploadedAt   time.Time `json:"uploaded_at"`
	UploadedBy   string    `json:"uploaded_by,omitempty"`
	S3URL        string    `json:"s3_url,omitempty"`
	OriginalName string    `json:"original_name"`
}
