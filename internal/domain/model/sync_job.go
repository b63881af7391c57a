package model

import (
	"time"
)

const (
	SyncJobStatusQueued     = "Queued"
	SyncJobStatusProcessing = "Processing" // Worker picked it up, trying to get the user lock
	SyncJobStatusCompleted  = "Completed"
	SyncJobStatusFailed     = "Failed"
)

// SyncJob is the payload pushed onto the judge sync queue.
type SyncJob struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Limit      int       `json:"limit"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// SyncResult is what a judge sync reports back, synchronously or via the job status key.
type SyncResult struct {
	Username               string    `json:"username"`
	SyncedSubmissionsCount int       `json:"synced_submissions_count"`
	UpdatedStatusesCount   int       `json:"updated_statuses_count"`
	LastSyncAt             time.Time `json:"last_sync_at"`
}

// SyncJobState is stored under the job's status key so clients can poll it.
type SyncJobState struct {
	JobID     string      `json:"job_id"`
	UserID    int64       `json:"user_id"`
	Status    string      `json:"status"`
	Result    *SyncResult `json:"result,omitempty"`
	LastError *string     `json:"last_error,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}
