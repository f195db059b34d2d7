package sync

import (
	"context"

	"solum-sync-service/internal/model"
)

// DownloadResult is the entity set produced by a pull.
type DownloadResult struct {
	Spaces []*model.Space
	Rooms  []*model.ConferenceRoom
}

// Adapter is the uniform sync surface implemented by the SoluM REST variant
// and the legacy CSV/SFTP variant.
//
// Upload pushes the local set verbatim (full overwrite, destructive if the
// local copy is stale). SafeUpload fetches the remote set first and overlays
// local field changes onto matched remote records before pushing.
type Adapter interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Download(ctx context.Context) (*DownloadResult, error)
	Upload(ctx context.Context, spaces []*model.Space, rooms []*model.ConferenceRoom) error
	SafeUpload(ctx context.Context, spaces []*model.Space, rooms []*model.ConferenceRoom) error
	State() model.SyncState
}
