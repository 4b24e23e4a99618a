package releases

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/asetate/asetate/internal/common"
	"github.com/asetate/asetate/internal/models"
)

// MemoryRepository is a map-backed Repository used by tests and the
// in-memory storage mode.
type MemoryRepository struct {
	mu          sync.RWMutex
	releases    map[int64]*models.Release
	tracks      map[int64]*models.Track
	nextRelease int64
	nextTrack   int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		releases:    make(map[int64]*models.Release),
		tracks:      make(map[int64]*models.Track),
		nextRelease: 1,
		nextTrack:   1,
	}
}

func (r *MemoryRepository) GetByDiscogsID(ctx context.Context, userID string, discogsID int64) (*models.Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rel := range r.releases {
		if rel.UserID == userID && rel.DiscogsID == discogsID {
			return copyRelease(rel), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Release
	for _, rel := range r.releases {
		if rel.UserID == userID {
			result = append(result, copyRelease(rel))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Artist != result[j].Artist {
			return result[i].Artist < result[j].Artist
		}
		return result[i].Title < result[j].Title
	})
	return result, nil
}

func (r *MemoryRepository) Create(ctx context.Context, rel *models.Release) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.releases {
		if existing.UserID == rel.UserID && existing.DiscogsID == rel.DiscogsID {
			return common.ErrorInternal
		}
	}

	rel.ID = r.nextRelease
	r.nextRelease++
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now()
	}

	for _, t := range rel.Tracks {
		t.ID = r.nextTrack
		r.nextTrack++
		t.ReleaseID = rel.ID
		r.tracks[t.ID] = copyTrack(t)
	}

	stored := copyRelease(rel)
	stored.Tracks = nil
	r.releases[rel.ID] = stored
	return nil
}

func (r *MemoryRepository) UpdateRemoteFields(ctx context.Context, rel *models.Release) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.releases[rel.ID]
	if !ok {
		return common.ErrorNotFound
	}

	stored.Title = rel.Title
	stored.Artist = rel.Artist
	stored.Label = rel.Label
	stored.Year = rel.Year
	stored.CoverArtURL = rel.CoverArtURL
	stored.DiscogsURI = rel.DiscogsURI
	stored.PayloadHash = rel.PayloadHash
	stored.SyncedAt = rel.SyncedAt
	stored.SeenInSync = true
	stored.RemovedFromDiscogsAt = nil
	stored.KeptAfterRemoval = false
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) UpdateUserFields(ctx context.Context, rel *models.Release) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.releases[rel.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.Notes = rel.Notes
	stored.KeptAfterRemoval = rel.KeptAfterRemoval
	stored.UserCorrections = nil
	if rel.UserCorrections != nil {
		stored.UserCorrections = make(map[string]string, len(rel.UserCorrections))
		for k, v := range rel.UserCorrections {
			stored.UserCorrections[k] = v
		}
	}
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) MarkSeen(ctx context.Context, userID string, discogsID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rel := range r.releases {
		if rel.UserID == userID && rel.DiscogsID == discogsID {
			rel.SeenInSync = true
			rel.RemovedFromDiscogsAt = nil
			rel.KeptAfterRemoval = false
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *MemoryRepository) ResetSeen(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rel := range r.releases {
		if rel.UserID == userID {
			rel.SeenInSync = false
		}
	}
	return nil
}

func (r *MemoryRepository) MarkMissing(ctx context.Context, userID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, rel := range r.releases {
		if rel.UserID == userID && !rel.SeenInSync && rel.RemovedFromDiscogsAt == nil {
			t := at
			rel.RemovedFromDiscogsAt = &t
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) ListTracks(ctx context.Context, releaseID int64) ([]*models.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Track
	for _, t := range r.tracks {
		if t.ReleaseID == releaseID {
			result = append(result, copyTrack(t))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *MemoryRepository) CreateTrack(ctx context.Context, t *models.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = r.nextTrack
	r.nextTrack++
	r.tracks[t.ID] = copyTrack(t)
	return nil
}

func (r *MemoryRepository) UpdateTrackRemoteFields(ctx context.Context, t *models.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tracks[t.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.Title = t.Title
	stored.Duration = t.Duration
	return nil
}

func (r *MemoryRepository) UpdateTrackUserFields(ctx context.Context, t *models.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tracks[t.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if t.BPM != nil {
		v := *t.BPM
		stored.BPM = &v
	} else {
		stored.BPM = nil
	}
	if t.Energy != nil {
		v := *t.Energy
		stored.Energy = &v
	} else {
		stored.Energy = nil
	}
	stored.MusicalKey = t.MusicalKey
	stored.Camelot = t.Camelot
	stored.IsPlayable = t.IsPlayable
	stored.Notes = t.Notes
	return nil
}

func (r *MemoryRepository) DeleteTrack(ctx context.Context, trackID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tracks[trackID]; !ok {
		return common.ErrorNotFound
	}
	delete(r.tracks, trackID)
	return nil
}

func copyRelease(rel *models.Release) *models.Release {
	c := *rel
	if rel.RemovedFromDiscogsAt != nil {
		t := *rel.RemovedFromDiscogsAt
		c.RemovedFromDiscogsAt = &t
	}
	if rel.UserCorrections != nil {
		c.UserCorrections = make(map[string]string, len(rel.UserCorrections))
		for k, v := range rel.UserCorrections {
			c.UserCorrections[k] = v
		}
	}
	c.Tracks = nil
	for _, t := range rel.Tracks {
		c.Tracks = append(c.Tracks, copyTrack(t))
	}
	return &c
}

func copyTrack(t *models.Track) *models.Track {
	c := *t
	if t.BPM != nil {
		v := *t.BPM
		c.BPM = &v
	}
	if t.Energy != nil {
		v := *t.Energy
		c.Energy = &v
	}
	return &c
}
