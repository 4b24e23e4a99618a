// Package backup exports and restores the user-authored slice of the
// catalog: release notes and corrections, track DJ metadata. Synced Discogs
// fields are deliberately excluded; they can always be re-fetched.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/asetate/asetate/internal/filex"
	"github.com/asetate/asetate/internal/logging"
	"github.com/asetate/asetate/internal/models"
	"github.com/asetate/asetate/internal/repositories/releases"
)

// ArchiveVersion is bumped when the archive layout changes.
const ArchiveVersion = 1

// Archive is one portable snapshot of a user's annotations.
//
// Releases are keyed by Discogs ID; tracks by "discogsID:position", which
// stays stable across re-syncs even when local row IDs change.
type Archive struct {
	Version    int                     `json:"version"`
	UserID     string                  `json:"user_id"`
	ExportedAt time.Time               `json:"exported_at"`
	Releases   map[string]ReleaseEntry `json:"releases"`
	Tracks     map[string]TrackEntry   `json:"tracks"`
}

type ReleaseEntry struct {
	Notes            string            `json:"notes,omitempty"`
	Corrections      map[string]string `json:"corrections,omitempty"`
	KeptAfterRemoval bool              `json:"kept_after_removal,omitempty"`
}

type TrackEntry struct {
	BPM        *int   `json:"bpm,omitempty"`
	MusicalKey string `json:"musical_key,omitempty"`
	Camelot    string `json:"camelot,omitempty"`
	Energy     *int   `json:"energy,omitempty"`
	IsPlayable bool   `json:"is_playable,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Service builds, persists and restores archives.
type Service struct {
	repo   releases.Repository
	logger logging.Logger
}

func NewService(repo releases.Repository, logger logging.Logger) *Service {
	return &Service{repo: repo, logger: logger.With("component", "backup")}
}

// Export collects every release and track carrying user data.
func (s *Service) Export(ctx context.Context, userID string) (*Archive, error) {
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing releases: %w", err)
	}

	a := &Archive{
		Version:    ArchiveVersion,
		UserID:     userID,
		ExportedAt: time.Now().UTC(),
		Releases:   make(map[string]ReleaseEntry),
		Tracks:     make(map[string]TrackEntry),
	}

	for _, rel := range all {
		if rel.Notes != "" || len(rel.UserCorrections) > 0 || rel.KeptAfterRemoval {
			a.Releases[strconv.FormatInt(rel.DiscogsID, 10)] = ReleaseEntry{
				Notes:            rel.Notes,
				Corrections:      rel.UserCorrections,
				KeptAfterRemoval: rel.KeptAfterRemoval,
			}
		}

		tracks, err := s.repo.ListTracks(ctx, rel.ID)
		if err != nil {
			return nil, fmt.Errorf("listing tracks for %d: %w", rel.DiscogsID, err)
		}
		for _, t := range tracks {
			if !t.HasUserData() {
				continue
			}
			a.Tracks[trackKey(rel.DiscogsID, t.Position)] = TrackEntry{
				BPM:        t.BPM,
				MusicalKey: t.MusicalKey,
				Camelot:    t.Camelot,
				Energy:     t.Energy,
				IsPlayable: t.IsPlayable,
				Notes:      t.Notes,
			}
		}
	}

	s.logger.Info(ctx, "archive exported",
		"releases", len(a.Releases), "tracks", len(a.Tracks))
	return a, nil
}

// Restore applies an archive's annotations onto the current catalog.
// Entries whose release or track no longer exists are skipped and counted.
func (s *Service) Restore(ctx context.Context, userID string, a *Archive) (applied, skipped int, err error) {
	if a.Version != ArchiveVersion {
		return 0, 0, fmt.Errorf("unsupported archive version %d", a.Version)
	}

	byDiscogsID := make(map[int64]*models.Release)
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("listing releases: %w", err)
	}
	for _, rel := range all {
		byDiscogsID[rel.DiscogsID] = rel
	}

	for key, entry := range a.Releases {
		id, convErr := strconv.ParseInt(key, 10, 64)
		if convErr != nil {
			skipped++
			continue
		}
		rel, ok := byDiscogsID[id]
		if !ok {
			skipped++
			continue
		}
		rel.Notes = entry.Notes
		rel.UserCorrections = entry.Corrections
		rel.KeptAfterRemoval = entry.KeptAfterRemoval
		if err := s.repo.UpdateUserFields(ctx, rel); err != nil {
			return applied, skipped, err
		}
		applied++
	}

	for key, entry := range a.Tracks {
		discogsID, position, ok := splitTrackKey(key)
		if !ok {
			skipped++
			continue
		}
		rel, found := byDiscogsID[discogsID]
		if !found {
			skipped++
			continue
		}

		tracks, err := s.repo.ListTracks(ctx, rel.ID)
		if err != nil {
			return applied, skipped, err
		}
		var target *models.Track
		for _, t := range tracks {
			if t.Position == position {
				target = t
				break
			}
		}
		if target == nil {
			skipped++
			continue
		}

		target.BPM = entry.BPM
		target.MusicalKey = entry.MusicalKey
		target.Camelot = entry.Camelot
		target.Energy = entry.Energy
		target.IsPlayable = entry.IsPlayable
		target.Notes = entry.Notes
		if err := s.repo.UpdateTrackUserFields(ctx, target); err != nil {
			return applied, skipped, err
		}
		applied++
	}

	s.logger.Info(ctx, "archive restored", "applied", applied, "skipped", skipped)
	return applied, skipped, nil
}

// WriteFile serializes the archive into dir and returns the file path.
func (s *Service) WriteFile(a *Archive, dir string) (string, error) {
	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("asetate-backup-%s.json", a.ExportedAt.Format("20060102-150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing archive: %w", err)
	}
	return path, nil
}

// ReadFile loads an archive written by WriteFile.
func ReadFile(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing archive: %w", err)
	}
	return &a, nil
}

func trackKey(discogsID int64, position string) string {
	return fmt.Sprintf("%d:%s", discogsID, position)
}

func splitTrackKey(key string) (int64, string, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			id, err := strconv.ParseInt(key[:i], 10, 64)
			if err != nil {
				return 0, "", false
			}
			return id, key[i+1:], true
		}
	}
	return 0, "", false
}
