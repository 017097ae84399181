package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/faintpulse/earmark/internal/models"
	"github.com/faintpulse/earmark/internal/shared"
	"github.com/goccy/go-json"
)

// Key prefixes partition the store into the detail, audio-feature, label,
// and feature-directory namespaces. Labels nest one level deeper:
// label:<feature>:<track_id>.
const (
	detailKeyPrefix  = "detail:"
	audioKeyPrefix   = "audio:"
	labelKeyPrefix   = "label:"
	featureKeyPrefix = "feature:"
)

// unavailableMarker is stored under an audio key when Spotify has no
// feature vector for the track. JSON null keeps the record distinguishable
// from "never fetched" without a second namespace.
var unavailableMarker = []byte("null")

// Store is the embedded track catalog. All methods are safe for concurrent
// use; individual reads and writes are atomic per key.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a catalog backed by memory only. Used in tests.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory catalog: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func detailKey(trackID string) []byte { return []byte(detailKeyPrefix + trackID) }
func audioKey(trackID string) []byte  { return []byte(audioKeyPrefix + trackID) }
func featureKey(name string) []byte   { return []byte(featureKeyPrefix + name) }

func labelKey(feature, id string) []byte {
	return []byte(labelKeyPrefix + feature + ":" + id)
}

// validateFeatureName rejects names that would make label keys ambiguous.
func validateFeatureName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty feature name", shared.ErrInvalidArgument)
	}
	if strings.Contains(name, ":") {
		return fmt.Errorf("%w: feature name must not contain ':'", shared.ErrInvalidArgument)
	}
	return nil
}

// PutTrack writes (or overwrites) the detail record for a track.
func (s *Store) PutTrack(t models.Track) error {
	if t.ID == "" {
		return fmt.Errorf("%w: track id required", shared.ErrInvalidArgument)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal track %s: %w", t.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(detailKey(t.ID), data)
	})
}

// Track reads the detail record for a track.
func (s *Store) Track(id string) (*models.Track, error) {
	var track models.Track
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(detailKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return shared.ErrTrackNotFound
		}
		if err != nil {
			return fmt.Errorf("get track %s: %w", id, err)
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &track); err != nil {
				return fmt.Errorf("%w: track %s: %v", shared.ErrBadRecord, id, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &track, nil
}

// EachTrack iterates detail records in key order. The callback returns
// false to stop the scan early.
func (s *Store) EachTrack(fn func(models.Track) (bool, error)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(detailKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var track models.Track
			err := item.Value(func(val []byte) error {
				if err := json.Unmarshal(val, &track); err != nil {
					return fmt.Errorf("%w: %s: %v", shared.ErrBadRecord, item.Key(), err)
				}
				return nil
			})
			if err != nil {
				return err
			}
			keep, err := fn(track)
			if err != nil {
				return err
			}
			if !keep {
				return nil
			}
		}
		return nil
	})
}

// PutAudioFeatures writes the feature vector for a track. A nil vector
// writes the explicit unavailable marker so the populator never re-fetches
// the track.
func (s *Store) PutAudioFeatures(trackID string, f *models.AudioFeatures) error {
	data := unavailableMarker
	if f != nil {
		var err error
		if data, err = json.Marshal(f); err != nil {
			return fmt.Errorf("marshal audio features %s: %w", trackID, err)
		}
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(audioKey(trackID), data)
	})
}

// AudioFeatures reads the feature vector for a track.
//
// known reports whether any audio record exists; a known track with a nil
// vector carries the unavailable marker.
func (s *Store) AudioFeatures(trackID string) (f *models.AudioFeatures, known bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(audioKey(trackID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get audio features %s: %w", trackID, err)
		}
		known = true
		return item.Value(func(val []byte) error {
			return decodeAudioValue(trackID, val, &f)
		})
	})
	if err != nil {
		return nil, false, err
	}
	return f, known, nil
}

// decodeAudioValue parses a stored audio record, mapping the JSON null
// marker to a nil vector.
func decodeAudioValue(trackID string, val []byte, f **models.AudioFeatures) error {
	if string(val) == string(unavailableMarker) {
		*f = nil
		return nil
	}
	var features models.AudioFeatures
	if err := json.Unmarshal(val, &features); err != nil {
		return fmt.Errorf("%w: audio features %s: %v", shared.ErrBadRecord, trackID, err)
	}
	*f = &features
	return nil
}

// MissingAudioFeatures filters ids down to those with no audio record at
// all. Tracks carrying the unavailable marker are not missing.
func (s *Store) MissingAudioFeatures(ids []string) ([]string, error) {
	var missing []string
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			_, err := txn.Get(audioKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				missing = append(missing, id)
				continue
			}
			if err != nil {
				return fmt.Errorf("get audio features %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return missing, nil
}

// CreateFeature declares a label dimension by writing its directory entry.
// Declaring an existing feature is a no-op.
func (s *Store) CreateFeature(name string) error {
	if err := validateFeatureName(name); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(featureKey(name), []byte{})
	})
}

// HasFeature reports whether a feature has been declared.
func (s *Store) HasFeature(name string) (bool, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(featureKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Features lists declared feature names in key order.
func (s *Store) Features() ([]string, error) {
	names := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(featureKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			names = append(names, strings.TrimPrefix(key, featureKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// PutLabel records a rating for (feature, track), overwriting any previous
// value. The feature must have been declared.
func (s *Store) PutLabel(feature, trackID string, rating byte) error {
	declared, err := s.HasFeature(feature)
	if err != nil {
		return err
	}
	if !declared {
		return fmt.Errorf("%w: %s", shared.ErrFeatureNotFound, feature)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(labelKey(feature, trackID), []byte{rating})
	})
}

// Label reads the rating for (feature, track). labeled is false when no
// label record exists; absence never means "labeled negative".
func (s *Store) Label(feature, trackID string) (rating byte, labeled bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(labelKey(feature, trackID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		labeled = true
		return item.Value(func(val []byte) error {
			if len(val) != 1 {
				return fmt.Errorf("%w: label %s/%s has %d bytes", shared.ErrBadRecord, feature, trackID, len(val))
			}
			rating = val[0]
			return nil
		})
	})
	if err != nil {
		return 0, false, err
	}
	return rating, labeled, nil
}

// EachLabel iterates label records for one feature in key order.
func (s *Store) EachLabel(feature string, fn func(trackID string, rating byte) error) error {
	prefix := labelKeyPrefix + feature + ":"
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			trackID := strings.TrimPrefix(string(item.Key()), prefix)
			var rating byte
			err := item.Value(func(val []byte) error {
				if len(val) != 1 {
					return fmt.Errorf("%w: label %s/%s has %d bytes", shared.ErrBadRecord, feature, trackID, len(val))
				}
				rating = val[0]
				return nil
			})
			if err != nil {
				return err
			}
			if err := fn(trackID, rating); err != nil {
				return err
			}
		}
		return nil
	})
}

// LabelCount returns the number of labels recorded for a feature.
func (s *Store) LabelCount(feature string) (int, error) {
	count := 0
	err := s.EachLabel(feature, func(string, byte) error {
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
