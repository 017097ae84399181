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

// NextUntrained returns the first track eligible for labeling against the
// given feature: not yet labeled, with a known and available feature
// vector, and playable in the given market.
//
// The scan is linear, stateless, and repeatable; it holds no cursor, so the
// result depends only on current store contents. Returns
// [shared.ErrNoMoreTracks] when every track is filtered out and
// [shared.ErrFeatureNotFound] for an undeclared feature.
func (s *Store) NextUntrained(feature, market string) (*models.Track, error) {
	declared, err := s.HasFeature(feature)
	if err != nil {
		return nil, err
	}
	if !declared {
		return nil, fmt.Errorf("%w: %s", shared.ErrFeatureNotFound, feature)
	}

	var found *models.Track
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(detailKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			trackID := strings.TrimPrefix(string(item.Key()), detailKeyPrefix)

			if _, err := txn.Get(labelKey(feature, trackID)); err == nil {
				continue
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			audioItem, err := txn.Get(audioKey(trackID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			var features *models.AudioFeatures
			if err := audioItem.Value(func(val []byte) error {
				return decodeAudioValue(trackID, val, &features)
			}); err != nil {
				return err
			}
			if features == nil {
				continue
			}

			var track models.Track
			if err := item.Value(func(val []byte) error {
				if err := json.Unmarshal(val, &track); err != nil {
					return fmt.Errorf("%w: track %s: %v", shared.ErrBadRecord, trackID, err)
				}
				return nil
			}); err != nil {
				return err
			}
			if !track.AvailableIn(market) {
				continue
			}

			found = &track
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, shared.ErrNoMoreTracks
	}
	return found, nil
}
