package knowledge

import (
	"encoding/json"
	"os"

	apperrors "github.com/ZanRoberto/Tecnaria-V3-sub000/errors"
)

// Load reads and validates the knowledge file. A missing file is reported
// as ErrConfigMissing so the caller can degrade to an empty knowledge set
// instead of crashing.
func Load(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.WrapErrorf(apperrors.ErrConfigMissing, "knowledge file %s", path)
		}
		return nil, apperrors.WrapError(err, "read knowledge file")
	}

	var base Base
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, apperrors.WrapError(err, "decode knowledge file")
	}

	if err := base.Validate(); err != nil {
		return nil, err
	}
	return &base, nil
}

// Validate enforces the knowledge set invariants: pairwise distinct IDs,
// non-empty question list and non-empty canonical answer per entry.
func (b *Base) Validate() error {
	seen := make(map[string]struct{}, len(b.Items))
	for _, item := range b.Items {
		if item.ID == "" {
			return apperrors.WrapError(apperrors.ErrInvalidInput, "knowledge entry with empty id")
		}
		if _, dup := seen[item.ID]; dup {
			return apperrors.WrapErrorf(apperrors.ErrInvalidInput, "duplicate knowledge entry id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
		if len(item.Questions) == 0 {
			return apperrors.WrapErrorf(apperrors.ErrInvalidInput, "knowledge entry %q has no questions", item.ID)
		}
		if item.Canonical == "" {
			return apperrors.WrapErrorf(apperrors.ErrInvalidInput, "knowledge entry %q has no canonical answer", item.ID)
		}
	}
	return nil
}
