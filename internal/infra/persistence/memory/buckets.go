package memory

import (
	"encoding/json"
	"fmt"
)

// Bucket names used by durable backends that persist the state as one JSON
// payload per entity collection.
const (
	BucketNavigationTabs = "navigation_tabs"
	BucketDropdownItems  = "dropdown_items"
	BucketTableConfigs   = "table_configs"
	BucketCurriculumRows = "curriculum_rows"
	BucketStandards      = "standards"
	BucketSchoolYear     = "school_year"
	BucketSequences      = "sequences"
)

// Buckets lists every bucket in persistence order.
var Buckets = []string{
	BucketNavigationTabs,
	BucketDropdownItems,
	BucketTableConfigs,
	BucketCurriculumRows,
	BucketStandards,
	BucketSchoolYear,
	BucketSequences,
}

func (s *Snapshot) bucketTargets() map[string]any {
	return map[string]any{
		BucketNavigationTabs: &s.NavigationTabs,
		BucketDropdownItems:  &s.DropdownItems,
		BucketTableConfigs:   &s.TableConfigs,
		BucketCurriculumRows: &s.CurriculumRows,
		BucketStandards:      &s.Standards,
		BucketSchoolYear:     &s.SchoolYear,
		BucketSequences:      &s.Sequences,
	}
}

// EncodeBuckets marshals each collection of the snapshot into its bucket payload.
func (s Snapshot) EncodeBuckets() (map[string][]byte, error) {
	targets := s.bucketTargets()
	out := make(map[string][]byte, len(Buckets))
	for _, bucket := range Buckets {
		data, err := json.Marshal(targets[bucket])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBucket unmarshals payload into the collection named by bucket.
// Unknown buckets and empty payloads are ignored.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	target, ok := s.bucketTargets()[bucket]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
