package core

import (
	"context"
	"fmt"
	"io"

	"curriculumcore/internal/blob"
	"curriculumcore/internal/snapshot"
	"curriculumcore/pkg/domain"
)

// ApplyResult counts the records written by ApplySnapshot.
type ApplyResult struct {
	CurriculumRows int  `json:"curriculumRows"`
	Standards      int  `json:"standards"`
	NavigationTabs int  `json:"navigationTabs"`
	DropdownItems  int  `json:"dropdownItems"`
	TableConfigs   int  `json:"tableConfigs"`
	Navigation     bool `json:"navigationReplaced"`
	SchoolYear     bool `json:"schoolYearReplaced"`
}

// ImportResult reports a completed import.
type ImportResult struct {
	Summary snapshot.Summary `json:"summary"`
	Applied ApplyResult      `json:"applied"`
	Backup  *blob.Info       `json:"backup,omitempty"`
}

// ExportSnapshot captures the whole dataset as a snapshot document.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.view(ctx, "export_snapshot", func(v domain.TransactionView) error {
		snap = Snapshot{
			CurriculumRows: v.ListCurriculumRows(),
			Standards:      v.ListStandards(),
			NavigationTabs: v.ListNavigationTabs(),
			DropdownItems:  v.ListDropdownItems(),
			TableConfigs:   v.ListTableConfigs(),
		}
		if year, ok := v.SchoolYear(); ok {
			snap.SchoolYear = &year
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	snap.Metadata = domain.NewSnapshotMetadata(snap, s.clock.Now())
	return snap, nil
}

// ValidateSnapshot checks a raw document without touching the store.
func (s *Service) ValidateSnapshot(_ context.Context, payload []byte) (snapshot.Summary, error) {
	sum, err := snapshot.Validate(payload)
	if err != nil {
		s.logger.Warn("snapshot rejected", "error", err)
	}
	return sum, err
}

// ApplySnapshot replaces the dataset with snap in one transaction. Rows and
// standards are always replaced; navigation is replaced only when snap
// carries any navigation array. Ids are preserved. On failure the store is
// left as it was.
func (s *Service) ApplySnapshot(ctx context.Context, snap Snapshot) (ApplyResult, Result, error) {
	var out ApplyResult
	res, err := s.run(ctx, "apply_snapshot", nil, func(tx domain.Transaction) error {
		out = ApplyResult{Navigation: snap.HasNavigation()}
		truncate := []domain.EntityType{EntityCurriculumRow, EntityStandard}
		if out.Navigation {
			truncate = append(truncate, EntityTableConfig, EntityDropdownItem, EntityNavigationTab)
		}
		for _, entity := range truncate {
			if _, err := tx.Truncate(entity); err != nil {
				return fmt.Errorf("clear %s: %w", entity, err)
			}
		}

		for _, std := range snap.Standards {
			if _, err := tx.CreateStandard(std); err != nil {
				return fmt.Errorf("restore standard %d: %w", std.ID, err)
			}
			out.Standards++
		}
		for _, tab := range snap.NavigationTabs {
			if _, err := tx.CreateNavigationTab(tab); err != nil {
				return fmt.Errorf("restore navigation tab %d: %w", tab.ID, err)
			}
			out.NavigationTabs++
		}
		for _, item := range snap.DropdownItems {
			if _, err := tx.CreateDropdownItem(item); err != nil {
				return fmt.Errorf("restore dropdown item %d: %w", item.ID, err)
			}
			out.DropdownItems++
		}
		for _, cfg := range snap.TableConfigs {
			if _, err := tx.CreateTableConfig(cfg); err != nil {
				return fmt.Errorf("restore table config %d: %w", cfg.ID, err)
			}
			out.TableConfigs++
		}
		for _, row := range snap.CurriculumRows {
			if _, err := tx.CreateCurriculumRow(row); err != nil {
				return fmt.Errorf("restore curriculum row %d: %w", row.ID, err)
			}
			out.CurriculumRows++
		}
		if snap.SchoolYear != nil {
			if _, err := tx.PutSchoolYear(*snap.SchoolYear); err != nil {
				return fmt.Errorf("restore school year: %w", err)
			}
			out.SchoolYear = true
		}
		return nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			err = domain.IntegrityError{Op: "apply_snapshot", Err: err}
		}
		return ApplyResult{}, res, err
	}
	s.logger.Info("snapshot applied",
		"curriculum_rows", out.CurriculumRows, "standards", out.Standards,
		"navigation_replaced", out.Navigation)
	return out, res, nil
}

// ImportSnapshot validates the document read from r, archives a backup of
// the current dataset when configured, and applies the document.
func (s *Service) ImportSnapshot(ctx context.Context, r io.Reader) (ImportResult, error) {
	snap, sum, err := snapshot.Decode(r)
	if err != nil {
		s.logger.Warn("snapshot rejected", "error", err)
		return ImportResult{}, err
	}
	out := ImportResult{Summary: sum}
	if s.backupBeforeImport {
		current, err := s.ExportSnapshot(ctx)
		if err != nil {
			return ImportResult{}, fmt.Errorf("export before import: %w", err)
		}
		info, err := s.archive.Save(ctx, ArchiveBackup, current)
		if err != nil {
			return ImportResult{}, fmt.Errorf("backup before import: %w", err)
		}
		out.Backup = &info
		s.logger.Info("pre-import backup written", "key", info.Key, "driver", s.archive.Driver())
	}
	applied, _, err := s.ApplySnapshot(ctx, snap)
	if err != nil {
		return ImportResult{}, err
	}
	out.Applied = applied
	return out, nil
}

// ArchiveSnapshot exports the dataset into the configured archive.
func (s *Service) ArchiveSnapshot(ctx context.Context, kind ArchiveKind) (blob.Info, error) {
	if s.archive == nil {
		return blob.Info{}, fmt.Errorf("no snapshot archive configured")
	}
	snap, err := s.ExportSnapshot(ctx)
	if err != nil {
		return blob.Info{}, err
	}
	return s.archive.Save(ctx, kind, snap)
}

// RestoreArchived applies an archived snapshot by key.
func (s *Service) RestoreArchived(ctx context.Context, key string) (ImportResult, error) {
	if s.archive == nil {
		return ImportResult{}, fmt.Errorf("no snapshot archive configured")
	}
	snap, sum, err := s.archive.Load(ctx, key)
	if err != nil {
		return ImportResult{}, err
	}
	applied, _, err := s.ApplySnapshot(ctx, snap)
	if err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Summary: sum, Applied: applied}, nil
}
