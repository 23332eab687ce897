package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/basegroupapp/basegroup-server/internal/basegroup"
	"github.com/basegroupapp/basegroup-server/internal/domain"
	domainerrors "github.com/basegroupapp/basegroup-server/internal/errors"
	"github.com/basegroupapp/basegroup-server/internal/loader"
	"github.com/basegroupapp/basegroup-server/internal/search"
	"github.com/basegroupapp/basegroup-server/internal/store"
)

// Dataset sources.
const (
	SourceUpload  = "upload"
	SourceDataDir = "data_dir"
)

// sessionState is one session's loaded dataset: the grouping engine and
// the ranked search index over the same records. The mutex serializes a
// session's queries against its own reloads.
type sessionState struct {
	mu     sync.Mutex
	engine *basegroup.Engine
	index  *search.Index
}

// DatasetService owns per-session dataset state. Loads parse a file,
// rebuild the session's engine and search index, and persist a snapshot
// so the dataset survives a server restart.
type DatasetService struct {
	store  *store.Store
	files  *FileService
	marker string
	logger *slog.Logger

	mu     sync.Mutex
	states map[string]*sessionState
}

// NewDatasetService creates a dataset service. marker is the base-name
// grouping marker.
func NewDatasetService(st *store.Store, files *FileService, marker string, logger *slog.Logger) *DatasetService {
	return &DatasetService{
		store:  st,
		files:  files,
		marker: marker,
		logger: logger,
		states: make(map[string]*sessionState),
	}
}

// state returns the session's state, creating it on first use. A newly
// created state is restored from the store snapshot when one exists, so
// sessions keep their dataset across restarts.
func (s *DatasetService) state(ctx context.Context, sessionID string) (*sessionState, error) {
	s.mu.Lock()
	st, ok := s.states[sessionID]
	if !ok {
		st = &sessionState{engine: basegroup.NewEngine(s.marker)}
		s.states[sessionID] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	if !ok {
		if err := s.restore(ctx, sessionID, st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *DatasetService) restore(ctx context.Context, sessionID string, st *sessionState) error {
	ds, err := s.store.GetDataset(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrDatasetNotFound) {
			return nil
		}
		return fmt.Errorf("restore dataset: %w", err)
	}

	if err := st.engine.Rebuild(ds); err != nil {
		// A snapshot that no longer rebuilds is dropped, not fatal.
		s.logger.Warn("Dropping unusable dataset snapshot", "session_id", sessionID, "error", err)
		return nil
	}
	if err := s.rebuildIndex(st); err != nil {
		return err
	}

	s.logger.Info("Restored dataset from snapshot", "session_id", sessionID, "dataset", ds.Name, "rows", len(ds.Records))
	return nil
}

func (s *DatasetService) rebuildIndex(st *sessionState) error {
	if st.index == nil {
		idx, err := search.NewIndex()
		if err != nil {
			return fmt.Errorf("create search index: %w", err)
		}
		st.index = idx
	}

	var records []domain.Record
	if ds := st.engine.Dataset(); ds != nil {
		records = ds.Records
	}
	if err := st.index.Rebuild(records); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	return nil
}

// LoadRequest loads a dataset into a session, either from the data
// directory (FileName only) or from uploaded content (Data set).
type LoadRequest struct {
	FileName string
	Sheets   []string
	Data     []byte
}

// Load parses and activates a dataset for the session, replacing any
// previously loaded one. The snapshot in the store is replaced as well.
func (s *DatasetService) Load(ctx context.Context, sessionID string, req LoadRequest) (*domain.DatasetSummary, error) {
	data := req.Data
	source := SourceUpload
	if data == nil {
		var err error
		data, err = s.files.Read(req.FileName)
		if err != nil {
			return nil, err
		}
		source = SourceDataDir
	}

	ds, err := loader.Load(req.FileName, data, req.Sheets)
	if err != nil {
		return nil, err
	}
	ds.SessionID = sessionID
	ds.Source = source

	st, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.engine.Rebuild(ds); err != nil {
		return nil, err
	}
	if err := s.rebuildIndex(st); err != nil {
		return nil, err
	}

	if err := s.store.SaveDataset(ctx, ds); err != nil {
		return nil, fmt.Errorf("save dataset snapshot: %w", err)
	}

	s.logger.Info("Dataset loaded",
		"session_id", sessionID,
		"dataset", ds.Name,
		"source", source,
		"rows", len(ds.Records),
		"keys", len(st.engine.Index().Keys()))

	return s.summarize(st), nil
}

// Sheets lists the worksheet names of an Excel file in the data
// directory, so clients can pick sheets before loading.
func (s *DatasetService) Sheets(fileName string) ([]string, error) {
	data, err := s.files.Read(fileName)
	if err != nil {
		return nil, err
	}
	return loader.ListSheets(data)
}

// Current returns a summary of the session's loaded dataset.
func (s *DatasetService) Current(ctx context.Context, sessionID string) (*domain.DatasetSummary, error) {
	st, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.engine.Dataset() == nil {
		return nil, domainerrors.EmptyDataset("no dataset loaded for this session")
	}
	return s.summarize(st), nil
}

// summarize builds the API view of the loaded dataset. Callers hold the
// state lock.
func (s *DatasetService) summarize(st *sessionState) *domain.DatasetSummary {
	ds := st.engine.Dataset()
	return &domain.DatasetSummary{
		ID:           ds.ID,
		Name:         ds.Name,
		Source:       ds.Source,
		Sheets:       ds.Sheets,
		Columns:      ds.Columns,
		BaseColumn:   ds.BaseColumn,
		StatusColumn: ds.StatusColumn,
		RowCount:     len(ds.Records),
		KeyCount:     len(st.engine.Index().Keys()),
		LoadedAt:     ds.LoadedAt,
	}
}

// Groups lists the session's groups with member raw names and counts.
func (s *DatasetService) Groups(ctx context.Context, sessionID string) ([]basegroup.GroupSummary, error) {
	var out []basegroup.GroupSummary
	err := s.query(ctx, sessionID, func(e *basegroup.Engine) {
		out = e.Groups()
	})
	return out, err
}

// FilterByBase returns the records grouped under a key or exact raw name.
func (s *DatasetService) FilterByBase(ctx context.Context, sessionID, keyOrRaw string) ([]domain.Record, error) {
	var out []domain.Record
	err := s.query(ctx, sessionID, func(e *basegroup.Engine) {
		out = e.FilterByBase(keyOrRaw)
	})
	return out, err
}

// Combine returns the deduplicated union of records across several keys
// or raw names, in dataset order.
func (s *DatasetService) Combine(ctx context.Context, sessionID string, bases []string) ([]domain.Record, error) {
	var out []domain.Record
	err := s.query(ctx, sessionID, func(e *basegroup.Engine) {
		out = e.Combine(bases)
	})
	return out, err
}

// Search scans the session's records with the deterministic engine scan.
func (s *DatasetService) Search(ctx context.Context, sessionID string, q basegroup.SearchQuery) ([]domain.Record, error) {
	var out []domain.Record
	err := s.query(ctx, sessionID, func(e *basegroup.Engine) {
		out = e.Search(q)
	})
	return out, err
}

// FuzzySearch runs a ranked, typo-tolerant query over the session's
// search index.
func (s *DatasetService) FuzzySearch(ctx context.Context, sessionID, term string, limit int) (*search.Result, error) {
	st, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.index == nil {
		return &search.Result{Query: term}, nil
	}
	return st.index.Search(ctx, term, limit)
}

// GroupStats aggregates approval statuses for one group key.
func (s *DatasetService) GroupStats(ctx context.Context, sessionID, key string) (basegroup.Stats, error) {
	var out basegroup.Stats
	err := s.query(ctx, sessionID, func(e *basegroup.Engine) {
		out = e.Stats(key)
	})
	return out, err
}

// StatsAll aggregates statuses across every group, with totals and each
// key's share of the dataset.
func (s *DatasetService) StatsAll(ctx context.Context, sessionID string) (basegroup.AllStats, error) {
	var out basegroup.AllStats
	err := s.query(ctx, sessionID, func(e *basegroup.Engine) {
		out = e.StatsAll()
	})
	return out, err
}

// FilterByStatus returns the session's records with the given status.
func (s *DatasetService) FilterByStatus(ctx context.Context, sessionID string, status domain.Status) ([]domain.Record, error) {
	var out []domain.Record
	err := s.query(ctx, sessionID, func(e *basegroup.Engine) {
		out = e.FilterByStatus(status)
	})
	return out, err
}

// Records returns a page of the session's records in dataset order, plus
// the total row count.
func (s *DatasetService) Records(ctx context.Context, sessionID string, offset, limit int) ([]domain.Record, int, error) {
	var (
		out   []domain.Record
		total int
	)
	err := s.query(ctx, sessionID, func(e *basegroup.Engine) {
		out, total = e.Records(offset, limit)
	})
	return out, total, err
}

func (s *DatasetService) query(ctx context.Context, sessionID string, fn func(*basegroup.Engine)) error {
	st, err := s.state(ctx, sessionID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	fn(st.engine)
	return nil
}

// DropState releases a session's in-memory dataset state. Called on
// logout; the store snapshot is removed by session deletion.
func (s *DatasetService) DropState(sessionID string) {
	s.mu.Lock()
	st, ok := s.states[sessionID]
	delete(s.states, sessionID)
	s.mu.Unlock()

	if ok && st.index != nil {
		_ = st.index.Close()
	}
}

// Close releases all in-memory state.
func (s *DatasetService) Close() {
	s.mu.Lock()
	states := s.states
	s.states = make(map[string]*sessionState)
	s.mu.Unlock()

	for _, st := range states {
		if st.index != nil {
			_ = st.index.Close()
		}
	}
}
