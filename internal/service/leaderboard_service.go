package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/cache"
	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/repository"
)

const leaderboardSheet = "Leaderboard"

// LeaderboardService ranks students by accumulated quiz points.
type LeaderboardService struct {
	results repository.ResultRepository
	cache   *cache.CacheHelper
	size    int
	ttl     time.Duration
	logger  *zap.Logger
}

// NewLeaderboardService builds the service.
func NewLeaderboardService(cfg config.LeaderboardConfig, results repository.ResultRepository, cacheHelper *cache.CacheHelper, logger *zap.Logger) *LeaderboardService {
	size := cfg.Size
	if size <= 0 {
		size = 10
	}
	return &LeaderboardService{
		results: results,
		cache:   cacheHelper,
		size:    size,
		ttl:     cfg.CacheTTL(),
		logger:  orNop(logger),
	}
}

// RegisterHandlers drops the cached ranking whenever a quiz is submitted or
// the set of students changes.
func (s *LeaderboardService) RegisterHandlers(dispatcher events.Dispatcher) {
	invalidate := func(ctx context.Context, _ events.Event) error {
		s.Invalidate(ctx)
		return nil
	}
	dispatcher.Subscribe(events.EventQuizSubmitted, invalidate)
	dispatcher.Subscribe(events.EventRoleChanged, invalidate)
	dispatcher.Subscribe(events.EventAccountDeleted, invalidate)
}

// Top returns the highest ranked students.
func (s *LeaderboardService) Top(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return cache.CacheOrExecute(ctx, s.cache, s.cacheKey(), s.ttl, func(ctx context.Context) ([]domain.LeaderboardEntry, error) {
		points, err := s.results.PointsByStudent(ctx)
		if err != nil {
			return nil, err
		}
		return rankStudents(points, s.size), nil
	})
}

// Invalidate forgets the cached ranking.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	s.cache.Delete(ctx, s.cacheKey())
}

// Export renders the current ranking as an xlsx workbook.
func (s *LeaderboardService) Export(ctx context.Context) ([]byte, error) {
	entries, err := s.Top(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("close workbook", zap.Error(err))
		}
	}()
	if err := f.SetSheetName("Sheet1", leaderboardSheet); err != nil {
		return nil, err
	}

	header := []any{"Rank", "Name", "Class", "Points"}
	if err := f.SetSheetRow(leaderboardSheet, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(leaderboardSheet, "A1", "D1", bold); err != nil {
		return nil, err
	}

	for i, e := range entries {
		class := ""
		if e.ClassLevel != nil {
			class = *e.ClassLevel
		}
		row := []any{e.Rank, e.Name, class, e.Points}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(leaderboardSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(leaderboardSheet, "B", "B", 28); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *LeaderboardService) cacheKey() string {
	return "top:" + strconv.Itoa(s.size)
}

// rankStudents sorts by points, highest first, and keeps the first size rows.
// Ties keep a stable order by name then id.
func rankStudents(points []repository.StudentPoints, size int) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(points))
	for _, p := range points {
		name := "Anonymous"
		if p.FullName != nil && *p.FullName != "" {
			name = *p.FullName
		}
		entries = append(entries, domain.LeaderboardEntry{
			StudentID:  p.StudentID,
			Name:       name,
			ClassLevel: p.ClassLevel,
			Points:     p.Points,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].StudentID < entries[j].StudentID
	})
	if len(entries) > size {
		entries = entries[:size]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
