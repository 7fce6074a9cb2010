package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/camden-git/checkinkiosk/media"
	"github.com/camden-git/checkinkiosk/repository"
)

const (
	seriesDays   = 14
	recentLimit  = 10
	seriesLayout = "02 Jan"
)

type KPI struct {
	Total        int     `json:"total_peserta"`
	WithPhoto    int     `json:"dengan_foto"`
	WithoutPhoto int     `json:"tanpa_foto"`
	StorageMB    float64 `json:"foto_storage_mb"`
	StorageBytes int64   `json:"foto_storage_bytes"`
	StorageHuman string  `json:"foto_storage_human"`
}

type Series struct {
	Labels        []string `json:"labels_14d"`
	Registrations []int    `json:"registrations_14d"`
}

// RecentRegistration is one entry of the recent list. Waktu is nil when the
// photo name carries no timestamp.
type RecentRegistration struct {
	UID   string  `json:"uid"`
	Nama  string  `json:"nama"`
	Foto  string  `json:"foto"`
	Waktu *string `json:"waktu"`
}

type Stats struct {
	KPI       KPI                  `json:"kpi"`
	Series    Series               `json:"series"`
	ByWeekday []int                `json:"by_weekday"`
	ByHour    []int                `json:"by_hour"`
	Recent    []RecentRegistration `json:"recent"`
}

// AnalyticsService derives dashboard figures from the CSV and photo dir on
// every call; nothing is cached.
type AnalyticsService struct {
	repo   repository.ParticipantRepository
	photos media.Store

	Now      func() time.Time
	Location *time.Location
}

func NewAnalyticsService(repo repository.ParticipantRepository, photos media.Store) *AnalyticsService {
	return &AnalyticsService{
		repo:     repo,
		photos:   photos,
		Now:      time.Now,
		Location: time.Local,
	}
}

func (s *AnalyticsService) Stats() (*Stats, error) {
	rows, err := s.repo.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	stats := &Stats{
		ByWeekday: make([]int, 7),
		ByHour:    make([]int, 24),
		Recent:    make([]RecentRegistration, 0, len(rows)),
	}
	stats.KPI.Total = len(rows)

	perDay := make(map[string]int)
	type recentRow struct {
		entry RecentRegistration
		ts    int64
		ok    bool
	}
	recent := make([]recentRow, 0, len(rows))

	for _, row := range rows {
		photo := strings.TrimSpace(row.Photo)
		if photo != "" && s.photos.Exists(photo) {
			stats.KPI.WithPhoto++
		}

		entry := RecentRegistration{UID: row.UID, Nama: row.Name}
		if photo != "" {
			entry.Foto = "/" + photo
		}

		ts, ok := media.PhotoTimestamp(photo)
		if ok {
			local := ts.In(loc)
			perDay[local.Format("2006-01-02")]++
			stats.ByWeekday[int(local.Weekday())]++
			stats.ByHour[local.Hour()]++
			waktu := local.Format("2006-01-02T15:04:05")
			entry.Waktu = &waktu
		}
		recent = append(recent, recentRow{entry: entry, ts: ts.Unix(), ok: ok})
	}
	stats.KPI.WithoutPhoto = stats.KPI.Total - stats.KPI.WithPhoto
	if stats.KPI.WithoutPhoto < 0 {
		stats.KPI.WithoutPhoto = 0
	}

	sort.SliceStable(recent, func(a, b int) bool {
		if recent[a].ok != recent[b].ok {
			return recent[a].ok
		}
		return recent[a].ts > recent[b].ts
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	for _, r := range recent {
		stats.Recent = append(stats.Recent, r.entry)
	}

	now := s.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	stats.Series.Labels = make([]string, 0, seriesDays)
	stats.Series.Registrations = make([]int, 0, seriesDays)
	for i := seriesDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		stats.Series.Labels = append(stats.Series.Labels, day.Format(seriesLayout))
		stats.Series.Registrations = append(stats.Series.Registrations, perDay[day.Format("2006-01-02")])
	}

	size, err := s.photos.TotalSize()
	if err != nil {
		return nil, fmt.Errorf("failed to measure photo directory: %w", err)
	}
	stats.KPI.StorageBytes = size
	stats.KPI.StorageMB = math.Round(float64(size)/(1024*1024)*100) / 100
	stats.KPI.StorageHuman = humanize.IBytes(uint64(size))

	return stats, nil
}
