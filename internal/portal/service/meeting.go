package service

import (
	"context"
	"errors"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
)

// MeetingService answers the dashboard reads: attendance numbers and
// meeting listings. All mutation happens through the import, check-in,
// transfer, and undo services.
type MeetingService struct {
	Store store.Store
}

func (s *MeetingService) Get(ctx context.Context, id string) (domain.Meeting, error) {
	m, err := s.Store.Meetings().GetMeetingByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Meeting{}, ErrMeetingNotFound
	}
	return m, err
}

func (s *MeetingService) GetByYear(ctx context.Context, year int) (domain.Meeting, error) {
	m, err := s.Store.Meetings().GetMeetingByYear(ctx, year)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Meeting{}, ErrMeetingNotFound
	}
	return m, err
}

func (s *MeetingService) List(ctx context.Context) ([]domain.Meeting, error) {
	return s.Store.Meetings().ListMeetings(ctx)
}

// Attendance is the live dashboard aggregate for a meeting.
type Attendance struct {
	Meeting      domain.Meeting
	CheckedIn    int
	Total        int
	PercentReady float64
}

func (s *MeetingService) Attendance(ctx context.Context, id string) (Attendance, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return Attendance{}, err
	}
	att := Attendance{Meeting: m, CheckedIn: m.CheckedIn, Total: m.TotalShareholders}
	if m.TotalShareholders > 0 {
		att.PercentReady = float64(m.CheckedIn) / float64(m.TotalShareholders) * 100
	}
	return att, nil
}
