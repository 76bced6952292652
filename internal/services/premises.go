package services

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/overbooking"
)

// CapacityWeeks is how far ahead the premises overview looks for overbookings
const CapacityWeeks = 12

// Residency values accepted by the space bookings list
const (
	ResidencyUpcoming   = "upcoming"
	ResidencyCurrent    = "current"
	ResidencyHistoric   = "historic"
	DefaultSpaceBooking = ResidencyUpcoming
)

// PremisesService reads Approved Premises and their capacity
type PremisesService struct {
	api *apiclient.Client
}

// NewPremisesService creates a premises service
func NewPremisesService(api *apiclient.Client) *PremisesService {
	return &PremisesService{api: api}
}

// List returns the premises, optionally only those in an area
func (s *PremisesService) List(ctx context.Context, areaID string) ([]models.PremisesSummary, error) {
	all, err := s.api.PremisesSummaries(ctx)
	if err != nil {
		return nil, upstream("list premises", err)
	}
	if areaID != "" {
		all = slices.DeleteFunc(all, func(p models.PremisesSummary) bool { return p.APArea.ID != areaID })
	}
	slices.SortFunc(all, func(a, b models.PremisesSummary) int { return strings.Compare(a.Name, b.Name) })
	return all, nil
}

// Areas returns the distinct areas of the given premises, sorted by name
func Areas(premises []models.PremisesSummary) []models.APArea {
	seen := make(map[string]bool)
	var out []models.APArea
	for _, p := range premises {
		if p.APArea.ID == "" || seen[p.APArea.ID] {
			continue
		}
		seen[p.APArea.ID] = true
		out = append(out, p.APArea)
	}
	slices.SortFunc(out, func(a, b models.APArea) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Capacity is the day by day capacity of a premises and its overbooked ranges
type Capacity struct {
	*models.PremisesCapacity
	Overbooked []overbooking.Range
}

// Capacity returns the capacity of a premises between two ISO dates
func (s *PremisesService) Capacity(ctx context.Context, id, startDate, endDate string) (*Capacity, error) {
	if startDate == "" {
		startDate = dates.ToISO(dates.Today())
	}
	if endDate == "" {
		end, err := dates.AddDays(startDate, CapacityWeeks*7)
		if err != nil {
			return nil, err
		}
		endDate = end
	}
	start, err := dates.ParseISO(startDate)
	if err != nil {
		return nil, err
	}
	end, err := dates.ParseISO(endDate)
	if err != nil {
		return nil, err
	}
	if dates.DaysBetween(start, end) < 0 {
		return nil, ErrInvalidRange
	}

	c, err := s.api.PremisesCapacity(ctx, id, startDate, endDate)
	if err != nil {
		return nil, upstream("get capacity of premises "+id, err)
	}
	return &Capacity{PremisesCapacity: c, Overbooked: overbooking.Summary(c.Capacity)}, nil
}

// Overview is everything shown on the premises page
type Overview struct {
	Premises         *models.Premises
	Capacity         *Capacity
	SpaceBookings    *apiclient.Paginated[models.SpaceBookingSummary]
	OutOfServiceBeds []models.OutOfServiceBed
	Residency        string
}

// Overview fetches a premises with its capacity, space bookings and out of
// service beds concurrently
func (s *PremisesService) Overview(ctx context.Context, id, residency string, q apiclient.PageQuery) (*Overview, error) {
	if !slices.Contains([]string{ResidencyUpcoming, ResidencyCurrent, ResidencyHistoric}, residency) {
		residency = DefaultSpaceBooking
	}
	out := &Overview{Residency: residency}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.api.Premises(gctx, id)
		if err != nil {
			return upstream("get premises "+id, err)
		}
		out.Premises = p
		return nil
	})
	g.Go(func() error {
		c, err := s.Capacity(gctx, id, "", "")
		if err != nil {
			return err
		}
		out.Capacity = c
		return nil
	})
	g.Go(func() error {
		page, err := s.api.PremisesSpaceBookings(gctx, id, residency, q)
		if err != nil {
			return upstream("list space bookings of premises "+id, err)
		}
		out.SpaceBookings = page
		return nil
	})
	g.Go(func() error {
		beds, err := s.api.OutOfServiceBeds(gctx, id)
		if err != nil {
			return upstream("list out of service beds of premises "+id, err)
		}
		out.OutOfServiceBeds = beds
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
