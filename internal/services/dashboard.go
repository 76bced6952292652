package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/models"
)

// Dashboard is what the signed in user sees first. Lists the user may not see
// are left nil.
type Dashboard struct {
	Applications      []models.ApplicationSummary
	Assessments       []models.AssessmentSummary
	PlacementRequests []models.PlacementRequest
}

// DashboardService gathers the work waiting for a user
type DashboardService struct {
	api *apiclient.Client
}

// NewDashboardService creates a dashboard service
func NewDashboardService(api *apiclient.Client) *DashboardService {
	return &DashboardService{api: api}
}

// Get fetches the lists the user has permission to see concurrently
func (s *DashboardService) Get(ctx context.Context, user *models.User) (*Dashboard, error) {
	out := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		apps, err := s.api.Applications(gctx)
		if err != nil {
			return upstream("list applications", err)
		}
		out.Applications = apps
		return nil
	})
	if user.HasPermission(models.PermissionAssessmentView) {
		g.Go(func() error {
			page, err := s.api.Assessments(gctx, []models.AssessmentStatus{models.AssessmentNotStarted, models.AssessmentInProgress}, apiclient.PageQuery{})
			if err != nil {
				return upstream("list assessments", err)
			}
			out.Assessments = page.Items
			return nil
		})
	}
	if user.HasPermission(models.PermissionPlacementRequestView) {
		g.Go(func() error {
			page, err := s.api.PlacementRequests(gctx, models.PlacementRequestNotMatched, apiclient.PageQuery{})
			if err != nil {
				return upstream("list placement requests", err)
			}
			out.PlacementRequests = page.Items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
