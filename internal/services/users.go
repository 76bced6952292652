package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
)

// UserService reads the signed in user
type UserService struct {
	api *apiclient.Client
}

// NewUserService creates a user service
func NewUserService(api *apiclient.Client) *UserService {
	return &UserService{api: api}
}

// Profile returns the user the token in ctx belongs to
func (s *UserService) Profile(ctx context.Context) (*models.User, error) {
	u, err := s.api.Profile(ctx)
	return u, upstream("get profile", err)
}

// PersonService looks people up by CRN
type PersonService struct {
	api *apiclient.Client
}

// NewPersonService creates a person service
func NewPersonService(api *apiclient.Client) *PersonService {
	return &PersonService{api: api}
}

var crnPattern = regexp.MustCompile(`^[A-Z][0-9]{6}$`)

// Search finds the person with the given CRN
func (s *PersonService) Search(ctx context.Context, crn string) (*models.Person, error) {
	normalised := strings.ToUpper(strings.TrimSpace(crn))
	if normalised == "" {
		return nil, crnError("You must enter a CRN", crn)
	}
	if !crnPattern.MatchString(normalised) {
		return nil, crnError("Enter a CRN in the format X123456", crn)
	}

	p, err := s.api.SearchPerson(ctx, normalised)
	if err != nil {
		if IsNotFound(err) {
			return nil, crnError("No person with a CRN of "+normalised+" was found", crn)
		}
		return nil, upstream("search for "+normalised, err)
	}
	return p, nil
}

// Risks returns the risk summary of a person
func (s *PersonService) Risks(ctx context.Context, crn string) (*models.PersonRisks, error) {
	r, err := s.api.PersonRisks(ctx, crn)
	return r, upstream("get risks of "+crn, err)
}

func crnError(message, input string) *form.ValidationError {
	verr := &form.ValidationError{UserInput: form.Answers{"crn": input}}
	verr.Errors.Add("crn", message)
	return verr
}
