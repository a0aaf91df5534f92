package sending

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/welldanyogia/webrana-mailcast-backend/internal/errors"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
)

type sourceKind int

const (
	sourceNone sourceKind = iota
	sourceExplicit
	sourceUser
)

// CompanySource says where a sending's company comes from when it is not set yet.
// The zero value supplies no company.
type CompanySource struct {
	kind sourceKind
	id   uint
}

// ExplicitCompany uses the given company account ID
func ExplicitCompany(companyID uint) CompanySource {
	return CompanySource{kind: sourceExplicit, id: companyID}
}

// FromUser derives the company from the requesting user
func FromUser(userID uint) CompanySource {
	return CompanySource{kind: sourceUser, id: userID}
}

// IsZero reports whether the source supplies nothing
func (c CompanySource) IsZero() bool {
	return c.kind == sourceNone
}

// String implements fmt.Stringer
func (c CompanySource) String() string {
	switch c.kind {
	case sourceExplicit:
		return fmt.Sprintf("company:%d", c.id)
	case sourceUser:
		return fmt.Sprintf("user:%d", c.id)
	}
	return "none"
}

// CompanyResolver looks up the account behind a company or user ID
type CompanyResolver interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// ResolveCompany fills s.CompanyID from src. A sending that already has a
// company keeps it and src is ignored.
func ResolveCompany(ctx context.Context, s *models.Sending, src CompanySource, resolver CompanyResolver) error {
	if s.CompanyID != 0 {
		return nil
	}

	switch src.kind {
	case sourceExplicit:
		return adoptCompany(ctx, s, src.id, resolver, "company")
	case sourceUser:
		return adoptCompany(ctx, s, src.id, resolver, "user")
	}

	return apperrors.ErrMissingCompany
}

// adoptCompany loads the account behind id and makes it the sending's
// company. An unknown account is reported as ErrMissingCompany.
func adoptCompany(ctx context.Context, s *models.Sending, id uint, resolver CompanyResolver, label string) error {
	if resolver == nil || id == 0 {
		return apperrors.ErrMissingCompany
	}
	user, err := resolver.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || apperrors.IsNotFound(err) {
			return fmt.Errorf("%s %d: %w", label, id, apperrors.ErrMissingCompany)
		}
		return fmt.Errorf("failed to resolve company for %s %d: %w", label, id, err)
	}
	s.CompanyID = user.ID
	s.Company = user
	return nil
}
