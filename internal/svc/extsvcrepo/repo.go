package extsvcrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/priestd09/sourcegraph/internal/schema"
)

var (
	ErrValidation = errors.New("validation error")
)

// NotFoundError is returned when the target row does not exist or is
// already soft-deleted.
type NotFoundError struct {
	ID int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("external service not found: id=%d", e.ID)
}

func (e NotFoundError) NotFound() bool {
	return true
}

// LimitOffset is an optional pagination window. Nil means no pagination.
type LimitOffset struct {
	Limit  int
	Offset int
}

// SQL renders the pagination clause, empty when the receiver is nil.
func (o *LimitOffset) SQL() string {
	if o == nil {
		return ""
	}

	return fmt.Sprintf(" LIMIT %d OFFSET %d", o.Limit, o.Offset)
}

// ListOptions contains options for listing external services.
type ListOptions struct {
	Kind string
	*LimitOffset
}

// Update contains optional fields to update. Nil fields are left untouched;
// at least one field must be set.
type Update struct {
	DisplayName *string
	Config      *string
}

// Repo is the external service record store.
//
// Every method requires a privileged caller: access control is a
// precondition enforced by the transport layer, not here.
type Repo interface {
	Create(ctx context.Context, extsvc *ExternalService) error
	Update(ctx context.Context, id int64, update Update) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (ExternalService, error)
	List(ctx context.Context, opt ListOptions) ([]ExternalService, error)
	Count(ctx context.Context, opt ListOptions) (total int64, err error)

	// Typed per-kind listings. While external services storage is disabled
	// they serve the legacy site configuration instead; rows written to the
	// table beforehand stay invisible until the flag is on again (known
	// limitation of the transitional compatibility path).
	ListAWSCodeCommitConnections(ctx context.Context) ([]*schema.AWSCodeCommitConnection, error)
	ListBitbucketServerConnections(ctx context.Context) ([]*schema.BitbucketServerConnection, error)
	ListGitHubConnections(ctx context.Context) ([]*schema.GitHubConnection, error)
	ListGitLabConnections(ctx context.Context) ([]*schema.GitLabConnection, error)
	ListGitoliteConnections(ctx context.Context) ([]*schema.GitoliteConnection, error)
	ListPhabricatorConnections(ctx context.Context) ([]*schema.PhabricatorConnection, error)
}
