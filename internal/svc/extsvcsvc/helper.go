package extsvcsvc

import (
	"github.com/priestd09/sourcegraph/internal/svc/extsvcrepo"
)

func ExtSvcFromRepo(extsvc extsvcrepo.ExternalService) ExtSvc {
	e := ExtSvc{
		ID:          extsvc.ID,
		Kind:        extsvc.Kind,
		DisplayName: extsvc.DisplayName,
		Config:      extsvc.Config,
		CreatedAt:   extsvc.CreatedAt.UTC(),
		UpdatedAt:   extsvc.UpdatedAt.UTC(),
	}
	return e
}
