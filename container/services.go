package container

import (
	"fmt"

	"github.com/priestd09/sourcegraph/internal/svc/extsvcsvc"
)

type Services interface {
	ExtSvc() extsvcsvc.Service
}

type ServicesImpl struct {
	extSvc extsvcsvc.Service
}

var _ Services = (*ServicesImpl)(nil)

func SetupServices(repos Repositories) (svc *ServicesImpl, err error) {
	if repos == nil {
		err = fmt.Errorf("nil repositories on services preparation")
		return
	}

	// ** Prepare external services service at once
	extSvcRepo, err := repos.ExtSvcRepo()
	if err != nil {
		err = fmt.Errorf("services cannot get external services repo: %w", err)
		return
	}

	extSvcService, err := extsvcsvc.New(extsvcsvc.DefaultServiceConfig{
		ExtSvcRepo: extSvcRepo,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare external services service: %w", err)
		return
	}

	svc = &ServicesImpl{
		extSvc: extSvcService,
	}

	return svc, nil
}

func (s *ServicesImpl) ExtSvc() extsvcsvc.Service {
	return s.extSvc
}
