package extsvcsvc

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/priestd09/sourcegraph/internal/svc/extsvcrepo"
	"github.com/priestd09/sourcegraph/pkg/tracer"
	"github.com/priestd09/sourcegraph/pkg/validator"
)

type DefaultServiceConfig struct {
	ExtSvcRepo extsvcrepo.Repo `validate:"required"`
}

type DefaultService struct {
	Config DefaultServiceConfig
}

var _ Service = (*DefaultService)(nil)

func New(dep DefaultServiceConfig) (*DefaultService, error) {
	if err := validator.Validate(dep); err != nil {
		return nil, err
	}

	return &DefaultService{
		Config: dep,
	}, nil
}

// CreateExtSvc is a function that knows business logic.
// It doesn't know whether the input come from HTTP or GRPC or any input.
func (d *DefaultService) CreateExtSvc(ctx context.Context, input InputCreateExtSvc) (out OutCreateExtSvc, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error, missing required field: %w", err)
		return
	}

	extsvc := &extsvcrepo.ExternalService{
		Kind:        extsvcrepo.NormalizeKind(input.Kind),
		DisplayName: input.DisplayName,
		Config:      input.Config,
	}

	err = d.Config.ExtSvcRepo.Create(ctx, extsvc)
	if err != nil {
		return
	}

	out = OutCreateExtSvc{
		ExtSvc: ExtSvcFromRepo(*extsvc),
	}
	return
}

func (d *DefaultService) UpdateExtSvc(ctx context.Context, input InputUpdateExtSvc) (out OutUpdateExtSvc, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error, missing required field: %w", err)
		return
	}

	err = d.Config.ExtSvcRepo.Update(ctx, input.ID, extsvcrepo.Update{
		DisplayName: input.DisplayName,
		Config:      input.Config,
	})
	if err != nil {
		return
	}

	extsvc, err := d.Config.ExtSvcRepo.GetByID(ctx, input.ID)
	if err != nil {
		err = fmt.Errorf("cannot reload external service id %d after update: %w", input.ID, err)
		return
	}

	out = OutUpdateExtSvc{
		ExtSvc: ExtSvcFromRepo(extsvc),
	}
	return
}

func (d *DefaultService) GetExtSvc(ctx context.Context, input InputGetExtSvc) (out OutGetExtSvc, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "extsvcsvc.GetExtSvc")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error, missing required field: %w", err)
		return
	}

	extsvc, err := d.Config.ExtSvcRepo.GetByID(ctx, input.ID)
	if err != nil {
		return
	}

	out = OutGetExtSvc{
		ExtSvc: ExtSvcFromRepo(extsvc),
	}
	return
}

func (d *DefaultService) ListExtSvc(ctx context.Context, in InputListExtSvc) (out OutListExtSvc, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("validation error, missing required field: %w", err)
		return
	}

	// set to the default value
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 100
	}

	opt := extsvcrepo.ListOptions{
		Kind: in.Kind,
		LimitOffset: &extsvcrepo.LimitOffset{
			Limit:  int(in.Limit),
			Offset: int(in.Offset),
		},
	}

	services, err := d.Config.ExtSvcRepo.List(ctx, opt)
	if err != nil {
		err = fmt.Errorf("list external services error: %w", err)
		return
	}

	// total ignores the pagination window above
	total, err := d.Config.ExtSvcRepo.Count(ctx, extsvcrepo.ListOptions{Kind: in.Kind})
	if err != nil {
		err = fmt.Errorf("count external services error: %w", err)
		return
	}

	extSvcs := make([]ExtSvc, 0)
	for _, service := range services {
		extSvcs = append(extSvcs, ExtSvcFromRepo(service))
	}

	out = OutListExtSvc{
		Total:   total,
		Limit:   in.Limit,
		Offset:  in.Offset,
		ExtSvcs: extSvcs,
	}

	return
}

func (d *DefaultService) DelExtSvc(ctx context.Context, input InputDelExtSvc) (out OutDelExtSvc, err error) {
	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error, missing required field: %w", err)
		return
	}

	err = d.Config.ExtSvcRepo.Delete(ctx, input.ID)
	if err != nil {
		return
	}

	out = OutDelExtSvc{
		Success: true,
	}
	return
}
