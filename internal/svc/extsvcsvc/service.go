package extsvcsvc

import (
	"context"
	"time"
)

// Service is an interface of final business logic.
// Any input and output from/to this function should be SAFE for external party to consume,
// i.e: request or response from HTTP handler
type Service interface {
	CreateExtSvc(ctx context.Context, input InputCreateExtSvc) (out OutCreateExtSvc, err error)
	UpdateExtSvc(ctx context.Context, input InputUpdateExtSvc) (out OutUpdateExtSvc, err error)
	GetExtSvc(ctx context.Context, input InputGetExtSvc) (out OutGetExtSvc, err error)
	ListExtSvc(ctx context.Context, input InputListExtSvc) (out OutListExtSvc, err error)
	DelExtSvc(ctx context.Context, input InputDelExtSvc) (out OutDelExtSvc, err error)
}

// ExtSvc is like extsvcrepo.ExternalService but this only use for returning output via external service.
// This must not have any json or yaml tag, any output method (HTTP, gRPC, etc) must define its own entity standard.
// Service level just only act as input -> process -> output, not taking care of request/response traffic.
type ExtSvc struct {
	ID          int64
	Kind        string
	DisplayName string
	Config      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type InputCreateExtSvc struct {
	Kind        string `validate:"required"`
	DisplayName string `validate:"required"`
	Config      string `validate:"required"`
}

type OutCreateExtSvc struct {
	ExtSvc ExtSvc
}

type InputUpdateExtSvc struct {
	ID          int64 `validate:"required,min=1"`
	DisplayName *string
	Config      *string
}

type OutUpdateExtSvc struct {
	ExtSvc ExtSvc
}

type InputGetExtSvc struct {
	ID int64 `validate:"required,min=1"`
}

type OutGetExtSvc struct {
	ExtSvc ExtSvc
}

type InputListExtSvc struct {
	Kind   string
	Limit  int64 `validate:"min=0"`
	Offset int64 `validate:"min=0"`
}

type OutListExtSvc struct {
	Total   int64
	Limit   int64
	Offset  int64
	ExtSvcs []ExtSvc
}

type InputDelExtSvc struct {
	ID int64 `validate:"required,min=1"`
}

type OutDelExtSvc struct {
	Success bool
}
