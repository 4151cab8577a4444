package httptyped

import (
	"time"

	"github.com/priestd09/sourcegraph/internal/svc/extsvcsvc"
)

type ExtSvcEntity struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	DisplayName string    `json:"display_name"`
	Config      string    `json:"config"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ExtSvcEntityFromSvc(extsvc extsvcsvc.ExtSvc) ExtSvcEntity {
	return ExtSvcEntity{
		ID:          extsvc.ID,
		Kind:        extsvc.Kind,
		DisplayName: extsvc.DisplayName,
		Config:      extsvc.Config,
		CreatedAt:   extsvc.CreatedAt,
		UpdatedAt:   extsvc.UpdatedAt,
	}
}
