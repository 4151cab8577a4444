package handlerextsvc

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ylog"

	"github.com/priestd09/sourcegraph/internal/svc/extsvcrepo"
	"github.com/priestd09/sourcegraph/internal/svc/extsvcsvc"
	"github.com/priestd09/sourcegraph/pkg/respbuilder"
	"github.com/priestd09/sourcegraph/pkg/validator"
	"github.com/priestd09/sourcegraph/transport/restapi/httptyped"
)

type HandlerConfig struct {
	ExtSvcService extsvcsvc.Service `validate:"required"`
}

type Handler struct {
	Config HandlerConfig
}

func NewHandler(conf HandlerConfig) (*Handler, error) {
	err := validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	return &Handler{Config: conf}, nil
}

// errKindOf maps service errors onto HTTP status and response error kind.
func errKindOf(err error) (int, respbuilder.ErrKind) {
	var notFound extsvcrepo.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, respbuilder.ErrResourceNotFound
	}

	if errors.Is(err, extsvcrepo.ErrValidation) {
		return http.StatusBadRequest, respbuilder.ErrValidation
	}

	return http.StatusBadRequest, respbuilder.ErrUnhandled
}

func pathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id '%s' is not a valid integer", raw)
	}

	return id, nil
}

type CreateExtSvcReq struct {
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	Config      string `json:"config"`
}

type CreateExtSvcResp struct {
	ExternalService httptyped.ExtSvcEntity `json:"external_service"`
}

// CreateExtSvc register a new external service connection.
// Path         : POST /api/v1/external-services
// Request Body : CreateExtSvcReq
// Response     : CreateExtSvcResp
func (h *Handler) CreateExtSvc() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Body == nil {
			err := fmt.Errorf("request body is nil")
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		defer func() {
			if _err := r.Body.Close(); _err != nil {
				ylog.Error(ctx, "cannot close request body", ylog.KV("error", _err))
			}
		}()

		var reqBody CreateExtSvcReq
		dec := json.NewDecoder(r.Body)
		err := dec.Decode(&reqBody)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		createIn := extsvcsvc.InputCreateExtSvc{
			Kind:        reqBody.Kind,
			DisplayName: reqBody.DisplayName,
			Config:      reqBody.Config,
		}

		createOut, err := h.Config.ExtSvcService.CreateExtSvc(ctx, createIn)
		if err != nil {
			status, kind := errKindOf(err)
			resp := respbuilder.Error(ctx, kind, err)
			respbuilder.WriteJSON(status, w, r, resp)
			return
		}

		respBody := CreateExtSvcResp{
			ExternalService: httptyped.ExtSvcEntityFromSvc(createOut.ExtSvc),
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusCreated, w, r, resp)
	}

	return handler
}

type UpdateExtSvcReq struct {
	DisplayName *string `json:"display_name"`
	Config      *string `json:"config"`
}

type UpdateExtSvcResp struct {
	ExternalService httptyped.ExtSvcEntity `json:"external_service"`
}

// UpdateExtSvc patch display name and/or config of one external service.
// Path         : PUT /api/v1/external-services/{id}
// Request Body : UpdateExtSvcReq
// Response     : UpdateExtSvcResp
func (h *Handler) UpdateExtSvc() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := pathID(r)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		if r.Body == nil {
			err := fmt.Errorf("request body is nil")
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		defer func() {
			if _err := r.Body.Close(); _err != nil {
				ylog.Error(ctx, "cannot close request body", ylog.KV("error", _err))
			}
		}()

		var reqBody UpdateExtSvcReq
		dec := json.NewDecoder(r.Body)
		err = dec.Decode(&reqBody)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		updateIn := extsvcsvc.InputUpdateExtSvc{
			ID:          id,
			DisplayName: reqBody.DisplayName,
			Config:      reqBody.Config,
		}

		updateOut, err := h.Config.ExtSvcService.UpdateExtSvc(ctx, updateIn)
		if err != nil {
			status, kind := errKindOf(err)
			resp := respbuilder.Error(ctx, kind, err)
			respbuilder.WriteJSON(status, w, r, resp)
			return
		}

		respBody := UpdateExtSvcResp{
			ExternalService: httptyped.ExtSvcEntityFromSvc(updateOut.ExtSvc),
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type ListExtSvcReq struct {
	Kind   string `schema:"kind"`
	Limit  int64  `schema:"limit"`
	Offset int64  `schema:"offset"`
}

type ListExtSvcResp struct {
	Total  int64                    `json:"total"`
	Limit  int64                    `json:"limit"`
	Offset int64                    `json:"offset"`
	Items  []httptyped.ExtSvcEntity `json:"items"`
}

// ListExtSvc list external services, newest first.
// Path          : GET /api/v1/external-services
// Request Query : ListExtSvcReq
// Response      : ListExtSvcResp
func (h *Handler) ListExtSvc() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		err := r.ParseForm()
		if err != nil {
			err = fmt.Errorf("failed parse form: %w", err)
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		query := ListExtSvcReq{}
		queryDec := schema.NewDecoder()
		err = queryDec.Decode(&query, r.Form)
		if err != nil {
			err = fmt.Errorf("failed decode query params: %w", err)
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		listIn := extsvcsvc.InputListExtSvc{
			Kind:   query.Kind,
			Limit:  query.Limit,
			Offset: query.Offset,
		}

		listOut, err := h.Config.ExtSvcService.ListExtSvc(ctx, listIn)
		if err != nil {
			status, kind := errKindOf(err)
			resp := respbuilder.Error(ctx, kind, err)
			respbuilder.WriteJSON(status, w, r, resp)
			return
		}

		items := make([]httptyped.ExtSvcEntity, 0)
		for _, extsvc := range listOut.ExtSvcs {
			items = append(items, httptyped.ExtSvcEntityFromSvc(extsvc))
		}

		respBody := ListExtSvcResp{
			Total:  listOut.Total,
			Limit:  listOut.Limit,
			Offset: listOut.Offset,
			Items:  items,
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type GetExtSvcResp struct {
	ExternalService httptyped.ExtSvcEntity `json:"external_service"`
}

// GetExtSvc get one by id
// Path          : GET /api/v1/external-services/{id}
// Response      : GetExtSvcResp
func (h *Handler) GetExtSvc() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := pathID(r)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		getOut, err := h.Config.ExtSvcService.GetExtSvc(ctx, extsvcsvc.InputGetExtSvc{ID: id})
		if err != nil {
			status, kind := errKindOf(err)
			resp := respbuilder.Error(ctx, kind, err)
			respbuilder.WriteJSON(status, w, r, resp)
			return
		}

		respBody := GetExtSvcResp{
			ExternalService: httptyped.ExtSvcEntityFromSvc(getOut.ExtSvc),
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type DelExtSvcResp struct {
	Success bool `json:"success"`
}

// DelExtSvc soft-delete one by id
// Path          : DEL /api/v1/external-services/{id}
// Response      : DelExtSvcResp
func (h *Handler) DelExtSvc() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := pathID(r)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		delOut, err := h.Config.ExtSvcService.DelExtSvc(ctx, extsvcsvc.InputDelExtSvc{ID: id})
		if err != nil {
			status, kind := errKindOf(err)
			resp := respbuilder.Error(ctx, kind, err)
			respbuilder.WriteJSON(status, w, r, resp)
			return
		}

		respBody := DelExtSvcResp{
			Success: delOut.Success,
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}
