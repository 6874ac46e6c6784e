package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-theatre/pkg/theatre"
)

// ConversionResponse is returned by the single page conversion endpoint.
// Error is set on a partial conversion.
type ConversionResponse struct {
	Success             bool                       `json:"success"`
	Production          *theatre.ProductionSummary `json:"production,omitempty"`
	OriginalPageDeleted bool                       `json:"original_page_deleted"`
	Error               *ErrorBody                 `json:"error,omitempty"`
}

// ConvertPage converts one page into a production. The body may set
// delete_original; it defaults to false.
func (h *AdminHandler) ConvertPage(w http.ResponseWriter, r *http.Request) {
	pageID, err := parseID(r, "id")
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, theatre.CodeInvalidSource, "invalid page id")
		return
	}
	var req struct {
		DeleteOriginal bool `json:"delete_original"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}

	result, err := h.service.ConvertPageToProduction(r.Context(), pageID, req.DeleteOriginal)
	switch {
	case err == nil:
		render.JSON(w, r, ConversionResponse{
			Success:             true,
			Production:          &result.Production,
			OriginalPageDeleted: result.OriginalPageDeleted,
		})
	case errors.Is(err, theatre.ErrPartialConversion) && result != nil:
		h.logger.WarnContext(r.Context(), "partial page conversion",
			"page_id", pageID, "production_id", result.Production.ID, "error", err)
		body := errorBody(r, theatre.CodePartialConversion, err.Error()).Error
		render.Status(r, http.StatusMultiStatus)
		render.JSON(w, r, ConversionResponse{
			Production:          &result.Production,
			OriginalPageDeleted: result.OriginalPageDeleted,
			Error:               &body,
		})
	default:
		writeError(w, r, err)
	}
}

// BulkResult reports the outcome for one page of a bulk conversion.
type BulkResult struct {
	PageID string `json:"page_id"`
	ConversionResponse
}

// BulkConvertResponse summarises a bulk conversion.
type BulkConvertResponse struct {
	Converted int          `json:"converted"`
	Failed    int          `json:"failed"`
	Results   []BulkResult `json:"results"`
}

// BulkConvert converts several pages, deleting each original on success.
// It requires a "convert-pages" nonce and reports per page outcomes.
func (h *AdminHandler) BulkConvert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs   []string `json:"ids"`
		Nonce string   `json:"nonce"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	if !h.checkNonce(w, r, ActionConvertPages, req.Nonce) {
		return
	}
	if len(req.IDs) == 0 {
		badRequest(w, r, "ids is required")
		return
	}

	resp := BulkConvertResponse{Results: make([]BulkResult, 0, len(req.IDs))}
	for _, raw := range req.IDs {
		res := BulkResult{PageID: raw}
		pageID, err := uuid.Parse(raw)
		if err != nil {
			res.Error = &ErrorBody{Code: theatre.CodeInvalidSource, Message: "invalid page id"}
			resp.Failed++
			resp.Results = append(resp.Results, res)
			continue
		}

		result, err := h.service.ConvertPageToProduction(r.Context(), pageID, true)
		if result != nil {
			res.Production = &result.Production
			res.OriginalPageDeleted = result.OriginalPageDeleted
		}
		if err != nil {
			code := theatre.ErrorCode(err)
			message := err.Error()
			if code == theatre.CodeInternal {
				message = "An internal server error occurred"
			}
			res.Error = &ErrorBody{Code: code, Message: message}
			resp.Failed++
		} else {
			res.Success = true
			resp.Converted++
		}
		resp.Results = append(resp.Results, res)
	}

	h.logger.InfoContext(r.Context(), "bulk page conversion",
		"converted", resp.Converted, "failed", resp.Failed)
	render.JSON(w, r, resp)
}
