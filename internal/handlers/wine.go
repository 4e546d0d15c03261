// internal/handlers/wine.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mywinecellar/cellar-api/internal/apierr"
	"github.com/mywinecellar/cellar-api/internal/i18n"
	"github.com/mywinecellar/cellar-api/internal/models"
	"github.com/mywinecellar/cellar-api/internal/services"
	"github.com/mywinecellar/cellar-api/internal/utils"
)

type WineHandler struct {
	wineService *services.WineService
}

func NewWineHandler(wineService *services.WineService) *WineHandler {
	return &WineHandler{wineService: wineService}
}

// POST /wines/new?producerId=&shapeId=&colorId=&typeId=&closureId=
func (h *WineHandler) CreateWine(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	producerIDStr := c.Query("producerId")
	if producerIDStr == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "producerId"), nil)
		return
	}
	producerID, err := parseID(producerIDStr)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "producerId"), nil)
		return
	}

	params := services.CreateWineParams{ProducerID: producerID}
	taxonomy := []struct {
		name string
		dst  *models.Optional[uint]
	}{
		{"shapeId", &params.ShapeID},
		{"colorId", &params.ColorID},
		{"typeId", &params.TypeID},
		{"closureId", &params.ClosureID},
	}
	for _, q := range taxonomy {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		id, err := parseID(raw)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, q.name), nil)
			return
		}
		*q.dst = models.Some(id)
	}

	req, err := decodeWineRequest(c.Request)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	wine, err := h.wineService.CreateWine(c.Request.Context(), req, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyWineCreated),
		"wine":    wine,
	})
}

// PUT /wines/:wineId/edit
func (h *WineHandler) EditWine(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wineID, ok := wineIDParam(c)
	if !ok {
		return
	}

	req, err := decodeWineRequest(c.Request)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	wine, err := h.wineService.EditWine(c.Request.Context(), wineID, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.AcceptedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyWineUpdated),
		"wine":    wine,
	})
}

// PUT /wines/:wineId/image
func (h *WineHandler) UploadWineImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wineID, ok := wineIDParam(c)
	if !ok {
		return
	}

	file, err := h.readImage(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	wine, err := h.wineService.AttachImage(c.Request.Context(), wineID, file)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.AcceptedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyWineImageAttached),
		"wine":    wine,
	})
}

// readImage returns the "file" part, or nil when the request carries none.
// At most MaxImageBytes are read; that is enough for the service to reject
// anything at or over the limit.
func (h *WineHandler) readImage(c *gin.Context) ([]byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apierr.BadRequestf("invalid multipart request: %v", err)
	}

	f, err := header.Open()
	if err != nil {
		return nil, apierr.Internal(err)
	}
	defer f.Close()

	file, err := io.ReadAll(io.LimitReader(f, h.wineService.MaxImageBytes()))
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return file, nil
}

// errTrailingData rejects a body with anything after the first JSON value.
var errTrailingData = errors.New("unexpected data after JSON body")

// decodeWineRequest returns nil for an empty body or a literal null.
func decodeWineRequest(r *http.Request) (*services.WineRequest, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	dec := json.NewDecoder(r.Body)
	var req *services.WineRequest
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return req, nil
}

func wineIDParam(c *gin.Context) (uint, bool) {
	wineID, err := parseID(c.Param("wineId"))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "wineId"), nil)
		return 0, false
	}
	return wineID, true
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
