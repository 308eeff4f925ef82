package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pollution-watch/internal/config"
	"github.com/iliyamo/pollution-watch/internal/repository"
	"github.com/iliyamo/pollution-watch/internal/service"
	"github.com/iliyamo/pollution-watch/internal/utils"
)

// PollutionHandler serves /api/pollutions.
type PollutionHandler struct {
	responder
	Reports Reports
}

func NewPollutionHandler(cfg config.Config, reports Reports) *PollutionHandler {
	return &PollutionHandler{responder: newResponder(cfg), Reports: reports}
}

// pollutionReq is the JSON body of create and update.  utilisateur_id and
// any other unknown key is ignored; photo_url is captured only to reject it.
type pollutionReq struct {
	Titre            *string         `json:"titre"`
	Description      *string         `json:"description"`
	TypePollution    *string         `json:"type_pollution"`
	Lieu             *string         `json:"lieu"`
	DateObservation  *string         `json:"date_observation"`
	DecouvreurNom    *string         `json:"decouvreur_nom"`
	DecouvreurPrenom *string         `json:"decouvreur_prenom"`
	PhotoURL         json.RawMessage `json:"photo_url"`
}

var errPhotoURLField = errors.New("photo_url cannot be set directly; upload a photo file instead")

var formFields = []string{"titre", "description", "type_pollution", "lieu", "date_observation", "decouvreur_nom", "decouvreur_prenom"}

// bindReport reads a report from a JSON body or a multipart form.  Only the
// multipart form can carry a photo, as a file part named "photo".
func bindReport(c echo.Context) (service.PollutionInput, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		var req pollutionReq
		if err := c.Bind(&req); err != nil {
			return service.PollutionInput{}, err
		}
		// an echoed "photo_url": null is the same as leaving it out
		if len(req.PhotoURL) > 0 && string(req.PhotoURL) != "null" {
			return service.PollutionInput{}, errPhotoURLField
		}
		return service.PollutionInput{
			Titre:            req.Titre,
			Description:      req.Description,
			TypePollution:    req.TypePollution,
			Lieu:             req.Lieu,
			DateObservation:  req.DateObservation,
			DecouvreurNom:    req.DecouvreurNom,
			DecouvreurPrenom: req.DecouvreurPrenom,
		}, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return service.PollutionInput{}, err
	}
	if _, ok := form.Value["photo_url"]; ok {
		return service.PollutionInput{}, errPhotoURLField
	}
	values := make(map[string]*string, len(formFields))
	for _, k := range formFields {
		if v, ok := form.Value[k]; ok && len(v) > 0 {
			s := v[0]
			values[k] = &s
		}
	}
	in := service.PollutionInput{
		Titre:            values["titre"],
		Description:      values["description"],
		TypePollution:    values["type_pollution"],
		Lieu:             values["lieu"],
		DateObservation:  values["date_observation"],
		DecouvreurNom:    values["decouvreur_nom"],
		DecouvreurPrenom: values["decouvreur_prenom"],
	}
	if files := form.File["photo"]; len(files) > 0 {
		uri, err := utils.EncodePhoto(files[0])
		if err != nil {
			return service.PollutionInput{}, err
		}
		in.Photo = &uri
	}
	return in, nil
}

// bindFailed answers 400 for any bindReport error.
func (h *PollutionHandler) bindFailed(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errPhotoURLField), errors.Is(err, utils.ErrPhotoTooLarge), errors.Is(err, utils.ErrPhotoType):
		return h.fail(c, http.StatusBadRequest, err.Error())
	}
	return h.fail(c, http.StatusBadRequest, "Invalid request body")
}

// mutationFailed maps service errors of Update and Delete.
func (h *PollutionHandler) mutationFailed(c echo.Context, verb string, err error) error {
	if h.invalid(c, err) {
		return nil
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return h.fail(c, http.StatusNotFound, "Pollution not found")
	case errors.Is(err, repository.ErrForbidden):
		return h.fail(c, http.StatusForbidden, "You are not allowed to "+verb+" this pollution")
	}
	return h.internal(c, "Error trying to "+verb+" the pollution", err)
}

// List returns all reports, optionally filtered by ?search= on the title.
func (h *PollutionHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	out, err := h.Reports.List(ctx, c.QueryParam("search"))
	if err != nil {
		if h.invalid(c, err) {
			return nil
		}
		return h.internal(c, "Error retrieving pollutions", err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one report.
func (h *PollutionHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return h.fail(c, http.StatusBadRequest, "Invalid ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Reports.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return h.fail(c, http.StatusNotFound, "Pollution not found")
		}
		return h.internal(c, "Error retrieving the pollution", err)
	}
	return c.JSON(http.StatusOK, p)
}

// Create stores a report owned by the caller.
func (h *PollutionHandler) Create(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return h.fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	in, err := bindReport(c)
	if err != nil {
		return h.bindFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Reports.Create(ctx, who, in)
	if err != nil {
		if h.invalid(c, err) {
			return nil
		}
		return h.internal(c, "Error creating the pollution", err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Update applies a partial update; owner or admin only.
func (h *PollutionHandler) Update(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return h.fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, ok := pathID(c)
	if !ok {
		return h.fail(c, http.StatusBadRequest, "Invalid ID")
	}
	in, err := bindReport(c)
	if err != nil {
		return h.bindFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Reports.Update(ctx, who, id, in)
	if err != nil {
		return h.mutationFailed(c, "modify", err)
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a report; owner or admin only.
func (h *PollutionHandler) Delete(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return h.fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, ok := pathID(c)
	if !ok {
		return h.fail(c, http.StatusBadRequest, "Invalid ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Reports.Delete(ctx, who, id); err != nil {
		return h.mutationFailed(c, "delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Pollution deleted successfully"})
}
