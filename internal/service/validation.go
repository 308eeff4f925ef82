package service

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/pollution-watch/internal/model"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every rejected field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + e.Fields[0].Field + ": " + e.Fields[0].Message
}

func (e *ValidationError) add(field, msg string) { e.Fields = append(e.Fields, FieldError{field, msg}) }

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PollutionInput carries the raw report fields of a create or update
// request.  A nil field was absent from the request.  Photo holds a data URI
// built from an uploaded file, never a client-supplied string.
type PollutionInput struct {
	Titre            *string
	Description      *string
	TypePollution    *string
	Lieu             *string
	DateObservation  *string
	DecouvreurNom    *string
	DecouvreurPrenom *string
	Photo            *string
}

const maxSearchLen = 200

var (
	nameRe   = regexp.MustCompile(`^[a-zA-Z\s\-àâäéèêëïîôöùûüÿçÀÂÄÉÈÊËÏÎÔÖÙÛÜŸÇ']*$`)
	searchRe = regexp.MustCompile(`^[a-zA-Z0-9\s\-àâäéèêëïîôöùûüÿçÀÂÄÉÈÊËÏÎÔÖÙÛÜŸÇ',.!?]*$`)

	minObservation = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	dateLayouts    = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}
)

// ValidateSearch checks the optional title filter of the list endpoint.
func ValidateSearch(search string) error {
	ve := &ValidationError{}
	search = strings.TrimSpace(search)
	if utf8.RuneCountInString(search) > maxSearchLen {
		ve.add("search", "must not exceed 200 characters")
	} else if !searchRe.MatchString(search) {
		ve.add("search", "contains forbidden characters")
	}
	return ve.orNil()
}

// ValidatePollutionCreate checks a create request and builds the report.
// Every field but the reporter names and the photo is required.
func ValidatePollutionCreate(in PollutionInput, now time.Time) (model.Pollution, error) {
	ve := &ValidationError{}
	var p model.Pollution

	p.Titre = requiredText(ve, "titre", in.Titre, 3, 200)
	p.Description = requiredText(ve, "description", in.Description, 10, 2000)
	p.TypePollution = requiredText(ve, "type_pollution", in.TypePollution, 1, 64)
	if p.TypePollution != "" && !slices.Contains(model.PollutionTypes, p.TypePollution) {
		ve.add("type_pollution", "invalid pollution type")
	}
	p.Lieu = requiredText(ve, "lieu", in.Lieu, 3, 300)
	if in.DateObservation == nil || strings.TrimSpace(*in.DateObservation) == "" {
		ve.add("date_observation", "is required")
	} else if d, ok := observationDate(ve, *in.DateObservation, now); ok {
		p.DateObservation = d
	}
	p.DecouvreurNom = optionalName(ve, "decouvreur_nom", in.DecouvreurNom)
	p.DecouvreurPrenom = optionalName(ve, "decouvreur_prenom", in.DecouvreurPrenom)
	p.PhotoURL = in.Photo

	if err := ve.orNil(); err != nil {
		return model.Pollution{}, err
	}
	return p, nil
}

// ValidatePollutionPatch checks an update request.  Only present fields are
// validated and copied into the patch.
func ValidatePollutionPatch(in PollutionInput, now time.Time) (model.PollutionPatch, error) {
	ve := &ValidationError{}
	var patch model.PollutionPatch

	if in.Titre != nil {
		v := requiredText(ve, "titre", in.Titre, 3, 200)
		patch.Titre = &v
	}
	if in.Description != nil {
		v := requiredText(ve, "description", in.Description, 10, 2000)
		patch.Description = &v
	}
	if in.TypePollution != nil {
		v := strings.TrimSpace(*in.TypePollution)
		if !slices.Contains(model.PollutionTypes, v) {
			ve.add("type_pollution", "invalid pollution type")
		}
		patch.TypePollution = &v
	}
	if in.Lieu != nil {
		v := requiredText(ve, "lieu", in.Lieu, 3, 300)
		patch.Lieu = &v
	}
	if in.DateObservation != nil {
		if d, ok := observationDate(ve, *in.DateObservation, now); ok {
			patch.DateObservation = &d
		}
	}
	if in.DecouvreurNom != nil {
		v := strings.TrimSpace(*in.DecouvreurNom)
		checkName(ve, "decouvreur_nom", v)
		patch.DecouvreurNom = &v
	}
	if in.DecouvreurPrenom != nil {
		v := strings.TrimSpace(*in.DecouvreurPrenom)
		checkName(ve, "decouvreur_prenom", v)
		patch.DecouvreurPrenom = &v
	}
	patch.PhotoURL = in.Photo

	if err := ve.orNil(); err != nil {
		return model.PollutionPatch{}, err
	}
	return patch, nil
}

func requiredText(ve *ValidationError, field string, v *string, min, max int) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		ve.add(field, "is required")
		return ""
	}
	s := strings.TrimSpace(*v)
	if n := utf8.RuneCountInString(s); n < min || n > max {
		ve.add(field, "length must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max)+" characters")
	}
	return s
}

func optionalName(ve *ValidationError, field string, v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	checkName(ve, field, s)
	if s == "" {
		return nil
	}
	return &s
}

func checkName(ve *ValidationError, field, s string) {
	if utf8.RuneCountInString(s) > 100 {
		ve.add(field, "must not exceed 100 characters")
	} else if !nameRe.MatchString(s) {
		ve.add(field, "contains forbidden characters")
	}
}

func observationDate(ve *ValidationError, raw string, now time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		d, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		d = d.UTC()
		switch {
		case d.Before(minObservation):
			ve.add("date_observation", "is before 1900-01-01")
			return time.Time{}, false
		case d.After(now.AddDate(1, 0, 0)):
			ve.add("date_observation", "is more than one year in the future")
			return time.Time{}, false
		}
		return d, true
	}
	ve.add("date_observation", "invalid date format (use ISO 8601)")
	return time.Time{}, false
}
