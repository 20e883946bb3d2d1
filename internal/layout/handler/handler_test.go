package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"badgeforge/internal/layout/models"
	"badgeforge/internal/layout/service"
	"badgeforge/internal/layout/store"
)

type LayoutHandlerSuite struct {
	suite.Suite
	router http.Handler
}

func (s *LayoutHandlerSuite) SetupTest() {
	fileStore, err := store.NewFileStore(filepath.Join(s.T().TempDir(), "zone-templates.json"))
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc, err := service.New(fileStore, service.WithLogger(logger))
	s.Require().NoError(err)

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func TestLayoutHandlerSuite(t *testing.T) {
	suite.Run(t, new(LayoutHandlerSuite))
}

func (s *LayoutHandlerSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

const validTemplate = `{
	"name": "Standard ID Card",
	"front": {"zones": [
		{"id": "photo", "rect": {"x": 5, "y": 5, "w": 30, "h": 40},
		 "binding": {"kind": "asset", "criteria": {"role": "portrait"}}},
		{"id": "name", "rect": {"x": 40, "y": 5, "w": 55, "h": 15},
		 "binding": {"kind": "claim", "claimPath": "givenName"}}
	]},
	"back": {"zones": [
		{"id": "issuer", "rect": {"x": 10, "y": 80, "w": 80, "h": 15},
		 "binding": {"kind": "static", "value": "badgeforge"}}
	]}
}`

const overlappingTemplate = `{
	"name": "Crowded Card",
	"front": {"zones": [
		{"id": "photo", "rect": {"x": 5, "y": 5, "w": 30, "h": 40},
		 "binding": {"kind": "asset", "criteria": {"role": "portrait"}}},
		{"id": "watermark", "rect": {"x": 20, "y": 10, "w": 10, "h": 30},
		 "binding": {"kind": "static", "value": "SAMPLE"}}
	]},
	"back": {"zones": []}
}`

func (s *LayoutHandlerSuite) createTemplate(body string) SaveZoneTemplateResponse {
	rec := s.do(http.MethodPost, "/zone-templates", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp SaveZoneTemplateResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *LayoutHandlerSuite) TestCreateReturnsTemplateAndWarnings() {
	resp := s.createTemplate(validTemplate)
	s.Equal("standard-id-card", resp.Template.ID.String())
	s.NotNil(resp.Warnings)
	s.Empty(resp.Warnings)
}

func (s *LayoutHandlerSuite) TestCreateEmbedsOverlapWarnings() {
	resp := s.createTemplate(overlappingTemplate)
	s.Require().Len(resp.Warnings, 1)
	s.Equal(models.FaceFront, resp.Warnings[0].Face)
	s.Equal("photo", resp.Warnings[0].ZoneA)
	s.Equal("watermark", resp.Warnings[0].ZoneB)
	s.InDelta(300, resp.Warnings[0].Area, 1e-9)
}

func (s *LayoutHandlerSuite) TestCheckIsStateless() {
	rec := s.do(http.MethodPost, "/zone-templates/check", overlappingTemplate)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp CheckZoneTemplateResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp.Warnings, 1)

	// Nothing was saved.
	rec = s.do(http.MethodGet, "/zone-templates", "")
	var list ListZoneTemplatesResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Equal(0, list.Count)
}

func (s *LayoutHandlerSuite) TestCheckAllowsUnnamedTemplate() {
	body := strings.Replace(overlappingTemplate, `"name": "Crowded Card",`, "", 1)
	rec := s.do(http.MethodPost, "/zone-templates/check", body)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *LayoutHandlerSuite) TestCheckRejectsInvalidZones() {
	body := strings.Replace(overlappingTemplate, `"w": 10`, `"w": 0`, 1)
	rec := s.do(http.MethodPost, "/zone-templates/check", body)
	s.Equal(http.StatusBadRequest, rec.Code)

	var errBody map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errBody))
	s.Equal("validation_error", errBody["error"])
}

func (s *LayoutHandlerSuite) TestCreateRequiresName() {
	body := strings.Replace(validTemplate, `"name": "Standard ID Card",`, "", 1)
	rec := s.do(http.MethodPost, "/zone-templates", body)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *LayoutHandlerSuite) TestUpdateRoundTrip() {
	created := s.createTemplate(validTemplate)

	edited := strings.Replace(validTemplate, `"name": "Standard ID Card",`,
		`"name": "Standard ID Card", "description": "Two-sided employee card",`, 1)
	rec := s.do(http.MethodPut, "/zone-templates/"+created.Template.ID.String(), edited)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp SaveZoneTemplateResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("Two-sided employee card", resp.Template.Description)
}

func (s *LayoutHandlerSuite) TestDeleteThenGet() {
	created := s.createTemplate(validTemplate)
	target := "/zone-templates/" + created.Template.ID.String()

	rec := s.do(http.MethodDelete, target, "")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, target, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *LayoutHandlerSuite) TestGetInvalidID() {
	rec := s.do(http.MethodGet, "/zone-templates/NOT%20VALID", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}
