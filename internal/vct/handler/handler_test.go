package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"badgeforge/internal/schema"
	"badgeforge/internal/vct/models"
	"badgeforge/internal/vct/service"
	"badgeforge/internal/vct/store"
)

type VCTHandlerSuite struct {
	suite.Suite
	router  http.Handler
	schemas *schema.Service
}

func (s *VCTHandlerSuite) SetupTest() {
	dir := s.T().TempDir()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	schemaStore, err := schema.NewFileStore(filepath.Join(dir, "schemas.json"))
	s.Require().NoError(err)
	schemas, err := schema.NewService(schemaStore, logger)
	s.Require().NoError(err)
	s.schemas = schemas

	vctStore, err := store.NewFileStore(filepath.Join(dir, "vcts.json"))
	s.Require().NoError(err)
	svc, err := service.New(vctStore, schemas, service.WithLogger(logger))
	s.Require().NoError(err)

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func TestVCTHandlerSuite(t *testing.T) {
	suite.Run(t, new(VCTHandlerSuite))
}

func (s *VCTHandlerSuite) do(method, target, body string) *httptest.ResponseRecorder {
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

// vctPath builds the single-segment route for a vct URI. Slashes in the URI
// must be escaped or the router sees multiple segments.
func vctPath(uri string) string {
	return "/vcts/" + url.PathEscape(uri)
}

func (s *VCTHandlerSuite) registerEmployeeSchema() {
	_, err := s.schemas.Register(context.Background(), &schema.CredentialSchema{
		Name: "Employee Credential",
		URI:  "https://badgeforge.example/schemas/employee",
		Properties: []schema.Property{
			{Name: "givenName", Type: "string", Required: true},
			{Name: "department", Type: "string"},
		},
	})
	s.Require().NoError(err)
}

const employeeURI = "https://badgeforge.example/vct/employee"

const employeeBody = `{
	"vct": "https://badgeforge.example/vct/employee",
	"format": "sd-jwt",
	"name": "Employee Credential",
	"schemaUri": "https://badgeforge.example/schemas/employee",
	"display": [
		{"locale": "en-US", "name": "Employee Credential", "claimLayout": ["givenName"]}
	],
	"claims": [
		{"path": ["givenName"], "display": [{"locale": "en-US", "label": "Given name"}]},
		{"path": ["department"], "sd": "never"}
	]
}`

func (s *VCTHandlerSuite) createVCT(body string) SaveVCTResponse {
	rec := s.do(http.MethodPost, "/vcts", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp SaveVCTResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *VCTHandlerSuite) TestCreateWarnsWhenSchemaUnregistered() {
	resp := s.createVCT(employeeBody)

	s.Equal(employeeURI, resp.Document.VCT.String())
	s.Require().Len(resp.Warnings, 1)
	s.Contains(resp.Warnings[0], "not registered")
}

func (s *VCTHandlerSuite) TestCreateCleanWhenSchemaRegistered() {
	s.registerEmployeeSchema()

	resp := s.createVCT(employeeBody)
	s.Empty(resp.Warnings)
	s.Equal(models.FormatSDJWT, resp.Document.Format)
	// Omitted sd defaults to "allowed".
	s.Equal(models.DisclosureAllowed, resp.Document.Claims[0].SD)
}

func (s *VCTHandlerSuite) TestCreateEnforcesJSONLDMapping() {
	s.registerEmployeeSchema()

	body := strings.Replace(employeeBody, `"sd-jwt"`, `"json-ld"`, 1)
	body = strings.Replace(body, `,
		{"path": ["department"], "sd": "never"}`, "", 1)

	rec := s.do(http.MethodPost, "/vcts", body)
	s.Equal(http.StatusBadRequest, rec.Code)

	var errBody map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errBody))
	s.Equal("validation_error", errBody["error"])
	s.Contains(errBody["error_description"], "department")
}

func (s *VCTHandlerSuite) TestGetRoundTripWithEscapedURI() {
	s.createVCT(employeeBody)

	rec := s.do(http.MethodGet, vctPath(employeeURI), "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var doc models.VCT
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &doc))
	s.Equal(employeeURI, doc.VCT.String())
	s.Equal("Employee Credential", doc.Name)
}

func (s *VCTHandlerSuite) TestGetUnescapedURIDoesNotRoute() {
	s.createVCT(employeeBody)

	// The raw URI has slashes, so it is not a single path segment.
	rec := s.do(http.MethodGet, "/vcts/"+employeeURI, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *VCTHandlerSuite) TestGetMissingVCT() {
	rec := s.do(http.MethodGet, vctPath("https://badgeforge.example/vct/ghost"), "")
	s.Equal(http.StatusNotFound, rec.Code)

	var errBody map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errBody))
	s.Equal("not_found", errBody["error"])
}

func (s *VCTHandlerSuite) TestUpdateRoundTrip() {
	s.createVCT(employeeBody)

	edited := strings.Replace(employeeBody, `"name": "Employee Credential"`, `"name": "Employee Card"`, 1)
	rec := s.do(http.MethodPut, vctPath(employeeURI), edited)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp SaveVCTResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("Employee Card", resp.Document.Name)
}

func (s *VCTHandlerSuite) TestDeleteRemovesDocument() {
	s.createVCT(employeeBody)

	rec := s.do(http.MethodDelete, vctPath(employeeURI), "")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, vctPath(employeeURI), "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *VCTHandlerSuite) TestCreateRequiresName() {
	body := strings.Replace(employeeBody, `"name": "Employee Credential",`, "", 1)
	rec := s.do(http.MethodPost, "/vcts", body)
	s.Equal(http.StatusBadRequest, rec.Code)

	var errBody map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errBody))
	s.Equal("validation_error", errBody["error"])
}

func (s *VCTHandlerSuite) TestCreateRejectsUnknownFormat() {
	body := strings.Replace(employeeBody, `"sd-jwt"`, `"jwt"`, 1)
	rec := s.do(http.MethodPost, "/vcts", body)
	s.Equal(http.StatusBadRequest, rec.Code)

	var errBody map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errBody))
	s.Contains(errBody["error_description"], "format must be")
}

func (s *VCTHandlerSuite) TestListReturnsAll() {
	s.createVCT(employeeBody)
	contractor := strings.ReplaceAll(employeeBody, "vct/employee", "vct/contractor")
	s.createVCT(contractor)

	rec := s.do(http.MethodGet, "/vcts", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp ListVCTsResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(2, resp.Count)
	s.Len(resp.VCTs, 2)
}
