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

	"badgeforge/internal/asset/models"
	"badgeforge/internal/asset/service"
	"badgeforge/internal/asset/store"
)

type AssetHandlerSuite struct {
	suite.Suite
	router http.Handler
}

func (s *AssetHandlerSuite) SetupTest() {
	fileStore, err := store.NewFileStore(filepath.Join(s.T().TempDir(), "assets.json"))
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc, err := service.New(fileStore, service.WithLogger(logger))
	s.Require().NoError(err)
	s.T().Cleanup(svc.Close)

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func TestAssetHandlerSuite(t *testing.T) {
	suite.Run(t, new(AssetHandlerSuite))
}

func (s *AssetHandlerSuite) do(method, target, body string) *httptest.ResponseRecorder {
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

const darkLogo = `{
	"name": "Dark Logo",
	"role": "Logo",
	"mediaType": "image/svg+xml",
	"uri": "https://assets.badgeforge.example/dark.svg",
	"tags": ["Dark", "dark", " square "]
}`

func (s *AssetHandlerSuite) createAsset(body string) models.Asset {
	rec := s.do(http.MethodPost, "/assets", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var asset models.Asset
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &asset))
	return asset
}

func (s *AssetHandlerSuite) TestCreateNormalizesRoleAndTags() {
	asset := s.createAsset(darkLogo)

	s.Equal("dark-logo", asset.ID.String())
	s.Equal("logo", asset.Role)
	// Tags deduped, trimmed, lowered.
	s.Equal([]string{"dark", "square"}, asset.Tags)
}

func (s *AssetHandlerSuite) TestCreateRequiresRoleAndURI() {
	for _, body := range []string{
		`{"name": "No Role", "uri": "https://x.example/a.png"}`,
		`{"name": "No URI", "role": "logo"}`,
		`{"role": "logo", "uri": "https://x.example/a.png"}`,
	} {
		rec := s.do(http.MethodPost, "/assets", body)
		s.Equal(http.StatusBadRequest, rec.Code, body)
	}
}

func (s *AssetHandlerSuite) TestResolveReturnsPreviewPick() {
	s.createAsset(darkLogo)

	rec := s.do(http.MethodPost, "/assets/resolve", `{"criteria": {"role": "logo", "tags": ["dark"]}}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp ResolveAssetResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Preview)
	s.Equal("dark-logo", resp.Asset.ID.String())
}

func (s *AssetHandlerSuite) TestResolveNoMatch() {
	rec := s.do(http.MethodPost, "/assets/resolve", `{"criteria": {"role": "seal"}}`)
	s.Equal(http.StatusNotFound, rec.Code)

	var errBody map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errBody))
	s.Equal("not_found", errBody["error"])
}

func (s *AssetHandlerSuite) TestResolveRequiresRole() {
	rec := s.do(http.MethodPost, "/assets/resolve", `{"criteria": {"tags": ["dark"]}}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *AssetHandlerSuite) TestGetUpdateDeleteRoundTrip() {
	asset := s.createAsset(darkLogo)
	target := "/assets/" + asset.ID.String()

	rec := s.do(http.MethodGet, target, "")
	s.Equal(http.StatusOK, rec.Code)

	edited := strings.Replace(darkLogo, "dark.svg", "dark-v2.svg", 1)
	rec = s.do(http.MethodPut, target, edited)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Asset
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &updated))
	s.Contains(updated.URI, "dark-v2.svg")

	rec = s.do(http.MethodDelete, target, "")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, target, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *AssetHandlerSuite) TestListReflectsRegistry() {
	s.createAsset(darkLogo)

	rec := s.do(http.MethodGet, "/assets", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp ListAssetsResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(1, resp.Count)
}
