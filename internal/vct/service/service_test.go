package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"badgeforge/internal/vct/models"
	"badgeforge/internal/vct/store"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/requestcontext"
)

type fakeRegistry map[string][]string

func (f fakeRegistry) PropertyNames(_ context.Context, uri string) ([]string, error) {
	names, ok := f[uri]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "schema not found")
	}
	return names, nil
}

const employeeSchemaURI = "https://badgeforge.example/schemas/employee"

func employeeRegistry() fakeRegistry {
	return fakeRegistry{employeeSchemaURI: {"givenName", "department"}}
}

func newTestService(t *testing.T, registry SchemaRegistry) *Service {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "vcts.json"))
	require.NoError(t, err)
	svc, err := New(st, registry)
	require.NoError(t, err)
	return svc
}

func testCtx(now time.Time) context.Context {
	return requestcontext.WithNow(context.Background(), now)
}

func employeeVCT() *models.VCT {
	return &models.VCT{
		VCT:       "https://badgeforge.example/vct/employee",
		Format:    models.FormatSDJWT,
		Name:      "Employee Credential",
		SchemaURI: employeeSchemaURI,
		Display: []models.DisplayEntry{
			{
				Locale:      "en-US",
				Name:        "Employee Credential",
				Rendering:   &models.Rendering{BackgroundColor: "#1a1a2e", TextColor: "#ffffff"},
				ClaimLayout: []string{"givenName"},
			},
		},
		Claims: []models.Claim{
			{Path: []string{"givenName"}, Display: []models.ClaimDisplay{{Locale: "en-US", Label: "Given name"}}},
			{Path: []string{"department"}, SD: models.DisclosureNever},
		},
	}
}

func TestService_CreateSetsTimestampsAndDefaults(t *testing.T) {
	svc := newTestService(t, employeeRegistry())
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	created, warnings, err := svc.Create(testCtx(now), employeeVCT())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, now, created.CreatedAt)
	assert.Equal(t, now, created.UpdatedAt)

	// sd defaults to "allowed" when omitted; explicit values survive.
	assert.Equal(t, models.DisclosureAllowed, created.Claims[0].SD)
	assert.Equal(t, models.DisclosureNever, created.Claims[1].SD)

	stored, err := svc.Get(testCtx(now), created.VCT)
	require.NoError(t, err)
	assert.Equal(t, models.DisclosureAllowed, stored.Claims[0].SD)
}

func TestService_CreateRejectsBadURI(t *testing.T) {
	svc := newTestService(t, employeeRegistry())

	vct := employeeVCT()
	vct.VCT = "not a uri"
	_, _, err := svc.Create(testCtx(time.Now()), vct)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestService_CreateDuplicateURIConflicts(t *testing.T) {
	svc := newTestService(t, employeeRegistry())
	ctx := testCtx(time.Now())

	_, _, err := svc.Create(ctx, employeeVCT())
	require.NoError(t, err)

	_, _, err = svc.Create(ctx, employeeVCT())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestService_CreateWarnsWhenSchemaUnregistered(t *testing.T) {
	svc := newTestService(t, fakeRegistry{})

	_, warnings, err := svc.Create(testCtx(time.Now()), employeeVCT())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "not registered")
	assert.Contains(t, warnings[0], employeeSchemaURI)
}

func TestService_CreateWithoutRegistrySkipsMapping(t *testing.T) {
	svc := newTestService(t, nil)

	_, warnings, err := svc.Create(testCtx(time.Now()), employeeVCT())
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}

func TestService_CreateWithoutSchemaURIHasNoWarnings(t *testing.T) {
	svc := newTestService(t, fakeRegistry{})

	vct := employeeVCT()
	vct.SchemaURI = ""
	_, warnings, err := svc.Create(testCtx(time.Now()), vct)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestCheckSchemaMapping(t *testing.T) {
	properties := []string{"givenName", "department"}

	tests := []struct {
		name    string
		format  models.Format
		paths   [][]string
		wantErr string
	}{
		{
			name:   "json-ld exact mapping",
			format: models.FormatJSONLD,
			paths:  [][]string{{"givenName"}, {"department"}},
		},
		{
			name:    "json-ld missing property",
			format:  models.FormatJSONLD,
			paths:   [][]string{{"givenName"}},
			wantErr: "not claimed",
		},
		{
			name:    "json-ld extra claim",
			format:  models.FormatJSONLD,
			paths:   [][]string{{"givenName"}, {"department"}, {"badgeNumber"}},
			wantErr: "outside the schema",
		},
		{
			name:    "json-ld property claimed twice",
			format:  models.FormatJSONLD,
			paths:   [][]string{{"givenName"}, {"givenName", "suffix"}, {"department"}},
			wantErr: "more than once",
		},
		{
			name:   "sd-jwt subset",
			format: models.FormatSDJWT,
			paths:  [][]string{{"givenName"}},
		},
		{
			name:   "sd-jwt nested claims share a property",
			format: models.FormatSDJWT,
			paths:  [][]string{{"department"}, {"department", "code"}},
		},
		{
			name:    "sd-jwt unknown claim",
			format:  models.FormatSDJWT,
			paths:   [][]string{{"badgeNumber"}},
			wantErr: "outside the schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := make([]models.Claim, len(tt.paths))
			for i, p := range tt.paths {
				claims[i] = models.Claim{Path: p, SD: models.DisclosureAllowed}
			}

			err := checkSchemaMapping(tt.format, claims, properties)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestService_CreateEnforcesJSONLDMapping(t *testing.T) {
	svc := newTestService(t, employeeRegistry())

	vct := employeeVCT()
	vct.Format = models.FormatJSONLD
	vct.Claims = vct.Claims[:1] // department missing
	vct.Display[0].ClaimLayout = nil

	_, _, err := svc.Create(testCtx(time.Now()), vct)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), "department")
}

func TestService_ValidateDisplay(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.VCT)
		wantErr string
	}{
		{
			name:    "no display entries",
			mutate:  func(v *models.VCT) { v.Display = nil },
			wantErr: "at least one display entry",
		},
		{
			name: "duplicate locale",
			mutate: func(v *models.VCT) {
				v.Display = append(v.Display, models.DisplayEntry{Locale: "en-US", Name: "Dup"})
			},
			wantErr: "duplicate locale",
		},
		{
			name:    "missing locale",
			mutate:  func(v *models.VCT) { v.Display[0].Locale = "" },
			wantErr: "locale is required",
		},
		{
			name:    "missing display name",
			mutate:  func(v *models.VCT) { v.Display[0].Name = "" },
			wantErr: "name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, employeeRegistry())
			vct := employeeVCT()
			tt.mutate(vct)

			_, _, err := svc.Create(testCtx(time.Now()), vct)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestService_ValidateClaims(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.VCT)
		wantErr string
	}{
		{
			name:    "empty path",
			mutate:  func(v *models.VCT) { v.Claims[0].Path = nil },
			wantErr: "path is required",
		},
		{
			name:    "empty path segment",
			mutate:  func(v *models.VCT) { v.Claims[0].Path = []string{"givenName", ""} },
			wantErr: "segments cannot be empty",
		},
		{
			name: "duplicate path",
			mutate: func(v *models.VCT) {
				v.Claims = append(v.Claims, models.Claim{Path: []string{"givenName"}})
			},
			wantErr: "duplicate path",
		},
		{
			name:    "unknown sd value",
			mutate:  func(v *models.VCT) { v.Claims[0].SD = "sometimes" },
			wantErr: "sd must be",
		},
		{
			name: "claimLayout referencing unknown claim",
			mutate: func(v *models.VCT) {
				v.Display[0].ClaimLayout = []string{"nope"}
			},
			wantErr: "unknown claim",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, nil)
			vct := employeeVCT()
			vct.SchemaURI = ""
			tt.mutate(vct)

			_, _, err := svc.Create(testCtx(time.Now()), vct)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestService_UpdatePreservesCreatedAt(t *testing.T) {
	svc := newTestService(t, employeeRegistry())
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	doc, _, err := svc.Create(testCtx(created), employeeVCT())
	require.NoError(t, err)

	// The editor PUTs the whole document back; the body may omit the URI.
	edit := employeeVCT()
	edit.VCT = ""
	edit.Description = "Issued to all employees"

	saved, warnings, err := svc.Update(testCtx(updated), doc.VCT, edit)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, doc.VCT, saved.VCT)
	assert.Equal(t, created, saved.CreatedAt)
	assert.Equal(t, updated, saved.UpdatedAt)
	assert.Equal(t, "Issued to all employees", saved.Description)
}

func TestService_UpdateRejectsURIMismatch(t *testing.T) {
	svc := newTestService(t, employeeRegistry())
	ctx := testCtx(time.Now())

	doc, _, err := svc.Create(ctx, employeeVCT())
	require.NoError(t, err)

	edit := employeeVCT()
	edit.VCT = "https://badgeforge.example/vct/other"

	_, _, err = svc.Update(ctx, doc.VCT, edit)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), "does not match URL")
}

func TestService_UpdateMissingVCT(t *testing.T) {
	svc := newTestService(t, employeeRegistry())

	_, _, err := svc.Update(testCtx(time.Now()), "https://badgeforge.example/vct/ghost", employeeVCT())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestService_DeleteRemovesDocument(t *testing.T) {
	svc := newTestService(t, employeeRegistry())
	ctx := testCtx(time.Now())

	doc, _, err := svc.Create(ctx, employeeVCT())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, doc.VCT))

	_, err = svc.Get(ctx, doc.VCT)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = svc.Delete(ctx, doc.VCT)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestService_ListReturnsAll(t *testing.T) {
	svc := newTestService(t, employeeRegistry())
	ctx := testCtx(time.Now())

	first := employeeVCT()
	second := employeeVCT()
	second.VCT = "https://badgeforge.example/vct/contractor"
	second.Name = "Contractor Credential"

	_, _, err := svc.Create(ctx, first)
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, second)
	require.NoError(t, err)

	vcts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, vcts, 2)
}
