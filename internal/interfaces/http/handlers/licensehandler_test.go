package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licensegate/licensegate/internal/application/license/usecases"
	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/interfaces/http/handlers/testutil"
	"github.com/licensegate/licensegate/internal/shared/errors"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockValidateUC struct {
	result *usecases.ValidationResult
	err    error
	got    usecases.ValidateLicenseCommand
}

func (m *mockValidateUC) Execute(ctx context.Context, cmd usecases.ValidateLicenseCommand) (*usecases.ValidationResult, error) {
	m.got = cmd
	return m.result, m.err
}

type mockActivateUC struct {
	result *usecases.ActivateLicenseResult
	err    error
}

func (m *mockActivateUC) Execute(ctx context.Context, cmd usecases.ActivateLicenseCommand) (*usecases.ActivateLicenseResult, error) {
	return m.result, m.err
}

type mockDeactivateUC struct {
	result *usecases.DeactivateLicenseResult
	err    error
}

func (m *mockDeactivateUC) Execute(ctx context.Context, cmd usecases.DeactivateLicenseCommand) (*usecases.DeactivateLicenseResult, error) {
	return m.result, m.err
}

type mockInfoUC struct {
	result *usecases.LicenseInfo
	err    error
}

func (m *mockInfoUC) Execute(ctx context.Context, key string) (*usecases.LicenseInfo, error) {
	return m.result, m.err
}

type mockNonceUC struct {
	result *usecases.IssueNonceResult
	err    error
}

func (m *mockNonceUC) Execute(ctx context.Context) (*usecases.IssueNonceResult, error) {
	return m.result, m.err
}

type mockVerifyUC struct {
	got usecases.VerifyTokenCommand
}

func (m *mockVerifyUC) Execute(cmd usecases.VerifyTokenCommand) *usecases.VerifyTokenResult {
	m.got = cmd
	return &usecases.VerifyTokenResult{Valid: cmd.Token == "abc123", Message: "checked"}
}

// =====================================================================
// Test helpers
// =====================================================================

type handlerMocks struct {
	validate   *mockValidateUC
	activate   *mockActivateUC
	deactivate *mockDeactivateUC
	info       *mockInfoUC
	nonce      *mockNonceUC
	verify     *mockVerifyUC
}

func newTestLicenseHandler(m handlerMocks) *LicenseHandler {
	if m.validate == nil {
		m.validate = &mockValidateUC{}
	}
	if m.activate == nil {
		m.activate = &mockActivateUC{}
	}
	if m.deactivate == nil {
		m.deactivate = &mockDeactivateUC{}
	}
	if m.info == nil {
		m.info = &mockInfoUC{}
	}
	if m.nonce == nil {
		m.nonce = &mockNonceUC{}
	}
	if m.verify == nil {
		m.verify = &mockVerifyUC{}
	}
	return NewLicenseHandler(m.validate, m.activate, m.deactivate, m.info, m.nonce, m.verify, testutil.NewMockLogger())
}

// =====================================================================
// Validate
// =====================================================================

func TestLicenseHandler_Validate_RejectionIsOK(t *testing.T) {
	uc := &mockValidateUC{result: &usecases.ValidationResult{Valid: false, Message: usecases.MsgNotFound}}
	handler := newTestLicenseHandler(handlerMocks{validate: uc})

	key := apikey.ReconstructAPIKey(apikey.ReconstructAPIKeyParams{ID: 3, IsActive: true})
	c, w := testutil.NewTestContext(http.MethodPost, "/licenses/validate", map[string]any{
		"license_key": " LG-AAA-BBB-CCC-DDD ",
		"machine_id":  "m1",
		"product_id":  7,
	})
	testutil.SetAPIKey(c, key)

	handler.Validate(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var body usecases.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Valid)
	assert.Equal(t, usecases.MsgNotFound, body.Message)

	assert.Equal(t, "LG-AAA-BBB-CCC-DDD", uc.got.LicenseKey)
	assert.Equal(t, "7", uc.got.ProductID)
	assert.Same(t, key, uc.got.APIKey)
}

func TestLicenseHandler_Validate_MissingKey(t *testing.T) {
	handler := newTestLicenseHandler(handlerMocks{})

	c, w := testutil.NewTestContext(http.MethodPost, "/licenses/validate", map[string]string{"domain": "x.com"})
	handler.Validate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := testutil.DecodeEnvelope(t, w)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error.Details, "license_key")
}

func TestLicenseHandler_Validate_GarbledNonceReachesUseCase(t *testing.T) {
	uc := &mockValidateUC{result: &usecases.ValidationResult{Valid: false, Message: usecases.MsgNonceNotFound}}
	handler := newTestLicenseHandler(handlerMocks{validate: uc})

	c, w := testutil.NewTestContext(http.MethodPost, "/licenses/validate", map[string]string{
		"license_key": "LG-AAA-BBB-CCC-DDD",
		"nonce":       "zz-not-hex",
	})
	handler.Validate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "zz-not-hex", uc.got.Nonce)

	var body usecases.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Valid)
	assert.Equal(t, usecases.MsgNonceNotFound, body.Message)
}

func TestLicenseHandler_Validate_MalformedJSON(t *testing.T) {
	handler := newTestLicenseHandler(handlerMocks{})

	c, w := testutil.NewTestContext(http.MethodPost, "/licenses/validate", map[string]any{"license_key": []int{1}})
	handler.Validate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLicenseHandler_Validate_ScopeError(t *testing.T) {
	uc := &mockValidateUC{err: errors.NewForbiddenError("API key is not authorized for this product")}
	handler := newTestLicenseHandler(handlerMocks{validate: uc})

	c, w := testutil.NewTestContext(http.MethodPost, "/licenses/validate", map[string]string{"license_key": "LG-AAA"})
	handler.Validate(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// =====================================================================
// Activate / Deactivate
// =====================================================================

func TestLicenseHandler_Activate(t *testing.T) {
	tests := []struct {
		name   string
		uc     *mockActivateUC
		status int
	}{
		{"created", &mockActivateUC{result: &usecases.ActivateLicenseResult{Activated: true, Created: true, Message: usecases.MsgActivated}}, http.StatusCreated},
		{"already active", &mockActivateUC{result: &usecases.ActivateLicenseResult{Activated: true, Message: usecases.MsgAlreadyActivated}}, http.StatusOK},
		{"slots exhausted", &mockActivateUC{err: errors.NewConflictError(usecases.MsgSlotsExhausted)}, http.StatusConflict},
		{"unknown license", &mockActivateUC{err: errors.NewNotFoundError(usecases.MsgNotFound)}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestLicenseHandler(handlerMocks{activate: tt.uc})

			c, w := testutil.NewTestContext(http.MethodPost, "/licenses/activate", MachineRequest{LicenseKey: "LG-AAA", MachineID: "m1"})
			handler.Activate(c)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestLicenseHandler_Activate_RequiresMachineID(t *testing.T) {
	handler := newTestLicenseHandler(handlerMocks{})

	c, w := testutil.NewTestContext(http.MethodPost, "/licenses/activate", map[string]string{"license_key": "LG-AAA"})
	handler.Activate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLicenseHandler_Deactivate(t *testing.T) {
	uc := &mockDeactivateUC{result: &usecases.DeactivateLicenseResult{Deactivated: true, Message: usecases.MsgDeactivated}}
	handler := newTestLicenseHandler(handlerMocks{deactivate: uc})

	c, w := testutil.NewTestContext(http.MethodPost, "/licenses/deactivate", MachineRequest{LicenseKey: "LG-AAA", MachineID: "m1"})
	handler.Deactivate(c)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := testutil.DecodeEnvelope(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, usecases.MsgDeactivated, resp.Message)
}

// =====================================================================
// Info / Nonce / VerifyToken
// =====================================================================

func TestLicenseHandler_Info(t *testing.T) {
	uc := &mockInfoUC{result: &usecases.LicenseInfo{LicenseKey: "LG-AAA", Status: "active", MaxActivations: 2}}
	handler := newTestLicenseHandler(handlerMocks{info: uc})

	c, w := testutil.NewTestContext(http.MethodGet, "/licenses/info/LG-AAA", nil)
	testutil.SetURLParam(c, "key", "LG-AAA")
	handler.Info(c)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := testutil.DecodeEnvelope(t, w)
	var info usecases.LicenseInfo
	require.NoError(t, json.Unmarshal(resp.Data, &info))
	assert.Equal(t, "active", info.Status)
}

func TestLicenseHandler_Info_NotFound(t *testing.T) {
	handler := newTestLicenseHandler(handlerMocks{info: &mockInfoUC{err: errors.NewNotFoundError(usecases.MsgNotFound)}})

	c, w := testutil.NewTestContext(http.MethodGet, "/licenses/info/LG-ZZZ", nil)
	testutil.SetURLParam(c, "key", "LG-ZZZ")
	handler.Info(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLicenseHandler_IssueNonce(t *testing.T) {
	handler := newTestLicenseHandler(handlerMocks{nonce: &mockNonceUC{result: &usecases.IssueNonceResult{Nonce: "ab12", ExpiresIn: 300}}})

	c, w := testutil.NewTestContext(http.MethodPost, "/nonce", nil)
	handler.IssueNonce(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	resp := testutil.DecodeEnvelope(t, w)
	var got usecases.IssueNonceResult
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "ab12", got.Nonce)
	assert.Equal(t, 300, got.ExpiresIn)
}

func TestLicenseHandler_VerifyToken(t *testing.T) {
	uc := &mockVerifyUC{}
	handler := newTestLicenseHandler(handlerMocks{verify: uc})

	c, w := testutil.NewTestContext(http.MethodPost, "/licenses/verify-token", map[string]any{
		"token":       "abc123",
		"license_key": "CL-AAA-111-BBB-222",
		"valid":       true,
		"timestamp":   1700000000,
		"domain":      "x.com",
		"product_id":  "pro",
	})
	handler.VerifyToken(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var body usecases.VerifyTokenResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Valid)
	assert.Equal(t, int64(1700000000), uc.got.Timestamp)
	assert.Equal(t, "pro", uc.got.ProductID)
}

func TestStringID(t *testing.T) {
	var v struct {
		ID StringID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42}`), &v))
	assert.Equal(t, StringID("42"), v.ID)
	require.NoError(t, json.Unmarshal([]byte(`{"id": "pro"}`), &v))
	assert.Equal(t, StringID("pro"), v.ID)
	require.NoError(t, json.Unmarshal([]byte(`{"id": null}`), &v))
	assert.Equal(t, StringID(""), v.ID)
	assert.Error(t, json.Unmarshal([]byte(`{"id": true}`), &v))
}
