package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ABCMilioli/api-control/internal/core"
	"github.com/ABCMilioli/api-control/internal/model"
)

func newValidationHandler(db *handlerMockDB) *Validation {
	admission := core.NewAdmissionService(db, noopSink{}, core.NewNotificationService(db), zerolog.Nop())
	return NewValidation(admission, core.NewInstallationService(db, noopSink{}))
}

func keyLookupRow(id, clientID, clientName string, maxInstallations int, expiresAt *time.Time) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = clientID
		*(dest[2].(*string)) = clientName
		*(dest[3].(*int)) = maxInstallations
		*(dest[4].(**time.Time)) = expiresAt
		return nil
	}}
}

func intRow(v int) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = v
		return nil
	}}
}

func TestValidate_Success(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("FROM api_keys k"), mock.Anything).
		Return(keyLookupRow("key-1", "client-1", "Acme", 3, nil))

	tx := &handlerMockTx{}
	db.On("Begin", mock.Anything).Return(tx, nil)
	tx.On("QueryRow", mock.Anything, sqlContains("FOR UPDATE"), mock.Anything).Return(intRow(3))
	tx.On("Query", mock.Anything, sqlContains("FROM installations"), mock.Anything).Return(&mockRows{}, nil)
	tx.On("Exec", mock.Anything, sqlContains("INSERT INTO installations"), mock.Anything).Return(pgconn.CommandTag{}, nil)
	tx.On("QueryRow", mock.Anything, sqlContains("RETURNING current_installations"), mock.Anything).Return(intRow(1))
	tx.On("Commit", mock.Anything).Return(nil)
	tx.On("Rollback", mock.Anything).Return()

	r := newRequest(http.MethodPost, "/api/v1/validate", map[string]string{
		"apiKey":    "ak_test",
		"ipAddress": "203.0.113.7",
		"userAgent": "agent/1.0",
	})
	rec := httptest.NewRecorder()
	newValidationHandler(db).Validate(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["valid"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Acme", data["clientName"])
	assert.NotEmpty(t, data["installationId"])
	assert.Nil(t, data["replacedInstallationId"])
	db.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestValidate_UnknownKeyUnauthorized(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("FROM api_keys k"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})
	db.On("Exec", mock.Anything, sqlContains("INSERT INTO installations"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)

	r := newRequest(http.MethodPost, "/api/v1/validate", map[string]string{"apiKey": "ak_nope"})
	rec := httptest.NewRecorder()
	newValidationHandler(db).Validate(rec, r)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "API_KEY_INACTIVE", body["error"])
	assert.Equal(t, float64(http.StatusUnauthorized), body["code"])
	assert.NotEmpty(t, body["description"])
}

func TestValidate_ExpiredKeyUnauthorized(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("FROM api_keys k"), mock.Anything).
		Return(keyLookupRow("key-1", "client-1", "Acme", 3, &past))
	db.On("Exec", mock.Anything, sqlContains("INSERT INTO installations"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)
	db.On("Exec", mock.Anything, sqlContains("INSERT INTO notifications"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)

	r := newRequest(http.MethodPost, "/api/v1/validate", map[string]string{"apiKey": "ak_old"})
	rec := httptest.NewRecorder()
	newValidationHandler(db).Validate(rec, r)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, "API_KEY_EXPIRED", body["error"])
	assert.Equal(t, float64(http.StatusUnauthorized), body["code"])
}

func TestValidate_StorageFailureIsInternalError(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("FROM api_keys k"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return assert.AnError }})

	r := newRequest(http.MethodPost, "/api/v1/validate", map[string]string{"apiKey": "ak_test"})
	rec := httptest.NewRecorder()
	newValidationHandler(db).Validate(rec, r)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, "INTERNAL_ERROR", body["error"])
	assert.Equal(t, float64(http.StatusInternalServerError), body["code"])
}

func TestValidate_InvalidJSON(t *testing.T) {
	db := &handlerMockDB{}
	r := newRequestRaw(http.MethodPost, "/api/v1/validate", "{not json")
	rec := httptest.NewRecorder()
	newValidationHandler(db).Validate(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_MissingAPIKey(t *testing.T) {
	db := &handlerMockDB{}
	r := newRequest(http.MethodPost, "/api/v1/validate", map[string]string{"ipAddress": "1.2.3.4"})
	rec := httptest.NewRecorder()
	newValidationHandler(db).Validate(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_FallsBackToPeerAddress(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("FROM api_keys k"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})
	// The failure record carries the transport peer IP, not an empty string.
	db.On("Exec", mock.Anything, sqlContains("INSERT INTO installations"), mock.MatchedBy(func(args []any) bool {
		return args[2] == "192.0.2.1"
	})).Return(pgconn.CommandTag{}, nil)

	r := newRequest(http.MethodPost, "/api/v1/validate", map[string]string{"apiKey": "ak_nope"})
	r.RemoteAddr = "192.0.2.1:51234"
	rec := httptest.NewRecorder()
	newValidationHandler(db).Validate(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	db.AssertExpectations(t)
}

func installationRow(inst model.Installation) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = inst.ID
		*(dest[1].(*string)) = inst.APIKeyID
		*(dest[2].(*string)) = inst.RemoteAddress
		*(dest[3].(**string)) = nil
		*(dest[4].(**string)) = nil
		*(dest[5].(*bool)) = inst.Active
		*(dest[6].(*bool)) = inst.Success
		*(dest[7].(*time.Time)) = inst.OccurredAt
		return nil
	}}
}

func TestStatus_Active(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("FROM installations"), mock.Anything).
		Return(installationRow(model.Installation{
			ID: validID, APIKeyID: "key-1", RemoteAddress: "1.2.3.4",
			Active: true, Success: true, OccurredAt: time.Now(),
		}))

	r := withChiURLParam(newRequest(http.MethodGet, "/api/v1/installations/status/"+validID, nil), "id", validID)
	rec := httptest.NewRecorder()
	newValidationHandler(db).Status(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, true, body["active"])
	assert.Equal(t, "installation is active", body["message"])
}

func TestStatus_Inactive(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("FROM installations"), mock.Anything).
		Return(installationRow(model.Installation{
			ID: validID, APIKeyID: "key-1", RemoteAddress: "1.2.3.4",
			Active: false, Success: true, OccurredAt: time.Now(),
		}))

	r := withChiURLParam(newRequest(http.MethodGet, "/api/v1/installations/status/"+validID, nil), "id", validID)
	rec := httptest.NewRecorder()
	newValidationHandler(db).Status(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, false, body["active"])
	assert.Equal(t, "installation is inactive", body["message"])
}

func TestStatus_NotFound(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("FROM installations"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	r := withChiURLParam(newRequest(http.MethodGet, "/api/v1/installations/status/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()
	newValidationHandler(db).Status(rec, r)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, false, body["active"])
	assert.Equal(t, "installation not found", body["message"])
}

func TestStatus_MissingID(t *testing.T) {
	db := &handlerMockDB{}
	r := withChiURLParam(newRequest(http.MethodGet, "/api/v1/installations/status/", nil), "id", "")
	rec := httptest.NewRecorder()
	newValidationHandler(db).Status(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
