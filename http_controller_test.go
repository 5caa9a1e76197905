package auth_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-session-auth"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLoginRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload auth.LoginRequest
		wantErr bool
	}{
		{
			name:    "valid",
			payload: auth.LoginRequest{Username: "pepe", Password: "secure-password-1"},
		},
		{
			name:    "missing username",
			payload: auth.LoginRequest{Password: "secure-password-1"},
			wantErr: true,
		},
		{
			name:    "missing password",
			payload: auth.LoginRequest{Username: "pepe"},
			wantErr: true,
		},
		{
			name: "username too long",
			payload: auth.LoginRequest{
				Username: strings.Repeat("a", auth.MaxUsernameLength+1),
				Password: "secure-password-1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAbortRequestValidate(t *testing.T) {
	assert.NoError(t, auth.AbortRequest{
		SessionUUID: "2f6b5f74-8f0f-4dbb-9b75-5f8f31f26cb0",
	}.Validate())

	assert.Error(t, auth.AbortRequest{}.Validate())
	assert.Error(t, auth.AbortRequest{SessionUUID: "not-a-uuid"}.Validate())
}

func TestRegistrationCreatePayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload auth.RegistrationCreatePayload
		wantErr bool
	}{
		{
			name: "valid",
			payload: auth.RegistrationCreatePayload{
				Username:        "pepe",
				Password:        "secure-password-1",
				ConfirmPassword: "secure-password-1",
			},
		},
		{
			name: "password too short",
			payload: auth.RegistrationCreatePayload{
				Username:        "pepe",
				Password:        "short",
				ConfirmPassword: "short",
			},
			wantErr: true,
		},
		{
			name: "confirmation mismatch",
			payload: auth.RegistrationCreatePayload{
				Username:        "pepe",
				Password:        "secure-password-1",
				ConfirmPassword: "different-password-1",
			},
			wantErr: true,
		},
		{
			name: "missing username",
			payload: auth.RegistrationCreatePayload{
				Password:        "secure-password-1",
				ConfirmPassword: "secure-password-1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStringEquals(t *testing.T) {
	rule := auth.ValidateStringEquals("expected")

	assert.NoError(t, rule("expected"))
	assert.Error(t, rule("other"))
	assert.Error(t, rule(42))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	err := auth.LoginRequest{}.Validate()
	require.Error(t, err)

	out := auth.FormatValidationErrorToMap(err)
	assert.Contains(t, out, "username")
	assert.Contains(t, out, "password")

	assert.Empty(t, auth.FormatValidationErrorToMap(nil))
}

func mockHeaders(headers map[string]string) *router.MockContext {
	ctx := router.NewMockContext()
	for name, value := range headers {
		ctx.HeadersM[name] = value
		ctx.On("GetString", name, "").Return(value)
	}
	ctx.On("GetString", mock.Anything, "").Return("").Maybe()
	return ctx
}

func TestClientIP(t *testing.T) {
	ctx := mockHeaders(map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"})
	assert.Equal(t, "203.0.113.7", auth.ClientIP(ctx))

	ctx = mockHeaders(map[string]string{"X-Real-Ip": "203.0.113.9"})
	assert.Equal(t, "203.0.113.9", auth.ClientIP(ctx))

	ctx = mockHeaders(nil)
	assert.Equal(t, "", auth.ClientIP(ctx))
}

func TestDeviceName(t *testing.T) {
	ctx := mockHeaders(map[string]string{"User-Agent": "Mozilla/5.0 (X11; Linux x86_64)"})
	assert.Equal(t, "Mozilla/5.0 (X11; Linux x86_64)", auth.DeviceName(ctx))

	ctx = mockHeaders(nil)
	assert.Equal(t, "unknown", auth.DeviceName(ctx))

	ctx = mockHeaders(map[string]string{"User-Agent": strings.Repeat("x", 100)})
	assert.Len(t, auth.DeviceName(ctx), 64)
}

func TestDeviceFromRequest(t *testing.T) {
	ctx := mockHeaders(map[string]string{
		"X-Forwarded-For": "203.0.113.7",
		"User-Agent":      "curl/8.5.0",
	})

	dev := auth.DeviceFromRequest(ctx)
	assert.Equal(t, "curl/8.5.0", dev.Name)
	assert.Equal(t, "203.0.113.7", dev.IP)
}
