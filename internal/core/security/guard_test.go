package security

import (
	"context"
	"testing"

	"leadtrack/internal/core/apperror"
)

func TestGuard_Require(t *testing.T) {
	g := NewGuard("TT")

	tests := []struct {
		name      string
		principal *Principal
		cap       Capability
		wantCode  string
	}{
		{
			name:      "admin allowed",
			principal: &Principal{UserID: "u1", Name: "TT", IsAdmin: true},
			cap:       CapEditSettings,
			wantCode:  "",
		},
		{
			name:      "admin by name allowed",
			principal: &Principal{UserID: "u1", Name: "TT"},
			cap:       CapClearAllData,
			wantCode:  "",
		},
		{
			name:      "regular user forbidden",
			principal: &Principal{UserID: "u2", Name: "Factory"},
			cap:       CapDeleteEntry,
			wantCode:  apperror.CodeForbidden,
		},
		{
			name:      "no principal unauthorized",
			principal: nil,
			cap:       CapManageUsers,
			wantCode:  apperror.CodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.principal != nil {
				ctx = WithPrincipal(ctx, *tt.principal)
			}

			err := g.Require(ctx, tt.cap)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Require() = %v, want nil", err)
				}
				return
			}
			appErr, ok := apperror.AsAppError(err)
			if !ok {
				t.Fatalf("Require() = %v, want AppError", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", appErr.Code, tt.wantCode)
			}
		})
	}
}

func TestGuard_ErrorHidesCapability(t *testing.T) {
	g := NewGuard("TT")
	ctx := WithPrincipal(context.Background(), Principal{UserID: "u2", Name: "Factory"})

	err := g.Require(ctx, CapClearAllData)
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("Require() = %v, want AppError", err)
	}
	if appErr.Message != "not permitted" {
		t.Errorf("message leaks detail: %q", appErr.Message)
	}
	if len(appErr.Details) != 0 {
		t.Errorf("details leak: %v", appErr.Details)
	}
}
