package rbac

import "testing"

func TestResolveRole(t *testing.T) {
	const adminEmail = "admin@zntax.com"

	tests := []struct {
		name      string
		email     string
		tokenRole string
		want      string
	}{
		{name: "email администратора", email: "admin@zntax.com", want: RoleAdmin},
		{name: "email администратора в другом регистре", email: " Admin@ZNTax.com ", want: RoleAdmin},
		{name: "клиент без claim", email: "client@x.io", want: RoleClient},
		{name: "клиент с claim admin — повышение", email: "client@x.io", tokenRole: "admin", want: RoleAdmin},
		{name: "администратор с claim user — не понижается", email: adminEmail, tokenRole: "user", want: RoleAdmin},
		{name: "неизвестный claim игнорируется", email: "client@x.io", tokenRole: "superuser", want: RoleClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRole(tt.email, adminEmail, tt.tokenRole)
			if got != tt.want {
				t.Errorf("ResolveRole(%q, %q) = %q, хотели %q", tt.email, tt.tokenRole, got, tt.want)
			}
		})
	}
}

func TestResolveRole_EmptyAdminEmail(t *testing.T) {
	if got := ResolveRole("", "", ""); got != RoleClient {
		t.Errorf("ResolveRole с пустыми email = %q, хотели %q", got, RoleClient)
	}
}

func TestCanAccess(t *testing.T) {
	tests := []struct {
		role, required string
		want           bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleClient, true},
		{RoleClient, RoleClient, true},
		{RoleClient, RoleAdmin, false},
		{"", RoleClient, false},
	}

	for _, tt := range tests {
		if got := CanAccess(tt.role, tt.required); got != tt.want {
			t.Errorf("CanAccess(%q, %q) = %v, хотели %v", tt.role, tt.required, got, tt.want)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	if !IsValidRole(RoleAdmin) || !IsValidRole(RoleClient) {
		t.Error("admin и client должны быть допустимыми ролями")
	}
	if IsValidRole("readonly") {
		t.Error("readonly не является ролью портала")
	}
}
