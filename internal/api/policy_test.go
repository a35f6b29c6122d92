package api

import "testing"

func TestPolicyClassify(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name string
		path string
		want Requirement
	}{
		{name: "login is public", path: "/api/v1/rest/login", want: Public},
		{name: "registration is public", path: "/api/v1/rest/registration", want: Public},
		{name: "reset code link is public", path: "/api/v1/rest/reset/abc-123", want: Public},
		{name: "activation link is public", path: "/api/v1/rest/activate/some-code", want: Public},
		{name: "product page is public", path: "/api/v1/rest/product/42", want: Public},
		{name: "menu subtree is public", path: "/api/v1/rest/menu/drinks/cold", want: Public},
		{name: "static assets are public", path: "/static/js/app.js", want: Public},
		{name: "profile needs identity", path: "/api/v1/rest/user/me", want: MustBeAuthenticated},
		{name: "admin needs identity", path: "/api/v1/rest/admin/user", want: MustBeAuthenticated},
		{name: "unknown path needs identity", path: "/api/v1/rest/secret", want: MustBeAuthenticated},
		{name: "single star is one segment only", path: "/api/v1/rest/product/42/reviews", want: MustBeAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestPolicyFirstMatchWins(t *testing.T) {
	policy := NewAccessPolicy([]Rule{
		{Pattern: "/admin/health", Requirement: Public},
		{Pattern: "/admin/**", Requirement: MustBeAuthenticated},
	})

	if got := policy.Classify("/admin/health"); got != Public {
		t.Errorf("expected the specific rule to win, got %v", got)
	}
	if got := policy.Classify("/admin/users"); got != MustBeAuthenticated {
		t.Errorf("expected the subtree rule to apply, got %v", got)
	}
}
