package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// RouteSecurityConfig maps "METHOD /path-template" to the required security
// level. Routes that are not listed require an access token.
var RouteSecurityConfig = map[string]SecurityLevel{
	// Auth - Public
	"POST /auth/login/":    SecurityPublic,
	"POST /auth/register/": SecurityPublic,

	// Catalog - Public reads
	"GET /items/":             SecurityPublic,
	"GET /items/{id:[0-9]+}/": SecurityPublic,
	"GET /categories/":        SecurityPublic,
	"GET /media/{path:.+}":    SecurityPublic,
	"GET /healthz":            SecurityPublic,

	// Items - Access Protected
	"POST /items/":                          SecurityAccess,
	"PUT /items/{id:[0-9]+}/":               SecurityAccess,
	"PATCH /items/{id:[0-9]+}/":             SecurityAccess,
	"DELETE /items/{id:[0-9]+}/":            SecurityAccess,
	"POST /items/{id:[0-9]+}/upload-image/": SecurityAccess,
	"POST /categories/":                     SecurityAccess,

	// Requests - Access Protected
	"GET /requests/":                               SecurityAccess,
	"POST /requests/":                              SecurityAccess,
	"GET /requests/{id:[0-9]+}/":                   SecurityAccess,
	"PATCH /requests/{id:[0-9]+}/":                 SecurityAccess,
	"POST /requests/{id:[0-9]+}/confirm_handover/": SecurityAccess,
	"POST /requests/{id:[0-9]+}/confirm_return/":   SecurityAccess,
	"POST /requests/{id:[0-9]+}/simulate_payment/": SecurityAccess,

	// Notifications - Access Protected
	"GET /notifications/":               SecurityAccess,
	"POST /notifications/":              SecurityAccess,
	"PATCH /notifications/{id:[0-9]+}/": SecurityAccess,

	// Messaging - Access Protected
	"GET /conversations/":          SecurityAccess,
	"POST /conversations/":         SecurityAccess,
	"GET /messages/":               SecurityAccess,
	"POST /messages/":              SecurityAccess,
	"PATCH /messages/{id:[0-9]+}/": SecurityAccess,
}

// RouteSecurity returns the security level for a route, defaulting to SecurityAccess.
func RouteSecurity(method, pathTemplate string) SecurityLevel {
	if level, ok := RouteSecurityConfig[method+" "+pathTemplate]; ok {
		return level
	}
	return SecurityAccess
}
