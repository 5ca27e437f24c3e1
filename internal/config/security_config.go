// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Bearer token required
)

// EndpointSecurityConfig maps route templates to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Public
	"/":                 SecurityPublic,
	"/server-date":      SecurityPublic,
	"/metrics":          SecurityPublic,
	"/auth/login":       SecurityPublic,
	"/auth/create-user": SecurityPublic,

	// Access protected
	"/auth/me":               SecurityAccess,
	"/report":                SecurityAccess,
	"/balance":               SecurityAccess,
	"/balance/add":           SecurityAccess,
	"/balance/set":           SecurityAccess,
	"/balance/adjust":        SecurityAccess,
	"/payment-history":       SecurityAccess,
	"/payment-history/stats": SecurityAccess,
	"/trigger-eod-deduction": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route template
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
