// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityTenant                      // Tenant session token required
)

// EndpointSecurityConfig maps route templates to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Operational - Public
	"/healthz": SecurityPublic,
	"/metrics": SecurityPublic,

	// Bookings - Tenant Protected
	"/bookings":             SecurityTenant,
	"/bookings/{id}":        SecurityTenant,
	"/bookings/{id}/return": SecurityTenant,

	// Equipment - Tenant Protected
	"/equipment/{id}/availability":      SecurityTenant,
	"/equipment/{id}/movements":         SecurityTenant,
	"/equipment/{id}/stock-adjustments": SecurityTenant,
}

// GetSecurityLevel returns the security level for a given route template
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityTenant
}
