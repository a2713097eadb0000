package httpapi

// maxBodyBytes caps the /api/chat request body. Zero means unlimited.
var maxBodyBytes int64

// SetMaxBodyBytes configures the maximum request body size (<=0 disables the cap).
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 0
		return
	}
	maxBodyBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for routers built afterwards.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
