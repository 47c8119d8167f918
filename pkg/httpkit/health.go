package httpkit

import (
	"encoding/json"
	"net/http"
)

// Ping answers GET /health with a minimal liveness payload.
func Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Version answers GET /version, reporting the build version baked in at
// link time via -ldflags.
var Version = "dev"

// VersionHandler answers GET /version with the component's build version.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"version": Version})
}
