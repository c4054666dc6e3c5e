package httpx

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency. The name keys the result in the
// response body.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler reports liveness plus the state of registered dependencies.
// Any failing dependency turns the response into a 503 so load balancers
// stop routing to the instance.
func HealthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status := "ok"
		code := http.StatusOK
		deps := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				deps[c.Name] = err.Error()
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			deps[c.Name] = "ok"
		}

		if r.Method == http.MethodHead {
			w.WriteHeader(code)
			return
		}

		body := map[string]any{"status": status}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
		WriteJSON(w, code, body)
	}
}
