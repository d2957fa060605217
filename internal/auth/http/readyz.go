package http

import (
	"net/http"
	"time"

	"github.com/pgnest/pgnest/internal/auth/store"
	"github.com/pgnest/pgnest/pkg/authsdk"
	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/jwtx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Probe
//	@Description	Checks the database connection and the signing key set. Returns 503 with
//	@Description	per-dependency detail when anything critical is down.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	httpx.SuccessEnvelope{data=authsdk.HealthResponse}
//	@Failure		503	{object}	httpx.ErrorDataEnvelope	"service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeySet,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		ready := true

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			ready = false
		}

		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			ready = false
		}

		health := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}

		if !ready {
			health.Status = "degraded"
			httpx.WriteErrorData(w, http.StatusServiceUnavailable, httpx.CodeServerError, "Service not ready", health)
			return
		}

		httpx.WriteSuccess(w, http.StatusOK, health)
	}
}
