package health

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// LivenessHandler serves /healthz. It runs no checks: a process that can
// answer is alive.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "OK")
	}
}

var readiness = map[Status]struct {
	code int
	body string
}{
	StatusHealthy:   {http.StatusOK, "OK"},
	StatusDegraded:  {http.StatusOK, "DEGRADED"},
	StatusUnhealthy: {http.StatusServiceUnavailable, "UNHEALTHY"},
}

// ReadinessHandler serves /readyz from a fresh run of every check.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, ok := readiness[agg.CheckAll(r.Context()).Status]
		if !ok {
			out = readiness[StatusUnhealthy]
		}
		writeText(w, out.code, out.body)
	}
}

// StatusResponse is the /health document. Timestamp is Unix milliseconds
// as a string.
type StatusResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func NewStatusResponse(report Report) StatusResponse {
	checks := make(map[string]CheckResponse, len(report.Results))
	for name, res := range report.Results {
		cr := CheckResponse{
			Status:   res.Status.UpDown(),
			Message:  res.Message,
			Duration: res.Duration.String(),
			Details:  res.Details,
		}
		if res.Error != nil {
			cr.Error = res.Error.Error()
		}
		checks[name] = cr
	}
	return StatusResponse{
		Status:    report.Status.UpDown(),
		Timestamp: strconv.FormatInt(report.Timestamp.UnixMilli(), 10),
		Checks:    checks,
	}
}

// StatusHandler serves /health: 200 when UP and 503 when DOWN.
func StatusHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := agg.CheckAll(r.Context())

		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(NewStatusResponse(report))
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
