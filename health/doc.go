// Package health reports whether the service and its dependencies are usable.
//
// A Checker reports a Status: Healthy, Degraded or Unhealthy. The Aggregator
// runs registered checkers (the database ping and the secrets check) with a
// timeout and folds their results into one status.
//
// # HTTP Endpoints
//
//	GET /healthz  liveness, always "OK" while the process serves requests
//	GET /readyz   readiness, 503 when any check is unhealthy
//	GET /health   {"status":"UP","timestamp":"1700000000000","checks":{...}}
//
// The /health body keeps the UP/DOWN vocabulary and millisecond timestamp
// that existing monitors expect. Degraded counts as UP.
package health
