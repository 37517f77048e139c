// Package health provides liveness and readiness checks.
//
// Liveness only reports that the process is up. Readiness runs every
// registered check concurrently, each bounded by the checker's timeout:
//
//	checker := health.New(2*time.Second, nil)
//	checker.RegisterCheck("database", health.DatabaseCheck(store))
//
//	router.Handle("/health", checker.LivenessHandler())
//	router.Handle("/ready", checker.ReadinessHandler())
package health
