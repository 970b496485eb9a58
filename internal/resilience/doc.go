// Package resilience provides reliability and fault tolerance patterns for the application.
// It currently hosts the circuit breaker used to guard the credential store,
// so a dead key-value backend fails fast instead of stalling every export.
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.CredentialStoreConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return lookupCredential()
//	})
package resilience
