// Package interceptors wraps host invocations with cross-cutting behavior.
//
// Interceptors run in the order they are added, the final handler last:
//
//	chain := interceptors.NewChainBuilder(logger).
//		WithLogging().
//		WithCircuitBreaker(reliability.NewCircuitBreaker()).
//		Build()
//
//	data, err := chain.Execute(ctx, &interceptors.Invocation{Bridge: "app", Function: "getState"}, final)
package interceptors
