// Package loadbalance provides strategies for choosing a target subject
// when a service is registered under more than one (separate deployments,
// regions, or versions each listening on their own subject).
//
// Within one subject the bus's queue group already balances across
// competing servers; these strategies only pick between subjects.
//
// Three strategies are implemented:
//   - RoundRobin:      Equal-capacity deployments
//   - WeightedRandom:  Heterogeneous deployments (different capacity)
//   - ConsistentHash:  Cache affinity — the same subject for the same key
package loadbalance

import "nats-rpc/registry"

// Balancer is the interface for load balancing strategies.
// The client calls Pick() before each RPC to select a target instance.
type Balancer interface {
	// Pick selects one instance from the available list.
	// Called on every RPC call — must be goroutine-safe.
	Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
