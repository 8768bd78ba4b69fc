package registry

// ServiceInstance describes one reachable deployment of a service: the bus
// subject its servers listen on, and the queue group they compete in (empty
// when every subscriber sees every message).
type ServiceInstance struct {
	Subject string
	Queue   string
	Weight  int // Weight for load balancing
	Version string
}

type Registry interface {
	Register(serviceName string, instance ServiceInstance, ttl int64) error
	Deregister(serviceName string, subject string) error
	Discover(serviceName string) ([]ServiceInstance, error)
	Watch(serviceName string) <-chan []ServiceInstance
}
