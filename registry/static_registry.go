package registry

import (
	"fmt"
	"sync"
)

// StaticRegistry is a map-backed Registry for tests and single-process
// wiring where etcd would be overkill. TTLs are ignored — entries live
// until deregistered.
type StaticRegistry struct {
	mu       sync.RWMutex
	services map[string][]ServiceInstance
	watchers map[string][]chan []ServiceInstance
}

func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		services: make(map[string][]ServiceInstance),
		watchers: make(map[string][]chan []ServiceInstance),
	}
}

func (r *StaticRegistry) Register(serviceName string, instance ServiceInstance, _ int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, inst := range r.services[serviceName] {
		if inst.Subject == instance.Subject {
			r.services[serviceName][i] = instance
			r.notify(serviceName)
			return nil
		}
	}
	r.services[serviceName] = append(r.services[serviceName], instance)
	r.notify(serviceName)
	return nil
}

func (r *StaticRegistry) Deregister(serviceName string, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.services[serviceName]
	for i, inst := range list {
		if inst.Subject == subject {
			r.services[serviceName] = append(list[:i], list[i+1:]...)
			r.notify(serviceName)
			return nil
		}
	}
	return fmt.Errorf("static registry: %s has no instance on %q", serviceName, subject)
}

func (r *StaticRegistry) Discover(serviceName string) ([]ServiceInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	instances := make([]ServiceInstance, len(r.services[serviceName]))
	copy(instances, r.services[serviceName])
	return instances, nil
}

func (r *StaticRegistry) Watch(serviceName string) <-chan []ServiceInstance {
	ch := make(chan []ServiceInstance, 1)
	r.mu.Lock()
	r.watchers[serviceName] = append(r.watchers[serviceName], ch)
	r.mu.Unlock()
	return ch
}

// notify pushes the current instance list to watchers without blocking on
// slow consumers. Caller holds the write lock.
func (r *StaticRegistry) notify(serviceName string) {
	instances := make([]ServiceInstance, len(r.services[serviceName]))
	copy(instances, r.services[serviceName])
	for _, ch := range r.watchers[serviceName] {
		select {
		case ch <- instances:
		default:
		}
	}
}
