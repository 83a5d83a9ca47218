package consul

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// NewClient builds a consul client from the standard environment
// (CONSUL_HTTP_ADDR and friends).
func NewClient() (*consulapi.Client, error) {
	client, err := consulapi.NewClient(consulapi.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// GetServiceAddress returns the address and port of a healthy instance of
// the named service.
func GetServiceAddress(client *consulapi.Client, serviceName string) (string, int, error) {
	entries, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to query consul for service %s: %w", serviceName, err)
	}
	if len(entries) == 0 {
		return "", 0, fmt.Errorf("no healthy instances of service %s", serviceName)
	}

	service := entries[0].Service
	address := service.Address
	if address == "" {
		address = entries[0].Node.Address
	}
	return address, service.Port, nil
}

// RegisterService registers this instance with consul, with an HTTP health
// check on /ping.
func RegisterService(client *consulapi.Client, name string, id string, address string, port int) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      id,
		Name:    name,
		Address: address,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", address, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service with consul: %w", err)
	}
	return nil
}

// DeregisterService removes this instance from consul on shutdown.
func DeregisterService(client *consulapi.Client, id string) error {
	if err := client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister service from consul: %w", err)
	}
	return nil
}
