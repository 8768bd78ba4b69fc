package registry

import (
	"os"
	"strings"
	"testing"
	"time"
)

// Needs a reachable etcd; set ETCD_ENDPOINTS (comma-separated) to run.
func etcdEndpoints(t *testing.T) []string {
	t.Helper()
	env := os.Getenv("ETCD_ENDPOINTS")
	if env == "" {
		t.Skip("ETCD_ENDPOINTS not set")
	}
	return strings.Split(env, ",")
}

func TestEtcdRegisterAndDiscover(t *testing.T) {
	reg, err := NewEtcdRegistry(etcdEndpoints(t))
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()

	// Register two instances
	inst1 := ServiceInstance{Subject: "rpc.arith.a", Queue: "arith", Weight: 10, Version: "1.0"}
	inst2 := ServiceInstance{Subject: "rpc.arith.b", Queue: "arith", Weight: 5, Version: "1.0"}

	if err := reg.Register("Arith", inst1, 10); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register("Arith", inst2, 10); err != nil {
		t.Fatal(err)
	}

	// Discover
	instances, err := reg.Discover("Arith")
	if err != nil {
		t.Fatal(err)
	}

	if len(instances) != 2 {
		t.Fatalf("expect 2 instances, got %d", len(instances))
	}

	// Deregister one
	if err := reg.Deregister("Arith", inst1.Subject); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	instances, err = reg.Discover("Arith")
	if err != nil {
		t.Fatal(err)
	}

	if len(instances) != 1 {
		t.Fatalf("expect 1 instance after deregister, got %d", len(instances))
	}

	if instances[0].Subject != inst2.Subject {
		t.Fatalf("expect %s, got %s", inst2.Subject, instances[0].Subject)
	}

	// Cleanup
	reg.Deregister("Arith", inst2.Subject)
}
