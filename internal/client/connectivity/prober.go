package connectivity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Prober checks reachability once. An error means the check itself could not
// run; an unreachable network is reported as (false, nil).
type Prober interface {
	Probe(ctx context.Context) (bool, error)
}

type ProberFunc func(ctx context.Context) (bool, error)

func (f ProberFunc) Probe(ctx context.Context) (bool, error) { return f(ctx) }

// InterfaceProber reports true when a non-loopback interface is up and has
// at least one address.
type InterfaceProber struct {
	interfaces func() ([]net.Interface, error)
	addrs      func(net.Interface) ([]net.Addr, error)
}

func NewInterfaceProber() *InterfaceProber {
	return &InterfaceProber{
		interfaces: net.Interfaces,
		addrs:      func(i net.Interface) ([]net.Addr, error) { return i.Addrs() },
	}
}

func (p *InterfaceProber) Probe(ctx context.Context) (bool, error) {
	ifaces, err := p.interfaces()
	if err != nil {
		return false, fmt.Errorf("list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := p.addrs(iface)
		if err != nil {
			continue
		}
		if len(addrs) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// HTTPProber sends a HEAD request to URL. Any response, whatever its status,
// means the network is reachable.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

func NewHTTPProber(url string, c *http.Client) *HTTPProber {
	if c == nil {
		c = &http.Client{}
	}
	return &HTTPProber{URL: url, Client: c}
}

func (p *HTTPProber) Probe(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false, fmt.Errorf("build probe request: %w", err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return false, nil
	}
	_ = resp.Body.Close()
	return true, nil
}

// GRPCHealthProber calls grpc.health.v1.Health/Check on an endpoint. The
// network counts as reachable when the service answers SERVING.
type GRPCHealthProber struct {
	conn    *grpc.ClientConn
	client  healthpb.HealthClient
	service string
}

func NewGRPCHealthProber(addr, service string, opts ...grpc.DialOption) (*GRPCHealthProber, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc health client: %w", err)
	}
	return &GRPCHealthProber{conn: conn, client: healthpb.NewHealthClient(conn), service: service}, nil
}

func (p *GRPCHealthProber) Probe(ctx context.Context) (bool, error) {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: p.service})
	if err != nil {
		return false, nil
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

func (p *GRPCHealthProber) Close() error {
	return p.conn.Close()
}

// AnyProber is reachable as soon as one of its probers is. It fails only
// when every prober failed.
type AnyProber []Prober

func (a AnyProber) Probe(ctx context.Context) (bool, error) {
	var errs []error
	for _, p := range a {
		ok, err := p.Probe(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return true, nil
		}
	}
	if len(a) > 0 && len(errs) == len(a) {
		return false, errors.Join(errs...)
	}
	return false, nil
}
