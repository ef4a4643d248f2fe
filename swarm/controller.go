// Package swarm announces this instance via mDNS and tracks other instances
// found on the local network
package swarm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"bitbucket.org/kleinnic74/tourist/logging"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

const (
	TouristSVCName = "_tourist._tcp"
	localDomain    = "local."
)

type Peer struct {
	Name       string            `json:"name"`
	ID         InstanceID        `json:"id"`
	URL        string            `json:"url"`
	Properties map[string]string `json:"properties,omitempty"`
	IsSelf     bool              `json:"self,omitempty"`
}

func propertiesAsTXT(p map[string]string) (txt []string) {
	for k, v := range p {
		txt = append(txt, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(txt)
	return
}

func propertiesFromTXT(txt []string) (p map[string]string) {
	p = make(map[string]string)
	for _, kv := range txt {
		parts := strings.SplitN(kv, "=", 2)
		if parts[0] == "" {
			continue
		}
		if len(parts) == 2 {
			p[parts[0]] = parts[1]
		} else {
			p[parts[0]] = ""
		}
	}
	return
}

// Controller registers the instance as mDNS service and browses for peers
type Controller struct {
	instance *Instance
	port     int

	peers    map[string]Peer
	peerLock sync.RWMutex
}

func NewController(instance *Instance, port int) *Controller {
	return &Controller{
		instance: instance,
		port:     port,
		peers:    make(map[string]Peer),
	}
}

// ListenAndServe announces the instance and browses for peers until ctx is
// done
func (c *Controller) ListenAndServe(ctx context.Context) error {
	logger, ctx := logging.SubFrom(ctx, "swarm")
	server, err := zeroconf.Register(c.instance.Name, TouristSVCName, localDomain, c.port, propertiesAsTXT(c.instance.Properties), nil)
	if err != nil {
		return fmt.Errorf("failed to publish zeroconf service: %w", err)
	}
	defer server.Shutdown()

	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, TouristSVCName, localDomain, entries); err != nil {
		return fmt.Errorf("failed to browse mDNS services: %w", err)
	}
	logger.Info("mDNS browsing", zap.String("service", TouristSVCName), zap.Int("port", c.port))
	for {
		select {
		case e, ok := <-entries:
			if !ok {
				return nil
			}
			if e != nil {
				c.peerDiscovered(ctx, e)
			}
		case <-ctx.Done():
			logger.Info("Shutting down")
			return nil
		}
	}
}

func (c *Controller) peerDiscovered(ctx context.Context, e *zeroconf.ServiceEntry) {
	properties := propertiesFromTXT(e.Text)
	id := InstanceID(properties["id"])
	peer := Peer{
		Name:       e.Instance,
		ID:         id,
		URL:        asURL(e),
		Properties: properties,
		IsSelf:     c.instance.ID == id,
	}
	c.peerLock.Lock()
	defer c.peerLock.Unlock()
	if _, found := c.peers[peer.Name]; !found {
		logging.From(ctx).Info("Peer detected",
			zap.String("peer.instance", peer.Name),
			zap.Stringer("peer.ID", peer.ID),
			zap.String("peer.URL", peer.URL),
			zap.String("peer.hostname", e.HostName))
	}
	c.peers[peer.Name] = peer
}

func asURL(e *zeroconf.ServiceEntry) string {
	if len(e.AddrIPv4) > 0 {
		return fmt.Sprintf("http://%s:%d", e.AddrIPv4[0], e.Port)
	}
	if len(e.AddrIPv6) > 0 {
		return fmt.Sprintf("http://[%s]:%d", e.AddrIPv6[0], e.Port)
	}
	return ""
}

// GetPeers returns all instances seen so far, sorted by name
func (c *Controller) GetPeers() []Peer {
	c.peerLock.RLock()
	defer c.peerLock.RUnlock()

	r := make([]Peer, 0, len(c.peers))
	for _, p := range c.peers {
		r = append(r, p)
	}
	sort.Slice(r, func(i, j int) bool { return r[i].Name < r[j].Name })
	return r
}

func (c *Controller) Instance() *Instance {
	return c.instance
}
