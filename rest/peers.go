package rest

import (
	"net/http"

	"bitbucket.org/kleinnic74/tourist/swarm"
	"github.com/gorilla/mux"
)

// PeerSource lists the instances seen on the local network
type PeerSource interface {
	Instance() *swarm.Instance
	GetPeers() []swarm.Peer
}

type PeersAPI struct {
	peers PeerSource
}

func NewPeersAPI(peers PeerSource) *PeersAPI {
	return &PeersAPI{peers: peers}
}

func (p *PeersAPI) InitRoutes(router *mux.Router) {
	router.HandleFunc("/peers", p.listPeers).Methods(http.MethodGet)
}

func (p *PeersAPI) listPeers(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Self      *swarm.Instance `json:"self"`
		Instances []swarm.Peer    `json:"instances"`
	}{
		Self:      p.peers.Instance(),
		Instances: p.peers.GetPeers(),
	}
	Respond(r).WithJSON(w, http.StatusOK, &simplePayload{Data: data})
}
