package rtc

import (
	"fmt"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/intervalpli"
	"github.com/pion/transport/v3"
	"github.com/pion/webrtc/v4"
)

var DefaultSTUN = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

type ICEConfig struct {
	STUN       []string
	TURN       []string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

// Configuration builds the peer connection configuration. Relay-only
// transport is used only when TURN servers are configured.
func (c ICEConfig) Configuration() webrtc.Configuration {
	stun := c.STUN
	if len(stun) == 0 {
		stun = DefaultSTUN
	}
	servers := []webrtc.ICEServer{{URLs: stun}}
	if len(c.TURN) > 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs:       c.TURN,
			Username:   c.TURNUser,
			Credential: c.TURNPass,
		})
	}

	policy := webrtc.ICETransportPolicyAll
	if len(c.TURN) > 0 && c.ForceRelay {
		policy = webrtc.ICETransportPolicyRelay
	}
	return webrtc.Configuration{
		ICEServers:         servers,
		ICETransportPolicy: policy,
	}
}

// NewAPI builds a pion API with the default codecs and interceptors plus a
// periodic PLI on inbound video. A non-nil net replaces the OS network.
func NewAPI(net transport.Net) (*webrtc.API, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, fmt.Errorf("register default interceptors: %w", err)
	}
	pli, err := intervalpli.NewReceiverInterceptor()
	if err != nil {
		return nil, fmt.Errorf("create PLI interceptor: %w", err)
	}
	registry.Add(pli)

	se := webrtc.SettingEngine{}
	if net != nil {
		se.SetNet(net)
	}

	return webrtc.NewAPI(
		webrtc.WithSettingEngine(se),
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
	), nil
}

// Factory builds one WebRTCConnection per remote participant.
type Factory struct {
	api *webrtc.API
	cfg webrtc.Configuration
}

func NewFactory(api *webrtc.API, cfg webrtc.Configuration) *Factory {
	return &Factory{api: api, cfg: cfg}
}

func (f *Factory) NewConnection(remote domain.UserID) (core.MediaConnection, error) {
	return NewWebRTCConnection(f.api, f.cfg, remote)
}
