package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/creator-staking/metrics"
)

// Channel names. Per-entity channels append ":<id>".
const (
	ChannelVaults = "vaults"
	ChannelVault  = "vault"
	ChannelPools  = "pools"
	ChannelPool   = "pool"
	ChannelUser   = "user"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients
	perIP    map[string]int

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest
	done        chan struct{}
	stopOnce    sync.Once

	mu sync.RWMutex

	config    *HubConfig
	logger    log.Logger
	collector *metrics.Collector
}

// HubConfig contains hub configuration
type HubConfig struct {
	MaxClientsPerIP  int
	MaxSubscriptions int
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		MaxClientsPerIP:  10,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
}

// NewHub creates a new Hub. collector may be nil.
func NewHub(config *HubConfig, logger log.Logger, collector *metrics.Collector) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		perIP:       make(map[string]int),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		done:        make(chan struct{}),
		config:      config,
		logger:      logger.With("module", "websocket"),
		collector:   collector,
	}
}

// Run starts the hub's main loop and returns after Stop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop terminates Run and closes every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.perIP[client.ip]++
	if h.collector != nil {
		h.collector.RecordWSConnection(1)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for channel, clients := range h.channels {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	if h.perIP[client.ip]--; h.perIP[client.ip] <= 0 {
		delete(h.perIP, client.ip)
	}
	close(client.send)
	if h.collector != nil {
		h.collector.RecordWSConnection(-1)
	}
}

func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	if _, ok := h.clients[req.Client]; !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := h.channels[req.Channel]; !ok {
		h.channels[req.Channel] = make(map[*Client]bool)
	}
	h.channels[req.Channel][req.Client] = true
	req.Client.trySend(mustMarshal(&WSMessage{Type: "subscribed", Channel: req.Channel}))
	h.mu.Unlock()
}

func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	if _, ok := h.clients[req.Client]; !ok {
		h.mu.Unlock()
		return
	}
	if clients, ok := h.channels[req.Channel]; ok {
		delete(clients, req.Client)
		if len(clients) == 0 {
			delete(h.channels, req.Channel)
		}
	}
	req.Client.trySend(mustMarshal(&WSMessage{Type: "unsubscribed", Channel: req.Channel}))
	h.mu.Unlock()
}

// BroadcastToChannel sends a message to all clients subscribed to a channel.
// Sends happen under the read lock so a concurrent unregister cannot close a
// client's buffer mid-send.
func (h *Hub) BroadcastToChannel(channel string, message *WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}
	for client := range clients {
		client.trySend(data)
	}
	h.mu.RUnlock()

	if h.collector != nil {
		h.collector.RecordWSMessage(channelKind(channel))
	}
}

// PublishVault broadcasts a vault update on the vault list and its own channel
func (h *Hub) PublishVault(denom string, vault interface{}) {
	h.publish(ChannelVaults, ChannelVault+":"+denom, "vault", vault)
}

// PublishPool broadcasts a pool update on the pool list and its own channel
func (h *Hub) PublishPool(poolID string, pool interface{}) {
	h.publish(ChannelPools, ChannelPool+":"+poolID, "pool", pool)
}

// PublishPosition sends a position update to its owner's channel
func (h *Hub) PublishPosition(owner string, position interface{}) {
	channel := ChannelUser + ":" + owner
	h.BroadcastToChannel(channel, &WSMessage{Type: "position", Channel: channel, Data: position})
}

func (h *Hub) publish(listChannel, entityChannel, msgType string, data interface{}) {
	h.BroadcastToChannel(listChannel, &WSMessage{Type: msgType, Channel: listChannel, Data: data})
	h.BroadcastToChannel(entityChannel, &WSMessage{Type: msgType, Channel: entityChannel, Data: data})
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) ipAllowed(ip string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.perIP[ip] < h.config.MaxClientsPerIP
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	if !h.ipAllowed(ip) {
		http.Error(w, "Too many connections from this IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h, conn, uuid.New().String(), ip)
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// validChannel reports whether a channel name is one the hub publishes on
func validChannel(channel string) bool {
	switch channel {
	case ChannelVaults, ChannelPools:
		return true
	}
	kind, id, ok := strings.Cut(channel, ":")
	if !ok || id == "" {
		return false
	}
	switch kind {
	case ChannelVault, ChannelPool, ChannelUser:
		return true
	}
	return false
}

// channelKind strips the entity id so metrics labels stay bounded
func channelKind(channel string) string {
	kind, _, _ := strings.Cut(channel, ":")
	return kind
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(ip)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}

func mustMarshal(msg *WSMessage) []byte {
	data, _ := json.Marshal(msg)
	return data
}
