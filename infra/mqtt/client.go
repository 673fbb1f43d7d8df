package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	corenotify "github.com/matriforce/dispatch/core/notify"
	"github.com/matriforce/dispatch/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	UseTLS     bool            `json:"use_tls"`
	ClientCert string          `json:"client_cert"`
	ClientKey  string          `json:"client_key"`
	CABundle   string          `json:"ca_bundle"`
	AuthMethod string          `json:"auth_method"`
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	TLSConfig  *tls.Config     `json:"-"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements the notify.Client interface using Eclipse Paho.
type PahoClient struct {
	cli pahoClient
	qos map[string]byte

	mu         sync.Mutex
	ackChans   map[string]chan bool
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// offer is the wire form of an assignment proposal.
type offer struct {
	CommandID   string  `json:"command_id"`
	CaseID      string  `json:"case_id"`
	ResponderID string  `json:"responder_id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timestamp   int64   `json:"timestamp"`
}

// ackMessage is the wire form of a responder's answer. Accepted defaults to
// true so legacy presence-only acks still count as acceptance.
type ackMessage struct {
	CommandID string `json:"command_id"`
	Accepted  *bool  `json:"accepted"`
}

// NewPahoClient connects to the MQTT broker and subscribes to the ack topic.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		ackChans:   make(map[string]chan bool),
		logger:     log,
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		qos := byte(0)
		if q, ok := pc.qos["ack"]; ok {
			qos = q
		}
		if token := c.Subscribe(ackTopic, qos, pc.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (p *PahoClient) onAck(_ paho.Client, msg paho.Message) {
	var m ackMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode ack: %v", err)
		return
	}
	accepted := m.Accepted == nil || *m.Accepted
	p.mu.Lock()
	ch, ok := p.ackChans[m.CommandID]
	if ok {
		select {
		case ch <- accepted:
		default:
		}
		p.logger.Infof("received ack %s (accepted=%v)", m.CommandID, accepted)
	}
	p.mu.Unlock()
}

// ProposeAssignment publishes an offer on the responder's topic and returns
// the command identifier used for acknowledgment tracking. The ack channel is
// registered before publishing so an instant answer cannot be lost.
func (p *PahoClient) ProposeAssignment(responderID, caseID string, lat, lon float64) (string, error) {
	cmdID := uuid.NewString()
	payload, err := json.Marshal(offer{
		CommandID:   cmdID,
		CaseID:      caseID,
		ResponderID: responderID,
		Latitude:    lat,
		Longitude:   lon,
		Timestamp:   time.Now().UnixMilli(),
	})
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.ackChans[cmdID] = make(chan bool, 1)
	p.mu.Unlock()

	if err := p.publishWithRetry(offerTopic(responderID), "offer", payload); err != nil {
		p.mu.Lock()
		delete(p.ackChans, cmdID)
		p.mu.Unlock()
		return "", err
	}
	p.logger.Infof("sent offer %s for case %s to %s", cmdID, caseID, responderID)
	return cmdID, nil
}

// WaitForAck blocks until an answer for the given command ID is received or
// the window expires.
func (p *PahoClient) WaitForAck(commandID string, window time.Duration) (bool, error) {
	p.mu.Lock()
	ch := p.ackChans[commandID]
	p.mu.Unlock()
	if ch == nil {
		return false, fmt.Errorf("unknown command")
	}

	timer := time.NewTimer(window)
	defer timer.Stop()
	select {
	case accepted := <-ch:
		p.mu.Lock()
		delete(p.ackChans, commandID)
		p.mu.Unlock()
		return accepted, nil
	case <-timer.C:
		p.mu.Lock()
		delete(p.ackChans, commandID)
		p.mu.Unlock()
		return false, fmt.Errorf("%w", corenotify.ErrAckTimeout)
	}
}

// PublishCaseEvent mirrors a lifecycle event to the case channel and, when a
// responder is involved, to that responder's channel.
func (p *PahoClient) PublishCaseEvent(caseID, responderID string, payload []byte) error {
	if err := p.publishWithRetry(caseEventTopic(caseID), "event", payload); err != nil {
		return err
	}
	if responderID == "" {
		return nil
	}
	return p.publishWithRetry(responderEventTopic(responderID), "event", payload)
}

func (p *PahoClient) publishWithRetry(topic, kind string, payload []byte) error {
	qos := byte(0)
	if q, ok := p.qos[kind]; ok {
		qos = q
	}
	retries := p.maxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := p.backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= retries; attempt++ {
		token := p.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		time.Sleep(backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
