package mqttctrl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/Agrid-Dev/solarsizer/internal/controllers"
	"github.com/Agrid-Dev/solarsizer/internal/ports"
)

type Config struct {
	// Identity
	InstanceID string

	// MQTT connection
	BrokerURL string
	ClientID  string

	// Topics
	BaseTopic string

	// Behavior
	QoS            byte
	RetainDefaults bool

	Username string
	Password string
}

// Controller answers sizing requests over MQTT. A project published to
// <base>/request/<id> is answered on <base>/result/<id>.
type Controller struct {
	svc ports.PlannerService
	cfg Config
	log *zap.Logger

	client mqtt.Client
}

func New(svc ports.PlannerService, cfg Config, log *zap.Logger) (*Controller, error) {
	// ---- defaults ----

	if cfg.BrokerURL == "" {
		cfg.BrokerURL = "tcp://localhost:1883"
	}

	if cfg.InstanceID == "" {
		return nil, errors.New("mqtt: InstanceID is required")
	}
	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "solarsizer/" + cfg.InstanceID
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "solarsizer-" + cfg.InstanceID
	}
	if cfg.QoS > 1 {
		return nil, errors.New("mqtt: QoS must be 0 or 1")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		svc: svc,
		cfg: cfg,
		log: log.With(zap.String("base_topic", cfg.BaseTopic)),
	}, nil
}

func (c *Controller) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	// Subscribe and announce defaults when connected/reconnected.
	opts.OnConnect = func(cl mqtt.Client) {
		topic := c.topic("request/+")
		token := cl.Subscribe(topic, c.cfg.QoS, c.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Error("mqtt subscribe", zap.String("topic", topic), zap.Error(err))
			return
		}
		c.publishDefaults(cl)
	}

	c.client = mqtt.NewClient(opts)
	tok := c.client.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.log.Info("mqtt connected", zap.String("broker", c.cfg.BrokerURL))

	<-ctx.Done()
	c.client.Disconnect(250)
	return ctx.Err()
}

type defaultsDTO struct {
	System      controllers.SystemDTO      `json:"system"`
	Chemistries []controllers.ChemistryDTO `json:"chemistries"`
}

func (c *Controller) publishDefaults(cl mqtt.Client) {
	b, _ := json.Marshal(defaultsDTO{
		System:      controllers.ToSystemDTO(c.svc.Defaults()),
		Chemistries: controllers.ToChemistryDTOs(c.svc.Chemistries()),
	})
	cl.Publish(c.topic("defaults"), c.cfg.QoS, c.cfg.RetainDefaults, b)
}

func (c *Controller) onMessage(cl mqtt.Client, msg mqtt.Message) {
	// topic format: <base>/request/<id>
	t := msg.Topic()
	prefix := c.topic("request/")
	if !strings.HasPrefix(t, prefix) {
		return
	}
	id := strings.TrimPrefix(t, prefix)
	if id == "" || strings.Contains(id, "/") {
		return
	}
	if cl == nil {
		cl = c.client
	}

	resp, err := c.answer(msg.Payload())
	if err != nil {
		c.log.Debug("mqtt request rejected", zap.String("id", id), zap.Error(err))
	}

	b, _ := json.Marshal(resp)
	cl.Publish(c.topic("result/"+id), c.cfg.QoS, false, b)
}

// answer returns the plan for a project payload, or the error body when the
// payload or the project is rejected.
func (c *Controller) answer(payload []byte) (any, error) {
	proj, err := controllers.DecodeProject(payload)
	if err != nil {
		return controllers.NewErrorDTO(err), err
	}
	plan, err := c.svc.Plan(proj)
	if err != nil {
		return controllers.NewErrorDTO(err), err
	}
	return controllers.ToPlanDTO(plan), nil
}

func (c *Controller) topic(suffix string) string {
	return strings.TrimRight(c.cfg.BaseTopic, "/") + "/" + suffix
}
