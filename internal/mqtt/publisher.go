// Package mqtt publishes metric samples and alert notifications to an
// MQTT broker, announcing each sensor through Home Assistant discovery.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"codeberg.org/havenmon/sysmond/internal/alert"
	"codeberg.org/havenmon/sysmond/internal/config"
	"codeberg.org/havenmon/sysmond/internal/errors"
	"codeberg.org/havenmon/sysmond/internal/logger"
	"codeberg.org/havenmon/sysmond/internal/metric"
)

const (
	connectTimeout  = 30 * time.Second
	publishTimeout  = 10 * time.Second
	disconnectWait  = 250 // milliseconds handed to paho
	availabilityQoS = 1
)

type Publisher struct {
	client     paho.Client
	errFactory errors.Factory

	prefix            string
	uniquePrefix      string
	availabilityTopic string
	alertTopic        string
	device            Device
}

func NewPublisher(cfg *config.Config) *Publisher {
	p := &Publisher{
		errFactory:   errors.New(),
		prefix:       cfg.MQTT.TopicPrefix,
		uniquePrefix: cfg.UniqueIDPrefix(),
	}
	p.availabilityTopic = p.prefix + "/status"
	p.alertTopic = p.prefix + "/alerts"
	p.device = newDevice(cfg.Hostname, p.uniquePrefix)

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port)).
		SetClientID(p.uniquePrefix).
		SetAutoReconnect(true).
		SetWill(p.availabilityTopic, "offline", availabilityQoS, true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn().Err(err).Msg("MQTT connection lost")
		}).
		SetOnConnectHandler(func(c paho.Client) {
			// Reassert availability after every (re)connect, since the
			// broker may have delivered the will in the meantime.
			c.Publish(p.availabilityTopic, availabilityQoS, true, "online")
		})
	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	p.client = paho.NewClient(opts)

	return p
}

// Connect establishes the broker session and marks the daemon online.
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return p.errFactory.New(ErrConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return p.errFactory.Wrap(ErrConnectFailed, err)
	}
	logger.Info().Str("topic_prefix", p.prefix).Msg("Connected to MQTT broker")

	return nil
}

// Disconnect retracts availability before closing the session so
// entities flip to unavailable instead of waiting for the will.
func (p *Publisher) Disconnect() {
	if !p.client.IsConnected() {
		return
	}
	p.client.Publish(p.availabilityTopic, availabilityQoS, true, "offline").
		WaitTimeout(publishTimeout)
	p.client.Disconnect(disconnectWait)
}

// PublishDiscovery announces every descriptor to Home Assistant. It is
// called once after connecting; payloads are retained so entities
// survive a Home Assistant restart.
func (p *Publisher) PublishDiscovery(descriptors []metric.Descriptor) error {
	for _, d := range descriptors {
		msg, err := p.discoveryMessage(d)
		if err != nil {
			return p.errFactory.Wrap(ErrEncodeFailed, err).
				WithData(map[string]string{"sensor_id": d.SensorID})
		}
		token := p.client.Publish(p.discoveryTopic(d), 0, true, msg)
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			return p.errFactory.New(ErrPublishFailed).
				WithData(map[string]string{"sensor_id": d.SensorID})
		}
	}
	logger.Info().Int("sensors", len(descriptors)).Msg("Published discovery configuration")

	return nil
}

// PublishStates sends the latest sample batch. Publish failures are
// logged and skipped so one bad sensor cannot stall the tick.
func (p *Publisher) PublishStates(batch []metric.Sample) {
	for _, sample := range batch {
		p.client.Publish(p.stateTopic(sample.SensorID), 0, false, formatValue(sample.Value))
		if len(sample.Attributes) == 0 {
			continue
		}
		attrs, err := json.Marshal(sample.Attributes)
		if err != nil {
			logger.Warn().Str("sensor_id", sample.SensorID).Err(err).
				Msg("Failed to encode sensor attributes")

			continue
		}
		p.client.Publish(p.attributesTopic(sample.SensorID), 0, false, attrs)
	}
}

// Notify implements alert.Sink by publishing the event as JSON.
func (p *Publisher) Notify(event alert.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode alert event")

		return
	}
	token := p.client.Publish(p.alertTopic, availabilityQoS, false, msg)
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		logger.Warn().Str("sensor_id", event.SensorID).Err(token.Error()).
			Msg("Failed to publish alert")
	}
}

func (p *Publisher) uniqueID(sensorID string) string {
	return p.uniquePrefix + "_" + sensorID
}

func (p *Publisher) stateTopic(sensorID string) string {
	return p.prefix + "/sensor/" + sensorID + "/state"
}

func (p *Publisher) attributesTopic(sensorID string) string {
	return p.prefix + "/sensor/" + sensorID + "/attributes"
}

func formatValue(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case string:
		return n
	default:
		return fmt.Sprint(v)
	}
}
