package mqtt

import (
	"encoding/json"

	"codeberg.org/havenmon/sysmond/internal/metric"
)

const discoveryPrefix = "homeassistant"

type discoveryPayload struct {
	Name                string `json:"name"`
	UniqueID            string `json:"unique_id"`
	StateTopic          string `json:"state_topic"`
	AvailabilityTopic   string `json:"availability_topic"`
	Device              Device `json:"device"`
	DeviceClass         string `json:"device_class,omitempty"`
	StateClass          string `json:"state_class,omitempty"`
	Unit                string `json:"unit_of_measurement,omitempty"`
	Icon                string `json:"icon,omitempty"`
	EntityCategory      string `json:"entity_category,omitempty"`
	Precision           *int   `json:"suggested_display_precision,omitempty"`
	JSONAttributesTopic string `json:"json_attributes_topic,omitempty"`
	PayloadOn           string `json:"payload_on,omitempty"`
	PayloadOff          string `json:"payload_off,omitempty"`
}

// discoveryTopic places the config under the component matching the
// sensor kind so Home Assistant materializes the right entity type.
func (p *Publisher) discoveryTopic(d metric.Descriptor) string {
	component := "sensor"
	if d.Binary {
		component = "binary_sensor"
	}
	return discoveryPrefix + "/" + component + "/" + p.uniqueID(d.SensorID) + "/config"
}

func (p *Publisher) discoveryMessage(d metric.Descriptor) ([]byte, error) {
	payload := discoveryPayload{
		Name:              d.Name,
		UniqueID:          p.uniqueID(d.SensorID),
		StateTopic:        p.stateTopic(d.SensorID),
		AvailabilityTopic: p.availabilityTopic,
		Device:            p.device,
		DeviceClass:       d.DeviceClass,
		StateClass:        d.StateClass,
		Unit:              d.Unit,
		Icon:              d.Icon,
		EntityCategory:    d.EntityCategory,
		Precision:         d.Precision,
	}
	if d.WithAttributes {
		payload.JSONAttributesTopic = p.attributesTopic(d.SensorID)
	}
	if d.Binary {
		payload.PayloadOn = "on"
		payload.PayloadOff = "off"
	}
	return json.Marshal(payload)
}
