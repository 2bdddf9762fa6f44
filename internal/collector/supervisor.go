package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"codeberg.org/havenmon/sysmond/internal/errors"
	"codeberg.org/havenmon/sysmond/internal/logger"
	"codeberg.org/havenmon/sysmond/internal/metric"
)

const (
	supervisorURL     = "http://supervisor"
	supervisorTimeout = 10 * time.Second
)

// Supervisor collects Home Assistant statistics through the Supervisor
// API. The access token comes from configuration; without one the
// collector reports itself unavailable.
type Supervisor struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewSupervisor(token string) *Supervisor {
	return &Supervisor{
		token:   token,
		baseURL: supervisorURL,
		client:  &http.Client{Timeout: supervisorTimeout},
	}
}

// NewSupervisorWithURL is used by tests to point the collector at a
// stub API.
func NewSupervisorWithURL(token, baseURL string) *Supervisor {
	s := NewSupervisor(token)
	s.baseURL = baseURL
	return s
}

func (*Supervisor) Name() string {
	return "supervisor"
}

func (s *Supervisor) Available() bool {
	return s.token != ""
}

type addonInfo struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Version   string `json:"version"`
	State     string `json:"state"`
	Installed bool   `json:"installed"`
}

type haState struct {
	EntityID string `json:"entity_id"`
}

func (s *Supervisor) apiCall(ctx context.Context, endpoint string, out any) error {
	errFactory := errors.New()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return errFactory.Wrap(ErrSupervisorAPI, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errFactory.Wrap(ErrSupervisorAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errFactory.WithData(ErrSupervisorStatus, struct {
			Endpoint string
			Status   int
		}{endpoint, resp.StatusCode})
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *Supervisor) Collect(ctx context.Context) ([]metric.Sample, error) {
	var samples []metric.Sample

	var addonsResp struct {
		Data struct {
			Addons []addonInfo `json:"addons"`
		} `json:"data"`
	}
	if err := s.apiCall(ctx, "/addons", &addonsResp); err != nil {
		// The add-on list is the canary for Supervisor reachability;
		// without it the remaining endpoints will not fare better.
		return nil, err
	}

	addons := addonsResp.Data.Addons
	var running []addonInfo
	for _, a := range addons {
		if a.State == "started" || a.State == "running" {
			running = append(running, a)
		}
	}

	display := running
	count := len(running)
	if count == 0 {
		display = addons
		count = len(addons)
	}

	installed := 0
	addonAttrs := make([]map[string]any, 0, len(display))
	for _, a := range addons {
		if a.Installed {
			installed++
		}
	}
	for _, a := range display {
		if !a.Installed {
			continue
		}
		addonAttrs = append(addonAttrs, map[string]any{
			"name":    a.Name,
			"slug":    a.Slug,
			"version": a.Version,
			"state":   a.State,
		})
	}

	samples = append(samples, metric.Sample{
		SensorID: "ha_addons_running",
		Value:    count,
		Attributes: map[string]any{
			"addons":          addonAttrs,
			"total_installed": installed,
		},
	})

	var coreResp struct {
		Data struct {
			Version string `json:"version"`
			Arch    string `json:"arch"`
			Machine string `json:"machine"`
			Image   string `json:"image"`
		} `json:"data"`
	}
	if err := s.apiCall(ctx, "/core/info", &coreResp); err == nil && coreResp.Data.Version != "" {
		samples = append(samples, metric.Sample{
			SensorID: "ha_core_version",
			Value:    coreResp.Data.Version,
			Attributes: map[string]any{
				"arch":    coreResp.Data.Arch,
				"machine": coreResp.Data.Machine,
				"image":   coreResp.Data.Image,
			},
		})
	}

	var states []haState
	if err := s.apiCall(ctx, "/core/api/states", &states); err != nil {
		logger.Debug().Err(err).Msg("Could not fetch entity states")
		return samples, nil
	}

	automations, scripts := 0, 0
	for _, st := range states {
		switch {
		case strings.HasPrefix(st.EntityID, "automation."):
			automations++
		case strings.HasPrefix(st.EntityID, "script."):
			scripts++
		}
	}

	if len(states) > 0 {
		samples = append(samples, metric.Sample{SensorID: "ha_entities", Value: len(states)})
	}
	samples = append(samples,
		metric.Sample{SensorID: "ha_automations", Value: automations},
		metric.Sample{SensorID: "ha_scripts", Value: scripts},
	)

	return samples, nil
}

func (*Supervisor) Descriptors() []metric.Descriptor {
	return []metric.Descriptor{
		{
			SensorID:       "ha_addons_running",
			Name:           "HA Running Add-ons",
			StateClass:     "measurement",
			Icon:           "mdi:puzzle",
			WithAttributes: true,
		},
		{
			SensorID:       "ha_core_version",
			Name:           "HA Core Version",
			Icon:           "mdi:home-assistant",
			WithAttributes: true,
		},
		{
			SensorID:   "ha_entities",
			Name:       "HA Entity Count",
			StateClass: "measurement",
			Icon:       "mdi:format-list-bulleted",
		},
		{
			SensorID:   "ha_automations",
			Name:       "HA Automations",
			StateClass: "measurement",
			Icon:       "mdi:robot",
		},
		{
			SensorID:   "ha_scripts",
			Name:       "HA Scripts",
			StateClass: "measurement",
			Icon:       "mdi:script-text",
		},
	}
}
