package eventsink

import json "github.com/goccy/go-json"

// ClientContext is the process-wide app/device/service snapshot attached to
// every submission. It is built once at construction and is immutable;
// per-submission overrides go through WithSubmitContext.
type ClientContext struct {
	Client   ClientInfo        `json:"client"`
	Env      EnvInfo           `json:"env"`
	Services ServicesInfo      `json:"services"`
	Custom   map[string]string `json:"custom,omitempty"`
}

// ClientInfo identifies the application installation.
type ClientInfo struct {
	ID             string `json:"client_id,omitempty"`
	AppTitle       string `json:"app_title,omitempty"`
	AppVersionName string `json:"app_version_name,omitempty"`
	AppVersionCode string `json:"app_version_code,omitempty"`
	AppPackageName string `json:"app_package_name,omitempty"`
}

// EnvInfo describes the device environment.
type EnvInfo struct {
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	Model           string `json:"model,omitempty"`
	Make            string `json:"make,omitempty"`
	Locale          string `json:"locale,omitempty"`
}

// ServicesInfo names the remote service configuration.
type ServicesInfo struct {
	AppID string `json:"app_id,omitempty"`
}

// Marshal serializes the context for transport.
func (cc ClientContext) Marshal() (string, error) {
	data, err := json.Marshal(cc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
