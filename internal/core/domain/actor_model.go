package domain

import "battguard/pkg/battmon_modbus"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_MODBUS       = "modbus"
	ACTOR_ID_GUARD        = "guard"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type GetMonitorInfoRequest struct {
	ActorRequestMixIn
}

type GetMonitorInfoResponse struct {
	ActorResponseMixIn
	Monitor *battmon_modbus.MonitorInfo
}

type GetBatterySampleRequest struct {
	ActorRequestMixIn
}

type GetBatterySampleResponse struct {
	ActorResponseMixIn
	Sample *battmon_modbus.BatterySample
}

// SetLoadDisconnectRequest drives the transfer-relay inhibit output.
// Disconnect=true asserts the output (load disconnected).
type SetLoadDisconnectRequest struct {
	ActorRequestMixIn
	Disconnect bool
}

type SetLoadDisconnectResponse struct {
	ActorResponseMixIn
	Disconnect bool
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
