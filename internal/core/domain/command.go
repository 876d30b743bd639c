package domain

import "fmt"

// GuardRequest

type GuardRequest interface {
	ActorRequest
	GuardCommand() string
}

type GuardRequestMixIn struct {
	ActorRequestMixIn
}

func (r GuardRequestMixIn) GuardCommand() string {
	return fmt.Sprintf("%T", r)
}

// GuardResponse

type GuardResponse interface {
	ActorResponse
	GuardResponse() string
}

type GuardResponseMixIn struct {
	ActorResponse
}

func (r GuardResponseMixIn) GuardResponse() string {
	return fmt.Sprintf("%T", r)
}

// Guard commands

// GuardSocSyncRequest overwrites the running SOC estimate with an
// externally computed value. Out-of-band values are ignored.
type GuardSocSyncRequest struct {
	GuardRequestMixIn
	SocPercent float64
}

type GuardSocSyncResponse struct {
	GuardResponseMixIn
	Applied bool
}

type GuardGetStateRequest struct {
	GuardRequestMixIn
}

type GuardGetStateResponse struct {
	GuardResponseMixIn
	Mode       string
	SocPercent float64
	Asserted   bool
	Released   bool
}

// ensure interface compliance
var _ GuardRequest = (*GuardSocSyncRequest)(nil)
