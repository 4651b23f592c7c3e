package client

// SiteCrewClient is the device-side API client. Field apps talk to the
// server exclusively through it, usually via the durable queue so
// operations survive connectivity loss.
type SiteCrewClient struct {
	Transport *Transport
	TimeClock *TimeClockEndpoint
}

func NewSiteCrewClient(baseURL string, token string) *SiteCrewClient {
	t := NewTransport(baseURL, token)
	return &SiteCrewClient{
		Transport: t,
		TimeClock: &TimeClockEndpoint{transport: t},
	}
}
