package neoclient

import "net/url"

// RemoteServer holds the address of a running database server.
type RemoteServer struct {
	url string
}

// NewRemoteServer returns a RemoteServer for rawURL.
func NewRemoteServer(rawURL string) RemoteServer {
	return RemoteServer{url: rawURL}
}

// URL returns the server address as given.
func (s RemoteServer) URL() string {
	return s.url
}

// Redacted returns the address with any password masked, for logging.
func (s RemoteServer) Redacted() string {
	u, err := url.Parse(s.url)
	if err != nil {
		return s.url
	}
	return u.Redacted()
}

func (s RemoteServer) String() string {
	return s.Redacted()
}
