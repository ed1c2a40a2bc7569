// Package ipgeotest provides a fake ipgeolocation.io API for tests.
package ipgeotest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

// Path is the route the fake API answers on.
const Path = "/ipgeo"

// Response describes how the fake answers a lookup for one IP.
type Response struct {
	// Status defaults to 200.
	Status int
	// Body is written verbatim with a JSON content type.
	Body string
	// Drop closes the connection without writing a response.
	Drop bool
}

// Request is a lookup the fake has received.
type Request struct {
	APIKey string
	IP     string
}

// Server is a fake geolocation API backed by httptest.Server.
type Server struct {
	*httptest.Server

	apiKey    string
	responses map[string]Response

	mu       sync.Mutex
	requests []Request
}

// NewServer starts a fake API that accepts apiKey and answers lookups from
// responses, keyed by the ip query parameter. IPs without an entry get a
// response without a country_name. The server is closed when the test ends.
func NewServer(t testing.TB, apiKey string, responses map[string]Response) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	s := &Server{
		apiKey:    apiKey,
		responses: responses,
	}

	router := gin.New()
	router.GET(Path, s.lookup)

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)

	return s
}

// Endpoint returns the URL to configure the client with.
func (s *Server) Endpoint() string {
	return s.URL + Path
}

// Requests returns the lookups received so far, in order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Request(nil), s.requests...)
}

// lookup handles GET /ipgeo?apiKey=...&ip=...
func (s *Server) lookup(c *gin.Context) {
	req := Request{
		APIKey: c.Query("apiKey"),
		IP:     c.Query("ip"),
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if req.APIKey != s.apiKey {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Provided API key is not valid.",
		})
		return
	}

	resp, ok := s.responses[req.IP]
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"ip": req.IP,
		})
		return
	}

	if resp.Drop {
		conn, _, err := c.Writer.Hijack()
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		_ = conn.Close()
		return
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	c.Data(status, "application/json; charset=utf-8", []byte(resp.Body))
}
