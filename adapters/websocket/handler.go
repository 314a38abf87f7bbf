package websocket

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the "/ws" endpoint. The session middleware must have
// run before the upgrade so the session ID is in the echo context.
func (s *Server) Handler(c echo.Context) error {
	sessionID, ok := c.Get("session_id").(string)
	if !ok || sessionID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing session")
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, sessionID)
	s.hub.Register(client)
	client.Run()

	defer s.hub.Unregister(client)

	// Hold the handler until the connection closes.
	<-client.Context().Done()

	return nil
}
