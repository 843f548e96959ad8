//go:build e2e

package helpers

import (
	"bytes"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bistrokit/bistro/internal/protocol/wire"
	"github.com/bistrokit/bistro/pkg/models"
)

// Client is a raw wire-protocol client over one TCP connection. Requests are
// synchronous; pushes that arrive while waiting for a reply are buffered for
// a later WaitPush.
type Client struct {
	t    *testing.T
	conn net.Conn

	cid    uint32
	pushes []*wire.Response
}

// Dial connects a fresh client to the environment's gateway.
func (e *Env) Dial(t *testing.T) *Client {
	t.Helper()
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", e.Port))
	require.NoError(t, err, "dial gateway")
	t.Cleanup(func() { _ = conn.Close() })
	return &Client{t: t, conn: conn}
}

// Request sends one request and returns its reply, buffering any pushes
// that interleave.
func (c *Client) Request(tag string, req any) *wire.Response {
	c.t.Helper()
	c.cid++
	frame, err := wire.EncodeRequest(tag, c.cid, req)
	require.NoError(c.t, err, "encode %s", tag)
	require.NoError(c.t, wire.WriteFrame(c.conn, frame), "send %s", tag)

	for {
		resp := c.read(5 * time.Second)
		if resp.IsPush() {
			c.pushes = append(c.pushes, resp)
			continue
		}
		require.Equal(c.t, c.cid, resp.CorrelationID, "reply correlation id for %s", tag)
		return resp
	}
}

// RequestOK sends a request and requires a success reply.
func (c *Client) RequestOK(tag string, req any) *wire.Response {
	c.t.Helper()
	resp := c.Request(tag, req)
	require.Equal(c.t, uint32(wire.ArmOK), resp.Arm,
		"%s should succeed, got arm %d (%s: %s)", tag, resp.Arm, resp.ErrCode, resp.ErrMessage)
	return resp
}

// WaitPush returns the next server-initiated message, buffered or read off
// the socket within the timeout.
func (c *Client) WaitPush(timeout time.Duration) *wire.Response {
	c.t.Helper()
	if len(c.pushes) > 0 {
		p := c.pushes[0]
		c.pushes = c.pushes[1:]
		return p
	}
	resp := c.read(timeout)
	require.True(c.t, resp.IsPush(), "expected a push, got %s reply", resp.Tag)
	return resp
}

// Notification waits for a SERVER_NOTIFICATION push and returns its text.
func (c *Client) Notification(timeout time.Duration) string {
	c.t.Helper()
	push := c.WaitPush(timeout)
	require.Equal(c.t, wire.TagServerNotification, push.Tag)
	text, err := wire.DecodeString(bytes.NewReader(push.Body))
	require.NoError(c.t, err, "decode notification text")
	return text
}

// Login authenticates the connection and returns the bound user. A refused
// login (wrong credentials or already online) returns nil.
func (c *Client) Login(username, password string) *models.User {
	c.t.Helper()
	resp := c.Request(wire.TagLogin, wire.LoginRequest{Username: username, Password: password})
	if resp.Arm == wire.ArmNull {
		return nil
	}
	require.Equal(c.t, uint32(wire.ArmOK), resp.Arm, "login %s", username)
	user, err := wire.DecodeUser(bytes.NewReader(resp.Body))
	require.NoError(c.t, err, "decode login reply")
	return user
}

// Register creates a member account through the wire protocol.
func (c *Client) Register(username, password, phone, email string) *models.User {
	c.t.Helper()
	resp := c.RequestOK(wire.TagRegisterClient, wire.RegisterRequest{
		Username:  username,
		Password:  password,
		FirstName: "Test",
		LastName:  "Member",
		Phone:     phone,
		Email:     email,
	})
	user, err := wire.DecodeUser(bytes.NewReader(resp.Body))
	require.NoError(c.t, err, "decode register reply")
	return user
}

// Order decodes an order payload from a reply body.
func (c *Client) Order(resp *wire.Response) *models.Order {
	c.t.Helper()
	order, err := wire.DecodeOrder(bytes.NewReader(resp.Body))
	require.NoError(c.t, err, "decode order reply")
	return order
}

func (c *Client) read(timeout time.Duration) *wire.Response {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(timeout)))
	frame, err := wire.ReadFrame(c.conn)
	require.NoError(c.t, err, "read frame")
	resp, err := wire.DecodeResponse(frame)
	require.NoError(c.t, err, "decode response")
	return resp
}
