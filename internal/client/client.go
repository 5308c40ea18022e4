// Package client implements the rubrica wire client: it dials the server,
// exchanges fixed-length frames and maps outcome codes onto errors.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/avoront/rubrica/internal/models"
	"github.com/avoront/rubrica/internal/protocol"
	"github.com/avoront/rubrica/internal/validate"
)

// Errors mapped from response outcome codes.
var (
	// ErrServer means the server could not complete the operation.
	ErrServer = errors.New("server error")
	// ErrContactMissing means no contact matched the search.
	ErrContactMissing = errors.New("contact missing")
	// ErrCredentialsExpired means the cached credentials no longer verify;
	// the caller must log in again.
	ErrCredentialsExpired = errors.New("credentials expired")
	// ErrAlreadyModified means the target contact changed or vanished before
	// the operation landed.
	ErrAlreadyModified = errors.New("contact already modified")
	// ErrAlreadyExists means the contact to add is already stored.
	ErrAlreadyExists = errors.New("contact already exists")
	// ErrInvalidPacket means the server rejected the request frame.
	ErrInvalidPacket = errors.New("invalid packet")
	// ErrNotLoggedIn means a privileged operation ran before Login.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrBadField means an input does not fit the wire format's field
	// width or character set; nothing was sent.
	ErrBadField = errors.New("field does not fit the wire format")
)

// Client is one connection to a rubrica server. Not safe for concurrent
// use: the protocol is strictly request/response on a single connection.
type Client struct {
	conn net.Conn
	log  *zap.Logger

	// Credentials cached by the last successful Login; privileged requests
	// carry them so the server can re-verify on every call.
	username string
	password string
}

// Dial connects to the server at addr.
func Dial(ctx context.Context, addr string, log *zap.Logger) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(conn, log), nil
}

// New wraps an established connection.
func New(conn net.Conn, log *zap.Logger) *Client {
	return &Client{conn: conn, log: log}
}

// roundTrip sends one request frame and reads the full response frame.
// Transport errors are fatal to the connection; the caller should Close.
func (c *Client) roundTrip(ctx context.Context, frame []byte) (protocol.Packet, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return protocol.Packet{}, fmt.Errorf("set deadline: %w", err)
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	if _, err := c.conn.Write(frame); err != nil {
		return protocol.Packet{}, fmt.Errorf("send request: %w", err)
	}

	resp := make([]byte, protocol.FrameLength)
	if _, err := io.ReadFull(c.conn, resp); err != nil {
		return protocol.Packet{}, fmt.Errorf("read response: %w", err)
	}

	// The client keeps commas: responses never reach the storage layer.
	return protocol.Decode(resp, false), nil
}

// outcomeError maps a response outcome onto a package error, nil for
// success.
func outcomeError(outcome byte) error {
	switch outcome {
	case protocol.OutcomeSuccess:
		return nil
	case protocol.OutcomeContactMissing:
		return ErrContactMissing
	case protocol.OutcomeCredentialsExpired:
		return ErrCredentialsExpired
	case protocol.OutcomeAlreadyModified:
		return ErrAlreadyModified
	case protocol.OutcomeAlreadyExists:
		return ErrAlreadyExists
	case protocol.OutcomeInvalidPacket:
		return ErrInvalidPacket
	default:
		return ErrServer
	}
}

// Login authenticates this connection. On success the credentials are
// cached and attached to every later privileged request.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if !validate.Username(username) {
		return fmt.Errorf("%w: username", ErrBadField)
	}
	if !validate.Password(password) {
		return fmt.Errorf("%w: password", ErrBadField)
	}

	resp, err := c.roundTrip(ctx, protocol.Encode(protocol.Packet{
		Operation: protocol.OpAuth,
		Username:  username,
		Password:  password,
	}))
	if err != nil {
		return err
	}
	if err := outcomeError(resp.Outcome); err != nil {
		return err
	}

	c.username = username
	c.password = password
	c.log.Debug("logged in", zap.String("username", username))
	return nil
}

// Read fetches the n-th contact (1-based) matching the filter. Empty filter
// fields match anything; non-empty fields must match exactly.
func (c *Client) Read(ctx context.Context, filter models.Contact, n uint) (models.Contact, error) {
	req := protocol.Packet{Operation: protocol.OpRead, MatchIndex: n}
	req.SetContact(filter)

	resp, err := c.roundTrip(ctx, protocol.Encode(req))
	if err != nil {
		return models.Contact{}, err
	}
	if err := outcomeError(resp.Outcome); err != nil {
		return models.Contact{}, err
	}
	return resp.Contact(), nil
}

func validateContact(contact models.Contact) error {
	if !validate.ContactName(contact.Name) {
		return fmt.Errorf("%w: name", ErrBadField)
	}
	if !validate.ContactName(contact.Surname) {
		return fmt.Errorf("%w: surname", ErrBadField)
	}
	if !validate.Phone(contact.Phone) {
		return fmt.Errorf("%w: phone number", ErrBadField)
	}
	return nil
}

// privileged builds the common part of a mutation request: the operation
// byte plus the cached credentials.
func (c *Client) privileged(op byte) (protocol.Packet, error) {
	if c.username == "" {
		return protocol.Packet{}, ErrNotLoggedIn
	}
	return protocol.Packet{Operation: op, Username: c.username, Password: c.password}, nil
}

// Add appends a contact to the server's list.
func (c *Client) Add(ctx context.Context, contact models.Contact) error {
	if err := validateContact(contact); err != nil {
		return err
	}
	req, err := c.privileged(protocol.OpAdd)
	if err != nil {
		return err
	}
	req.SetContact(contact)

	resp, err := c.roundTrip(ctx, protocol.Encode(req))
	if err != nil {
		return err
	}
	return outcomeError(resp.Outcome)
}

// Delete removes a contact from the server's list.
func (c *Client) Delete(ctx context.Context, contact models.Contact) error {
	if err := validateContact(contact); err != nil {
		return err
	}
	req, err := c.privileged(protocol.OpDelete)
	if err != nil {
		return err
	}
	req.SetContact(contact)

	resp, err := c.roundTrip(ctx, protocol.Encode(req))
	if err != nil {
		return err
	}
	return outcomeError(resp.Outcome)
}

// Modify replaces a stored contact with an updated one.
func (c *Client) Modify(ctx context.Context, old, updated models.Contact) error {
	if err := validateContact(old); err != nil {
		return err
	}
	if err := validateContact(updated); err != nil {
		return err
	}
	req, err := c.privileged(protocol.OpModify)
	if err != nil {
		return err
	}
	req.SetContact(old)
	req.SetNewContact(updated)

	resp, err := c.roundTrip(ctx, protocol.Encode(req))
	if err != nil {
		return err
	}
	return outcomeError(resp.Outcome)
}

// Close performs the disconnect handshake and closes the connection. The
// connection is closed even when the handshake fails.
func (c *Client) Close() error {
	defer c.conn.Close()

	if _, err := c.conn.Write(protocol.DisconnectFrame()); err != nil {
		return fmt.Errorf("send disconnect: %w", err)
	}
	ack := make([]byte, protocol.FrameLength)
	if _, err := io.ReadFull(c.conn, ack); err != nil {
		return fmt.Errorf("read disconnect ack: %w", err)
	}
	if ack[1] != protocol.OutcomeSuccess {
		return fmt.Errorf("disconnect refused: outcome %q", ack[1])
	}
	return nil
}
