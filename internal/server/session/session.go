// Package session implements the per-connection protocol handler: it reads
// fixed-length request frames, dispatches them to the stores, computes the
// outcome code and writes the response frame back.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avoront/rubrica/internal/auditlog"
	"github.com/avoront/rubrica/internal/models"
	"github.com/avoront/rubrica/internal/protocol"
	"github.com/avoront/rubrica/internal/repository"
)

// ContactService defines the contact operations the handler dispatches to.
type ContactService interface {
	FindNth(ctx context.Context, filter models.Contact, n uint) (models.Contact, error)
	Add(ctx context.Context, contact models.Contact) error
	Remove(ctx context.Context, contact models.Contact) error
	Replace(ctx context.Context, old, updated models.Contact) error
}

// CredentialService defines the credential check the handler performs on
// every privileged request.
type CredentialService interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}

// Session is the per-connection protocol state. A session starts
// unauthenticated; a successful AUTH caches the presented credentials and
// marks it authenticated. The cached credentials are re-verified by the
// stores on every privileged operation, so deleting the account mid-session
// drops the session back to unauthenticated on its next mutation attempt.
type Session struct {
	// ID identifies the session in server logs.
	ID string
	// Actor is the audit identity, "clientIP:port@Server:listenPort".
	Actor string
	// Authenticated reports whether the last AUTH on this session succeeded
	// and no later credential re-check failed.
	Authenticated bool
	// Username and Password are the credentials cached by the last
	// successful AUTH.
	Username string
	Password string
}

// NewSession creates the protocol state for one connection.
func NewSession(actor string) *Session {
	return &Session{ID: uuid.NewString(), Actor: actor}
}

// Handler dispatches decoded packets to the stores and builds responses.
// One Handler serves every connection; all per-connection state lives in
// the Session.
type Handler struct {
	contacts ContactService
	creds    CredentialService
	audit    *auditlog.Logger
	log      *zap.Logger

	// serverName identifies this server instance in actor strings,
	// e.g. "Server:50000".
	serverName string
}

// NewHandler constructs a session handler.
func NewHandler(contacts ContactService, creds CredentialService, audit *auditlog.Logger, log *zap.Logger, serverName string) *Handler {
	return &Handler{
		contacts:   contacts,
		creds:      creds,
		audit:      audit,
		log:        log,
		serverName: serverName,
	}
}

// ServerName returns the actor string used for server-initiated operations.
func (h *Handler) ServerName() string { return h.serverName }

// Serve runs the request/response loop for one connection until the client
// disconnects or the transport fails. Reads and writes are full-frame only:
// a short read or write is fatal to the session, with no partial-frame
// recovery. The method always closes the connection before returning.
func (h *Handler) Serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	sess := NewSession(fmt.Sprintf("%s@%s", conn.RemoteAddr(), h.serverName))
	log := h.log.With(zap.String("session", sess.ID), zap.String("actor", sess.Actor))

	h.audit.Record(sess.Actor, "Connection established", auditlog.StatusIgnored, "Session started")
	log.Info("session started")

	buf := make([]byte, protocol.FrameLength)
	for {
		if _, err := io.ReadFull(conn, buf); err != nil {
			h.audit.Record(sess.Actor, "Connection terminated", auditlog.StatusFailed, "Error during client request, closing socket")
			log.Warn("request read failed", zap.Error(err))
			return
		}

		req := protocol.Decode(buf, true)
		resp, disconnect := h.Handle(ctx, sess, req)

		if _, err := conn.Write(protocol.Encode(resp)); err != nil {
			h.audit.Record(sess.Actor, "Connection terminated", auditlog.StatusFailed, "Error during client response, closing socket")
			log.Warn("response write failed", zap.Error(err))
			return
		}

		if disconnect {
			log.Info("session closed by client")
			return
		}
	}
}

// Handle processes one decoded request and returns the response packet plus
// whether the session should end after the response is sent. Every exchange
// is audit-logged. Errors never escape: they are folded into outcome codes.
func (h *Handler) Handle(ctx context.Context, sess *Session, req protocol.Packet) (protocol.Packet, bool) {
	switch req.Operation {
	case protocol.OpRead:
		return h.handleRead(ctx, sess, req), false
	case protocol.OpAuth:
		return h.handleAuth(ctx, sess, req), false
	case protocol.OpAdd:
		return h.handleAdd(ctx, sess, req), false
	case protocol.OpDelete:
		return h.handleDelete(ctx, sess, req), false
	case protocol.OpModify:
		return h.handleModify(ctx, sess, req), false
	case protocol.OpDisconnect:
		h.audit.Record(sess.Actor, "Socket closed", auditlog.StatusSucceeded, "Session terminated correctly")
		return protocol.Packet{Operation: protocol.OpDisconnect, Outcome: protocol.OutcomeSuccess}, true
	default:
		// Comma-contaminated frames arrive here too: Decode tags them with
		// the invalid operation. The connection stays open.
		h.audit.Record(sess.Actor, "Received invalid packet", auditlog.StatusFailed, "No operation done")
		return protocol.Packet{Operation: protocol.OpInvalid, Outcome: protocol.OutcomeInvalidPacket}, false
	}
}

// readDescription renders the audit description of a READ request, naming
// only the filter fields the client actually set.
func readDescription(filter models.Contact, n uint) string {
	if filter.IsEmpty() {
		return fmt.Sprintf("Requested search for contact number %d", n)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Requested search for contact number %d that matches [", n)
	if filter.Name != "" {
		fmt.Fprintf(&b, "-Name: %s ", filter.Name)
	}
	if filter.Surname != "" {
		fmt.Fprintf(&b, "-Surname: %s ", filter.Surname)
	}
	if filter.Phone != "" {
		fmt.Fprintf(&b, "-Phone number: %s", filter.Phone)
	}
	b.WriteString("]")
	return b.String()
}

func (h *Handler) handleRead(ctx context.Context, sess *Session, req protocol.Packet) protocol.Packet {
	filter := req.Contact()
	resp := protocol.Packet{Operation: protocol.OpRead}
	desc := readDescription(filter, req.MatchIndex)

	// A zero match index succeeds vacuously with an empty payload: the
	// search for the 0th match is satisfied before looking at any record.
	// Clients always send 1-based indices.
	if req.MatchIndex == 0 {
		resp.Outcome = protocol.OutcomeSuccess
		h.audit.Record(sess.Actor, desc, auditlog.StatusSucceeded, "Found matching contact: [, , ]")
		return resp
	}

	found, err := h.contacts.FindNth(ctx, filter, req.MatchIndex)
	switch {
	case err == nil:
		resp.Outcome = protocol.OutcomeSuccess
		resp.MatchIndex = req.MatchIndex
		resp.SetContact(found)
		h.audit.Record(sess.Actor, desc, auditlog.StatusSucceeded,
			fmt.Sprintf("Found matching contact: [%s, %s, %s]", found.Name, found.Surname, found.Phone))
	case errors.Is(err, repository.ErrNotFound):
		resp.Outcome = protocol.OutcomeContactMissing
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Finished file without any contacts")
	default:
		resp.Outcome = protocol.OutcomeServerError
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Could not read contact list")
		h.log.Error("contact lookup failed", zap.String("session", sess.ID), zap.Error(err))
	}
	return resp
}

func (h *Handler) handleAuth(ctx context.Context, sess *Session, req protocol.Packet) protocol.Packet {
	resp := protocol.Packet{Operation: protocol.OpAuth}
	const desc = "Authentication attempt"

	if req.Username == "" {
		resp.Outcome = protocol.OutcomeServerError
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Invalid credentials")
		return resp
	}

	ok, err := h.creds.Verify(ctx, req.Username, req.Password)
	switch {
	case err != nil:
		resp.Outcome = protocol.OutcomeServerError
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Could not read credential store")
		h.log.Error("credential check failed", zap.String("session", sess.ID), zap.Error(err))
	case ok:
		sess.Authenticated = true
		sess.Username = req.Username
		sess.Password = req.Password
		resp.Outcome = protocol.OutcomeSuccess
		h.audit.Record(sess.Actor, desc, auditlog.StatusSucceeded,
			fmt.Sprintf("User identified as [%s]", req.Username))
	default:
		resp.Outcome = protocol.OutcomeServerError
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Credentials not present")
	}
	return resp
}

// reverify re-checks the credentials carried by a privileged request.
// Returning false means the caller must answer CredentialsExpired; the
// session also falls back to unauthenticated, covering the case where an
// admin revoked the account after a successful AUTH.
func (h *Handler) reverify(ctx context.Context, sess *Session, req protocol.Packet) (bool, error) {
	ok, err := h.creds.Verify(ctx, req.Username, req.Password)
	if err != nil {
		return false, err
	}
	if !ok {
		sess.Authenticated = false
		return false, nil
	}
	return true, nil
}

func (h *Handler) handleAdd(ctx context.Context, sess *Session, req protocol.Packet) protocol.Packet {
	resp := protocol.Packet{Operation: protocol.OpAdd}
	contact := req.Contact()
	desc := fmt.Sprintf("Requested to add new contact: [%s, %s, %s]", contact.Name, contact.Surname, contact.Phone)

	ok, err := h.reverify(ctx, sess, req)
	if err != nil {
		resp.Outcome = protocol.OutcomeServerError
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Could not read credential store")
		h.log.Error("credential check failed", zap.String("session", sess.ID), zap.Error(err))
		return resp
	}
	if !ok {
		resp.Outcome = protocol.OutcomeCredentialsExpired
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "User failed to authenticate, wrong credentials")
		return resp
	}

	switch err := h.contacts.Add(ctx, contact); {
	case err == nil:
		resp.Outcome = protocol.OutcomeSuccess
		h.audit.Record(sess.Actor, desc, auditlog.StatusSucceeded, "Contact added at end of list")
	case errors.Is(err, repository.ErrDuplicate):
		resp.Outcome = protocol.OutcomeAlreadyExists
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Contact not added, was duplicate")
	default:
		resp.Outcome = protocol.OutcomeServerError
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Could not add new contact")
		h.log.Error("contact add failed", zap.String("session", sess.ID), zap.Error(err))
	}
	return resp
}

func (h *Handler) handleDelete(ctx context.Context, sess *Session, req protocol.Packet) protocol.Packet {
	resp := protocol.Packet{Operation: protocol.OpDelete}
	contact := req.Contact()
	desc := fmt.Sprintf("Requested to remove contact [%s, %s, %s]", contact.Name, contact.Surname, contact.Phone)

	ok, err := h.reverify(ctx, sess, req)
	if err != nil {
		resp.Outcome = protocol.OutcomeServerError
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Could not read credential store")
		h.log.Error("credential check failed", zap.String("session", sess.ID), zap.Error(err))
		return resp
	}
	if !ok {
		resp.Outcome = protocol.OutcomeCredentialsExpired
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "User failed to authenticate, wrong credentials")
		return resp
	}

	switch err := h.contacts.Remove(ctx, contact); {
	case err == nil:
		resp.Outcome = protocol.OutcomeSuccess
		h.audit.Record(sess.Actor, desc, auditlog.StatusSucceeded, "Contact removed successfully")
	case errors.Is(err, repository.ErrNotFound):
		// "Already modified": by the time the request landed, the record
		// was no longer there to remove.
		resp.Outcome = protocol.OutcomeAlreadyModified
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Could not remove contact, wasn't present")
	default:
		resp.Outcome = protocol.OutcomeServerError
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Could not remove contact")
		h.log.Error("contact remove failed", zap.String("session", sess.ID), zap.Error(err))
	}
	return resp
}

func (h *Handler) handleModify(ctx context.Context, sess *Session, req protocol.Packet) protocol.Packet {
	resp := protocol.Packet{Operation: protocol.OpModify}
	old := req.Contact()
	updated := req.NewContact()
	desc := fmt.Sprintf("Requested to modify contact [%s, %s, %s] with new info [%s, %s, %s]",
		old.Name, old.Surname, old.Phone, updated.Name, updated.Surname, updated.Phone)

	ok, err := h.reverify(ctx, sess, req)
	if err != nil {
		resp.Outcome = protocol.OutcomeServerError
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Could not read credential store")
		h.log.Error("credential check failed", zap.String("session", sess.ID), zap.Error(err))
		return resp
	}
	if !ok {
		resp.Outcome = protocol.OutcomeCredentialsExpired
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "User failed to authenticate, wrong credentials")
		return resp
	}

	switch err := h.contacts.Replace(ctx, old, updated); {
	case err == nil:
		resp.Outcome = protocol.OutcomeSuccess
		h.audit.Record(sess.Actor, desc, auditlog.StatusSucceeded, "Contact modified successfully")
	case errors.Is(err, repository.ErrNotFound):
		resp.Outcome = protocol.OutcomeAlreadyModified
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Could not modify contact, wasn't present")
	default:
		resp.Outcome = protocol.OutcomeServerError
		h.audit.Record(sess.Actor, desc, auditlog.StatusFailed, "Could not modify contact")
		h.log.Error("contact modify failed", zap.String("session", sess.ID), zap.Error(err))
	}
	return resp
}
