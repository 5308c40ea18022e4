package client

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avoront/rubrica/internal/models"
	"github.com/avoront/rubrica/internal/protocol"
)

// fakeServer answers each incoming frame with the next canned response and
// records what it received.
type fakeServer struct {
	conn      net.Conn
	responses []protocol.Packet
	received  []protocol.Packet
	done      chan struct{}
}

func startFakeServer(t *testing.T, responses ...protocol.Packet) (*Client, *fakeServer) {
	t.Helper()
	server, clientConn := net.Pipe()
	fs := &fakeServer{conn: server, responses: responses, done: make(chan struct{})}
	go fs.run()
	t.Cleanup(func() {
		server.Close()
		clientConn.Close()
	})
	return New(clientConn, zap.NewNop()), fs
}

func (f *fakeServer) run() {
	defer close(f.done)
	buf := make([]byte, protocol.FrameLength)
	for _, resp := range f.responses {
		if _, err := io.ReadFull(f.conn, buf); err != nil {
			return
		}
		f.received = append(f.received, protocol.Decode(buf, false))
		if _, err := f.conn.Write(protocol.Encode(resp)); err != nil {
			return
		}
	}
	// Disconnect handshake: ack with outcome only, like the real server.
	if _, err := io.ReadFull(f.conn, buf); err != nil {
		return
	}
	f.received = append(f.received, protocol.Decode(buf, false))
	ack := make([]byte, protocol.FrameLength)
	ack[1] = protocol.OutcomeSuccess
	f.conn.Write(ack)
	f.conn.Close()
}

func TestLogin(t *testing.T) {
	c, fs := startFakeServer(t, protocol.Packet{Operation: protocol.OpAuth, Outcome: protocol.OutcomeSuccess})

	require.NoError(t, c.Login(context.Background(), "bob", "secret"))
	require.NoError(t, c.Close())
	<-fs.done

	require.Len(t, fs.received, 2)
	assert.Equal(t, protocol.OpAuth, fs.received[0].Operation)
	assert.Equal(t, "bob", fs.received[0].Username)
	assert.Equal(t, "secret", fs.received[0].Password)
	assert.Equal(t, protocol.OpDisconnect, fs.received[1].Operation)
}

func TestLoginRejected(t *testing.T) {
	c, _ := startFakeServer(t, protocol.Packet{Operation: protocol.OpAuth, Outcome: protocol.OutcomeServerError})

	err := c.Login(context.Background(), "bob", "wrong")
	assert.ErrorIs(t, err, ErrServer)

	// Privileged calls stay blocked without a successful login.
	assert.ErrorIs(t, c.Add(context.Background(), models.Contact{Name: "Anna"}), ErrNotLoggedIn)
}

func TestLoginValidatesLocally(t *testing.T) {
	c, fs := startFakeServer(t)

	assert.Error(t, c.Login(context.Background(), "way,too,long,and,with,commas", "pw"))
	assert.Error(t, c.Login(context.Background(), "", "pw"))

	// Nothing reached the wire.
	require.NoError(t, c.Close())
	<-fs.done
	require.Len(t, fs.received, 1)
	assert.Equal(t, protocol.OpDisconnect, fs.received[0].Operation)
}

func TestRead(t *testing.T) {
	stored := models.Contact{Name: "Mario", Surname: "Rossi", Phone: "1234567890"}
	resp := protocol.Packet{Operation: protocol.OpRead, Outcome: protocol.OutcomeSuccess, MatchIndex: 2}
	resp.SetContact(stored)
	c, fs := startFakeServer(t, resp)

	got, err := c.Read(context.Background(), models.Contact{Surname: "Rossi"}, 2)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	require.NoError(t, c.Close())
	<-fs.done
	assert.Equal(t, "Rossi", fs.received[0].Surname)
	assert.Equal(t, uint(2), fs.received[0].MatchIndex)
}

func TestReadMissing(t *testing.T) {
	c, _ := startFakeServer(t, protocol.Packet{Operation: protocol.OpRead, Outcome: protocol.OutcomeContactMissing})

	_, err := c.Read(context.Background(), models.Contact{}, 5)
	assert.ErrorIs(t, err, ErrContactMissing)
}

func TestAddCarriesCachedCredentials(t *testing.T) {
	c, fs := startFakeServer(t,
		protocol.Packet{Operation: protocol.OpAuth, Outcome: protocol.OutcomeSuccess},
		protocol.Packet{Operation: protocol.OpAdd, Outcome: protocol.OutcomeSuccess},
	)

	require.NoError(t, c.Login(context.Background(), "bob", "secret"))
	require.NoError(t, c.Add(context.Background(), models.Contact{Name: "Anna", Surname: "Verdi", Phone: "1112223334"}))
	require.NoError(t, c.Close())
	<-fs.done

	add := fs.received[1]
	assert.Equal(t, protocol.OpAdd, add.Operation)
	assert.Equal(t, "bob", add.Username)
	assert.Equal(t, "secret", add.Password)
	assert.Equal(t, models.Contact{Name: "Anna", Surname: "Verdi", Phone: "1112223334"}, add.Contact())
}

func TestOutcomeMapping(t *testing.T) {
	tests := []struct {
		name    string
		outcome byte
		wantErr error
	}{
		{"duplicate", protocol.OutcomeAlreadyExists, ErrAlreadyExists},
		{"already modified", protocol.OutcomeAlreadyModified, ErrAlreadyModified},
		{"credentials expired", protocol.OutcomeCredentialsExpired, ErrCredentialsExpired},
		{"invalid packet", protocol.OutcomeInvalidPacket, ErrInvalidPacket},
		{"server error", protocol.OutcomeServerError, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := startFakeServer(t,
				protocol.Packet{Operation: protocol.OpAuth, Outcome: protocol.OutcomeSuccess},
				protocol.Packet{Operation: protocol.OpAdd, Outcome: tt.outcome},
			)
			require.NoError(t, c.Login(context.Background(), "bob", "secret"))
			err := c.Add(context.Background(), models.Contact{Name: "Anna"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestModifySendsBothContacts(t *testing.T) {
	c, fs := startFakeServer(t,
		protocol.Packet{Operation: protocol.OpAuth, Outcome: protocol.OutcomeSuccess},
		protocol.Packet{Operation: protocol.OpModify, Outcome: protocol.OutcomeSuccess},
	)

	require.NoError(t, c.Login(context.Background(), "bob", "secret"))
	old := models.Contact{Name: "Anna", Surname: "Verdi", Phone: "1112223334"}
	updated := models.Contact{Name: "Anna", Surname: "Bianchi", Phone: "5556667778"}
	require.NoError(t, c.Modify(context.Background(), old, updated))
	require.NoError(t, c.Close())
	<-fs.done

	mod := fs.received[1]
	assert.Equal(t, old, mod.Contact())
	assert.Equal(t, updated, mod.NewContact())
}

func TestValidateContactFields(t *testing.T) {
	c, _ := startFakeServer(t, protocol.Packet{Operation: protocol.OpAuth, Outcome: protocol.OutcomeSuccess})
	require.NoError(t, c.Login(context.Background(), "bob", "secret"))

	assert.Error(t, c.Add(context.Background(), models.Contact{Name: "toolongname"}))
	assert.Error(t, c.Add(context.Background(), models.Contact{Name: "Anna", Phone: "123"}))
	assert.Error(t, c.Delete(context.Background(), models.Contact{Surname: "Ro,ssi"}))
}
