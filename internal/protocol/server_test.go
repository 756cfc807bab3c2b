// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import (
	"testing"
	"time"

	"github.com/MKhiriev/go-lab-updater/internal/codec"
	"github.com/MKhiriev/go-lab-updater/internal/coordinator"
	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/MKhiriev/go-lab-updater/internal/mock"
	"github.com/MKhiriev/go-lab-updater/internal/store"
	"github.com/MKhiriev/go-lab-updater/internal/transport"
	"github.com/MKhiriev/go-lab-updater/models"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMockedServer(t *testing.T) (*Server, *coordinator.Coordinator, *mock.MockCommunicator, *gomock.Controller) {
	t.Helper()

	ctrl := gomock.NewController(t)
	comm := mock.NewMockCommunicator(ctrl)
	comm.EXPECT().Subscribe(Module, gomock.Any()).Times(1)

	st, err := store.NewDirectoryStore(afero.NewMemMapFs(), "/srv/tools")
	require.NoError(t, err)

	coord := coordinator.New()
	s := NewServer(comm, coord, st, logger.Nop(), WithDebounce(0))
	t.Cleanup(s.Shutdown)
	return s, coord, comm, ctrl
}

func TestServer_OnClientJoinedAssignsIDAndRequestsSync(t *testing.T) {
	s, coord, comm, ctrl := newMockedServer(t)

	conn := mock.NewMockConn(ctrl)
	conn.EXPECT().RemoteAddr().Return("10.0.0.5:51000").AnyTimes()

	sent := make(chan []byte, 1)
	gomock.InOrder(
		comm.EXPECT().AddClient("Client1", conn),
		comm.EXPECT().Send(gomock.Any(), Module, "Client1").DoAndReturn(
			func(data []byte, _, _ string) error {
				sent <- data
				return nil
			}),
	)

	s.OnClientJoined(conn)

	select {
	case data := <-sent:
		p, err := codec.UnmarshalPacket(data)
		require.NoError(t, err)
		assert.Equal(t, models.KindSyncUp, p.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("sync up was not sent")
	}

	assert.Eventually(t, func() bool {
		session, ok := coord.Session("Client1")
		return ok && session.Phase == models.PhaseAwaitingClientMetadata
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, models.GateHeld, coord.Status())
	assert.Equal(t, []string{"Client1"}, s.Clients())
}

func TestServer_SyncUpSendFailureReleasesGate(t *testing.T) {
	s, coord, comm, ctrl := newMockedServer(t)

	conn := mock.NewMockConn(ctrl)
	conn.EXPECT().RemoteAddr().Return("10.0.0.6:51000").AnyTimes()
	comm.EXPECT().AddClient("Client1", conn)
	comm.EXPECT().Send(gomock.Any(), Module, "Client1").Return(transport.ErrSendBufferFull)

	s.OnClientJoined(conn)

	assert.Eventually(t, func() bool {
		_, live := coord.Session("Client1")
		return !live && coord.Status() == models.GateAvailable
	}, 2*time.Second, 5*time.Millisecond)
}

func TestServer_DispatchRejectsOutOfTurnPackets(t *testing.T) {
	s, _, _, _ := newMockedServer(t)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "sync up", data: mustPacket(t, models.NewSyncPacket(models.KindSyncUp)), want: ErrUnexpectedPacket},
		{name: "difference report", data: mustPacket(t, models.NewSyncPacket(models.KindDifferenceReport)), want: ErrUnexpectedPacket},
		{name: "broadcast", data: mustPacket(t, models.NewSyncPacket(models.KindBroadcast)), want: ErrUnexpectedPacket},
		{name: "metadata without session", data: mustPacket(t, models.NewSyncPacket(models.KindMetadata)), want: ErrNoSession},
		{name: "upload without session", data: mustPacket(t, models.NewSyncPacket(models.KindClientUpload)), want: ErrNoSession},
		{name: "unknown kind", data: []byte(`{"kind":"reboot","payload":[]}`), want: codec.ErrUnknownPacketKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.dispatch("Client7", tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestServer_OnClientLeftUnknownClient(t *testing.T) {
	s, coord, _, _ := newMockedServer(t)

	s.OnClientLeft("Client42")

	assert.Empty(t, s.Clients())
	assert.Equal(t, models.GateAvailable, coord.Status())
}

func TestServer_Status(t *testing.T) {
	ctrl := gomock.NewController(t)
	comm := mock.NewMockCommunicator(ctrl)
	comm.EXPECT().Subscribe(Module, gomock.Any())

	st := mock.NewMockDirectoryStore(ctrl)
	st.EXPECT().Fs().Return(afero.NewMemMapFs())
	st.EXPECT().Path().Return("/srv/tools")

	s := NewServer(comm, coordinator.New(), st, logger.Nop())
	t.Cleanup(s.Shutdown)

	status := s.Status()
	assert.Equal(t, models.GateAvailable, status.Gate)
	assert.Equal(t, "/srv/tools", status.Directory)
	assert.Empty(t, status.Clients)
	assert.Empty(t, status.Sessions)
}

func emptyListingPacket(t *testing.T) []byte {
	t.Helper()

	entry, err := codec.EncodeListing(ListingEntryName, nil)
	require.NoError(t, err)
	return mustPacket(t, models.NewSyncPacket(models.KindMetadata, entry))
}

func TestServer_MetadataReplyBeforeSyncUpSendReturns(t *testing.T) {
	s, coord, comm, ctrl := newMockedServer(t)

	conn := mock.NewMockConn(ctrl)
	conn.EXPECT().RemoteAddr().Return("10.0.0.7:51000").AnyTimes()
	comm.EXPECT().AddClient("Client1", conn)

	reply := emptyListingPacket(t)
	reports := make(chan models.SyncPacket, 1)
	gomock.InOrder(
		comm.EXPECT().Send(gomock.Any(), Module, "Client1").DoAndReturn(
			func(data []byte, _, _ string) error {
				p, err := codec.UnmarshalPacket(data)
				if err != nil || p.Kind != models.KindSyncUp {
					return err
				}
				// the client answers before the frame is even reported as sent
				s.OnDataReceived("Client1", reply)
				return nil
			}),
		comm.EXPECT().Send(gomock.Any(), Module, "Client1").DoAndReturn(
			func(data []byte, _, _ string) error {
				p, err := codec.UnmarshalPacket(data)
				if err == nil {
					reports <- p
				}
				return err
			}),
	)

	s.OnClientJoined(conn)

	select {
	case p := <-reports:
		assert.Equal(t, models.KindDifferenceReport, p.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("difference report was not sent")
	}

	assert.Eventually(t, func() bool {
		session, ok := coord.Session("Client1")
		return ok && session.Phase == models.PhaseAwaitingClientUpload
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, models.GateHeld, coord.Status())
}

// slowStore blocks writes of one file until unblock is closed.
type slowStore struct {
	store.DirectoryStore
	name    string
	entered chan struct{}
	unblock chan struct{}
}

func (st *slowStore) WriteFile(name string, data []byte) error {
	if name == st.name {
		close(st.entered)
		<-st.unblock
	}
	return st.DirectoryStore.WriteFile(name, data)
}

func TestServer_CycleTimeoutWaitsForDirectoryWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	comm := mock.NewMockCommunicator(ctrl)
	comm.EXPECT().Subscribe(Module, gomock.Any())

	dir, err := store.NewDirectoryStore(afero.NewMemMapFs(), "/srv/tools")
	require.NoError(t, err)
	st := &slowStore{DirectoryStore: dir, name: "c.txt", entered: make(chan struct{}), unblock: make(chan struct{})}

	clock := clockwork.NewFakeClock()
	coord := coordinator.New()
	s := NewServer(comm, coord, st, logger.Nop(),
		WithDebounce(0), WithServerClock(clock), WithCycleTimeout(time.Minute))
	t.Cleanup(s.Shutdown)

	conn := mock.NewMockConn(ctrl)
	conn.EXPECT().RemoteAddr().Return("10.0.0.8:51000").AnyTimes()
	comm.EXPECT().AddClient("Client1", conn)

	kinds := make(chan models.PacketKind, 4)
	comm.EXPECT().Send(gomock.Any(), Module, gomock.Any()).DoAndReturn(
		func(data []byte, _, _ string) error {
			p, err := codec.UnmarshalPacket(data)
			if err == nil {
				kinds <- p.Kind
			}
			return err
		}).AnyTimes()

	s.OnClientJoined(conn)
	require.Equal(t, models.KindSyncUp, <-kinds)

	s.OnDataReceived("Client1", emptyListingPacket(t))
	require.Equal(t, models.KindDifferenceReport, <-kinds)

	upload := mustPacket(t, models.NewSyncPacket(models.KindClientUpload, encodeAll(t, map[string]string{"c.txt": "gamma"})...))
	uploaded := make(chan struct{})
	go func() {
		defer close(uploaded)
		s.OnDataReceived("Client1", upload)
	}()
	<-st.entered

	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool {
		_, live := coord.Session("Client1")
		return !live
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, models.GateHeld, coord.Status(), "gate stays held while the directory is written")

	close(st.unblock)
	<-uploaded

	assert.Equal(t, models.GateAvailable, coord.Status())
	got, err := dir.ReadFile("c.txt")
	require.NoError(t, err)
	assert.Equal(t, "gamma", string(got))
	assert.Len(t, kinds, 0, "no broadcast after the cycle timed out")
}

func TestServer_OversizedDifferenceReportAbortsCycle(t *testing.T) {
	s, coord, comm, ctrl := newMockedServer(t)

	conn := mock.NewMockConn(ctrl)
	conn.EXPECT().RemoteAddr().Return("10.0.0.9:51000").AnyTimes()
	comm.EXPECT().AddClient("Client1", conn)

	sent := make(chan struct{}, 1)
	gomock.InOrder(
		comm.EXPECT().Send(gomock.Any(), Module, "Client1").DoAndReturn(
			func([]byte, string, string) error {
				sent <- struct{}{}
				return nil
			}),
		comm.EXPECT().Send(gomock.Any(), Module, "Client1").Return(transport.ErrFrameTooLarge),
	)

	s.OnClientJoined(conn)
	<-sent

	err := s.dispatch("Client1", emptyListingPacket(t))
	assert.ErrorIs(t, err, transport.ErrFrameTooLarge)

	_, live := coord.Session("Client1")
	assert.False(t, live)
	assert.Equal(t, models.GateAvailable, coord.Status())
}
