// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/MKhiriev/go-lab-updater/internal/codec"
	"github.com/MKhiriev/go-lab-updater/internal/coordinator"
	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/MKhiriev/go-lab-updater/internal/store"
	"github.com/MKhiriev/go-lab-updater/models"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type testNode struct {
	fs    afero.Fs
	store store.DirectoryStore
}

func newNode(t *testing.T, dir string, files map[string]string) testNode {
	t.Helper()

	fs := afero.NewMemMapFs()
	st, err := store.NewDirectoryStore(fs, dir)
	require.NoError(t, err)
	for name, content := range files {
		require.NoError(t, st.WriteFile(name, []byte(content)))
	}
	return testNode{fs: fs, store: st}
}

// files returns the managed directory content. It tolerates writes in
// flight, so it is safe to poll from require.Eventually.
func (n testNode) files(t *testing.T) map[string]string {
	t.Helper()

	out := make(map[string]string)
	infos, err := afero.ReadDir(n.fs, n.store.Path())
	if err != nil {
		return out
	}
	for _, info := range infos {
		if info.IsDir() || store.IsTempFile(info.Name()) {
			continue
		}
		data, err := n.store.ReadFile(info.Name())
		if err != nil {
			continue
		}
		out[info.Name()] = string(data)
	}
	return out
}

func (n testNode) toolFiles(t *testing.T) map[string]string {
	out := n.files(t)
	delete(out, DefaultReportName)
	return out
}

type testServer struct {
	testNode
	comm     *memServer
	coord    *coordinator.Coordinator
	server   *Server
	notifier *recordingNotifier
	metrics  *recordingMetrics
}

func startServer(t *testing.T, files map[string]string, opts ...ServerOption) *testServer {
	t.Helper()

	ts := &testServer{
		testNode: newNode(t, "/srv/tools", files),
		comm:     newMemServer(),
		coord:    coordinator.New(),
		notifier: &recordingNotifier{},
		metrics:  newRecordingMetrics(),
	}

	base := []ServerOption{WithDebounce(0), WithServerNotifier(ts.notifier), WithMetrics(ts.metrics)}
	ts.server = NewServer(ts.comm, ts.coord, ts.store, logger.Nop(), append(base, opts...)...)

	t.Cleanup(func() {
		ts.server.Shutdown()
		_ = ts.comm.Stop()
	})
	return ts
}

func (ts *testServer) idle() bool {
	return ts.coord.Status() == models.GateAvailable && len(ts.coord.Sessions()) == 0
}

type testClient struct {
	testNode
	comm     *memClient
	client   *Client
	notifier *recordingNotifier
}

func connectClient(t *testing.T, ts *testServer, name string, files map[string]string) *testClient {
	t.Helper()

	tc := &testClient{
		testNode: newNode(t, "/home/"+name+"/tools", files),
		comm:     newMemClient(ts.comm, name),
		notifier: &recordingNotifier{},
	}
	tc.client = NewClient(tc.comm, tc.store, logger.Nop(), WithClientNotifier(tc.notifier))

	_, err := tc.comm.Start(context.Background(), "mem")
	require.NoError(t, err)
	t.Cleanup(func() { _ = tc.comm.Stop() })
	return tc
}

// silentClient connects a peer that never answers the server.
func silentClient(t *testing.T, ts *testServer, name string) *memClient {
	t.Helper()

	c := newMemClient(ts.comm, name)
	_, err := c.Start(context.Background(), "mem")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Stop() })
	return c
}

func TestSync_ServerAndClientConvergeAndIdleClientGetsBroadcast(t *testing.T) {
	ts := startServer(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})

	idle := connectClient(t, ts, "idle", map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	require.Eventually(t, func() bool {
		return ts.idle() && len(ts.metrics.outcomeList()) == 1
	}, waitFor, tick)

	uploader := connectClient(t, ts, "uploader", map[string]string{"b.txt": "beta", "c.txt": "gamma"})

	want := map[string]string{"a.txt": "alpha", "b.txt": "beta", "c.txt": "gamma"}
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, ts.toolFiles(t)) &&
			assert.ObjectsAreEqual(want, uploader.toolFiles(t)) &&
			assert.ObjectsAreEqual(want, idle.toolFiles(t))
	}, waitFor, tick)
	require.Eventually(t, ts.idle, waitFor, tick)

	assert.Equal(t, []string{OutcomeCompleted, OutcomeCompleted}, ts.metrics.outcomeList())
	assert.Equal(t, 1, ts.metrics.transferred(DirectionFromClient))
	assert.Equal(t, 1, ts.metrics.transferred(DirectionToClient))
	assert.Equal(t, 2, ts.metrics.connected())

	doc, err := ts.store.ReadFile(DefaultReportName)
	require.NoError(t, err)
	report, err := codec.DecodeReport(models.FileEntry{Name: DefaultReportName, Content: string(doc)})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.txt"}, report.Names(models.KeyClientOnly))
	assert.Equal(t, []string{"a.txt"}, report.Names(models.KeyServerOnly))

	assert.NotContains(t, idle.files(t), DefaultReportName, "the report is never written on clients")
	assert.Contains(t, idle.notifier.all(), "Up-to-date with the server")
}

func TestSync_EmptyClientDirectory(t *testing.T) {
	ts := startServer(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})

	tc := connectClient(t, ts, "fresh", nil)

	want := map[string]string{"a.txt": "alpha", "b.txt": "beta"}
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, tc.toolFiles(t)) && ts.idle() && len(ts.metrics.outcomeList()) == 1
	}, waitFor, tick)

	assert.Equal(t, want, ts.toolFiles(t))
	assert.Equal(t, []string{OutcomeCompleted}, ts.metrics.outcomeList())
	assert.Equal(t, 0, ts.metrics.transferred(DirectionFromClient))

	var kinds []models.PacketKind
	for _, p := range ts.comm.sentPackets() {
		kinds = append(kinds, p.kind)
	}
	assert.Equal(t, []models.PacketKind{models.KindSyncUp, models.KindDifferenceReport, models.KindBroadcast}, kinds)

	broadcast := ts.comm.sentPackets()[2]
	assert.Empty(t, broadcast.names, "nothing was uploaded")
	assert.Equal(t, "", broadcast.target)
}

func TestSync_SecondSyncUpWaitsForFirstRelease(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ts := startServer(t, map[string]string{"a.txt": "alpha"},
		WithServerClock(clock),
		WithDebounce(time.Second),
	)

	connectClient(t, ts, "one", map[string]string{"one.txt": "1"})
	connectClient(t, ts, "two", map[string]string{"two.txt": "2"})

	syncUps := func() []string {
		var targets []string
		for _, p := range ts.comm.sentPackets() {
			if p.kind == models.KindSyncUp {
				targets = append(targets, p.target)
			}
		}
		return targets
	}

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	require.NoError(t, clock.BlockUntilContext(ctx, 1), "first cycle reaches the debounce")
	require.Len(t, syncUps(), 1)
	first := syncUps()[0]

	assert.Never(t, func() bool { return len(syncUps()) > 1 }, 50*time.Millisecond, tick,
		"second client selected while the gate is held")
	assert.Equal(t, models.GateHeld, ts.coord.Status())

	clock.Advance(time.Second)

	require.NoError(t, clock.BlockUntilContext(ctx, 1), "second cycle reaches the debounce")
	targets := syncUps()
	require.Len(t, targets, 2)
	assert.NotEqual(t, first, targets[1])

	sent := ts.comm.sentPackets()
	firstBroadcast, secondSyncUp := -1, -1
	for i, p := range sent {
		if p.kind == models.KindBroadcast && firstBroadcast < 0 {
			firstBroadcast = i
		}
		if p.kind == models.KindSyncUp && p.target == targets[1] {
			secondSyncUp = i
		}
	}
	assert.Greater(t, secondSyncUp, firstBroadcast)

	clock.Advance(time.Second)
	require.Eventually(t, ts.idle, waitFor, tick)

	want := map[string]string{"a.txt": "alpha", "one.txt": "1", "two.txt": "2"}
	assert.Equal(t, want, ts.toolFiles(t))
}

func TestSync_ClientLeavingMidCycleReleasesGate(t *testing.T) {
	ts := startServer(t, map[string]string{"a.txt": "alpha"})

	ghost := silentClient(t, ts, "ghost")
	require.Eventually(t, func() bool { return ts.coord.Status() == models.GateHeld }, waitFor, tick)

	late := connectClient(t, ts, "late", nil)
	assert.Never(t, func() bool { return len(late.toolFiles(t)) > 0 }, 50*time.Millisecond, tick)

	require.NoError(t, ghost.Stop())

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(map[string]string{"a.txt": "alpha"}, late.toolFiles(t)) && ts.idle()
	}, waitFor, tick)
	assert.Equal(t, []string{OutcomeClientLeft, OutcomeCompleted}, ts.metrics.outcomeList())
	assert.Equal(t, []string{"Client2"}, ts.server.Clients())
}

func TestSync_CycleTimeoutReleasesGate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ts := startServer(t, nil, WithServerClock(clock), WithCycleTimeout(5*time.Second))

	silentClient(t, ts, "ghost")
	require.Eventually(t, func() bool {
		s, ok := ts.coord.Session("Client1")
		return ok && s.Phase == models.PhaseAwaitingClientMetadata
	}, waitFor, tick)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(5 * time.Second)

	require.Eventually(t, ts.idle, waitFor, tick)
	assert.Equal(t, []string{OutcomeTimeout}, ts.metrics.outcomeList())
}

func TestSync_MalformedPacketFromGateHolderAbortsCycle(t *testing.T) {
	ts := startServer(t, map[string]string{"a.txt": "alpha"})

	ghost := silentClient(t, ts, "ghost")
	require.Eventually(t, func() bool { return ts.coord.Status() == models.GateHeld }, waitFor, tick)

	require.NoError(t, ghost.Send([]byte("{not json"), Module, ""))

	require.Eventually(t, ts.idle, waitFor, tick)
	assert.Equal(t, []string{OutcomeAborted}, ts.metrics.outcomeList())

	require.NoError(t, ghost.Send(mustPacket(t, models.NewSyncPacket(models.KindAnnounce)), Module, ""))
	require.Eventually(t, func() bool { return ts.coord.Status() == models.GateHeld }, waitFor, tick)
}

func TestSync_EmptyMetadataPacketAbortsCycle(t *testing.T) {
	ts := startServer(t, nil)

	ghost := silentClient(t, ts, "ghost")
	require.Eventually(t, func() bool {
		s, ok := ts.coord.Session("Client1")
		return ok && s.Phase == models.PhaseAwaitingClientMetadata
	}, waitFor, tick)

	require.NoError(t, ghost.Send(mustPacket(t, models.NewSyncPacket(models.KindMetadata)), Module, ""))

	require.Eventually(t, ts.idle, waitFor, tick)
	assert.Equal(t, []string{OutcomeAborted}, ts.metrics.outcomeList())
}

func TestSync_PacketsOutOfTurnAreRejected(t *testing.T) {
	ts := startServer(t, nil)

	holder := silentClient(t, ts, "holder")
	require.Eventually(t, func() bool {
		s, ok := ts.coord.Session("Client1")
		return ok && s.Phase == models.PhaseAwaitingClientMetadata
	}, waitFor, tick)

	waiter := silentClient(t, ts, "waiter")
	require.Eventually(t, func() bool {
		s, ok := ts.coord.Session("Client2")
		return ok && s.Phase == models.PhaseAwaitingGate
	}, waitFor, tick)

	listing, err := codec.EncodeListing(ListingEntryName, nil)
	require.NoError(t, err)
	require.NoError(t, waiter.Send(mustPacket(t, models.NewSyncPacket(models.KindMetadata, listing)), Module, ""))
	require.NoError(t, holder.Send(mustPacket(t, models.NewSyncPacket(models.KindClientUpload)), Module, ""))
	require.NoError(t, holder.Send(mustPacket(t, models.NewSyncPacket(models.KindBroadcast)), Module, ""))
	require.NoError(t, waiter.Send(mustPacket(t, models.NewSyncPacket(models.KindAnnounce)), Module, ""))

	require.Eventually(t, func() bool {
		rejected := 0
		for _, m := range ts.notifier.all() {
			if len(m) > 8 && m[:8] == "Rejected" {
				rejected++
			}
		}
		return rejected == 3
	}, waitFor, tick)

	holderSession, ok := ts.coord.Session("Client1")
	require.True(t, ok)
	assert.Equal(t, models.PhaseAwaitingClientMetadata, holderSession.Phase)
	waiterSession, ok := ts.coord.Session("Client2")
	require.True(t, ok)
	assert.Equal(t, models.PhaseAwaitingGate, waiterSession.Phase)
	assert.Empty(t, ts.metrics.outcomeList())
}

func TestSync_StatusSnapshot(t *testing.T) {
	ts := startServer(t, nil)

	silentClient(t, ts, "ghost")
	require.Eventually(t, func() bool { return ts.coord.Status() == models.GateHeld }, waitFor, tick)

	status := ts.server.Status()
	assert.Equal(t, models.GateHeld, status.Gate)
	assert.Equal(t, "/srv/tools", status.Directory)
	assert.Equal(t, []string{"Client1"}, status.Clients)
	require.Len(t, status.Sessions, 1)
	assert.Equal(t, "Client1", status.Sessions[0].ClientID)
}

func TestSync_ShutdownAbortsWaitingCycles(t *testing.T) {
	ts := startServer(t, nil)

	silentClient(t, ts, "holder")
	silentClient(t, ts, "waiter")
	require.Eventually(t, func() bool { return len(ts.coord.Sessions()) == 2 }, waitFor, tick)

	ts.server.Shutdown()

	assert.True(t, ts.idle())
	outcomes := ts.metrics.outcomeList()
	sort.Strings(outcomes)
	assert.Equal(t, []string{OutcomeCancelled, OutcomeCancelled}, outcomes)
}

func mustPacket(t *testing.T, p models.SyncPacket) []byte {
	t.Helper()
	data, err := codec.MarshalPacket(p)
	require.NoError(t, err)
	return data
}
