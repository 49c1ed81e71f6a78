// Package monitoring turns a running world into an HTTP server that can be
// inspected and driven from outside.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/id"
	"github.com/sarchlab/actornet/sim/world"
	"github.com/sarchlab/actornet/tracing"
)

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	world      *world.World
	counts     *tracing.CountTracer
	portNumber int

	// Serializes the tick requests coming from different clients.
	runLock sync.Mutex

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterWorld registers the world to monitor.
func (m *Monitor) RegisterWorld(w *world.World) {
	m.world = w
}

// RegisterCountTracer lets the monitor report the traffic of each actor.
func (m *Monitor) RegisterCountTracer(t *tracing.CountTracer) {
	m.counts = t
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        id.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler serving the monitoring API.
func (m *Monitor) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now).Methods(http.MethodGet)
	r.HandleFunc("/api/tick", m.tick).Methods(http.MethodPost)
	r.HandleFunc("/api/run/{n:[0-9]+}", m.run).Methods(http.MethodPost)
	r.HandleFunc("/api/actors", m.listActors).Methods(http.MethodGet)
	r.HandleFunc("/api/actor/{id}", m.actorDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/topology", m.topology).Methods(http.MethodGet)
	r.HandleFunc("/api/traffic/{id}", m.reportTraffic).Methods(http.MethodGet)
	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)

	return r
}

// StartServer starts the monitor as a web server and returns the port it
// listens on.
func (m *Monitor) StartServer() int {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	port := listener.Addr().(*net.TCPAddr).Port
	fmt.Fprintf(
		os.Stderr,
		"Monitoring simulation with http://localhost:%d\n",
		port)

	go func() {
		err := m.server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			dieOnErr(err)
		}
	}()

	return port
}

// URL returns the address of the running server.
func (m *Monitor) URL() string {
	if m.listener == nil {
		return ""
	}

	return fmt.Sprintf("http://localhost:%d",
		m.listener.Addr().(*net.TCPAddr).Port)
}

// OpenInBrowser opens the API root of the running server in the default
// browser.
func (m *Monitor) OpenInBrowser() error {
	if m.listener == nil {
		return errors.New("monitoring server is not running")
	}

	return browser.OpenURL(m.URL() + "/api/actors")
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

type nowRsp struct {
	Now   uint64 `json:"now"`
	Error string `json:"error,omitempty"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, nowRsp{Now: m.world.CurrentTick()})
}

func (m *Monitor) tick(w http.ResponseWriter, _ *http.Request) {
	m.runLock.Lock()
	defer m.runLock.Unlock()

	rsp := nowRsp{}
	if err := m.world.Tick(); err != nil {
		rsp.Error = err.Error()
	}

	rsp.Now = m.world.CurrentTick()
	writeJSON(w, rsp)
}

func (m *Monitor) run(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(mux.Vars(r)["n"], 10, 32)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.runLock.Lock()
	defer m.runLock.Unlock()

	bar := m.CreateProgressBar(m.world.Name(), n)
	defer m.CompleteProgressBar(bar)

	var errs []error

	for i := uint64(0); i < n; i++ {
		bar.IncrementInProgress(1)

		if err := m.world.Tick(); err != nil {
			errs = append(errs, err)
		}

		bar.MoveInProgressToFinished(1)
	}

	rsp := nowRsp{Now: m.world.CurrentTick()}
	if err := errors.Join(errs...); err != nil {
		rsp.Error = err.Error()
	}

	writeJSON(w, rsp)
}

type actorRsp struct {
	ID       sim.ActorID  `json:"id"`
	Name     string       `json:"name"`
	Edges    []sim.EdgeID `json:"edges"`
	Incoming int          `json:"incoming"`
	Outgoing int          `json:"outgoing"`
}

func (m *Monitor) listActors(w http.ResponseWriter, _ *http.Request) {
	actors := make([]actorRsp, 0)

	for _, actorID := range m.world.Actors() {
		view, found := m.world.Actor(actorID)
		if !found {
			continue
		}

		edges := view.Edges
		if edges == nil {
			edges = []sim.EdgeID{}
		}

		actors = append(actors, actorRsp{
			ID:       view.ID,
			Name:     view.Name,
			Edges:    edges,
			Incoming: view.IncomingLen(),
			Outgoing: view.OutgoingLen(),
		})
	}

	writeJSON(w, actors)
}

func (m *Monitor) actorDetails(w http.ResponseWriter, r *http.Request) {
	view, ok := m.findActorOr404(w, r)
	if !ok {
		return
	}

	buf := bytes.NewBuffer(nil)

	var err error

	found := m.world.InspectComputer(view.ID, func(c sim.Computer) {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(c)
		serializer.SetMaxDepth(1)
		err = serializer.Serialize(buf)
	})

	if !found {
		http.Error(w, "Actor not found", http.StatusNotFound)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_, err = w.Write(buf.Bytes())
	dieOnErr(err)
}

type edgeRsp struct {
	ID sim.EdgeID  `json:"id"`
	A  sim.ActorID `json:"a"`
	B  sim.ActorID `json:"b"`
}

type topologyRsp struct {
	Nodes []sim.ActorID `json:"nodes"`
	Edges []edgeRsp     `json:"edges"`
}

func (m *Monitor) topology(w http.ResponseWriter, _ *http.Request) {
	view := m.world.Topology()
	rsp := topologyRsp{
		Nodes: view.Nodes(),
		Edges: []edgeRsp{},
	}

	if rsp.Nodes == nil {
		rsp.Nodes = []sim.ActorID{}
	}

	seen := make(map[sim.EdgeID]bool)

	for _, node := range rsp.Nodes {
		for _, e := range view.EdgesOf(node) {
			if seen[e] {
				continue
			}

			seen[e] = true

			if edge, ok := view.Endpoints(e); ok {
				rsp.Edges = append(rsp.Edges,
					edgeRsp{ID: edge.ID, A: edge.A, B: edge.B})
			}
		}
	}

	writeJSON(w, rsp)
}

type trafficRsp struct {
	ID       sim.ActorID `json:"id"`
	Sent     uint64      `json:"sent"`
	Received uint64      `json:"received"`
	Failures uint64      `json:"failures"`
}

func (m *Monitor) reportTraffic(w http.ResponseWriter, r *http.Request) {
	if m.counts == nil {
		http.Error(w, "traffic is not traced", http.StatusNotFound)
		return
	}

	view, ok := m.findActorOr404(w, r)
	if !ok {
		return
	}

	writeJSON(w, trafficRsp{
		ID:       view.ID,
		Sent:     m.counts.Sent(view.ID),
		Received: m.counts.Received(view.ID),
		Failures: m.counts.Failures(view.ID),
	})
}

func (m *Monitor) findActorOr404(
	w http.ResponseWriter,
	r *http.Request,
) (world.ActorView, bool) {
	actorID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid actor id", http.StatusBadRequest)
		return world.ActorView{}, false
	}

	view, found := m.world.Actor(sim.ActorID(actorID))
	if !found {
		http.Error(w, "Actor not found", http.StatusNotFound)
		return world.ActorView{}, false
	}

	return view, true
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second
	if s := r.URL.Query().Get("seconds"); s != "" {
		d, err := time.ParseDuration(s + "s")
		if err != nil || d <= 0 {
			http.Error(w, "invalid duration", http.StatusBadRequest)
			return
		}

		duration = d
	}

	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(duration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, hottestFunctions(prof))
}

type profileFuncRsp struct {
	Name string `json:"name"`
	Flat int64  `json:"flat"`
	Cum  int64  `json:"cum"`
}

type profileRsp struct {
	Unit      string           `json:"unit"`
	Functions []profileFuncRsp `json:"functions"`
}

// hottestFunctions sums the last sample value per function and orders the
// functions by flat value, highest first.
func hottestFunctions(prof *profile.Profile) profileRsp {
	rsp := profileRsp{Functions: []profileFuncRsp{}}
	if len(prof.SampleType) == 0 {
		return rsp
	}

	valueIndex := len(prof.SampleType) - 1
	rsp.Unit = prof.SampleType[valueIndex].Unit

	funcs := make(map[string]*profileFuncRsp)
	get := func(name string) *profileFuncRsp {
		f, found := funcs[name]
		if !found {
			f = &profileFuncRsp{Name: name}
			funcs[name] = f
		}

		return f
	}

	for _, sample := range prof.Sample {
		if len(sample.Value) <= valueIndex {
			continue
		}

		value := sample.Value[valueIndex]
		seen := make(map[string]bool)

		for i, loc := range sample.Location {
			for j, line := range loc.Line {
				if line.Function == nil {
					continue
				}

				name := line.Function.Name
				if i == 0 && j == 0 {
					get(name).Flat += value
				}

				if !seen[name] {
					seen[name] = true
					get(name).Cum += value
				}
			}
		}
	}

	for _, f := range funcs {
		rsp.Functions = append(rsp.Functions, *f)
	}

	sort.Slice(rsp.Functions, func(i, j int) bool {
		a, b := rsp.Functions[i], rsp.Functions[j]
		if a.Flat != b.Flat {
			return a.Flat > b.Flat
		}

		if a.Cum != b.Cum {
			return a.Cum > b.Cum
		}

		return a.Name < b.Name
	})

	return rsp
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
